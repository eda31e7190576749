package secrets

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestMaskingWriter(t *testing.T) {
	r := NewRedactor()
	r.Add("hunter2")

	var out bytes.Buffer
	w := NewMaskingWriter(&out, r)

	// Secret split across two writes within one line.
	if _, err := w.Write([]byte("password is hun")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := w.Write([]byte("ter2 ok\nsecond line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got := out.String()
	if strings.Contains(got, "hunter2") {
		t.Fatalf("secret leaked through masking writer: %q", got)
	}
	if !strings.Contains(got, "password is [redacted] ok") {
		t.Errorf("unexpected masked output: %q", got)
	}
	if !strings.Contains(got, "second line") {
		t.Errorf("ordinary output dropped: %q", got)
	}
}

func TestMaskingWriterFlushesPartialLine(t *testing.T) {
	r := NewRedactor()
	r.Add("tok-3c9f")

	var out bytes.Buffer
	w := NewMaskingWriter(&out, r)

	if _, err := w.Write([]byte("token=tok-3c9f")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("partial line flushed early: %q", out.String())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := out.String(); got != "token=[redacted]" {
		t.Errorf("Close flushed %q, want %q", got, "token=[redacted]")
	}
}

// One writer is shared between a process's stdout and stderr, each pumped by
// its own goroutine. Interleaved writes must neither corrupt the line buffer
// nor split a secret across masking boundaries.
func TestMaskingWriterConcurrentStreams(t *testing.T) {
	r := NewRedactor()
	r.Add("hunter2")

	var out bytes.Buffer
	w := NewMaskingWriter(&out, r)

	const iterations = 200
	var wg sync.WaitGroup
	for _, stream := range []string{"out", "err"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				line := fmt.Sprintf("%s %d token=hunter2\n", stream, i)
				if _, err := w.Write([]byte(line)); err != nil {
					t.Errorf("Write failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got := out.String()
	if strings.Contains(got, "hunter2") {
		t.Fatalf("secret leaked under concurrent writes: %q", got)
	}

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2*iterations {
		t.Fatalf("expected %d lines, got %d", 2*iterations, len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "token=[redacted]") {
			t.Fatalf("corrupted line: %q", line)
		}
	}
}
