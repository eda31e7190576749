package secrets

import (
	"bytes"
	"io"
	"sync"
)

// MaskingWriter redacts registered secret values from a byte stream before
// forwarding it. Output is buffered per line so a value split across Write
// calls is still caught; Close flushes any unterminated final line.
//
// Safe for concurrent use: a process's stdout and stderr may share one
// writer, and each stream is pumped by its own goroutine.
type MaskingWriter struct {
	dst      io.Writer
	redactor *Redactor

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewMaskingWriter wraps dst with redaction through r.
func NewMaskingWriter(dst io.Writer, r *Redactor) *MaskingWriter {
	return &MaskingWriter{dst: dst, redactor: r}
}

// Write buffers p and forwards complete, masked lines to the destination.
func (w *MaskingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)

	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line, keep it buffered for the next Write.
			w.buf.Write(line)
			break
		}
		if _, err := w.dst.Write(w.redactor.MaskBytes(line)); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Close flushes the remaining partial line.
func (w *MaskingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return nil
	}
	remainder := w.buf.Bytes()
	w.buf.Reset()
	_, err := w.dst.Write(w.redactor.MaskBytes(remainder))
	return err
}
