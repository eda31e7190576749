package secrets

import (
	"strings"
	"testing"
)

func TestRedactorMask(t *testing.T) {
	r := NewRedactor()
	r.Add("hunter2", "tok-3c9f")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single occurrence",
			in:   "mysql --password=hunter2 -e 'select 1'",
			want: "mysql --password=[redacted] -e 'select 1'",
		},
		{
			name: "multiple values",
			in:   "login hunter2 with tok-3c9f",
			want: "login [redacted] with [redacted]",
		},
		{
			name: "repeated value",
			in:   "hunter2 hunter2",
			want: "[redacted] [redacted]",
		},
		{
			name: "no secrets",
			in:   "all services healthy",
			want: "all services healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Mask(tt.in); got != tt.want {
				t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRedactorIgnoresShortValues(t *testing.T) {
	r := NewRedactor()
	r.Add("", "x")

	in := "x marks the spot"
	if got := r.Mask(in); got != in {
		t.Errorf("Mask(%q) = %q, want unchanged", in, got)
	}
}

func TestRedactorEmptyPassthrough(t *testing.T) {
	r := NewRedactor()
	in := "nothing registered"
	if got := r.Mask(in); got != in {
		t.Errorf("Mask(%q) = %q, want unchanged", in, got)
	}
}

func TestRedactorMaskBytes(t *testing.T) {
	r := NewRedactor()
	r.Add("hunter2")

	got := string(r.MaskBytes([]byte("password is hunter2\n")))
	if strings.Contains(got, "hunter2") {
		t.Errorf("MaskBytes leaked secret: %q", got)
	}
}
