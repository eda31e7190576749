package secrets

import (
	"strings"
	"sync"
)

const mask = "[redacted]"

// Redactor masks known secret values in text before it reaches any log or
// report. Every resolved secret must be registered here; captured step output
// and log fields pass through Mask on the way out.
type Redactor struct {
	mu       sync.RWMutex
	values   []string
	replacer *strings.Replacer
}

// NewRedactor creates an empty redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Add registers secret values to be masked. Empty and single-character values
// are ignored; masking them would mangle ordinary output.
func (r *Redactor) Add(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, v := range values {
		if len(v) < 2 {
			continue
		}
		r.values = append(r.values, v)
		changed = true
	}
	if changed {
		pairs := make([]string, 0, len(r.values)*2)
		for _, v := range r.values {
			pairs = append(pairs, v, mask)
		}
		r.replacer = strings.NewReplacer(pairs...)
	}
}

// Mask returns s with every registered secret value replaced.
func (r *Redactor) Mask(s string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.replacer == nil {
		return s
	}
	return r.replacer.Replace(s)
}

// MaskBytes is Mask for captured output buffers.
func (r *Redactor) MaskBytes(b []byte) []byte {
	r.mu.RLock()
	replacer := r.replacer
	r.mu.RUnlock()

	if replacer == nil {
		return b
	}
	return []byte(replacer.Replace(string(b)))
}
