package config

import (
	"sync/atomic"

	"github.com/HendryAvila/specgap/internal/model"
)

// Holder publishes the current Bundle to concurrent runs. A reload
// replaces the whole Bundle in one atomic store; runs that already
// loaded the previous pointer keep using it unchanged.
type Holder struct {
	current atomic.Pointer[Bundle]
}

// NewHolder validates b and returns a Holder serving it.
func NewHolder(b *Bundle) (*Holder, error) {
	h := &Holder{}
	if err := h.Swap(b); err != nil {
		return nil, err
	}
	return h, nil
}

// Load returns the current Bundle. Callers must not mutate it.
func (h *Holder) Load() *Bundle {
	return h.current.Load()
}

// Swap validates b and, only if it is valid, makes it current.
func (h *Holder) Swap(b *Bundle) error {
	if b == nil {
		return model.ConfigError("bundle", "nil bundle")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	h.current.Store(b)
	return nil
}

// Reload loads dir and swaps it in. On error the current Bundle stays.
func (h *Holder) Reload(dir string) error {
	b, err := LoadDir(dir)
	if err != nil {
		return err
	}
	return h.Swap(b)
}
