package backend

import (
	"errors"
	"sync"
)

// ErrBackendInUse is returned by Acquire while another binding is live.
var ErrBackendInUse = errors.New("backend: a rendering context is already bound in this process")

// ErrNilBackend is returned by Acquire when no backend is supplied.
var ErrNilBackend = errors.New("backend: nil backend")

var (
	bindingMu sync.Mutex
	bound     *Binding
)

// Binding is exclusive ownership of the process's rendering backend.
type Binding struct {
	backend Backend
}

// Acquire binds b for exclusive use. Only one binding may be live per
// process; a second call before Release fails with ErrBackendInUse.
func Acquire(b Backend) (*Binding, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	bindingMu.Lock()
	defer bindingMu.Unlock()
	if bound != nil {
		return nil, ErrBackendInUse
	}
	bound = &Binding{backend: b}
	return bound, nil
}

// Backend returns the bound backend, or nil after Release.
func (bd *Binding) Backend() Backend {
	bindingMu.Lock()
	defer bindingMu.Unlock()
	if bound != bd {
		return nil
	}
	return bd.backend
}

// Release gives up the binding. Releasing twice is harmless.
func (bd *Binding) Release() {
	bindingMu.Lock()
	defer bindingMu.Unlock()
	if bound == bd {
		bound = nil
	}
}

// Bound reports whether any binding is currently live.
func Bound() bool {
	bindingMu.Lock()
	defer bindingMu.Unlock()
	return bound != nil
}
