package hrir

import (
	"fmt"
	"sync"
)

// Loader produces a dataset on first use.
type Loader func() (*Dataset, error)

// Registry shares one Field between every renderer in the process. The first
// Acquire loads the dataset; the last release drops it.
type Registry struct {
	mu    sync.Mutex
	field *Field
	refs  int
}

var defaultRegistry Registry

// Acquire returns the process-wide field, loading it if needed.
func Acquire(load Loader) (*Field, func(), error) {
	return defaultRegistry.Acquire(load)
}

// Acquire returns the shared field and a release function. The loader is
// only called when no field is currently held; a failed load leaves the
// registry empty. The release function is idempotent.
func (r *Registry) Acquire(load Loader) (*Field, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.field == nil {
		if load == nil {
			return nil, nil, fmt.Errorf("no dataset loader")
		}
		ds, err := load()
		if err != nil {
			return nil, nil, fmt.Errorf("loading dataset: %w", err)
		}
		field, err := NewField(ds)
		if err != nil {
			return nil, nil, err
		}
		r.field = field
	}

	r.refs++
	field := r.field

	var once sync.Once
	release := func() {
		once.Do(r.release)
	}
	return field, release, nil
}

func (r *Registry) release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refs--
	if r.refs <= 0 {
		r.refs = 0
		r.field = nil
	}
}

// Refs returns the number of outstanding acquisitions.
func (r *Registry) Refs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs
}
