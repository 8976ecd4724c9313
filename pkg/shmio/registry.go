package shmio

import (
	"errors"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry deduplicates channel handles by name, so independent components
// of one process share a single mapping per segment. All methods are safe
// for concurrent use.
type Registry struct {
	opts     Options
	channels cmap.ConcurrentMap[string, *Channel]
}

// NewRegistry returns a registry whose channels are opened with opts.
func NewRegistry(opts *Options) *Registry {
	return &Registry{
		opts:     opts.clone(),
		channels: cmap.New[*Channel](),
	}
}

// CreateOrAttach returns the registered handle for name, opening one via
// the package-level CreateOrAttach on first use. Concurrent first calls
// race benignly: one handle wins, the others are released.
func (r *Registry) CreateOrAttach(name string, elementCount int, dt DataType, keywords []Keyword) (*Channel, error) {
	if ch, ok := r.channels.Get(name); ok {
		return ch, nil
	}
	ch, err := CreateOrAttach(name, elementCount, dt, keywords, &r.opts)
	if err != nil {
		return nil, err
	}
	if !r.channels.SetIfAbsent(name, ch) {
		_ = ch.Release()
		winner, _ := r.channels.Get(name)
		return winner, nil
	}
	return ch, nil
}

// Attach returns the registered handle for name, blind-attaching on first
// use.
func (r *Registry) Attach(name string) (*Channel, error) {
	if ch, ok := r.channels.Get(name); ok {
		return ch, nil
	}
	ch, err := Attach(name, &r.opts)
	if err != nil {
		return nil, err
	}
	if !r.channels.SetIfAbsent(name, ch) {
		_ = ch.Release()
		winner, _ := r.channels.Get(name)
		return winner, nil
	}
	return ch, nil
}

// Get returns the registered handle for name, if any.
func (r *Registry) Get(name string) (*Channel, bool) {
	return r.channels.Get(name)
}

// Names returns the names with a registered handle, in no particular
// order.
func (r *Registry) Names() []string {
	return r.channels.Keys()
}

// Release drops the handle for name and releases it. Unknown names return
// ErrNotExist.
func (r *Registry) Release(name string) error {
	ch, ok := r.channels.Pop(name)
	if !ok {
		return ErrNotExist
	}
	return ch.Release()
}

// ReleaseAll releases every registered handle and empties the registry,
// joining any release errors.
func (r *Registry) ReleaseAll() error {
	var errs []error
	for _, name := range r.channels.Keys() {
		ch, ok := r.channels.Pop(name)
		if !ok {
			continue
		}
		if err := ch.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
