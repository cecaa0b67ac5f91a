package vitel

import (
	"fmt"
	"sync"
)

// DirectoryName is the reserved name of the service directory
const DirectoryName = "$services"

// Directory records every service realized on an app, itself included. Each
// recorded service is also mirrored as a member of the $services instance.
type Directory struct {
	inst *Instance

	mu      sync.RWMutex
	names   []string
	entries map[string]Entry
}

func newDirectory(inst *Instance) *Directory {
	return &Directory{inst: inst, entries: make(map[string]Entry)}
}

func (d *Directory) record(e Entry) {
	d.mu.Lock()
	if _, ok := d.entries[e.Name]; !ok {
		d.names = append(d.names, e.Name)
	}
	d.entries[e.Name] = e
	d.mu.Unlock()

	d.inst.Set(e.Name, e.Service)
}

// Lookup returns the service recorded under name
func (d *Directory) Lookup(name string) (Service, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[name]
	if !ok {
		return nil, false
	}
	return e.Service, true
}

// Names returns the recorded names in first-realization order
func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.names...)
}

// Entries returns the latest entry of each recorded name, in first-realization order
func (d *Directory) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry, 0, len(d.names))
	for _, n := range d.names {
		out = append(out, d.entries[n])
	}
	return out
}

// Len returns the number of recorded services
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}

// Instance returns the $services instance
func (d *Directory) Instance() *Instance { return d.inst }

func directorySpec(r *Registry) *Spec {
	return &Spec{
		Name: DirectoryName,
		Methods: map[string]Method{
			"names": func(s *Instance, _ ...any) (any, error) {
				return r.Directory().Names(), nil
			},
			"lookup": func(s *Instance, args ...any) (any, error) {
				if len(args) == 0 {
					return nil, fmt.Errorf("lookup: missing service name")
				}
				name, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("lookup: name must be a string, got %T", args[0])
				}
				svc, _ := r.Directory().Lookup(name)
				return svc, nil
			},
		},
		realized: func(inst *Instance) {
			d := newDirectory(inst)
			for _, e := range r.Entries() {
				d.record(e)
			}
			r.dir.Store(d)
		},
	}
}

// bootstrap realizes $services once. It is a no-op when the directory exists
// or was disabled at install time.
func (r *Registry) bootstrap() error {
	if r.noDir.Load() || r.dir.Load() != nil {
		return nil
	}
	_, err := r.Register(DirectoryName, directorySpec(r))
	return err
}
