package vitel

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Entry is the registry record of a realized service
type Entry struct {
	Name       string
	Service    Service
	ID         uuid.UUID
	Order      uint64
	RealizedAt time.Time
}

type registration struct {
	spec *Spec
	opts []Option
}

// Registry owns the services and filters of one app. Each name is realized at
// most once unless re-registered with Force.
type Registry struct {
	app *App

	mu       sync.Mutex
	entries  map[string]*Entry
	last     map[string]registration
	locks    map[string]*sync.Mutex
	arrivals map[string]chan struct{}

	order     atomic.Uint64
	noDir     atomic.Bool
	dir       atomic.Pointer[Directory]
	filterMap atomic.Pointer[FilterMap]
}

func newRegistry(app *App) *Registry {
	return &Registry{
		app:      app,
		entries:  make(map[string]*Entry),
		last:     make(map[string]registration),
		locks:    make(map[string]*sync.Mutex),
		arrivals: make(map[string]chan struct{}),
	}
}

// Register realizes spec under name and returns the resulting service. When
// the name is already taken the existing service is returned untouched, unless
// WithForce is given.
func (r *Registry) Register(name string, spec *Spec, opts ...Option) (Service, error) {
	o := defaultOptions()
	o.App = r.app
	o.Name = name
	for _, opt := range opts {
		opt(o)
	}
	if o.App != nil && o.App != r.app {
		return o.App.registry.Register(name, spec, opts...)
	}

	norm, err := Normalize(spec, o.Extend, o)
	if err != nil {
		return nil, err
	}
	name = norm.Name

	if name != DirectoryName {
		if err := r.bootstrap(); err != nil {
			return nil, err
		}
	}

	lock := r.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	if e, ok := r.entry(name); ok && !o.Force {
		return e.Service, nil
	}

	op := &Operation{Kind: OpRegister, Name: name, App: r.app}
	result, err := r.app.wrap(op, func() (any, error) {
		return r.build(norm, o), nil
	})
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", name, err)
	}
	svc, err := SafeTypeAssertion[Service](result)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", name, err)
	}
	if svc == nil || svc.Instance() == nil {
		return nil, fmt.Errorf("registering %s: extension returned no service", name)
	}

	// Nothing is published until every extension has let the registration through
	r.commit(svc, o)

	r.mu.Lock()
	r.last[name] = registration{spec: spec, opts: append([]Option(nil), opts...)}
	r.mu.Unlock()

	return svc, nil
}

// build creates the instance for spec without publishing it anywhere
func (r *Registry) build(spec *Spec, o *Options) Service {
	name := spec.Name
	inst := newInstance(r.app, spec, o)
	inst.readiness.onError = func(err error) {
		r.app.notifyError(err, &Operation{Kind: OpLifecycle, Name: name, App: r.app})
	}

	if o.WrapCall && spec.Call != nil {
		return NewProxy(inst)
	}
	return inst
}

// commit publishes svc under its name, records it in the directory and starts
// its lifecycle chain
func (r *Registry) commit(svc Service, o *Options) {
	inst := svc.Instance()
	name := inst.name
	inst.order = r.order.Add(1)
	inst.realizedAt = time.Now()

	entry := &Entry{
		Name:       name,
		Service:    svc,
		ID:         inst.id,
		Order:      inst.order,
		RealizedAt: inst.realizedAt,
	}

	r.mu.Lock()
	r.entries[name] = entry
	if ch, ok := r.arrivals[name]; ok {
		close(ch)
		delete(r.arrivals, name)
	}
	r.mu.Unlock()

	if o.Global {
		r.app.globals.store(name, svc)
	}
	if inst.spec.realized != nil {
		inst.spec.realized(inst)
	}
	if dir := r.dir.Load(); dir != nil {
		dir.record(*entry)
	}

	inst.mount(r.app.ctx)

	r.app.logger.Debug("service realized",
		"service", name,
		"order", inst.order,
		"global", o.Global,
		"callable", Callable(svc),
		"forced", o.Force)
	inst.Debug("Service realized", "order", inst.order)
}

// Lookup returns the service realized under name
func (r *Registry) Lookup(name string) (Service, bool) {
	e, ok := r.entry(name)
	if !ok {
		return nil, false
	}
	return e.Service, true
}

// Entries returns every entry in realization order
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Directory returns the $services directory, or nil before it is realized
func (r *Registry) Directory() *Directory {
	return r.dir.Load()
}

func (r *Registry) entry(name string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	return e, ok
}

func (r *Registry) lockFor(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// await blocks until name is realized or timeout elapses
func (r *Registry) await(name string, timeout time.Duration) (Service, bool) {
	r.mu.Lock()
	if e, ok := r.entries[name]; ok {
		r.mu.Unlock()
		return e.Service, true
	}
	ch, ok := r.arrivals[name]
	if !ok {
		ch = make(chan struct{})
		r.arrivals[name] = ch
	}
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return r.Lookup(name)
	case <-timer.C:
		return nil, false
	}
}

func (r *Registry) lastRegistration(name string) (registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.last[name]
	return reg, ok
}
