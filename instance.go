package vitel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BoundMethod is a Method already bound to its instance
type BoundMethod func(args ...any) (any, error)

// Instance is a realized service: state, bound methods, props and readiness.
// It is owned by the registry entry that created it.
type Instance struct {
	id         uuid.UUID
	name       string
	app        *App
	spec       *Spec
	opts       *Options
	logger     *slog.Logger
	order      uint64
	realizedAt time.Time

	mu    sync.RWMutex
	state State

	// methods and props are fixed at realization
	methods map[string]Method
	props   map[string]any

	readiness *readiness
}

func newInstance(app *App, spec *Spec, o *Options) *Instance {
	inst := &Instance{
		id:     uuid.New(),
		name:   spec.Name,
		app:    app,
		spec:   spec,
		opts:   o,
		logger: app.logger.With("service", spec.Name),
		props:  o.resolveProps(),
	}

	// Mixins sit underneath the spec: later mixins override earlier ones and the
	// spec's own members override all of them
	state := State{}
	methods := map[string]Method{}
	for _, m := range spec.Mixins {
		for k, v := range m.Data {
			state[k] = cloneValue(v)
		}
		for k, fn := range m.Methods {
			methods[k] = fn
		}
	}
	if spec.Data != nil {
		for k, v := range spec.Data() {
			state[k] = v
		}
	}
	for k, fn := range spec.Methods {
		methods[k] = fn
	}

	inst.state = state
	inst.methods = methods
	inst.readiness = newReadiness(spec, o, app.promiseTimeout, inst.logger)
	return inst
}

// Name returns the service name
func (s *Instance) Name() string { return s.name }

// ID returns the identity of this realization
func (s *Instance) ID() uuid.UUID { return s.id }

// App returns the host app
func (s *Instance) App() *App { return s.app }

// Order returns the realization sequence number within the registry
func (s *Instance) Order() uint64 { return s.order }

// RealizedAt returns when the instance was realized
func (s *Instance) RealizedAt() time.Time { return s.realizedAt }

// Logger returns the instance logger, tagged with the service name
func (s *Instance) Logger() *slog.Logger { return s.logger }

// Instance returns s
func (s *Instance) Instance() *Instance { return s }

// Ready reports whether the lifecycle chain has settled
func (s *Instance) Ready() bool { return s.readiness.ready.Load() }

// Promise returns the memoized readiness future
func (s *Instance) Promise() *Future { return s.readiness.promise() }

// Get reads a member: "ready", then state, then methods, then the built-in
// "promise" and "debug" members, then props
func (s *Instance) Get(key string) (any, bool) {
	if key == "ready" {
		return s.Ready(), true
	}

	s.mu.RLock()
	v, ok := s.state[key]
	s.mu.RUnlock()
	if ok {
		return v, true
	}

	if m, ok := s.methods[key]; ok {
		return s.bind(m), true
	}
	if m, ok := builtin(key); ok {
		return s.bind(m), true
	}
	if p, ok := s.props[key]; ok {
		return p, true
	}
	return nil, false
}

// Set writes a state member
func (s *Instance) Set(key string, val any) {
	s.mu.Lock()
	s.state[key] = val
	s.mu.Unlock()
}

// Update replaces a state member with fn(old) atomically and returns the new value
func (s *Instance) Update(key string, fn func(old any) any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := fn(s.state[key])
	s.state[key] = v
	return v
}

// Has reports whether key names a member of the instance
func (s *Instance) Has(key string) bool {
	switch key {
	case "ready", "promise", "debug":
		return true
	}

	s.mu.RLock()
	_, ok := s.state[key]
	s.mu.RUnlock()
	if ok {
		return true
	}
	if _, ok := s.methods[key]; ok {
		return true
	}
	_, ok = s.props[key]
	return ok
}

// Call invokes a method bound to the instance
func (s *Instance) Call(method string, args ...any) (any, error) {
	if m, ok := s.methods[method]; ok {
		return m(s, args...)
	}

	if m, ok := builtin(method); ok {
		return m(s, args...)
	}
	return nil, fmt.Errorf("%w %q on service %s", ErrUnknownMethod, method, s.name)
}

// Invoke fails on a bare instance; only a Proxy is callable
func (s *Instance) Invoke(args ...any) (any, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotCallable, s.name)
}

// Prop returns a prop handed to the instance at realization
func (s *Instance) Prop(key string) (any, bool) {
	v, ok := s.props[key]
	return v, ok
}

// Props returns a copy of the instance props
func (s *Instance) Props() map[string]any {
	out := make(map[string]any, len(s.props))
	for k, v := range s.props {
		out[k] = v
	}
	return out
}

// Global reads a member of the host namespace. It is unavailable when the
// service was registered without CopyGlobals.
func (s *Instance) Global(name string) (any, bool) {
	if !s.opts.CopyGlobals {
		return nil, false
	}
	return s.app.Property(name)
}

// Debug logs msg when the service was registered with Debug
func (s *Instance) Debug(msg string, args ...any) {
	if !s.opts.Debug {
		return
	}
	if s.opts.DebugLogger != nil {
		s.opts.DebugLogger(s.name, msg, args...)
		return
	}
	s.logger.Info(msg, args...)
}

// Render runs the spec's render function
func (s *Instance) Render() any {
	return s.spec.Render(s)
}

// Snapshot returns a copy of the state
func (s *Instance) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Keys returns the sorted state keys
func (s *Instance) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.state))
	for k := range s.state {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Methods returns the sorted method names
func (s *Instance) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for k := range s.methods {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// builtin returns the members every instance answers to besides its own
func builtin(key string) (Method, bool) {
	switch key {
	case "promise":
		return func(s *Instance, _ ...any) (any, error) {
			return s.Promise(), nil
		}, true
	case "debug":
		return func(s *Instance, args ...any) (any, error) {
			if len(args) > 0 {
				s.Debug(fmt.Sprint(args[0]), args[1:]...)
			}
			return nil, nil
		}, true
	}
	return nil, false
}

func (s *Instance) bind(m Method) BoundMethod {
	return func(args ...any) (any, error) {
		return m(s, args...)
	}
}

func (s *Instance) mount(ctx context.Context) {
	s.readiness.mount(ctx, s)
}
