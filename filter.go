package vitel

import (
	"fmt"
	"sort"
	"sync"
)

// FiltersName is the reserved name of the filter holder service
const FiltersName = "$filters"

// Filter is a named pure function applied to a value with per-call options
type Filter func(value any, opts map[string]any) (any, error)

// FilterMap holds the filters of one app. Redefinition overwrites silently.
type FilterMap struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

func newFilterMap() *FilterMap {
	return &FilterMap{filters: make(map[string]Filter)}
}

func (m *FilterMap) store(name string, fn Filter) {
	m.mu.Lock()
	m.filters[name] = fn
	m.mu.Unlock()
}

// Lookup returns the filter stored under name
func (m *FilterMap) Lookup(name string) (Filter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.filters[name]
	return fn, ok
}

// Names returns the sorted filter names
func (m *FilterMap) Names() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.filters))
	for k := range m.filters {
		out = append(out, k)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Apply runs the filter stored under name
func (m *FilterMap) Apply(name string, value any, opts map[string]any) (any, error) {
	fn, ok := m.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown filter %q", name)
	}
	return fn(value, opts)
}

func filtersSpec(r *Registry) *Spec {
	return &Spec{
		Name: FiltersName,
		Methods: map[string]Method{
			"apply": func(s *Instance, args ...any) (any, error) {
				if len(args) < 2 {
					return nil, fmt.Errorf("apply: want (name, value[, opts]), got %d args", len(args))
				}
				name, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("apply: name must be a string, got %T", args[0])
				}
				var opts map[string]any
				if len(args) > 2 {
					opts, _ = args[2].(map[string]any)
				}
				return r.filters().Apply(name, args[1], opts)
			},
		},
		realized: func(*Instance) {
			r.filters()
		},
	}
}

// RegisterFilter stores fn under name, realizing $filters on first use. The
// filter is also mirrored as a member of the $filters service.
func (r *Registry) RegisterFilter(name string, fn Filter) (Filter, error) {
	if !ValidFilterName(name) {
		return nil, &InvalidNameError{Kind: "filter", Name: name}
	}
	if fn == nil {
		return nil, fmt.Errorf("filter %s: nil function", name)
	}

	svc, err := r.Register(FiltersName, filtersSpec(r))
	if err != nil {
		return nil, err
	}

	op := &Operation{Kind: OpFilter, Name: name, App: r.app}
	_, err = r.app.wrap(op, func() (any, error) {
		r.filters().store(name, fn)
		// members the service defines itself keep precedence over the mirror
		if !svc.Has(name) || isMirroredFilter(svc, name) {
			svc.Set(name, fn)
		}
		return fn, nil
	})
	if err != nil {
		return nil, fmt.Errorf("registering filter %s: %w", name, err)
	}

	r.app.logger.Debug("filter registered", "filter", name)
	return fn, nil
}

func isMirroredFilter(svc Service, name string) bool {
	v, ok := svc.Get(name)
	if !ok {
		return false
	}
	_, isFilter := v.(Filter)
	return isFilter
}

func (r *Registry) filters() *FilterMap {
	r.filterMap.CompareAndSwap(nil, newFilterMap())
	return r.filterMap.Load()
}

// LookupFilter returns the filter stored under name. It never realizes $filters.
func (r *Registry) LookupFilter(name string) (Filter, bool) {
	m := r.filterMap.Load()
	if m == nil {
		return nil, false
	}
	return m.Lookup(name)
}

// FilterNames returns the sorted names of every registered filter
func (r *Registry) FilterNames() []string {
	m := r.filterMap.Load()
	if m == nil {
		return nil
	}
	return m.Names()
}

// RegisterFilter is the low-level entry point: it requires WithApp and WithName
func RegisterFilter(fn Filter, opts ...Option) (Filter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.App == nil {
		return nil, &MissingHostError{Name: o.Name}
	}
	return o.App.registry.RegisterFilter(o.Name, fn)
}
