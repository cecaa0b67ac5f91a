package vitel

import "fmt"

// InstallSettings controls which verbs Install binds on an app
type InstallSettings struct {
	AppFilter       bool
	AppService      bool
	RegisterService bool

	// ServiceProps are applied to every App.Service registration after the
	// caller's own options
	ServiceProps map[string]any
}

// InstallOption is a modifier for InstallSettings
type InstallOption func(*InstallSettings)

// WithoutFilterVerb leaves App.Filter unbound
func WithoutFilterVerb() InstallOption {
	return func(s *InstallSettings) { s.AppFilter = false }
}

// WithoutServiceVerb leaves App.Service unbound
func WithoutServiceVerb() InstallOption {
	return func(s *InstallSettings) { s.AppService = false }
}

// WithoutDirectory skips the $services directory altogether
func WithoutDirectory() InstallOption {
	return func(s *InstallSettings) { s.RegisterService = false }
}

// WithServiceProps sets values merged into every App.Service registration
func WithServiceProps(props map[string]any) InstallOption {
	return func(s *InstallSettings) {
		for k, v := range props {
			s.ServiceProps[k] = v
		}
	}
}

// Install binds the Service and Filter verbs on app and realizes the $services
// directory up front so later registrations can record into it.
func Install(app *App, opts ...InstallOption) error {
	if app == nil {
		return &MissingHostError{}
	}

	settings := &InstallSettings{
		AppFilter:       true,
		AppService:      true,
		RegisterService: true,
		ServiceProps:    map[string]any{},
	}
	for _, opt := range opts {
		opt(settings)
	}

	app.mu.Lock()
	app.install = settings
	app.mu.Unlock()

	if !settings.RegisterService {
		app.registry.noDir.Store(true)
		return nil
	}
	if err := app.registry.bootstrap(); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	return nil
}

func (a *App) settings() *InstallSettings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.install
}

// Service registers spec under name. A nil spec reads the service published
// under name instead, returning nil when there is none.
func (a *App) Service(name string, spec *Spec, opts ...Option) (Service, error) {
	s := a.settings()
	if s == nil || !s.AppService {
		return nil, fmt.Errorf("%w: Service", ErrNotInstalled)
	}

	if spec == nil {
		v, ok := a.Property(name)
		if !ok {
			return nil, nil
		}
		svc, _ := v.(Service)
		return svc, nil
	}

	if len(s.ServiceProps) > 0 {
		opts = append(opts, WithValues(s.ServiceProps))
	}
	return a.registry.Register(name, spec, opts...)
}

// Filter registers fn under name. A nil fn reads the filter instead, returning
// nil when there is none.
func (a *App) Filter(name string, fn Filter) (Filter, error) {
	s := a.settings()
	if s == nil || !s.AppFilter {
		return nil, fmt.Errorf("%w: Filter", ErrNotInstalled)
	}

	if fn == nil {
		f, _ := a.registry.LookupFilter(name)
		return f, nil
	}
	return a.registry.RegisterFilter(name, fn)
}

// NewService is the low-level registration entry point. It requires WithApp;
// the name comes from WithName or the spec itself.
func NewService(spec *Spec, opts ...Option) (Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.App == nil {
		if _, err := Normalize(spec, o.Extend, o); err != nil {
			return nil, err
		}
		return nil, &MissingHostError{Name: o.Name}
	}
	return o.App.registry.Register(o.Name, spec, opts...)
}
