package vitel

import "context"

// Options control how a Spec is registered and realized
type Options struct {
	App         *App
	Global      bool
	Name        string
	Force       bool
	WrapInit    bool
	WrapCall    bool
	Extend      *ExtensionSet
	Props       map[string]any
	AutoProps   bool
	CopyGlobals bool
	OnLoad      Hook
	OnReady     Hook
	Debug       bool
	DebugLogger DebugLogger

	// Extra holds caller-supplied keys that are not control options
	Extra map[string]any
}

// DebugLogger receives Instance.Debug output when a service runs with Debug
type DebugLogger func(service, msg string, args ...any)

// Option is a modifier for Options
type Option func(*Options)

// controlKeys are the option names consumed by the runtime itself. Anything
// else handed in through WithValue / WithValues is a pass-through prop.
var controlKeys = map[string]struct{}{
	"app":         {},
	"global":      {},
	"name":        {},
	"force":       {},
	"wrapInit":    {},
	"wrapCreated": {},
	"wrapCall":    {},
	"extend":      {},
	"props":       {},
	"autoProps":   {},
	"copyGlobals": {},
	"onLoad":      {},
	"onReady":     {},
	"debug":       {},
	"debugLogger": {},
}

func defaultOptions() *Options {
	return &Options{
		Global:      true,
		WrapInit:    true,
		WrapCall:    true,
		AutoProps:   true,
		CopyGlobals: true,
		Extend:      &ExtensionSet{},
		Props:       map[string]any{},
		Extra:       map[string]any{},
	}
}

// IsControlKey reports whether key names a runtime option rather than a prop
func IsControlKey(key string) bool {
	_, ok := controlKeys[key]
	return ok
}

// WithApp sets the host app
func WithApp(app *App) Option {
	return func(o *Options) { o.App = app }
}

// WithGlobal toggles publishing the service on the app namespace
func WithGlobal(global bool) Option {
	return func(o *Options) { o.Global = global }
}

// WithName overrides the spec's own name
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithForce re-creates the service even when it already exists
func WithForce(force bool) Option {
	return func(o *Options) { o.Force = force }
}

// WithWrapInit toggles readiness tracking of the lifecycle hooks
func WithWrapInit(wrap bool) Option {
	return func(o *Options) { o.WrapInit = wrap }
}

// WithWrapCall toggles wrapping services with a call entry point in a Proxy
func WithWrapCall(wrap bool) Option {
	return func(o *Options) { o.WrapCall = wrap }
}

// WithExtend composes an ExtensionSet into the spec. Repeated use merges, the
// earlier set keeping its keys.
func WithExtend(ext *ExtensionSet) Option {
	return func(o *Options) { o.Extend = o.Extend.Merge(ext) }
}

// WithProps sets explicit props, disabling the AutoProps derivation
func WithProps(props map[string]any) Option {
	return func(o *Options) {
		for k, v := range props {
			o.Props[k] = v
		}
	}
}

// WithAutoProps toggles deriving props from non-control option keys
func WithAutoProps(auto bool) Option {
	return func(o *Options) { o.AutoProps = auto }
}

// WithCopyGlobals toggles access to the app namespace from the instance
func WithCopyGlobals(copyGlobals bool) Option {
	return func(o *Options) { o.CopyGlobals = copyGlobals }
}

// WithOnLoad sets a hook run before any lifecycle hook
func WithOnLoad(hook Hook) Option {
	return func(o *Options) { o.OnLoad = hook }
}

// WithOnReady sets a hook run after every lifecycle hook
func WithOnReady(hook Hook) Option {
	return func(o *Options) { o.OnReady = hook }
}

// WithDebug enables Instance.Debug output
func WithDebug(debug bool) Option {
	return func(o *Options) { o.Debug = debug }
}

// WithDebugLogger replaces the default Debug sink
func WithDebugLogger(logger DebugLogger) Option {
	return func(o *Options) { o.DebugLogger = logger }
}

// WithValue applies one untyped option. Control keys holding a value of the
// expected type set the matching option; every other key lands in Extra.
func WithValue(key string, val any) Option {
	return func(o *Options) { o.apply(key, val) }
}

// WithValues applies WithValue for every entry of values
func WithValues(values map[string]any) Option {
	return func(o *Options) {
		for k, v := range values {
			o.apply(k, v)
		}
	}
}

// OptionsFromMap turns an untyped option map into Options modifiers
func OptionsFromMap(values map[string]any) []Option {
	if len(values) == 0 {
		return nil
	}
	return []Option{WithValues(values)}
}

func (o *Options) apply(key string, val any) {
	switch key {
	case "app":
		if app, ok := val.(*App); ok {
			o.App = app
			return
		}
	case "name":
		if name, ok := val.(string); ok {
			o.Name = name
			return
		}
	case "global":
		if b, ok := val.(bool); ok {
			o.Global = b
			return
		}
	case "force":
		if b, ok := val.(bool); ok {
			o.Force = b
			return
		}
	case "wrapInit", "wrapCreated":
		if b, ok := val.(bool); ok {
			o.WrapInit = b
			return
		}
	case "wrapCall":
		if b, ok := val.(bool); ok {
			o.WrapCall = b
			return
		}
	case "autoProps":
		if b, ok := val.(bool); ok {
			o.AutoProps = b
			return
		}
	case "copyGlobals":
		if b, ok := val.(bool); ok {
			o.CopyGlobals = b
			return
		}
	case "debug":
		if b, ok := val.(bool); ok {
			o.Debug = b
			return
		}
	case "debugLogger":
		if fn, ok := val.(DebugLogger); ok {
			o.DebugLogger = fn
			return
		}
	case "extend":
		if ext, ok := val.(*ExtensionSet); ok {
			o.Extend = o.Extend.Merge(ext)
			return
		}
	case "props":
		if props, ok := val.(map[string]any); ok {
			for k, v := range props {
				o.Props[k] = v
			}
			return
		}
	case "onLoad", "onReady":
		var hook Hook
		switch fn := val.(type) {
		case Hook:
			hook = fn
		case func(context.Context, *Instance) error:
			hook = fn
		}
		if hook != nil {
			if key == "onLoad" {
				o.OnLoad = hook
			} else {
				o.OnReady = hook
			}
			return
		}
	}
	o.Extra[key] = val
}

// resolveProps returns the props handed to the realized instance: explicit Props
// when given, otherwise (with AutoProps) every Extra key that is not a control key.
// The host app is always available as "app".
func (o *Options) resolveProps() map[string]any {
	props := make(map[string]any, len(o.Props)+len(o.Extra)+1)
	switch {
	case len(o.Props) > 0:
		for k, v := range o.Props {
			props[k] = v
		}
	case o.AutoProps:
		for k, v := range o.Extra {
			if !IsControlKey(k) {
				props[k] = v
			}
		}
	}
	props["app"] = o.App
	return props
}
