package vitel

import "fmt"

// Service is the member-access and invocation surface shared by a realized
// Instance and its callable Proxy
type Service interface {
	Name() string
	Get(key string) (any, bool)
	Set(key string, val any)
	Has(key string) bool
	Call(method string, args ...any) (any, error)
	Invoke(args ...any) (any, error)
	Ready() bool
	Promise() *Future
	Instance() *Instance
}

// Proxy makes a service invocable while forwarding every member read, write and
// existence check to the wrapped instance
type Proxy struct {
	target *Instance
	call   Method
}

// NewProxy wraps svc around its spec's call entry point. Wrapping a Proxy
// returns it unchanged.
func NewProxy(svc Service) *Proxy {
	if p, ok := svc.(*Proxy); ok {
		return p
	}
	inst := svc.Instance()
	return &Proxy{target: inst, call: inst.spec.Call}
}

// Callable reports whether svc can be invoked directly
func Callable(svc Service) bool {
	p, ok := svc.(*Proxy)
	return ok && p.call != nil
}

func (p *Proxy) Name() string                                 { return p.target.Name() }
func (p *Proxy) Get(key string) (any, bool)                   { return p.target.Get(key) }
func (p *Proxy) Set(key string, val any)                      { p.target.Set(key, val) }
func (p *Proxy) Has(key string) bool                          { return p.target.Has(key) }
func (p *Proxy) Call(method string, args ...any) (any, error) { return p.target.Call(method, args...) }
func (p *Proxy) Ready() bool                                  { return p.target.Ready() }
func (p *Proxy) Promise() *Future                             { return p.target.Promise() }

// Instance returns the wrapped instance
func (p *Proxy) Instance() *Instance { return p.target }

// Invoke forwards args to the call entry point bound to the wrapped instance
func (p *Proxy) Invoke(args ...any) (any, error) {
	if p.call == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, p.target.Name())
	}
	return p.call(p.target, args...)
}
