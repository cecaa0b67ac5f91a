package vitel

import "fmt"

// Controller provides lifecycle control for one named service of an app
type Controller struct {
	app  *App
	name string
}

// Accessor creates a controller for the service called name
func Accessor(app *App, name string) *Controller {
	return &Controller{app: app, name: name}
}

// Name returns the controlled service name
func (c *Controller) Name() string {
	return c.name
}

// Get returns the realized service
func (c *Controller) Get() (Service, error) {
	svc, ok := c.app.registry.Lookup(c.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, c.name)
	}
	return svc, nil
}

// Peek returns the realized service without an error when it is missing
func (c *Controller) Peek() (Service, bool) {
	return c.app.registry.Lookup(c.name)
}

// Reload re-creates the service from its last registration, replacing the entry
func (c *Controller) Reload() (Service, error) {
	reg, ok := c.app.registry.lastRegistration(c.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, c.name)
	}
	opts := append(append([]Option(nil), reg.opts...), WithForce(true))
	return c.app.registry.Register(c.name, reg.spec, opts...)
}

// IsRealized checks if the service has a registry entry
func (c *Controller) IsRealized() bool {
	_, ok := c.app.registry.Lookup(c.name)
	return ok
}

// IsReady checks if the service is realized and its lifecycle chain has settled
func (c *Controller) IsReady() bool {
	svc, ok := c.app.registry.Lookup(c.name)
	return ok && svc.Ready()
}

// Promise returns the readiness future of the service. When the service is
// not realized yet it waits up to the app's promise timeout for it to appear.
func (c *Controller) Promise() *Future {
	svc, ok := c.app.registry.await(c.name, c.app.promiseTimeout)
	if !ok {
		return rejectedFuture(&PromiseUnavailableError{Service: c.name, Waited: c.app.promiseTimeout})
	}
	return svc.Promise()
}
