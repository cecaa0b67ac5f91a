package vitel

import "context"

// Extension provides hooks into the registration lifecycle of an app
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is added to an app
	Init(app *App) error

	// Wrap intercepts operations (register, filter)
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnError observes failed operations and rejected lifecycle chains
	OnError(err error, op *Operation, app *App)

	// Dispose is called when the app is disposed
	Dispose(app *App) error
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(app *App) error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation, app *App) {
}

func (e *BaseExtension) Dispose(app *App) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind OperationKind
	Name string
	App  *App
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpRegister indicates a service realization
	OpRegister OperationKind = "register"
	// OpFilter indicates a filter registration
	OpFilter OperationKind = "filter"
	// OpLifecycle indicates a lifecycle chain settling with an error
	OpLifecycle OperationKind = "lifecycle"
)
