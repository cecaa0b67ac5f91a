package vitel

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pumped-fn/vitel-go/internal/ctxlog"
)

// App is the host a registry belongs to. Services and filters registered on one
// App are never visible from another.
type App struct {
	id             uuid.UUID
	ctx            context.Context
	logger         *slog.Logger
	globals        *namespace
	registry       *Registry
	promiseTimeout time.Duration

	mu         sync.RWMutex
	extensions []Extension
	install    *InstallSettings
}

// AppOption is a modifier for apps
type AppOption func(*App)

// WithLogger sets the app logger. Hooks see it through ctxlog.FromContext.
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithExtension returns an option that registers an extension to an app
func WithExtension(ext Extension) AppOption {
	return func(a *App) {
		if err := a.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// WithPromiseTimeout bounds how long Promise waits for an unscheduled chain
func WithPromiseTimeout(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.promiseTimeout = d
		}
	}
}

// WithProperty publishes val on the app namespace under name
func WithProperty(name string, val any) AppOption {
	return func(a *App) {
		a.globals.store(name, val)
	}
}

// NewApp creates a new app with optional configuration
func NewApp(opts ...AppOption) *App {
	a := &App{
		id:             uuid.New(),
		logger:         ctxlog.New("info", "text", os.Stderr),
		globals:        newNamespace(),
		promiseTimeout: DefaultPromiseTimeout,
		extensions:     []Extension{},
	}
	a.registry = newRegistry(a)
	a.ctx = ctxlog.WithLogger(context.Background(), a.logger)

	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("app", a.id.String())
	a.ctx = ctxlog.WithLogger(context.Background(), a.logger)

	return a
}

// ID returns the app identity
func (a *App) ID() uuid.UUID { return a.id }

// Logger returns the app logger
func (a *App) Logger() *slog.Logger { return a.logger }

// Context returns the base context handed to lifecycle hooks
func (a *App) Context() context.Context { return a.ctx }

// Registry returns the app's service registry
func (a *App) Registry() *Registry { return a.registry }

// PromiseTimeout returns the bound applied by Promise to unscheduled chains
func (a *App) PromiseTimeout() time.Duration { return a.promiseTimeout }

// Property reads a member of the app namespace
func (a *App) Property(name string) (any, bool) {
	return a.globals.load(name)
}

// SetProperty publishes val on the app namespace under name
func (a *App) SetProperty(name string, val any) {
	a.globals.store(name, val)
}

// Properties returns the sorted names published on the app namespace
func (a *App) Properties() []string {
	return a.globals.names()
}

// UseExtension registers an extension to the app
func (a *App) UseExtension(ext Extension) error {
	a.mu.Lock()
	a.extensions = append(a.extensions, ext)
	sort.SliceStable(a.extensions, func(i, j int) bool {
		return a.extensions[i].Order() < a.extensions[j].Order()
	})
	a.mu.Unlock()

	return ext.Init(a)
}

// Installed reports whether Install has run on the app
func (a *App) Installed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.install != nil
}

// WaitReady waits for the lifecycle chain of every realized service. The first
// rejected chain is returned.
func (a *App) WaitReady(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range a.registry.Entries() {
		svc := e.Service
		g.Go(func() error {
			return svc.Promise().Wait(gctx)
		})
	}
	return g.Wait()
}

// Dispose disposes every extension. Registry entries outlive it.
func (a *App) Dispose() error {
	for _, ext := range a.snapshotExtensions() {
		if err := ext.Dispose(a); err != nil {
			return fmt.Errorf("disposing extension %s: %w", ext.Name(), err)
		}
	}
	return nil
}

func (a *App) snapshotExtensions() []Extension {
	a.mu.RLock()
	defer a.mu.RUnlock()
	exts := make([]Extension, len(a.extensions))
	copy(exts, a.extensions)
	return exts
}

// wrap runs fn through the extension chain, lowest Order outermost
func (a *App) wrap(op *Operation, fn func() (any, error)) (any, error) {
	exts := a.snapshotExtensions()

	next := fn
	for i := len(exts) - 1; i >= 0; i-- {
		ext := exts[i]
		currentNext := next
		next = func() (any, error) {
			return ext.Wrap(a.ctx, currentNext, op)
		}
	}

	result, err := next()
	if err != nil {
		a.notifyError(err, op)
	}
	return result, err
}

func (a *App) notifyError(err error, op *Operation) {
	for _, ext := range a.snapshotExtensions() {
		ext.OnError(err, op, a)
	}
}
