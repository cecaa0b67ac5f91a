package vitel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventSink struct {
	mu     sync.Mutex
	events []string
}

func (s *eventSink) record(ev string) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type recordingExtension struct {
	BaseExtension
	order int
	sink  *eventSink
	app   *App

	mu   sync.Mutex
	errs []error
}

func newRecordingExtension(name string, order int, sink *eventSink) *recordingExtension {
	return &recordingExtension{BaseExtension: NewBaseExtension(name), order: order, sink: sink}
}

func (e *recordingExtension) Order() int { return e.order }

func (e *recordingExtension) Init(app *App) error {
	e.app = app
	return nil
}

func (e *recordingExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	e.sink.record(e.Name() + ":before:" + op.Name)
	result, err := next()
	e.sink.record(e.Name() + ":after:" + op.Name)
	return result, err
}

func (e *recordingExtension) OnError(err error, op *Operation, app *App) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
	e.sink.record(e.Name() + ":error:" + string(op.Kind) + ":" + op.Name)
}

func TestExtension_WrapOrder(t *testing.T) {
	sink := &eventSink{}
	outer := newRecordingExtension("outer", 1, sink)
	inner := newRecordingExtension("inner", 2, sink)

	app := newTestApp(t, WithExtension(inner), WithExtension(outer))
	assert.Same(t, app, outer.app)

	_, err := app.Registry().Register("$counter", counterSpec())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"outer:before:$services",
		"inner:before:$services",
		"inner:after:$services",
		"outer:after:$services",
		"outer:before:$counter",
		"inner:before:$counter",
		"inner:after:$counter",
		"outer:after:$counter",
	}, sink.snapshot())
}

type failingExtension struct {
	BaseExtension
}

func (e *failingExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	if op.Kind == OpFilter {
		return nil, errors.New("filters are frozen")
	}
	return next()
}

func TestExtension_OnError(t *testing.T) {
	sink := &eventSink{}
	rec := newRecordingExtension("rec", 200, sink)
	app := newTestApp(t,
		WithExtension(&failingExtension{BaseExtension: NewBaseExtension("freeze")}),
		WithExtension(rec),
	)

	_, err := app.Registry().RegisterFilter("tag", constFilter("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filters are frozen")
	_, ok := app.Registry().LookupFilter("tag")
	assert.False(t, ok)

	errBoom := errors.New("boom")
	spec := counterSpec()
	spec.Created = func(ctx context.Context, s *Instance) error { return errBoom }
	svc, err := app.Registry().Register("$failing", spec)
	require.NoError(t, err)
	require.Error(t, waitReady(t, svc))

	events := sink.snapshot()
	assert.Contains(t, events, "rec:error:filter:tag")
	assert.Contains(t, events, "rec:error:lifecycle:$failing")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.errs, 2)
	assert.ErrorIs(t, rec.errs[1], errBoom)
}

type vetoExtension struct {
	BaseExtension
	veto string
}

func (e *vetoExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	result, err := next()
	if err == nil && op.Kind == OpRegister && op.Name == e.veto {
		return nil, errors.New("vetoed")
	}
	return result, err
}

func TestExtension_VetoLeavesNothingBehind(t *testing.T) {
	app := newTestApp(t, WithExtension(&vetoExtension{BaseExtension: NewBaseExtension("veto"), veto: "$blocked"}))

	created := make(chan struct{}, 2)
	spec := counterSpec()
	spec.Created = func(ctx context.Context, s *Instance) error {
		created <- struct{}{}
		return nil
	}

	_, err := app.Registry().Register("$blocked", spec, WithGlobal(true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vetoed")

	_, ok := app.Registry().Lookup("$blocked")
	assert.False(t, ok)
	_, ok = app.Property("$blocked")
	assert.False(t, ok)
	_, ok = app.Registry().Directory().Lookup("$blocked")
	assert.False(t, ok)
	for _, e := range app.Registry().Entries() {
		assert.NotEqual(t, "$blocked", e.Name)
	}

	svc, err := app.Registry().Register("$blocked", spec, WithGlobal(true))
	require.Error(t, err)
	assert.Nil(t, svc)

	require.NoError(t, app.WaitReady(context.Background()))
	assert.Empty(t, created)

	other, err := app.Registry().Register("$allowed", counterSpec())
	require.NoError(t, err)
	got, ok := app.Registry().Lookup("$allowed")
	require.True(t, ok)
	assert.Same(t, other, got)
}

type disposingExtension struct {
	BaseExtension
	disposed bool
}

func (e *disposingExtension) Dispose(app *App) error {
	e.disposed = true
	return nil
}

func TestApp_Dispose(t *testing.T) {
	ext := &disposingExtension{BaseExtension: NewBaseExtension("disposable")}
	app := newTestApp(t, WithExtension(ext))

	require.NoError(t, app.Dispose())
	assert.True(t, ext.disposed)
}
