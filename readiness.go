package vitel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPromiseTimeout bounds how long Promise waits for a lifecycle chain
// that has not been scheduled yet
const DefaultPromiseTimeout = 100 * time.Millisecond

// Future is the settled-once result of a service's lifecycle chain
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture() *Future {
	f := newFuture()
	f.settle(nil)
	return f
}

func rejectedFuture(err error) *Future {
	f := newFuture()
	f.settle(err)
	return f
}

func (f *Future) settle(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future settles
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has resolved or rejected
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Err returns the rejection reason, or nil while pending or after success
func (f *Future) Err() error {
	if !f.Settled() {
		return nil
	}
	return f.err
}

// Wait blocks until the future settles or ctx is done. Cancelling ctx stops the
// wait only; the lifecycle chain keeps running.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type stage struct {
	name string
	hook Hook
}

// readiness tracks the ready flag and memoized future of one instance
type readiness struct {
	service string
	stages  []stage
	tracked bool
	timeout time.Duration
	logger  *slog.Logger
	onError func(error)

	ready     atomic.Bool
	once      sync.Once
	scheduled chan struct{}
	future    *Future
}

func newReadiness(spec *Spec, o *Options, timeout time.Duration, logger *slog.Logger) *readiness {
	r := &readiness{
		service:   spec.Name,
		timeout:   timeout,
		logger:    logger,
		scheduled: make(chan struct{}),
	}

	own := spec.ownHooks()
	if !spec.hasHook() || !o.WrapInit {
		// Nothing to await: ready from the start, raw hooks run untracked on mount
		r.stages = own
		r.ready.Store(true)
		r.future = resolvedFuture()
		close(r.scheduled)
		return r
	}

	r.tracked = true
	if o.OnLoad != nil {
		r.stages = append(r.stages, stage{name: "onLoad", hook: o.OnLoad})
	}
	r.stages = append(r.stages, own...)
	if o.OnReady != nil {
		r.stages = append(r.stages, stage{name: "onReady", hook: o.OnReady})
	}
	return r
}

// mount schedules the hook chain. Only the first call has any effect.
func (r *readiness) mount(ctx context.Context, inst *Instance) {
	r.once.Do(func() {
		if !r.tracked {
			if len(r.stages) > 0 {
				go func() {
					for _, st := range r.stages {
						if err := r.call(ctx, st, inst); err != nil {
							r.logger.Warn("Service threw while being created", "stage", st.name, "error", err)
							return
						}
					}
				}()
			}
			return
		}

		r.future = newFuture()
		close(r.scheduled)
		go r.run(ctx, inst)
	})
}

func (r *readiness) run(ctx context.Context, inst *Instance) {
	var err error
	defer func() {
		r.ready.Store(true)
		r.future.settle(err)
	}()

	for _, st := range r.stages {
		if err = r.call(ctx, st, inst); err != nil {
			r.logger.Warn("Service threw while being created", "stage", st.name, "error", err)
			if r.onError != nil {
				r.onError(err)
			}
			return
		}
	}
}

func (r *readiness) call(ctx context.Context, st stage, inst *Instance) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &LifecycleInitError{
				Service:    r.service,
				Stage:      st.name,
				Cause:      fmt.Errorf("panic: %v", rec),
				StackTrace: debug.Stack(),
			}
		}
	}()

	if hookErr := st.hook(ctx, inst); hookErr != nil {
		return &LifecycleInitError{Service: r.service, Stage: st.name, Cause: hookErr}
	}
	return nil
}

// promise returns the memoized future, waiting up to timeout for the chain to
// be scheduled
func (r *readiness) promise() *Future {
	select {
	case <-r.scheduled:
		return r.future
	default:
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case <-r.scheduled:
		return r.future
	case <-timer.C:
		return rejectedFuture(&PromiseUnavailableError{Service: r.service, Waited: r.timeout})
	}
}
