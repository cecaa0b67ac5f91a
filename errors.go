package vitel

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicateService reports a second declaration of the same service name.
	// The registry resolves repeated registrations through idempotency and never
	// returns it; declarative sources (manifests) use it to reject duplicates.
	ErrDuplicateService = errors.New("service declared more than once")

	// ErrNotCallable is returned by Invoke on a service without a call entry point.
	ErrNotCallable = errors.New("service is not callable")

	// ErrNotInstalled is returned by App verbs that Install did not bind.
	ErrNotInstalled = errors.New("verb not installed on app")

	// ErrUnknownMethod is returned when calling a method the service does not define.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrNotRegistered is returned by controllers for names with no registry entry.
	ErrNotRegistered = errors.New("service not registered")
)

// InvalidNameError reports a missing or malformed service or filter name.
type InvalidNameError struct {
	Kind string // "service" or "filter"
	Name string
}

func (e *InvalidNameError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("all %ss must specify a name", e.Kind)
	}
	if e.Kind == "filter" {
		return fmt.Sprintf("filter names must only contain A-Z, 0-9 and \"_\", got %q", e.Name)
	}
	return fmt.Sprintf("service names must start with \"$\" and only contain A-Z, 0-9 and \"_\", got %q", e.Name)
}

// MissingHostError reports a registration attempted without an App.
type MissingHostError struct {
	Name string
}

func (e *MissingHostError) Error() string {
	if e.Name == "" {
		return "cannot resolve host app"
	}
	return fmt.Sprintf("cannot resolve host app for %s", e.Name)
}

// LifecycleInitError is the rejection reason of a readiness future whose hook
// chain failed at Stage.
type LifecycleInitError struct {
	Service    string
	Stage      string
	Cause      error
	StackTrace []byte
}

func (e *LifecycleInitError) Error() string {
	return fmt.Sprintf("service %s threw while being created (%s): %v", e.Service, e.Stage, e.Cause)
}

func (e *LifecycleInitError) Unwrap() error {
	return e.Cause
}

// PromiseUnavailableError is returned when a readiness future was requested
// before the lifecycle chain existed and the bounded wait expired.
type PromiseUnavailableError struct {
	Service string
	Waited  time.Duration
}

func (e *PromiseUnavailableError) Error() string {
	return fmt.Sprintf("unable to find loading promise for service %q after %v - it should have loaded by now", e.Service, e.Waited)
}

// SafeTypeAssertion performs a type assertion and reports a mismatch as an error
func SafeTypeAssertion[T any](value any) (T, error) {
	if value == nil {
		var zero T
		return zero, nil
	}

	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion error: expected %T, got %T (value: %v)", zero, value, value)
	}

	return typed, nil
}
