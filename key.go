package vitel

// Key is a type-safe accessor for one member of a service's state
type Key[T any] struct {
	name string
}

// NewKey creates a new key for the member called name
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the member name
func (k Key[T]) Name() string {
	return k.name
}

// Get reads the member from svc. It reports false when the member is missing
// or holds a value of another type.
func (k Key[T]) Get(svc Service) (T, bool) {
	val, ok := svc.Get(k.name)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := val.(T)
	return typed, ok
}

// MustGet reads the member or panics if it is missing
func (k Key[T]) MustGet(svc Service) T {
	val, ok := k.Get(svc)
	if !ok {
		panic("key " + k.name + " not found on " + svc.Name())
	}
	return val
}

// GetOrDefault reads the member or returns a default
func (k Key[T]) GetOrDefault(svc Service, defaultVal T) T {
	if val, ok := k.Get(svc); ok {
		return val
	}
	return defaultVal
}

// Set writes the member on svc
func (k Key[T]) Set(svc Service, val T) {
	svc.Set(k.name, val)
}

// Update replaces the member with fn(current) under the instance lock. A
// missing or mistyped member reaches fn as the zero value.
func (k Key[T]) Update(svc Service, fn func(T) T) T {
	out := svc.Instance().Update(k.name, func(old any) any {
		cur, _ := old.(T)
		return fn(cur)
	})
	v, _ := out.(T)
	return v
}

// GetFromApp reads name from the app namespace
func (k Key[T]) GetFromApp(app *App) (T, bool) {
	val, ok := app.Property(k.name)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := val.(T)
	return typed, ok
}
