package vitel

import "context"

// Mixin is a reusable fragment of a Spec. Its data and methods sit underneath the
// spec's own and its Created hook runs before the spec's hooks. Data is a
// template: every instance gets its own copy, nested maps and slices included.
type Mixin struct {
	Data    State
	Methods map[string]Method
	Created Hook
}

// ExtensionSet is a bag of state, methods, mixins and hooks composed into a Spec
// before it is realized.
//
// Merges never mutate their inputs and never drop a key already present on the
// receiving side: extension keys are added, colliding keys keep the base value.
type ExtensionSet struct {
	Data    State
	Methods map[string]Method
	Mixins  []Mixin
	Created Hook
	Render  RenderFunc
}

// Merge returns a new set holding e's fields plus other's missing ones.
// Hooks compose (e's first) and mixins concatenate, so Merge is associative.
func (e *ExtensionSet) Merge(other *ExtensionSet) *ExtensionSet {
	if e == nil && other == nil {
		return &ExtensionSet{}
	}
	if e == nil {
		return other.copy()
	}
	if other == nil {
		return e.copy()
	}

	out := &ExtensionSet{
		Data:    mergeState(e.Data, other.Data),
		Methods: mergeMethods(e.Methods, other.Methods),
		Mixins:  concatMixins(e.Mixins, other.Mixins),
		Created: chainHooks(e.Created, other.Created),
		Render:  e.Render,
	}
	if out.Render == nil {
		out.Render = other.Render
	}
	return out
}

func (e *ExtensionSet) copy() *ExtensionSet {
	return &ExtensionSet{
		Data:    mergeState(e.Data, nil),
		Methods: mergeMethods(e.Methods, nil),
		Mixins:  concatMixins(e.Mixins, nil),
		Created: e.Created,
		Render:  e.Render,
	}
}

// mergeState copies base and adds the keys of ext that base lacks
func mergeState(base, ext State) State {
	out := make(State, len(base)+len(ext))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range ext {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// mergeMethods copies base and adds the methods of ext that base lacks
func mergeMethods(base, ext map[string]Method) map[string]Method {
	out := make(map[string]Method, len(base)+len(ext))
	for k, m := range base {
		out[k] = m
	}
	for k, m := range ext {
		if _, exists := out[k]; !exists {
			out[k] = m
		}
	}
	return out
}

func concatMixins(a, b []Mixin) []Mixin {
	out := make([]Mixin, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func chainHooks(first, second Hook) Hook {
	switch {
	case first == nil:
		return second
	case second == nil:
		return first
	}
	return func(ctx context.Context, s *Instance) error {
		if err := first(ctx, s); err != nil {
			return err
		}
		return second(ctx, s)
	}
}
