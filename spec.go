package vitel

import (
	"context"
	"reflect"
)

// State is the mutable member map of a realized service
type State map[string]any

// Method is a service method, invoked with the instance it is bound to
type Method func(s *Instance, args ...any) (any, error)

// Hook is an asynchronous lifecycle hook
type Hook func(ctx context.Context, s *Instance) error

// RenderFunc is kept for parity with component specs; services render nothing
type RenderFunc func(s *Instance) any

// Spec describes a service before it is realized.
//
// Created and Init are both lifecycle hooks; Init is the older spelling and runs
// after Created when both are present. Call, when set, makes the realized
// service invocable through a Proxy.
type Spec struct {
	Name    string
	Data    func() State
	Methods map[string]Method
	Created Hook
	Init    Hook
	Call    Method
	Mixins  []Mixin
	Render  RenderFunc

	// extended is the ExtensionSet hook override, run after the spec's own hooks
	extended Hook
	// realized lets built-in services capture their state after realization
	realized func(*Instance)
}

func (s *Spec) hasHook() bool {
	if s.Created != nil || s.Init != nil || s.extended != nil {
		return true
	}
	for _, m := range s.Mixins {
		if m.Created != nil {
			return true
		}
	}
	return false
}

// ownHooks returns the hooks declared by the spec itself, in run order:
// mixins first, then Created, Init and the extension override
func (s *Spec) ownHooks() []stage {
	var stages []stage
	for _, m := range s.Mixins {
		if m.Created != nil {
			stages = append(stages, stage{name: "mixin", hook: m.Created})
		}
	}
	if s.Created != nil {
		stages = append(stages, stage{name: "created", hook: s.Created})
	}
	if s.Init != nil {
		stages = append(stages, stage{name: "init", hook: s.Init})
	}
	if s.extended != nil {
		stages = append(stages, stage{name: "extend", hook: s.extended})
	}
	return stages
}

func (st State) clone() State {
	out := make(State, len(st))
	for k, v := range st {
		out[k] = v
	}
	return out
}

// deepClone copies st along with every map and slice nested in it, so shared
// defaults never alias between instances. Other values, pointers included, are
// copied as-is.
func (st State) deepClone() State {
	out := make(State, len(st))
	for k, v := range st {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), rv.Type().Elem()))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i), rv.Type().Elem()))
		}
		return out.Interface()
	}
	return v
}

func cloneElem(v reflect.Value, t reflect.Type) reflect.Value {
	c := cloneValue(v.Interface())
	if c == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(c)
}

func noopRender(*Instance) any { return nil }
