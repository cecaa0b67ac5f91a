package vitel

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func resolve(opts ...Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func TestOptions_Defaults(t *testing.T) {
	o := defaultOptions()
	assert.True(t, o.Global)
	assert.True(t, o.WrapInit)
	assert.True(t, o.WrapCall)
	assert.True(t, o.AutoProps)
	assert.True(t, o.CopyGlobals)
	assert.False(t, o.Force)
	assert.False(t, o.Debug)
	assert.NotNil(t, o.Extend)
}

func TestOptions_AutoProps(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		opts []Option
		want map[string]any
	}{
		{
			name: "non-control keys become props",
			opts: []Option{WithApp(app), WithValue("color", "red"), WithValue("global", false)},
			want: map[string]any{"color": "red", "app": app},
		},
		{
			name: "mistyped control keys are dropped",
			opts: []Option{WithApp(app), WithValue("global", "yes"), WithValue("size", 3)},
			want: map[string]any{"size": 3, "app": app},
		},
		{
			name: "explicit props win",
			opts: []Option{WithApp(app), WithValue("color", "red"), WithProps(map[string]any{"shape": "round"})},
			want: map[string]any{"shape": "round", "app": app},
		},
		{
			name: "auto props disabled",
			opts: []Option{WithApp(app), WithValue("color", "red"), WithAutoProps(false)},
			want: map[string]any{"app": app},
		},
		{
			name: "props from map",
			opts: append([]Option{WithApp(app)}, OptionsFromMap(map[string]any{"props": map[string]any{"k": "v"}})...),
			want: map[string]any{"k": "v", "app": app},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.opts...).resolveProps()
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b *App) bool { return a == b })); diff != "" {
				t.Errorf("props mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptions_ApplyControlKeys(t *testing.T) {
	hook := func(ctx context.Context, s *Instance) error { return nil }

	o := resolve(WithValues(map[string]any{
		"name":        "$named",
		"global":      false,
		"force":       true,
		"wrapCreated": false,
		"wrapCall":    false,
		"copyGlobals": false,
		"debug":       true,
		"onLoad":      hook,
		"onReady":     Hook(hook),
		"extend":      &ExtensionSet{Data: State{"x": 1}},
	}))

	assert.Equal(t, "$named", o.Name)
	assert.False(t, o.Global)
	assert.True(t, o.Force)
	assert.False(t, o.WrapInit)
	assert.False(t, o.WrapCall)
	assert.False(t, o.CopyGlobals)
	assert.True(t, o.Debug)
	assert.NotNil(t, o.OnLoad)
	assert.NotNil(t, o.OnReady)
	assert.Equal(t, 1, o.Extend.Data["x"])
	assert.Empty(t, o.Extra)
}

func TestIsControlKey(t *testing.T) {
	assert.True(t, IsControlKey("wrapCreated"))
	assert.True(t, IsControlKey("app"))
	assert.False(t, IsControlKey("color"))
}
