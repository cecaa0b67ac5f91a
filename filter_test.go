package vitel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constFilter(out string) Filter {
	return func(v any, _ map[string]any) (any, error) {
		return fmt.Sprintf("%s:%v", out, v), nil
	}
}

func TestRegisterFilter_Overwrites(t *testing.T) {
	app := newTestApp(t)
	reg := app.Registry()

	_, err := reg.RegisterFilter("tag", constFilter("one"))
	require.NoError(t, err)
	_, err = reg.RegisterFilter("tag", constFilter("two"))
	require.NoError(t, err)

	fn, ok := reg.LookupFilter("tag")
	require.True(t, ok)
	out, err := fn(1, nil)
	require.NoError(t, err)
	assert.Equal(t, "two:1", out)

	assert.Equal(t, []string{"tag"}, reg.FilterNames())
}

func TestRegisterFilter_InvalidName(t *testing.T) {
	app := newTestApp(t)

	for _, name := range []string{"", "bad-name", "$tag", "with space"} {
		_, err := app.Registry().RegisterFilter(name, constFilter("x"))
		var nameErr *InvalidNameError
		require.ErrorAs(t, err, &nameErr, name)
		assert.Equal(t, "filter", nameErr.Kind)
	}

	_, realized := app.Registry().Lookup(FiltersName)
	assert.False(t, realized)
}

func TestLookupFilter_DoesNotRealize(t *testing.T) {
	app := newTestApp(t)

	_, ok := app.Registry().LookupFilter("tag")
	assert.False(t, ok)
	assert.Nil(t, app.Registry().FilterNames())

	_, realized := app.Registry().Lookup(FiltersName)
	assert.False(t, realized)
}

func TestFiltersService(t *testing.T) {
	app := newTestApp(t)

	_, err := app.Registry().RegisterFilter("tag", constFilter("t"))
	require.NoError(t, err)

	svc, ok := app.Registry().Lookup(FiltersName)
	require.True(t, ok)

	mirrored, ok := svc.Get("tag")
	require.True(t, ok)
	_, isFilter := mirrored.(Filter)
	assert.True(t, isFilter)

	out, err := svc.Call("apply", "tag", 7)
	require.NoError(t, err)
	assert.Equal(t, "t:7", out)

	_, err = svc.Call("apply", "missing", 7)
	assert.Error(t, err)

	// a filter named like a built-in member is stored but not mirrored
	_, err = app.Registry().RegisterFilter("apply", constFilter("shadow"))
	require.NoError(t, err)
	out, err = svc.Call("apply", "apply", 1)
	require.NoError(t, err)
	assert.Equal(t, "shadow:1", out)
}

func TestRegisterFilter_PackageLevel(t *testing.T) {
	_, err := RegisterFilter(constFilter("x"), WithName("tag"))
	var hostErr *MissingHostError
	require.ErrorAs(t, err, &hostErr)

	app := newTestApp(t)
	_, err = RegisterFilter(constFilter("x"), WithApp(app), WithName("tag"))
	require.NoError(t, err)
	_, ok := app.Registry().LookupFilter("tag")
	assert.True(t, ok)
}
