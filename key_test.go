package vitel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	app := newTestApp(t, WithProperty("$limit", 5))
	svc, err := app.Registry().Register("$counter", counterSpec())
	require.NoError(t, err)

	count := NewKey[int]("count")
	label := NewKey[string]("label")
	wrong := NewKey[string]("count")

	assert.Equal(t, "count", count.Name())
	assert.Equal(t, 0, count.MustGet(svc))

	_, ok := label.Get(svc)
	assert.False(t, ok)
	assert.Equal(t, "none", label.GetOrDefault(svc, "none"))

	_, ok = wrong.Get(svc)
	assert.False(t, ok, "mistyped members are not returned")

	label.Set(svc, "clicks")
	assert.Equal(t, "clicks", label.MustGet(svc))

	assert.Panics(t, func() { NewKey[int]("missing").MustGet(svc) })

	limit, ok := NewKey[int]("$limit").GetFromApp(app)
	require.True(t, ok)
	assert.Equal(t, 5, limit)
}

func TestKey_UpdateIsAtomic(t *testing.T) {
	app := newTestApp(t)
	svc, err := app.Registry().Register("$counter", counterSpec())
	require.NoError(t, err)

	count := NewKey[int]("count")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count.Update(svc, func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, count.MustGet(svc))
	assert.Equal(t, 1, NewKey[int]("fresh").Update(svc, func(n int) int { return n + 1 }))
}
