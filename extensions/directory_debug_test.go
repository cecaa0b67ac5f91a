package extensions

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	vitel "github.com/pumped-fn/vitel-go"
	"github.com/pumped-fn/vitel-go/internal/ctxlog"
)

func newApp(t *testing.T, exts ...vitel.Extension) *vitel.App {
	t.Helper()
	opts := []vitel.AppOption{vitel.WithLogger(ctxlog.Discard())}
	for _, ext := range exts {
		opts = append(opts, vitel.WithExtension(ext))
	}
	app := vitel.NewApp(opts...)
	require.NoError(t, vitel.Install(app))
	return app
}

func waitFor(t *testing.T, svc vitel.Service) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return svc.Promise().Wait(ctx)
}

func TestDirectoryDebugExtension_OnError(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHumanHandler(&buf, slog.LevelError)
	ext := NewDirectoryDebugExtension(handler)
	app := newApp(t, ext)

	_, err := app.Service("$storage", &vitel.Spec{
		Data: func() vitel.State { return vitel.State{"bucket": "main"} },
	})
	require.NoError(t, err)

	svc, err := app.Service("$users", &vitel.Spec{
		Created: func(ctx context.Context, s *vitel.Instance) error {
			return errors.New("storage handshake refused")
		},
	})
	require.NoError(t, err)
	require.Error(t, waitFor(t, svc))

	output := buf.String()

	if !strings.Contains(output, strings.Repeat("=", 70)) {
		t.Error("Expected separator line with equals signs")
	}
	if !strings.Contains(output, "[DirectoryDebug] Service Lifecycle Error") {
		t.Error("Expected '[DirectoryDebug] Service Lifecycle Error' header")
	}
	if !strings.Contains(output, "Service: $users") {
		t.Error("Expected 'Service: $users'")
	}
	if !strings.Contains(output, "Error: service $users threw while being created") {
		t.Errorf("Expected error message in human-readable format, got:\n%s", output)
	}
	if !strings.Contains(output, "Operation: lifecycle") {
		t.Error("Expected 'Operation: lifecycle'")
	}
	if !strings.Contains(output, "Stage: created") {
		t.Error("Expected 'Stage: created'")
	}
	for _, name := range []string{"$services", "$storage", "$users", "FAILED"} {
		if !strings.Contains(output, name) {
			t.Errorf("Expected directory tree to mention %s", name)
		}
	}

	failed, ok := ext.Failed("$users")
	require.True(t, ok)
	assert.Contains(t, failed.Error(), "handshake refused")
}

func TestDirectoryDebugExtension_JSONHandler(t *testing.T) {
	var buf bytes.Buffer
	ext := NewDirectoryDebugExtension(slog.NewJSONHandler(&buf, nil))
	app := newApp(t, ext)

	svc, err := app.Service("$broken", &vitel.Spec{
		Init: func(ctx context.Context, s *vitel.Instance) error { return errors.New("nope") },
	})
	require.NoError(t, err)
	require.Error(t, waitFor(t, svc))

	output := buf.String()
	assert.Contains(t, output, `"msg":"Service Lifecycle Error"`)
	assert.Contains(t, output, `"service":"$broken"`)
	assert.Contains(t, output, `"stage":"init"`)
}

func TestDirectoryDebugExtension_Silent(t *testing.T) {
	ext := NewDirectoryDebugExtension(NewSilentHandler())
	app := newApp(t, ext)

	svc, err := app.Service("$quiet", &vitel.Spec{
		Created: func(ctx context.Context, s *vitel.Instance) error { return errors.New("shh") },
	})
	require.NoError(t, err)
	require.Error(t, waitFor(t, svc))

	_, ok := ext.Failed("$quiet")
	assert.True(t, ok)
	_, ok = ext.Failed("$services")
	assert.False(t, ok)
}

func TestRenderTree(t *testing.T) {
	app := newApp(t)

	_, err := app.Service("$counter", &vitel.Spec{
		Data: func() vitel.State { return vitel.State{"count": 0} },
		Methods: map[string]vitel.Method{
			"increment": func(s *vitel.Instance, _ ...any) (any, error) { return nil, nil },
		},
	})
	require.NoError(t, err)
	_, err = app.Filter("shout", func(v any, _ map[string]any) (any, error) { return v, nil })
	require.NoError(t, err)

	out := RenderTree(app)
	for _, want := range []string{"$services", "$counter", "count", "increment", "$filters", "shout"} {
		assert.Contains(t, out, want)
	}
}

func TestDumpYAML(t *testing.T) {
	app := newApp(t)

	_, err := app.Service("$greet", &vitel.Spec{
		Data: func() vitel.State { return vitel.State{"greeting": "hi"} },
		Call: func(s *vitel.Instance, args ...any) (any, error) { return "hi", nil },
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DumpYAML(&buf, app))

	var snap DirectorySnapshot
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &snap))

	assert.Equal(t, app.ID().String(), snap.App)
	require.Len(t, snap.Services, 2)
	assert.Equal(t, vitel.DirectoryName, snap.Services[0].Name)

	greet := snap.Services[1]
	assert.Equal(t, "$greet", greet.Name)
	assert.True(t, greet.Callable)
	assert.True(t, greet.Ready)
	assert.Equal(t, []string{"greeting"}, greet.State)
	assert.Equal(t, uint64(2), greet.Order)
}
