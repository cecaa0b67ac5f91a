package extensions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m1gwings/treedrawer/tree"
	"gopkg.in/yaml.v3"

	vitel "github.com/pumped-fn/vitel-go"
)

// DirectoryDebugExtension logs the service directory as a tree when a
// registration fails or a lifecycle chain rejects.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewDirectoryDebugExtension(handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	handler := slog.NewJSONHandler(os.Stdout, nil)
//	ext := extensions.NewDirectoryDebugExtension(handler)
//
//	// Silent (for testing)
//	ext := extensions.NewDirectoryDebugExtension(extensions.NewSilentHandler())
//
// The extension logs at ERROR level.
type DirectoryDebugExtension struct {
	vitel.BaseExtension

	mu       sync.Mutex
	realized map[string]bool
	failed   map[string]error
	logger   *slog.Logger
}

// NewDirectoryDebugExtension creates a new directory debug extension
func NewDirectoryDebugExtension(logHandler slog.Handler) *DirectoryDebugExtension {
	return &DirectoryDebugExtension{
		BaseExtension: vitel.NewBaseExtension("directory-debug"),
		realized:      make(map[string]bool),
		failed:        make(map[string]error),
		logger:        slog.New(logHandler),
	}
}

// Wrap tracks registrations for the failure report
func (e *DirectoryDebugExtension) Wrap(ctx context.Context, next func() (any, error), op *vitel.Operation) (any, error) {
	result, err := next()
	if op.Kind != vitel.OpRegister {
		return result, err
	}

	e.mu.Lock()
	if err == nil {
		e.realized[op.Name] = true
		delete(e.failed, op.Name)
	} else {
		e.failed[op.Name] = err
	}
	e.mu.Unlock()

	return result, err
}

// OnError logs the directory tree with the failing service marked
func (e *DirectoryDebugExtension) OnError(err error, op *vitel.Operation, app *vitel.App) {
	if op.Kind == vitel.OpLifecycle {
		e.mu.Lock()
		e.failed[op.Name] = err
		e.mu.Unlock()
	}

	attrs := []any{
		"service", op.Name,
		"error", err.Error(),
		"operation", string(op.Kind),
		"directory", "\n" + e.render(app, op.Name),
	}
	var lerr *vitel.LifecycleInitError
	if errors.As(err, &lerr) {
		attrs = append(attrs, "stage", lerr.Stage)
	}

	e.logger.Error("Service Lifecycle Error", attrs...)
}

// Failed returns the error recorded for name
func (e *DirectoryDebugExtension) Failed(name string) (error, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	err, ok := e.failed[name]
	return err, ok
}

func (e *DirectoryDebugExtension) render(app *vitel.App, failing string) string {
	e.mu.Lock()
	failed := make(map[string]error, len(e.failed))
	for k, v := range e.failed {
		failed[k] = v
	}
	e.mu.Unlock()

	return renderTree(app, func(entry vitel.Entry) string {
		switch {
		case entry.Name == failing:
			return " ❌ FAILED"
		case failed[entry.Name] != nil:
			return fmt.Sprintf(" ❌ (error: %v)", failed[entry.Name])
		case entry.Service.Ready():
			return " ✓"
		default:
			return " (pending)"
		}
	})
}

// RenderTree draws every realized service of app, in realization order, with
// its state keys and methods
func RenderTree(app *vitel.App) string {
	return renderTree(app, func(entry vitel.Entry) string {
		if entry.Service.Ready() {
			return " ✓"
		}
		return " (pending)"
	})
}

func renderTree(app *vitel.App, status func(vitel.Entry) string) string {
	root := tree.NewTree(tree.NodeString(vitel.DirectoryName))

	entries := app.Registry().Entries()
	if len(entries) == 0 {
		root.AddChild(tree.NodeString("(empty)"))
		return root.String()
	}

	for _, entry := range entries {
		label := fmt.Sprintf("%s #%d%s", entry.Name, entry.Order, status(entry))
		if vitel.Callable(entry.Service) {
			label += " callable"
		}
		node := root.AddChild(tree.NodeString(label))

		inst := entry.Service.Instance()
		if keys := inst.Keys(); len(keys) > 0 {
			node.AddChild(tree.NodeString("state: " + strings.Join(keys, ", ")))
		}
		if methods := inst.Methods(); len(methods) > 0 {
			node.AddChild(tree.NodeString("methods: " + strings.Join(methods, ", ")))
		}
	}

	if names := app.Registry().FilterNames(); len(names) > 0 {
		root.AddChild(tree.NodeString("filters: " + strings.Join(names, ", ")))
	}

	return root.String()
}

// ServiceSnapshot is the exported view of one directory entry
type ServiceSnapshot struct {
	Name       string    `yaml:"name"`
	ID         string    `yaml:"id"`
	Order      uint64    `yaml:"order"`
	RealizedAt time.Time `yaml:"realized_at"`
	Ready      bool      `yaml:"ready"`
	Callable   bool      `yaml:"callable"`
	State      []string  `yaml:"state,omitempty"`
	Methods    []string  `yaml:"methods,omitempty"`
}

// DirectorySnapshot is the exported view of an app's registry
type DirectorySnapshot struct {
	App      string            `yaml:"app"`
	Services []ServiceSnapshot `yaml:"services"`
	Filters  []string          `yaml:"filters,omitempty"`
}

// Snapshot captures the registry of app
func Snapshot(app *vitel.App) DirectorySnapshot {
	snap := DirectorySnapshot{
		App:     app.ID().String(),
		Filters: app.Registry().FilterNames(),
	}
	for _, entry := range app.Registry().Entries() {
		inst := entry.Service.Instance()
		snap.Services = append(snap.Services, ServiceSnapshot{
			Name:       entry.Name,
			ID:         entry.ID.String(),
			Order:      entry.Order,
			RealizedAt: entry.RealizedAt,
			Ready:      entry.Service.Ready(),
			Callable:   vitel.Callable(entry.Service),
			State:      inst.Keys(),
			Methods:    inst.Methods(),
		})
	}
	return snap
}

// DumpYAML writes the registry snapshot of app as YAML
func DumpYAML(w io.Writer, app *vitel.App) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Snapshot(app)); err != nil {
		return fmt.Errorf("encoding directory: %w", err)
	}
	return enc.Close()
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h
}

// HumanHandler is a slog.Handler that formats logs for human readability,
// printing directory trees on their own lines
type HumanHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		mu:     &sync.Mutex{},
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if record.Message == "Service Lifecycle Error" {
		return h.handleLifecycleError(record)
	}

	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleLifecycleError(record slog.Record) error {
	var service, errorMsg, operation, stage, directory string

	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "service":
			service = a.Value.String()
		case "error":
			errorMsg = a.Value.String()
		case "operation":
			operation = a.Value.String()
		case "stage":
			stage = a.Value.String()
		case "directory":
			directory = a.Value.String()
		}
		return true
	})

	rule := strings.Repeat("=", 70)
	var sb strings.Builder
	sb.WriteString("\n" + rule + "\n")
	sb.WriteString("[DirectoryDebug] Service Lifecycle Error\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "\nService: %s\n", service)
	fmt.Fprintf(&sb, "Error: %s\n", errorMsg)
	fmt.Fprintf(&sb, "Operation: %s\n", operation)
	if stage != "" {
		fmt.Fprintf(&sb, "Stage: %s\n", stage)
	}
	fmt.Fprintf(&sb, "\nDirectory:%s\n", directory)
	sb.WriteString(rule + "\n\n")

	_, err := io.WriteString(h.writer, sb.String())
	return err
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	return h
}
