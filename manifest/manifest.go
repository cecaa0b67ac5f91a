// Package manifest loads HCL declarations of services and filter aliases and
// applies them to an app.
//
//	service "$greeter" {
//	  spec     = "greeter"
//	  global   = false
//	  greeting = "hello"
//	}
//
//	filter "money" {
//	  use      = "currency"
//	  currency = "USD"
//	}
//
// Service attributes other than spec are handed to the registration as untyped
// options, so control keys (global, force, debug, ...) and props mix freely.
// Filter attributes other than use are bound as fixed options of the aliased
// filter.
package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	vitel "github.com/pumped-fn/vitel-go"
	"github.com/pumped-fn/vitel-go/internal/ctxlog"
)

// Extension of manifest files picked up from directories
const Extension = ".hcl"

// Manifest is the merged content of one or more manifest files
type Manifest struct {
	Services []ServiceDecl
	Filters  []FilterDecl
}

// ServiceDecl is one service block
type ServiceDecl struct {
	Name    string
	Spec    string
	Options map[string]any
	File    string
}

// FilterDecl is one filter block
type FilterDecl struct {
	Name    string
	Use     string
	Options map[string]any
	File    string
}

type hclFile struct {
	Services []*hclService `hcl:"service,block"`
	Filters  []*hclFilter  `hcl:"filter,block"`
}

type hclService struct {
	Name string   `hcl:"name,label"`
	Spec string   `hcl:"spec"`
	Body hcl.Body `hcl:",remain"`
}

type hclFilter struct {
	Name string   `hcl:"name,label"`
	Use  string   `hcl:"use"`
	Body hcl.Body `hcl:",remain"`
}

// Load parses every manifest under paths. Directories are walked for files
// ending in Extension; files are read as given.
func Load(ctx context.Context, paths ...string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := collect(paths)
	if err != nil {
		return nil, err
	}

	m := &Manifest{}
	parser := hclparse.NewParser()
	for _, file := range files {
		logger.Debug("loading manifest", "path", file)
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", file, diags)
		}
		if err := m.decode(f.Body, file); err != nil {
			return nil, err
		}
	}

	logger.Debug("manifest loaded", "files", len(files), "services", len(m.Services), "filters", len(m.Filters))
	return m, nil
}

// Parse decodes a single manifest held in memory
func Parse(filename string, src []byte) (*Manifest, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	m := &Manifest{}
	if err := m.decode(f.Body, filename); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) decode(body hcl.Body, file string) error {
	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return fmt.Errorf("failed to decode manifest %s: %w", file, diags)
	}

	for _, s := range parsed.Services {
		if prev, ok := m.service(s.Name); ok {
			return fmt.Errorf("%w: %s in %s (first declared in %s)", vitel.ErrDuplicateService, s.Name, file, prev.File)
		}
		if !vitel.ValidServiceName(s.Name) {
			return fmt.Errorf("%s: %w", file, &vitel.InvalidNameError{Kind: "service", Name: s.Name})
		}
		opts, err := attributes(s.Body)
		if err != nil {
			return fmt.Errorf("service %s in %s: %w", s.Name, file, err)
		}
		m.Services = append(m.Services, ServiceDecl{Name: s.Name, Spec: s.Spec, Options: opts, File: file})
	}

	for _, f := range parsed.Filters {
		if prev, ok := m.filter(f.Name); ok {
			return fmt.Errorf("filter %s in %s: already declared in %s", f.Name, file, prev.File)
		}
		if !vitel.ValidFilterName(f.Name) {
			return fmt.Errorf("%s: %w", file, &vitel.InvalidNameError{Kind: "filter", Name: f.Name})
		}
		opts, err := attributes(f.Body)
		if err != nil {
			return fmt.Errorf("filter %s in %s: %w", f.Name, file, err)
		}
		m.Filters = append(m.Filters, FilterDecl{Name: f.Name, Use: f.Use, Options: opts, File: file})
	}
	return nil
}

func (m *Manifest) service(name string) (ServiceDecl, bool) {
	for _, s := range m.Services {
		if s.Name == name {
			return s, true
		}
	}
	return ServiceDecl{}, false
}

func (m *Manifest) filter(name string) (FilterDecl, bool) {
	for _, f := range m.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return FilterDecl{}, false
}

// attributes evaluates the remaining attributes of a block without any
// variables in scope
func attributes(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		native, err := ctyToNative(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}

func collect(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("manifest path %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), Extension) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to find manifests in %s: %w", root, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
