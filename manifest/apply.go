package manifest

import (
	"fmt"

	vitel "github.com/pumped-fn/vitel-go"
	"github.com/pumped-fn/vitel-go/filters"
)

// Catalog maps the spec names a manifest may reference to spec factories
type Catalog map[string]func() *vitel.Spec

// Apply registers every declared service from catalog, then every filter
// alias. Aliased filters must already be registered on app.
func Apply(app *vitel.App, catalog Catalog, m *Manifest) error {
	reg := app.Registry()

	for _, decl := range m.Services {
		factory, ok := catalog[decl.Spec]
		if !ok {
			return fmt.Errorf("service %s (%s): unknown spec %q", decl.Name, decl.File, decl.Spec)
		}
		if _, err := reg.Register(decl.Name, factory(), vitel.OptionsFromMap(decl.Options)...); err != nil {
			return fmt.Errorf("service %s (%s): %w", decl.Name, decl.File, err)
		}
	}

	for _, decl := range m.Filters {
		base, ok := reg.LookupFilter(decl.Use)
		if !ok {
			return fmt.Errorf("filter %s (%s): unknown filter %q", decl.Name, decl.File, decl.Use)
		}
		if _, err := reg.RegisterFilter(decl.Name, filters.WithOptions(base, decl.Options)); err != nil {
			return fmt.Errorf("filter %s (%s): %w", decl.Name, decl.File, err)
		}
	}

	app.Logger().Debug("manifest applied", "services", len(m.Services), "filters", len(m.Filters))
	return nil
}
