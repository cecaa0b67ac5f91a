package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	vitel "github.com/pumped-fn/vitel-go"
	"github.com/pumped-fn/vitel-go/manifest"
)

// catalog lists the specs a manifest can declare from the command line
func catalog() manifest.Catalog {
	return manifest.Catalog{
		"env":   envSpec,
		"clock": clockSpec,
	}
}

// envSpec exposes environment variables carrying the "prefix" prop, "VITEL_"
// when unset
func envSpec() *vitel.Spec {
	return &vitel.Spec{
		Data: func() vitel.State { return vitel.State{"vars": map[string]string{}} },
		Created: func(ctx context.Context, s *vitel.Instance) error {
			prefix := "VITEL_"
			if p, ok := s.Prop("prefix"); ok {
				prefix = fmt.Sprint(p)
			}
			vars := map[string]string{}
			for _, kv := range os.Environ() {
				k, v, _ := strings.Cut(kv, "=")
				if strings.HasPrefix(k, prefix) {
					vars[k] = v
				}
			}
			s.Set("vars", vars)
			return nil
		},
		Methods: map[string]vitel.Method{
			"lookup": func(s *vitel.Instance, args ...any) (any, error) {
				if len(args) == 0 {
					return nil, fmt.Errorf("lookup: want a name")
				}
				vars, _ := s.Get("vars")
				v, ok := vars.(map[string]string)[fmt.Sprint(args[0])]
				if !ok {
					return nil, nil
				}
				return v, nil
			},
			"names": func(s *vitel.Instance, _ ...any) (any, error) {
				vars, _ := s.Get("vars")
				names := make([]string, 0)
				for k := range vars.(map[string]string) {
					names = append(names, k)
				}
				sort.Strings(names)
				return names, nil
			},
		},
	}
}

// clockSpec records its start time and renders uptime through the date filter
// when one is registered
func clockSpec() *vitel.Spec {
	return &vitel.Spec{
		Data: func() vitel.State { return vitel.State{"started": time.Time{}} },
		Init: func(ctx context.Context, s *vitel.Instance) error {
			s.Set("started", time.Now())
			return nil
		},
		Methods: map[string]vitel.Method{
			"started": func(s *vitel.Instance, _ ...any) (any, error) {
				started, _ := s.Get("started")
				if fn, ok := s.App().Registry().LookupFilter("date"); ok {
					return fn(started, map[string]any{"display": "relative"})
				}
				return started, nil
			},
		},
	}
}
