// Package vitel turns plain service specs into per-app singletons with tracked
// readiness, and keeps a parallel registry of named filter functions.
//
// # Overview
//
// Vitel organizes code around four concepts:
//
//  1. Specs: a name, a data initializer, methods and lifecycle hooks
//  2. Apps: hosts that own a registry and a published namespace
//  3. Services: realized specs, one per name per app, optionally callable
//  4. Filters: named pure functions applied to a value with options
//
// # Basic Usage
//
//	app := vitel.NewApp()
//	if err := vitel.Install(app); err != nil {
//	    return err
//	}
//
//	counter, err := app.Service("$counter", &vitel.Spec{
//	    Data: func() vitel.State { return vitel.State{"count": 0} },
//	    Created: func(ctx context.Context, s *vitel.Instance) error {
//	        s.Set("count", 1)
//	        return nil
//	    },
//	})
//
// Registering the same name again returns the same service. WithForce
// re-creates it:
//
//	again, _ := app.Service("$counter", spec)                        // again == counter
//	fresh, _ := app.Service("$counter", spec, vitel.WithForce(true)) // new instance
//
// # Readiness
//
// Services with a lifecycle hook start with Ready() false. The hook chain runs
// once in its own goroutine and its outcome is memoized:
//
//	if err := counter.Promise().Wait(ctx); err != nil {
//	    var lerr *vitel.LifecycleInitError
//	    errors.As(err, &lerr) // stage and cause of the failure
//	}
//
// A failed chain still flips Ready() to true; the error lives in the future and
// in a warning on the app logger. Services without hooks are ready at once.
//
// # Extensions
//
// An ExtensionSet adds data, methods, mixins and a hook to a spec without
// overriding anything the spec declares itself:
//
//	app.Service("$api", spec, vitel.WithExtend(&vitel.ExtensionSet{
//	    Methods: map[string]vitel.Method{"ping": ping},
//	}))
//
// # Callable Services
//
// A spec with Call is returned wrapped in a Proxy. Invoke runs Call bound to
// the instance; every other member access goes to the instance:
//
//	greet, _ := app.Service("$greet", &vitel.Spec{
//	    Call: func(s *vitel.Instance, args ...any) (any, error) {
//	        return fmt.Sprintf("hello %v", args[0]), nil
//	    },
//	})
//	out, _ := greet.Invoke("world")
//
// # Filters
//
//	app.Filter("upper", func(v any, _ map[string]any) (any, error) {
//	    return strings.ToUpper(fmt.Sprint(v)), nil
//	})
//	upper, _ := app.Filter("upper", nil)
//
// The filters subpackage registers a set of locale-aware formatters.
//
// # Controllers
//
// Controllers give named access to a service of an app:
//
//	ctrl := vitel.Accessor(app, "$counter")
//	svc, err := ctrl.Get()
//	svc, err = ctrl.Reload() // re-create from the last registration
//	fut := ctrl.Promise()    // waits briefly for the service to appear
//
// # App Extensions
//
// Extensions wrap registrations and observe failures, ordered by Order():
//
//	app := vitel.NewApp(vitel.WithExtension(extensions.NewLoggingExtension(logger)))
//
// # Directory
//
// Every realized service is recorded in the reserved $services service, which
// Install realizes up front:
//
//	names := app.Registry().Directory().Names()
package vitel
