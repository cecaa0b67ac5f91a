package vitel

import "regexp"

var (
	serviceNamePattern = regexp.MustCompile(`^\$[A-Za-z0-9_]+$`)
	filterNamePattern  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// ValidServiceName reports whether name is usable as a service name
func ValidServiceName(name string) bool {
	return serviceNamePattern.MatchString(name)
}

// ValidFilterName reports whether name is usable as a filter name
func ValidFilterName(name string) bool {
	return filterNamePattern.MatchString(name)
}

// Normalize validates raw against o and returns a new Spec with ext composed
// in. Neither raw nor ext is modified.
//
// The effective name is o.Name when set, otherwise raw.Name. Extension data and
// methods are added under the spec's own; extension mixins follow the spec's;
// the extension hook runs after the spec's hooks; a no-op render is installed
// when neither side provides one.
func Normalize(raw *Spec, ext *ExtensionSet, o *Options) (*Spec, error) {
	if o == nil {
		o = defaultOptions()
	}

	name := o.Name
	if name == "" && raw != nil {
		name = raw.Name
	}
	if raw == nil || !ValidServiceName(name) {
		return nil, &InvalidNameError{Kind: "service", Name: name}
	}
	if o.App == nil {
		return nil, &MissingHostError{Name: name}
	}
	if ext == nil {
		ext = &ExtensionSet{}
	}

	out := &Spec{
		Name:     name,
		Created:  raw.Created,
		Init:     raw.Init,
		Call:     raw.Call,
		Render:   raw.Render,
		Methods:  mergeMethods(raw.Methods, ext.Methods),
		Mixins:   concatMixins(raw.Mixins, ext.Mixins),
		extended: chainHooks(raw.extended, ext.Created),
		realized: raw.realized,
	}

	baseData := raw.Data
	extData := ext.Data.deepClone()
	out.Data = func() State {
		var own State
		if baseData != nil {
			own = baseData()
		}
		return mergeState(own, extData.deepClone())
	}

	if out.Render == nil {
		out.Render = ext.Render
	}
	if out.Render == nil {
		out.Render = noopRender
	}

	return out, nil
}
