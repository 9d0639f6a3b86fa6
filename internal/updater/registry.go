package updater

import (
	"fmt"
	"sort"

	"github.com/indaco/versync/internal/gitinfo"
)

// Kind names used in configuration.
const (
	KindManifest     = "manifest"
	KindConstant     = "constant"
	KindJSONMetadata = "json-metadata"
	KindPackageJSON  = "package-json"
	KindBadge        = "badge"
	KindChangelog    = "changelog"
	KindField        = "field"
)

// Factory builds an Updater for a target.
type Factory func(t Target) (Updater, error)

// Registry maps kind names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding every built-in kind. lookup
// resolves commit hashes for json-metadata targets; nil disables them.
func NewRegistry(lookup gitinfo.Lookup) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(KindManifest, func(Target) (Updater, error) { return NewManifest(), nil })
	r.Register(KindConstant, func(t Target) (Updater, error) { return NewConstant(t.Constant, t.BuildConstant) })
	r.Register(KindJSONMetadata, func(t Target) (Updater, error) { return NewJSONMetadata(t.Path, lookup), nil })
	r.Register(KindPackageJSON, func(Target) (Updater, error) { return NewPackageJSON(), nil })
	r.Register(KindBadge, func(Target) (Updater, error) { return NewBadge(), nil })
	r.Register(KindChangelog, func(Target) (Updater, error) { return NewChangelog(), nil })
	r.Register(KindField, func(t Target) (Updater, error) { return NewField(t.Path, t.Field, t.Pattern) })
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// New builds the updater registered for kind.
func (r *Registry) New(kind string, t Target) (Updater, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown target kind %q", kind)
	}
	return f(t)
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
