package represent

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Factory constructs a fresh object for a nested fragment.
type Factory func() any

// Representable is implemented by objects (typically decorators) that carry
// their own Config instead of relying on a Registry entry.
type Representable interface {
	RepresentableConfig() *Config
}

// Registry holds one lazily built Config per declaring Go type and the
// factories nested properties refer to by tag.
type Registry struct {
	mu      sync.Mutex
	entries map[reflect.Type]*registryEntry

	factoriesMu sync.RWMutex
	factories   map[string]Factory
}

type registryEntry struct {
	parent  reflect.Type
	build   func(*Config)
	cfg     *Config // handed out immediately, readable once built
	started bool    // guarded by Registry.mu
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[reflect.Type]*registryEntry{}, factories: map[string]Factory{}}
}

// DefaultRegistry is used when MapOptions.Registry is nil.
var DefaultRegistry = NewRegistry()

// Declare registers the Config builder for T. build runs once, on first use.
// A builder may look up its own type, for example to declare a recursive
// Schema; it gets the Config under construction and must not read it before
// returning.
func Declare[T any](r *Registry, build func(c *Config)) {
	r.declare(baseType(reflect.TypeFor[T]()), nil, build)
}

// DeclareInherited registers T's Config as an extension of Parent's: the
// parent Config is inherited first, then build declares T's own properties.
func DeclareInherited[T, Parent any](r *Registry, build func(c *Config)) {
	r.declare(baseType(reflect.TypeFor[T]()), baseType(reflect.TypeFor[Parent]()), build)
}

func (r *Registry) declare(t, parent reflect.Type, build func(*Config)) {
	r.mu.Lock()
	r.entries[t] = &registryEntry{parent: parent, build: build, cfg: pendingConfig()}
	r.mu.Unlock()
}

// ConfigOf returns the memoized Config for type t, building it on first use.
// Callers racing the first build get the same Config; its reads wait for the
// build to finish.
func (r *Registry) ConfigOf(t reflect.Type) (*Config, bool) {
	return r.configOf(baseType(t), nil)
}

func (r *Registry) configOf(t reflect.Type, seen []reflect.Type) (*Config, bool) {
	r.mu.Lock()
	e, ok := r.entries[t]
	start := ok && !e.started
	if start {
		e.started = true
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	if start {
		r.build(t, e, seen)
	}
	return e.cfg, true
}

func (r *Registry) build(t reflect.Type, e *registryEntry, seen []reflect.Type) {
	cfg := NewConfig()
	defer func() { e.cfg.publish(cfg.load()) }()
	if e.parent != nil && e.parent != t && !containsType(seen, e.parent) {
		if pc, ok := r.configOf(e.parent, append(seen, t)); ok {
			cfg.Inherit(pc)
		}
	}
	if e.build != nil {
		e.build(cfg)
	}
}

func containsType(ts []reflect.Type, t reflect.Type) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// ConfigFor returns the Config for obj: its own when it is Representable,
// otherwise the one registered for its type.
func (r *Registry) ConfigFor(obj any) (*Config, error) {
	if rp, ok := obj.(Representable); ok {
		if cfg := rp.RepresentableConfig(); cfg != nil {
			return cfg, nil
		}
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: <nil>", ErrNoConfig)
	}
	if cfg, ok := r.ConfigOf(reflect.TypeOf(obj)); ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrNoConfig, obj)
}

// RegisterFactory binds tag to f. A later registration for the same tag wins.
func (r *Registry) RegisterFactory(tag string, f Factory) {
	if f == nil {
		return
	}
	r.factoriesMu.Lock()
	r.factories[tag] = f
	r.factoriesMu.Unlock()
}

// Factory returns the factory registered for tag.
func (r *Registry) Factory(tag string) (Factory, bool) {
	r.factoriesMu.RLock()
	f, ok := r.factories[tag]
	r.factoriesMu.RUnlock()
	return f, ok
}

// FactoryTags lists registered factory tags in sorted order.
func (r *Registry) FactoryTags() []string {
	r.factoriesMu.RLock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	r.factoriesMu.RUnlock()
	sort.Strings(out)
	return out
}

// newFromClass turns a resolved class option into a fresh object.
func (r *Registry) newFromClass(class any) (any, error) {
	switch t := class.(type) {
	case nil:
		return nil, ErrNoClass
	case Factory:
		return nonNil(t())
	case func() any:
		return nonNil(t())
	case string:
		f, ok := r.Factory(t)
		if !ok {
			return nil, fmt.Errorf("%w: no factory for tag %q", ErrNoClass, t)
		}
		return nonNil(f())
	case reflect.Type:
		return reflect.New(baseType(t)).Interface(), nil
	}
	return nil, fmt.Errorf("%w: unsupported class value %T", ErrNoClass, class)
}

func nonNil(v any) (any, error) {
	if isNil(v) {
		return nil, ErrNoClass
	}
	return v, nil
}

func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
