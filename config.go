package represent

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

// Config is the ordered property schema of one type. Readers work on
// immutable snapshots; every mutation copies the current snapshot, edits the
// copy and publishes it, so a mapping pass never sees a half-applied change.
type Config struct {
	mu    sync.Mutex // serializes writers
	state atomic.Pointer[configState]

	// ready is set on Configs handed out by a Registry before their builder
	// has finished; reads block until it is closed.
	ready chan struct{}
}

type configState struct {
	defs     []*Definition
	index    map[string]int
	wrap     OptionValue
	features []feature
	after    OptionValue
}

type feature struct {
	name string
	cfg  *Config
}

var emptyState = &configState{index: map[string]int{}}

// NewConfig returns an empty Config.
func NewConfig() *Config { return &Config{} }

func (c *Config) load() *configState {
	if c == nil {
		return emptyState
	}
	if c.ready != nil {
		<-c.ready
	}
	if s := c.state.Load(); s != nil {
		return s
	}
	return emptyState
}

func pendingConfig() *Config { return &Config{ready: make(chan struct{})} }

// publish installs the built state and releases blocked readers.
func (c *Config) publish(s *configState) {
	c.state.Store(s)
	close(c.ready)
}

func (s *configState) clone() *configState {
	out := &configState{
		defs:     make([]*Definition, len(s.defs)),
		index:    make(map[string]int, len(s.index)),
		wrap:     s.wrap,
		features: append([]feature(nil), s.features...),
		after:    s.after,
	}
	copy(out.defs, s.defs)
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

func (s *configState) reindex() {
	s.index = make(map[string]int, len(s.defs))
	for i, d := range s.defs {
		s.index[d.name] = i
	}
}

func (c *Config) update(fn func(s *configState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.load().clone()
	fn(next)
	c.state.Store(next)
}

// Add declares a property. A new name is appended; an existing name is
// replaced in place, last write wins. When opts.Inherit is set and the
// existing declaration has a nested Schema, that schema becomes the base of
// the new one.
func (c *Config) Add(name string, opts Options) *Definition {
	def := &Definition{name: name, opts: opts}
	c.update(func(s *configState) {
		if i, ok := s.index[name]; ok {
			if opts.Inherit {
				def.opts.Schema = inheritNested(s.defs[i].opts.Schema, opts.Schema)
			}
			s.defs[i] = def
			return
		}
		s.index[name] = len(s.defs)
		s.defs = append(s.defs, def)
	})
	return def
}

// inheritNested returns child's nested schema merged over a copy of parent's.
func inheritNested(parent, child *Config) *Config {
	if parent == nil {
		return child
	}
	if child == nil {
		return parent.Clone()
	}
	out := child.Clone()
	out.Inherit(parent)
	return out
}

// Inherit merges parent into c. Parent properties c does not declare come
// first, cloned and in parent order; c's own properties follow in their
// existing order. On a name collision c's definition wins whole, except that
// a definition marked Inherit keeps the parent's nested Schema as its base.
// parent is never modified. Inheriting the same parent twice is a no-op the
// second time.
func (c *Config) Inherit(parent *Config) {
	if parent == nil || parent == c {
		return
	}
	ps := parent.load()
	c.update(func(s *configState) {
		defs := make([]*Definition, 0, len(ps.defs)+len(s.defs))
		for _, pd := range ps.defs {
			if _, own := s.index[pd.name]; !own {
				defs = append(defs, pd.clone())
			}
		}
		for _, cd := range s.defs {
			if cd.opts.Inherit {
				if i, ok := ps.index[cd.name]; ok && ps.defs[i].opts.Schema != nil {
					merged := &Definition{name: cd.name, opts: cd.opts}
					merged.opts.Schema = inheritNested(ps.defs[i].opts.Schema, cd.opts.Schema)
					cd = merged
				}
			}
			defs = append(defs, cd)
		}
		s.defs = defs
		s.reindex()
		if s.wrap.IsAbsent() {
			s.wrap = ps.wrap
		}
		if s.after.IsAbsent() {
			s.after = ps.after
		}
		for _, f := range ps.features {
			if !hasFeature(s.features, f.name) {
				s.features = append(s.features, f)
			}
		}
	})
}

// Replace overwrites c with src wholesale: no merge, nothing of c survives.
// Both configs start from the same snapshot; later Add calls on either side
// do not affect the other, but Definitions and nested Schemas are shared.
func (c *Config) Replace(src *Config) {
	ss := src.load()
	c.mu.Lock()
	c.state.Store(ss)
	c.mu.Unlock()
}

// Clone returns an independent copy of c.
func (c *Config) Clone() *Config {
	out := NewConfig()
	s := c.load().clone()
	for i, d := range s.defs {
		s.defs[i] = d.clone()
	}
	out.state.Store(s)
	return out
}

// Feature composes a named feature into c: its definitions are inherited and
// the feature is propagated into nested configs declared with Nested.
// Registering the same name twice has no further effect.
func (c *Config) Feature(name string, f *Config) {
	if hasFeature(c.load().features, name) {
		return
	}
	if f != nil {
		c.Inherit(f)
	}
	c.update(func(s *configState) {
		if !hasFeature(s.features, name) {
			s.features = append(s.features, feature{name: name, cfg: f})
		}
	})
}

func hasFeature(fs []feature, name string) bool {
	for _, f := range fs {
		if f.name == name {
			return true
		}
	}
	return false
}

// Features lists composed feature names in registration order.
func (c *Config) Features() []string {
	fs := c.load().features
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out
}

// SetWrap sets the wrap option: a static string, Static(true) to derive the
// name from the type, or a callable receiving the instance.
func (c *Config) SetWrap(o OptionValue) {
	c.update(func(s *configState) { s.wrap = o })
}

// After registers the hook run once at the end of each deserialize pass,
// bound to the represented object.
func (c *Config) After(o OptionValue) {
	c.update(func(s *configState) { s.after = o })
}

// Get returns the definition for name.
func (c *Config) Get(name string) (*Definition, bool) {
	s := c.load()
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.defs[i], true
}

// Definitions returns the definitions in declaration order.
func (c *Config) Definitions() []*Definition {
	defs := c.load().defs
	out := make([]*Definition, len(defs))
	copy(out, defs)
	return out
}

// Names returns the property names in declaration order.
func (c *Config) Names() []string {
	defs := c.load().defs
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.name
	}
	return out
}

// Len returns the number of definitions.
func (c *Config) Len() int { return len(c.load().defs) }

// WrapFor resolves the key the fragment set of obj nests under. ok is false
// when no wrap applies.
func (c *Config) WrapFor(typeName string, obj any) (name string, ok bool, err error) {
	return c.load().wrapFor(typeName, obj)
}

func (s *configState) wrapFor(typeName string, obj any) (string, bool, error) {
	v, present, err := resolveOption(s.wrap, obj, nil, obj)
	if err != nil || !present {
		return "", false, err
	}
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case bool:
		if !t {
			return "", false, nil
		}
		name := inferWrapName(typeName)
		return name, name != "", nil
	case string:
		return t, t != "", nil
	default:
		return fmt.Sprint(t), true, nil
	}
}

// inferWrapName derives a wrap key from a type name:
// "pkg.SongRepresenter" -> "song", "*pkg.BandInfo" -> "band_info".
func inferWrapName(typeName string) string {
	name := strings.TrimLeft(typeName, "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Representer")
	name = strings.TrimSuffix(name, "Decorator")
	rs := []rune(name)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1]) ||
				(i+1 < len(rs) && unicode.IsLower(rs[i+1]) && unicode.IsUpper(rs[i-1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// typeNameOf returns the name used for wrap inference.
func typeNameOf(v any) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
