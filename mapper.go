package represent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// MapOptions configures one Serialize or Deserialize call. When several are
// passed, the last one wins.
type MapOptions struct {
	// Include, when non-empty, restricts the pass to these property names.
	Include []string
	// Exclude drops these property names from the pass.
	Exclude []string
	// UserOptions are handed to callables through CallOptions and merged over
	// values stored with WithUserOptions.
	UserOptions map[string]any
	// Registry resolves nested configs and class tags; DefaultRegistry if nil.
	Registry *Registry
	// Logger receives debug records about skipped fragments, defaults and
	// hooks. Nil discards them.
	Logger *slog.Logger
}

type contextKey int

const _ctxKeyUserOptions contextKey = iota

// WithUserOptions returns a child context carrying user options for mapping
// passes started with it. Options in MapOptions take precedence.
func WithUserOptions(ctx context.Context, opts map[string]any) context.Context {
	merged := make(map[string]any, len(opts))
	for k, v := range UserOptionsFrom(ctx) {
		merged[k] = v
	}
	for k, v := range opts {
		merged[k] = v
	}
	return context.WithValue(ctx, _ctxKeyUserOptions, merged)
}

// UserOptionsFrom returns the user options stored in ctx.
func UserOptionsFrom(ctx context.Context) map[string]any {
	m, _ := ctx.Value(_ctxKeyUserOptions).(map[string]any)
	return m
}

func lastOpt(opts []MapOptions) MapOptions {
	if len(opts) == 0 {
		return MapOptions{}
	}
	return opts[len(opts)-1]
}

type phase uint8

const (
	phasePerProperty phase = iota
	phasePostHooks
	phaseDone
)

// deferredHook is an eval assignment queued during the per-property phase.
type deferredHook struct {
	property string
	run      func() error
}

// pass is the state of one mapping call. It owns the deferred hook queue, so
// hooks can never leak into another call.
type pass struct {
	ctx         context.Context
	reg         *Registry
	logger      *slog.Logger
	userOptions map[string]any
	include     []string
	exclude     []string
	phase       phase
	hooks       []deferredHook
}

var discardLogger = slog.New(slog.DiscardHandler)

func newPass(ctx context.Context, opt MapOptions) *pass {
	if ctx == nil {
		ctx = context.Background()
	}
	p := &pass{
		ctx:     ctx,
		reg:     opt.Registry,
		logger:  opt.Logger,
		include: opt.Include,
		exclude: opt.Exclude,
	}
	if p.reg == nil {
		p.reg = DefaultRegistry
	}
	if p.logger == nil {
		p.logger = discardLogger
	}
	p.userOptions = UserOptionsFrom(ctx)
	if len(opt.UserOptions) > 0 {
		merged := make(map[string]any, len(p.userOptions)+len(opt.UserOptions))
		for k, v := range p.userOptions {
			merged[k] = v
		}
		for k, v := range opt.UserOptions {
			merged[k] = v
		}
		p.userOptions = merged
	}
	if p.userOptions == nil {
		p.userOptions = map[string]any{}
	}
	return p
}

// child returns the pass for a nested object: same context, registry, logger
// and user options, a fresh hook queue, no include/exclude filter.
func (p *pass) child() *pass {
	return &pass{ctx: p.ctx, reg: p.reg, logger: p.logger, userOptions: p.userOptions}
}

func (p *pass) debug(msg, property string, attrs ...any) {
	if !p.logger.Enabled(p.ctx, slog.LevelDebug) {
		return
	}
	p.logger.DebugContext(p.ctx, msg, append([]any{slog.String("property", property)}, attrs...)...)
}

func (p *pass) deferHook(property string, run func() error) error {
	if p.phase != phasePerProperty {
		return fmt.Errorf("%w: eval for %s", ErrPassClosed, property)
	}
	p.hooks = append(p.hooks, deferredHook{property: property, run: run})
	return nil
}

func (p *pass) selected(name string) bool {
	if len(p.include) > 0 && !slices.Contains(p.include, name) {
		return false
	}
	return !slices.Contains(p.exclude, name)
}

// bindings builds one Binding per selected definition in declaration order.
func (p *pass) bindings(s *configState, represented, decorator any) []*Binding {
	out := make([]*Binding, 0, len(s.defs))
	for _, d := range s.defs {
		if !p.selected(d.name) {
			continue
		}
		out = append(out, newBinding(d, represented, decorator, p))
	}
	return out
}

// unwrap splits a mapping target into represented object and decorator.
func unwrap(target any) (represented, decorator any) {
	if d, ok := target.(Decorator); ok {
		return d.Represented(), d
	}
	return target, nil
}

// wrapTypeName picks the type whose name a `true` wrap is derived from: the
// decorator's own type, unless it is the generic Decorated.
func wrapTypeName(target, represented any) string {
	if _, ok := target.(*Decorated); ok {
		return typeNameOf(represented)
	}
	return typeNameOf(target)
}

func (p *pass) serialize(target any, cfg *Config, wrap bool) (*Object, error) {
	represented, decorator := unwrap(target)
	s := cfg.load()
	out := NewObject()
	for _, b := range p.bindings(s, represented, decorator) {
		if err := b.WriteFragment(out); err != nil {
			return nil, err
		}
	}
	p.phase = phaseDone
	if !wrap {
		return out, nil
	}
	name, ok, err := s.wrapFor(wrapTypeName(target, represented), represented)
	if err != nil || !ok {
		return out, err
	}
	wrapped := NewObject()
	wrapped.Write(name, out)
	return wrapped, nil
}

func (p *pass) deserialize(doc Document, target any, cfg *Config, wrap bool) (any, error) {
	represented, decorator := unwrap(target)
	s := cfg.load()
	if wrap {
		name, ok, err := s.wrapFor(wrapTypeName(target, represented), represented)
		if err != nil {
			return nil, err
		}
		if ok {
			inner, found := doc.Read(name)
			if d, isDoc := AsDocument(inner); found && isDoc {
				doc = d
			} else {
				doc = NewObject()
			}
		}
	}
	for _, b := range p.bindings(s, represented, decorator) {
		if err := b.ReadFragment(doc); err != nil {
			return nil, err
		}
	}
	p.phase = phasePostHooks
	hooks := p.hooks
	p.hooks = nil
	for _, h := range hooks {
		p.debug("represent: eval hook", h.property)
		if err := h.run(); err != nil {
			return nil, err
		}
	}
	if _, static := s.after.StaticValue(); static {
		return nil, fmt.Errorf("%w: after hook", ErrNotCallable)
	}
	if !s.after.IsAbsent() {
		p.debug("represent: after hook", "")
		if _, _, err := resolveOption(s.after, represented, nil); err != nil {
			return nil, err
		}
	}
	p.phase = phaseDone
	return represented, nil
}

func (p *pass) serializeNested(v any, cfg *Config) (*Object, error) {
	return p.child().serialize(v, cfg, false)
}

func (p *pass) deserializeNested(doc Document, target any, cfg *Config) (any, error) {
	return p.child().deserialize(doc, target, cfg, false)
}

// Mapper runs serialize and deserialize passes for a fixed Config.
type Mapper struct {
	cfg *Config
	opt MapOptions
}

// NewMapper returns a Mapper for cfg.
func NewMapper(cfg *Config, opts ...MapOptions) *Mapper {
	return &Mapper{cfg: cfg, opt: lastOpt(opts)}
}

// Serialize renders target into a document, wrapped under the wrap name when
// one is configured. target may be a Decorator.
func (m *Mapper) Serialize(ctx context.Context, target any) (*Object, error) {
	return newPass(ctx, m.opt).serialize(target, m.cfg, true)
}

// Deserialize maps doc onto target and returns the represented object. doc
// may be any value accepted by AsDocument.
func (m *Mapper) Deserialize(ctx context.Context, doc any, target any) (any, error) {
	d, ok := AsDocument(doc)
	if !ok {
		if doc != nil {
			return nil, &DeserializeError{Message: fmt.Sprintf("expected an object document, got %T", doc)}
		}
		d = NewObject()
	}
	return newPass(ctx, m.opt).deserialize(d, target, m.cfg, true)
}

// Serialize renders target with the Config of target (Representable) or the
// one registered for its type.
func Serialize(ctx context.Context, target any, opts ...MapOptions) (*Object, error) {
	opt := lastOpt(opts)
	cfg, err := configFor(opt, target)
	if err != nil {
		return nil, err
	}
	return NewMapper(cfg, opt).Serialize(ctx, target)
}

// Deserialize maps doc onto target with the Config of target (Representable)
// or the one registered for its type.
func Deserialize(ctx context.Context, doc any, target any, opts ...MapOptions) (any, error) {
	opt := lastOpt(opts)
	cfg, err := configFor(opt, target)
	if err != nil {
		return nil, err
	}
	return NewMapper(cfg, opt).Deserialize(ctx, doc, target)
}

func configFor(opt MapOptions, target any) (*Config, error) {
	reg := opt.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	if cfg, err := reg.ConfigFor(target); err == nil {
		return cfg, nil
	}
	represented, _ := unwrap(target)
	return reg.ConfigFor(represented)
}
