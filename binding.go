package represent

import (
	"context"
	"fmt"
	"log/slog"
)

// Binding pairs one Definition with one represented object for a single
// mapping pass. Bindings are created by the Mapper per call and never reused.
type Binding struct {
	def         *Definition
	represented any
	decorator   any
	execCtx     any
	pass        *pass
}

var _ Accessor = (*Binding)(nil)

func newBinding(def *Definition, represented, decorator any, p *pass) *Binding {
	b := &Binding{def: def, represented: represented, decorator: decorator, pass: p}
	switch def.opts.ExecContext {
	case ExecBinding:
		b.execCtx = b
	case ExecDecorator:
		b.execCtx = decorator
		if b.execCtx == nil {
			// without a decorator the representer is the object itself
			b.execCtx = represented
		}
	default:
		b.execCtx = represented
	}
	return b
}

// Name returns the property name.
func (b *Binding) Name() string { return b.def.name }

// Definition returns the property definition.
func (b *Binding) Definition() *Definition { return b.def }

// Represented returns the object being mapped.
func (b *Binding) Represented() any { return b.represented }

// Decorator returns the decorator of the pass, or nil.
func (b *Binding) Decorator() any { return b.decorator }

// UserOptions returns the pass-scoped user options.
func (b *Binding) UserOptions() map[string]any { return b.pass.userOptions }

// Context returns the context of the pass.
func (b *Binding) Context() context.Context { return b.pass.ctx }

// GetProperty reads from the represented object so a Binding execution
// context keeps the default accessors working.
func (b *Binding) GetProperty(name string) (any, error) { return getProperty(b.represented, name) }

// SetProperty writes to the represented object.
func (b *Binding) SetProperty(name string, v any) error { return setProperty(b.represented, name, v) }

// As resolves the document key of the property.
func (b *Binding) As() (string, error) {
	v, present, err := b.evaluate(b.def.opts.As)
	if err != nil {
		return "", err
	}
	if !present || v == nil {
		return b.def.name, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

func (b *Binding) evaluate(o OptionValue, args ...any) (any, bool, error) {
	if o.IsAbsent() {
		return nil, false, nil
	}
	var bundle *CallOptions
	if b.def.opts.PassOptions {
		bundle = &CallOptions{
			Binding:     b,
			UserOptions: b.pass.userOptions,
			Represented: b.represented,
			Decorator:   b.decorator,
			Context:     b.pass.ctx,
		}
	}
	return resolveOption(o, b.execCtx, bundle, args...)
}

// invoke is evaluate for options that only make sense as callables.
func (b *Binding) invoke(o OptionValue, what string, args ...any) (any, bool, error) {
	if _, static := o.StaticValue(); static {
		return nil, true, fmt.Errorf("%w: %s of %s", ErrNotCallable, what, b.def.name)
	}
	return b.evaluate(o, args...)
}

// WriteFragment renders the property into doc.
func (b *Binding) WriteFragment(doc Document) error {
	opts := &b.def.opts
	if _, present, err := b.invoke(opts.Writer, "writer", doc); present || err != nil {
		return err
	}
	v, err := b.Get()
	if err != nil {
		return err
	}
	if skip, err := b.predicate(opts.SkipRender, v); err != nil || skip {
		if skip {
			b.pass.debug("represent: render skipped", b.def.name)
		}
		return err
	}
	if fv, present, err := b.evaluate(opts.RenderFilter, v); err != nil {
		return err
	} else if present {
		v = fv
	}
	if isNil(v) && opts.HasDefault {
		v = opts.Default
		b.pass.debug("represent: default rendered", b.def.name)
	}
	if isNil(v) && !opts.RenderNil {
		b.pass.debug("represent: nil value omitted", b.def.name)
		return nil
	}
	key, err := b.As()
	if err != nil {
		return err
	}
	out, err := b.serialize(v)
	if err != nil {
		return err
	}
	doc.Write(key, out)
	return nil
}

// ReadFragment parses the property from doc into the object.
func (b *Binding) ReadFragment(doc Document) error {
	opts := &b.def.opts
	if _, present, err := b.invoke(opts.Reader, "reader", doc); present || err != nil {
		return err
	}
	key, err := b.As()
	if err != nil {
		return err
	}
	raw, found := doc.Read(key)
	if !found {
		if !opts.HasDefault {
			b.pass.debug("represent: fragment not found", b.def.name, slog.String("key", key))
			return nil
		}
		raw = opts.Default
		b.pass.debug("represent: default parsed", b.def.name, slog.String("key", key))
	}
	if skip, err := b.predicate(opts.SkipParse, raw); err != nil || skip {
		if skip {
			b.pass.debug("represent: parse skipped", b.def.name, slog.String("key", key))
		}
		return err
	}
	v := raw
	if found {
		if v, err = b.deserialize(key, raw); err != nil {
			return err
		}
	}
	if fv, present, err := b.evaluate(opts.ParseFilter, v); err != nil {
		return err
	} else if present {
		v = fv
	}
	return b.Set(v)
}

// Get reads the property value through the getter option or the execution
// context's accessor.
func (b *Binding) Get() (any, error) {
	if v, present, err := b.evaluate(b.def.opts.Getter); present || err != nil {
		return v, err
	}
	return getProperty(b.execCtx, b.def.name)
}

// Set assigns a parsed value. The Setter option takes over entirely;
// otherwise Type coerces the value and the result goes to a deferred Eval,
// the Set option or the accessor. Eval receives the value as it was before
// coercion.
func (b *Binding) Set(v any) error {
	opts := &b.def.opts
	if _, present, err := b.invoke(opts.Setter, "setter", v); present || err != nil {
		return err
	}
	captured := v
	if cv, present, err := b.evaluate(opts.Type, v); err != nil {
		return err
	} else if present {
		v = cv
	}
	if !opts.Eval.IsAbsent() {
		if _, static := opts.Eval.StaticValue(); static {
			return fmt.Errorf("%w: eval of %s", ErrNotCallable, b.def.name)
		}
		return b.pass.deferHook(b.def.name, func() error {
			ev, _, err := b.evaluate(opts.Eval, captured)
			if err != nil {
				return err
			}
			return setProperty(b.execCtx, b.def.name, ev)
		})
	}
	if _, present, err := b.invoke(opts.Set, "set", v); present || err != nil {
		return err
	}
	return setProperty(b.execCtx, b.def.name, v)
}

// predicate resolves a skip option; anything but nil and false is truthy.
func (b *Binding) predicate(o OptionValue, v any) (bool, error) {
	r, present, err := b.evaluate(o, v)
	if err != nil || !present {
		return false, err
	}
	if t, ok := r.(bool); ok {
		return t, nil
	}
	return !isNil(r), nil
}

func (b *Binding) serialize(v any) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	opts := &b.def.opts
	switch {
	case opts.Collection:
		items, ok := listItems(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s: collection value %T is not a sequence", ErrTypeMismatch, b.def.name, v)
		}
		list := NewList()
		for _, it := range items {
			out, err := b.serializeItem(it)
			if err != nil {
				return nil, err
			}
			list.Append(out)
		}
		return list, nil
	case opts.Hash:
		pairs, ok := objectPairs(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s: hash value %T is not a string-keyed map", ErrTypeMismatch, b.def.name, v)
		}
		obj := NewObject()
		for _, p := range pairs {
			out, err := b.serializeItem(p.Value)
			if err != nil {
				return nil, err
			}
			obj.Write(p.Key, out)
		}
		return obj, nil
	}
	return b.serializeItem(v)
}

func (b *Binding) serializeItem(v any) (any, error) {
	if !b.def.nested() || isNil(v) {
		return v, nil
	}
	cfg := b.def.opts.Schema
	if cfg == nil {
		var err error
		if cfg, err = b.pass.reg.ConfigFor(v); err != nil {
			return nil, err
		}
	}
	return b.pass.serializeNested(v, cfg)
}

func (b *Binding) deserialize(key string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	opts := &b.def.opts
	if !b.def.nested() {
		return raw, nil
	}
	switch {
	case opts.Collection:
		items, ok := listItems(raw)
		if !ok {
			return nil, b.deserializeError(key, fmt.Sprintf("expected a sequence, got %T", raw), nil)
		}
		out := make([]any, len(items))
		for i, it := range items {
			v, err := b.deserializeItem(key, it, i)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case opts.Hash:
		pairs, ok := objectPairs(raw)
		if !ok {
			return nil, b.deserializeError(key, fmt.Sprintf("expected a map, got %T", raw), nil)
		}
		out := make(map[string]any, len(pairs))
		for _, p := range pairs {
			v, err := b.deserializeItem(key, p.Value, p.Key)
			if err != nil {
				return nil, err
			}
			out[p.Key] = v
		}
		return out, nil
	}
	return b.deserializeItem(key, raw)
}

// deserializeItem builds the target for one nested fragment and maps the
// fragment onto it. extra carries the item index or hash key.
func (b *Binding) deserializeItem(key string, frag any, extra ...any) (any, error) {
	if frag == nil {
		return nil, nil
	}
	doc, ok := AsDocument(frag)
	if !ok {
		return nil, b.deserializeError(key, fmt.Sprintf("expected an object fragment, got %T", frag), nil)
	}
	target, err := b.createObject(key, frag, extra...)
	if err != nil {
		return nil, err
	}
	cfg := b.def.opts.Schema
	if cfg == nil {
		if cfg, err = b.pass.reg.ConfigFor(target); err != nil {
			return nil, b.deserializeError(key, err.Error(), err)
		}
	}
	return b.pass.deserializeNested(doc, target, cfg)
}

// createObject resolves the nested target: instance first, then a fresh
// object from class. Prior values stored on the object are never reused.
func (b *Binding) createObject(key string, frag any, extra ...any) (any, error) {
	args := append([]any{frag}, extra...)
	opts := &b.def.opts
	inst, present, err := b.evaluate(opts.Instance, args...)
	if err != nil {
		return nil, err
	}
	if present && !isNil(inst) {
		return inst, nil
	}
	class, classPresent, err := b.evaluate(opts.Class, args...)
	if err != nil {
		return nil, err
	}
	if !classPresent {
		cause := ErrNoClass
		if present {
			cause = ErrNoInstance
		}
		return nil, b.deserializeError(key, cause.Error(), cause)
	}
	obj, err := b.pass.reg.newFromClass(class)
	if err != nil {
		return nil, b.deserializeError(key, err.Error(), err)
	}
	return obj, nil
}

func (b *Binding) deserializeError(key, msg string, cause error) error {
	return &DeserializeError{Property: b.def.name, Key: key, Message: msg, Cause: cause}
}
