package represent

// Options are the mapping rules of one property. Unset OptionValues are
// absent; resolution then falls back to the built-in behavior.
type Options struct {
	// As is the document key; defaults to the property name.
	As OptionValue
	// Getter replaces the accessor read of the property value.
	Getter OptionValue
	// Setter replaces the whole set step; it receives the parsed value.
	Setter OptionValue
	// Set assigns the parsed value with full control over the object.
	Set OptionValue
	// Eval defers assignment until every property of the pass has been read.
	// The callable receives the captured value when its arity is one.
	Eval OptionValue

	// Default is substituted for a missing fragment on read and for a nil
	// value on write. Only honored when HasDefault is set (see WithDefault).
	Default    any
	HasDefault bool

	RenderFilter OptionValue
	ParseFilter  OptionValue

	// SkipRender and SkipParse are predicates; a truthy result skips the
	// property for this pass.
	SkipRender OptionValue
	SkipParse  OptionValue

	// Type coerces the parsed value right before it is set.
	Type OptionValue

	Collection bool
	Hash       bool

	// Class yields a Factory, a registry tag, or a reflect.Type for new nested
	// objects. Instance yields the nested object itself and is tried first.
	Class    OptionValue
	Instance OptionValue

	ExecContext ExecContext
	PassOptions bool

	// Writer and Reader take over the whole write or read of the property.
	// They receive the Document.
	Writer OptionValue
	Reader OptionValue

	// Schema maps nested values. Without it, nested values with a Class or
	// Instance option are mapped with the Config registered for their type.
	Schema *Config
	// Inherit keeps an already declared property's nested Schema as the base
	// of this declaration's Schema.
	Inherit bool

	// RenderNil forces a nil value to be written as a null fragment.
	RenderNil bool
}

// WithDefault returns a copy of o with default v.
func (o Options) WithDefault(v any) Options {
	o.Default = v
	o.HasDefault = true
	return o
}

// Definition is one named property of a Config. A Definition is never
// modified after it has been added; redeclaration replaces it.
type Definition struct {
	name string
	opts Options
}

// Name returns the property name.
func (d *Definition) Name() string { return d.name }

// Options returns a copy of the property's options.
func (d *Definition) Options() Options { return d.opts }

// HasDefault reports whether a default is configured.
func (d *Definition) HasDefault() bool { return d.opts.HasDefault }

// nested reports whether values of this property are objects mapped with a
// Config of their own.
func (d *Definition) nested() bool {
	return d.opts.Schema != nil || !d.opts.Class.IsAbsent() || !d.opts.Instance.IsAbsent()
}

// clone copies the definition including its nested Schema so later changes to
// the source Config do not leak into the copy.
func (d *Definition) clone() *Definition {
	c := &Definition{name: d.name, opts: d.opts}
	if d.opts.Schema != nil {
		c.opts.Schema = d.opts.Schema.Clone()
	}
	return c
}
