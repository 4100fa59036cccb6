package represent

// Property declares a scalar or nested property.
func (c *Config) Property(name string, opts Options) *Definition {
	return c.Add(name, opts)
}

// Collection declares a sequence property. Unless a default is given, a
// missing fragment reads as, and a nil value writes as, an empty list.
func (c *Config) Collection(name string, opts Options) *Definition {
	opts.Collection = true
	if !opts.HasDefault {
		opts = opts.WithDefault([]any{})
	}
	return c.Add(name, opts)
}

// Hash declares a property whose value is a string-keyed map.
func (c *Config) Hash(name string, opts Options) *Definition {
	opts.Hash = true
	return c.Add(name, opts)
}

// Nested maps a document section onto the object itself: the properties
// declared by build are read from and written to document key name, but live
// on the represented object. Features of c are composed into the section.
func (c *Config) Nested(name string, opts Options, build func(*Config)) *Definition {
	section := NewConfig()
	for _, f := range c.load().features {
		section.Feature(f.name, f.cfg)
	}
	if build != nil {
		build(section)
	}
	opts.Schema = section
	opts.Getter = Call0(func(recv any) (any, error) { return representedOf(recv), nil })
	opts.Setter = Call1(func(any, any) (any, error) { return nil, nil })
	opts.Instance = Call0(func(recv any) (any, error) { return representedOf(recv), nil })
	return c.Add(name, opts)
}

// representedOf unwraps a Binding or Decorator receiver to the object it represents.
func representedOf(recv any) any {
	switch t := recv.(type) {
	case *Binding:
		return t.Represented()
	case Decorator:
		return t.Represented()
	}
	return recv
}
