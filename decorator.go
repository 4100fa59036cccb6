package represent

// Decorator wraps a represented object without changing its type. A
// decorator passed to Serialize or Deserialize becomes the execution context
// of properties declared with ExecDecorator.
type Decorator interface {
	Represented() any
}

// Decorated is a generic Decorator carrying its own Config.
type Decorated struct {
	obj any
	cfg *Config
}

var (
	_ Decorator     = (*Decorated)(nil)
	_ Representable = (*Decorated)(nil)
)

// Decorate wraps obj so that it is mapped with cfg instead of the Config
// registered for its type.
func Decorate(obj any, cfg *Config) *Decorated { return &Decorated{obj: obj, cfg: cfg} }

// Represented implements Decorator.
func (d *Decorated) Represented() any { return d.obj }

// RepresentableConfig implements Representable.
func (d *Decorated) RepresentableConfig() *Config { return d.cfg }

// GetProperty reads from the represented object, letting a Decorated act as
// the execution context without defining accessors of its own.
func (d *Decorated) GetProperty(name string) (any, error) { return getProperty(d.obj, name) }

// SetProperty writes to the represented object.
func (d *Decorated) SetProperty(name string, v any) error { return setProperty(d.obj, name, v) }
