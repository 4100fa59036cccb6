package represent

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced lazily while a binding executes. Configuration is
// never validated up front, so these show up on the first pass that trips them.
var (
	// ErrNoClass is the cause of a DeserializeError when the class option is
	// absent or resolves to nothing usable.
	ErrNoClass = errors.New("represent: class did not resolve to a factory")
	// ErrNoInstance is the cause of a DeserializeError when neither instance
	// nor class produced a target object.
	ErrNoInstance = errors.New("represent: instance did not return an object")
	// ErrNotCallable reports an option that must be invoked but holds a static value.
	ErrNotCallable = errors.New("represent: option is not callable")
	// ErrNoAccessor reports a property that cannot be read or written on the
	// execution context.
	ErrNoAccessor = errors.New("represent: property is not accessible")
	// ErrNoMethod reports a MethodName option naming a method the execution
	// context does not have.
	ErrNoMethod = errors.New("represent: method not found")
	// ErrTypeMismatch reports a value that cannot be assigned to its target field.
	ErrTypeMismatch = errors.New("represent: value not assignable")
	// ErrNoConfig reports an object type with no registered Config.
	ErrNoConfig = errors.New("represent: no config registered for type")
	// ErrNoService reports a service missing from the pass context.
	ErrNoService = errors.New("represent: service not provided")
	// ErrPassClosed reports a deferred hook registered after the per-property
	// phase of a pass has ended.
	ErrPassClosed = errors.New("represent: pass is past the per-property phase")
)

// DeserializeError is returned when a nested fragment cannot be turned into an
// object: the instance/class factories yielded no usable target, or the
// fragment has the wrong shape for the property.
type DeserializeError struct {
	Property string // Definition name.
	Key      string // Document key the fragment was read from.
	Message  string
	Cause    error
}

func (e *DeserializeError) Error() string {
	if e.Key != "" && e.Key != e.Property {
		return fmt.Sprintf("represent: deserialize %s (key %q): %s", e.Property, e.Key, e.Message)
	}
	return fmt.Sprintf("represent: deserialize %s: %s", e.Property, e.Message)
}

func (e *DeserializeError) Unwrap() error { return e.Cause }

// AsDeserializeError extracts a *DeserializeError from err using errors.As.
func AsDeserializeError(err error) (*DeserializeError, bool) {
	if err == nil {
		return nil, false
	}
	var de *DeserializeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
