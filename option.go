package represent

import (
	"context"
	"fmt"
	"reflect"
)

type optionKind uint8

const (
	optionAbsent optionKind = iota
	optionStatic
	optionCallable
	optionMethod
)

// Func is the body of a callable option. recv is the execution context the
// option is bound to for this call (the represented object, the Binding, or a
// decorator); args holds exactly the declared arity of positional values,
// followed by a *CallOptions bundle when the property sets PassOptions.
type Func func(recv any, args ...any) (any, error)

// OptionValue is a per-property behavior: absent, a static value, a callable
// with a declared arity, or the name of a method on the execution context.
// The zero value is Absent.
type OptionValue struct {
	kind   optionKind
	static any
	arity  int
	fn     Func
	method string
}

// Absent returns the absent option. Resolution falls back to the caller's
// default behavior.
func Absent() OptionValue { return OptionValue{} }

// Static returns an option that always resolves to v.
func Static(v any) OptionValue { return OptionValue{kind: optionStatic, static: v} }

// Callable returns an option invoking fn with arity positional arguments.
// Negative arities are treated as zero.
func Callable(arity int, fn Func) OptionValue {
	if fn == nil {
		return OptionValue{}
	}
	if arity < 0 {
		arity = 0
	}
	return OptionValue{kind: optionCallable, arity: arity, fn: fn}
}

// Method returns an option invoking the named method on the execution context
// with no arguments.
func Method(name string) OptionValue {
	if name == "" {
		return OptionValue{}
	}
	return OptionValue{kind: optionMethod, method: name}
}

// Call0 is Callable(0, ...) for functions that only need the receiver.
func Call0(fn func(recv any) (any, error)) OptionValue {
	if fn == nil {
		return OptionValue{}
	}
	return Callable(0, func(recv any, _ ...any) (any, error) { return fn(recv) })
}

// Call1 is Callable(1, ...) for functions taking the processed value.
func Call1(fn func(recv, v any) (any, error)) OptionValue {
	if fn == nil {
		return OptionValue{}
	}
	return Callable(1, func(recv any, args ...any) (any, error) { return fn(recv, args[0]) })
}

// CallOpts is Callable(1, ...) for functions that also want the options
// bundle. The property must set PassOptions for opts to be non-nil.
func CallOpts(fn func(recv, v any, opts *CallOptions) (any, error)) OptionValue {
	if fn == nil {
		return OptionValue{}
	}
	return Callable(1, func(recv any, args ...any) (any, error) {
		var co *CallOptions
		if len(args) > 1 {
			co, _ = args[1].(*CallOptions)
		}
		return fn(recv, args[0], co)
	})
}

// IsAbsent reports whether the option is unset.
func (o OptionValue) IsAbsent() bool { return o.kind == optionAbsent }

// IsCallable reports whether resolution invokes user code.
func (o OptionValue) IsCallable() bool { return o.kind == optionCallable || o.kind == optionMethod }

// Arity is the declared positional arity of a callable option; zero otherwise.
func (o OptionValue) Arity() int { return o.arity }

// StaticValue returns the static payload and whether the option is static.
func (o OptionValue) StaticValue() (any, bool) { return o.static, o.kind == optionStatic }

func (o OptionValue) String() string {
	switch o.kind {
	case optionStatic:
		return fmt.Sprintf("static(%v)", o.static)
	case optionCallable:
		return fmt.Sprintf("callable/%d", o.arity)
	case optionMethod:
		return "method(" + o.method + ")"
	default:
		return "absent"
	}
}

// ExecContext selects the receiver callable options and default accessors are
// bound to.
type ExecContext uint8

const (
	ExecRepresented ExecContext = iota // The represented object (default).
	ExecBinding                        // The *Binding for the current property.
	ExecDecorator                      // The decorator wrapping the represented object.
)

// CallOptions is the trailing argument handed to callables of properties that
// set PassOptions.
type CallOptions struct {
	Binding     *Binding
	UserOptions map[string]any
	Represented any
	Decorator   any
	Context     context.Context
}

// MethodInvoker lets an execution context dispatch MethodName options without
// reflection.
type MethodInvoker interface {
	InvokeMethod(name string) (any, error)
}

// resolveOption evaluates o against recv. present is false only for absent
// options; callers then run their fallback. The resolver keeps no state.
func resolveOption(o OptionValue, recv any, bundle *CallOptions, args ...any) (v any, present bool, err error) {
	switch o.kind {
	case optionAbsent:
		return nil, false, nil
	case optionStatic:
		return o.static, true, nil
	case optionMethod:
		v, err := invokeMethod(recv, o.method)
		return v, true, err
	}
	n := o.arity
	if bundle != nil {
		n++
	}
	call := make([]any, n)
	copy(call[:o.arity], args)
	if bundle != nil {
		call[o.arity] = bundle
	}
	v, err = o.fn(recv, call...)
	return v, true, err
}

func invokeMethod(recv any, name string) (any, error) {
	if mi, ok := recv.(MethodInvoker); ok {
		return mi.InvokeMethod(name)
	}
	if recv == nil {
		return nil, fmt.Errorf("%w: %s on nil receiver", ErrNoMethod, name)
	}
	m := reflect.ValueOf(recv).MethodByName(name)
	if !m.IsValid() || m.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%w: %T.%s", ErrNoMethod, recv, name)
	}
	return callResults(m.Call(nil))
}

// callResults folds reflected results of shape (), (v), (err) or (v, err).
func callResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if isErrorType(out[0].Type()) {
			return nil, asError(out[0])
		}
		return valueOf(out[0]), nil
	default:
		return valueOf(out[0]), asError(out[len(out)-1])
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func isErrorType(t reflect.Type) bool { return t == errorType }

func asError(v reflect.Value) error {
	if !v.IsValid() || !isErrorType(v.Type()) || v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
