package represent

import (
	"context"
	"fmt"
	"reflect"
)

// Services are typed dependencies a caller attaches to the context of a
// mapping pass. Option callables declared with PassOptions find them in the
// CallOptions bundle, so a render filter can reach, say, a URL builder
// without the represented object carrying it.

type serviceKey[T any] struct{}

// WithService returns a child of ctx carrying svc under its static type T.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, svc)
}

// Service looks up the T stored by WithService. A nil ctx holds nothing.
func Service[T any](ctx context.Context) (T, bool) {
	if ctx == nil {
		var zero T
		return zero, false
	}
	svc, ok := ctx.Value(serviceKey[T]{}).(T)
	return svc, ok
}

// RequireService is Service that reports a missing service as ErrNoService.
func RequireService[T any](ctx context.Context) (T, error) {
	svc, ok := Service[T](ctx)
	if !ok {
		return svc, fmt.Errorf("%w: %s", ErrNoService, reflect.TypeFor[T]())
	}
	return svc, nil
}

// PassService resolves T from the pass context of an option call. It fails
// with ErrNoService when o is nil, which is the case for properties that do
// not set PassOptions.
func PassService[T any](o *CallOptions) (T, error) {
	if o == nil {
		var zero T
		return zero, fmt.Errorf("%w: %s (PassOptions not set)", ErrNoService, reflect.TypeFor[T]())
	}
	return RequireService[T](o.Context)
}
