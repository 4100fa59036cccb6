// Package codec converts property values between their domain form and the
// form stored in documents, and routes those conversions through a
// property's options.
package codec

import (
	"context"
	"errors"

	represent "github.com/reoring/represent"
)

// Codec converts one property value. Encode runs on serialize (domain to
// document), Decode on deserialize (document to domain). Neither is called
// with a nil value.
type Codec interface {
	Encode(ctx context.Context, v any) (any, error)
	Decode(ctx context.Context, v any) (any, error)
}

// ErrInvalidValue wraps every conversion failure of the codecs in this package.
var ErrInvalidValue = errors.New("codec: invalid value")

// Apply returns opts with RenderFilter and Type routed through c. Defaults
// are applied after encoding on write and decoded like any parsed value on
// read. With PassOptions set the codec receives the pass context.
func Apply(opts represent.Options, c Codec) represent.Options {
	opts.RenderFilter = represent.Callable(1, func(_ any, args ...any) (any, error) {
		if args[0] == nil {
			return nil, nil
		}
		return c.Encode(contextOf(args), args[0])
	})
	opts.Type = represent.Callable(1, func(_ any, args ...any) (any, error) {
		if args[0] == nil {
			return nil, nil
		}
		return c.Decode(contextOf(args), args[0])
	})
	return opts
}

func contextOf(args []any) context.Context {
	if co, ok := args[len(args)-1].(*represent.CallOptions); ok && co != nil && co.Context != nil {
		return co.Context
	}
	return context.Background()
}

// Funcs builds a Codec from two functions. A nil function passes values through.
func Funcs(encode, decode func(ctx context.Context, v any) (any, error)) Codec {
	return funcCodec{enc: encode, dec: decode}
}

type funcCodec struct {
	enc, dec func(ctx context.Context, v any) (any, error)
}

func (c funcCodec) Encode(ctx context.Context, v any) (any, error) {
	if c.enc == nil {
		return v, nil
	}
	return c.enc(ctx, v)
}

func (c funcCodec) Decode(ctx context.Context, v any) (any, error) {
	if c.dec == nil {
		return v, nil
	}
	return c.dec(ctx, v)
}

// Identity returns a Codec that leaves values untouched.
func Identity() Codec { return funcCodec{} }
