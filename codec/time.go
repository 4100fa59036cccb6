package codec

import (
	"context"
	"fmt"
	"time"
)

// TimeRFC3339 returns a Codec between RFC3339 strings and time.Time.
// Encoding normalizes to UTC; decoding accepts fractional seconds.
func TimeRFC3339() Codec { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) Encode(_ context.Context, v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return formatRFC3339Canonical(t), nil
	case *time.Time:
		return formatRFC3339Canonical(*t), nil
	case string:
		// already wire form; validate it
		if _, err := parseRFC3339(t); err != nil {
			return nil, fmt.Errorf("%w: %q is not RFC3339: %v", ErrInvalidValue, t, err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: expected time.Time, got %T", ErrInvalidValue, v)
}

func (rfc3339Codec) Decode(_ context.Context, v any) (any, error) {
	switch t := v.(type) {
	case string:
		tm, err := parseRFC3339(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not RFC3339: %v", ErrInvalidValue, t, err)
		}
		return tm, nil
	case time.Time:
		return t, nil
	}
	return nil, fmt.Errorf("%w: expected an RFC3339 string, got %T", ErrInvalidValue, v)
}

func parseRFC3339(s string) (time.Time, error) {
	// RFC3339Nano accepts inputs without fractional seconds too
	return time.Parse(time.RFC3339Nano, s)
}

func formatRFC3339Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Duration returns a Codec between Go duration strings ("1h30m") and
// time.Duration. Integral document numbers are read as nanoseconds.
func Duration() Codec { return durationCodec{} }

type durationCodec struct{}

func (durationCodec) Encode(_ context.Context, v any) (any, error) {
	switch d := v.(type) {
	case time.Duration:
		return d.String(), nil
	case *time.Duration:
		return d.String(), nil
	}
	return nil, fmt.Errorf("%w: expected time.Duration, got %T", ErrInvalidValue, v)
}

func (durationCodec) Decode(_ context.Context, v any) (any, error) {
	switch d := v.(type) {
	case string:
		out, err := time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return out, nil
	case int64:
		return time.Duration(d), nil
	case int:
		return time.Duration(d), nil
	case time.Duration:
		return d, nil
	}
	return nil, fmt.Errorf("%w: expected a duration string, got %T", ErrInvalidValue, v)
}
