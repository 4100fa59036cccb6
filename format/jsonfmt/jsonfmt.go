// Package jsonfmt is the JSON document format, backed by goccy/go-json.
//
// Decoding keeps object key order (objects become *represent.Object, arrays
// *represent.List). Integral numbers decode as int64, or uint64 above the
// int64 range, other numbers as float64, matching format/yamlfmt. Importing
// the package registers the format as "json".
package jsonfmt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	represent "github.com/reoring/represent"
)

// Format implements represent.Format. Prefix and Indent pretty-print the
// output when either is set. RejectDuplicates fails decoding on a repeated
// object key instead of letting the last value win; MaxDepth > 0 bounds
// container nesting.
type Format struct {
	Prefix           string
	Indent           string
	RejectDuplicates bool
	MaxDepth         int
}

var _ represent.Format = Format{}

func init() { represent.RegisterFormat(Format{}) }

// DuplicateKeyError reports a repeated key in one JSON object.
type DuplicateKeyError struct {
	Key  string
	Path string // JSON Pointer of the enclosing object
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("jsonfmt: duplicate key %q at %s", e.Key, e.Path)
}

// ErrTooDeep is returned when nesting exceeds Format.MaxDepth.
var ErrTooDeep = errors.New("jsonfmt: maximum depth exceeded")

// Name implements represent.Format.
func (Format) Name() string { return "json" }

// Decode parses a single JSON value.
func (f Format) Decode(data []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	d := &decoder{dec: dec, f: f}
	v, err := d.value("")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("jsonfmt: %w", err)
		}
		return nil, errors.New("jsonfmt: trailing data after top-level value")
	}
	return v, nil
}

type decoder struct {
	dec   *j.Decoder
	f     Format
	depth int
}

func (d *decoder) value(path string) (any, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("jsonfmt: unexpected end of input")
		}
		return nil, fmt.Errorf("jsonfmt: %w", err)
	}
	return d.fromToken(tok, path)
}

func (d *decoder) enter(path string) error {
	d.depth++
	if d.f.MaxDepth > 0 && d.depth > d.f.MaxDepth {
		return fmt.Errorf("%w (%d) at %s", ErrTooDeep, d.f.MaxDepth, pointer(path))
	}
	return nil
}

func (d *decoder) fromToken(tok j.Token, path string) (any, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			if err := d.enter(path); err != nil {
				return nil, err
			}
			defer func() { d.depth-- }()
			obj := represent.NewObject()
			for {
				kt, err := d.dec.Token()
				if err != nil {
					return nil, fmt.Errorf("jsonfmt: %w", err)
				}
				if dl, ok := kt.(j.Delim); ok && dl == '}' {
					return obj, nil
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("jsonfmt: expected object key, got %v", kt)
				}
				if _, dup := obj.Read(key); dup && d.f.RejectDuplicates {
					return nil, &DuplicateKeyError{Key: key, Path: pointer(path)}
				}
				val, err := d.value(path + "/" + escape(key))
				if err != nil {
					return nil, err
				}
				obj.Write(key, val)
			}
		case '[':
			if err := d.enter(path); err != nil {
				return nil, err
			}
			defer func() { d.depth-- }()
			list := represent.NewList()
			for i := 0; ; i++ {
				t, err := d.dec.Token()
				if err != nil {
					return nil, fmt.Errorf("jsonfmt: %w", err)
				}
				if dl, ok := t.(j.Delim); ok && dl == ']' {
					return list, nil
				}
				val, err := d.fromToken(t, path+"/"+strconv.Itoa(i))
				if err != nil {
					return nil, err
				}
				list.Append(val)
			}
		}
		return nil, fmt.Errorf("jsonfmt: unexpected delimiter %q", rune(v))
	case j.Number:
		return number(v), nil
	case float64:
		// decoders that ignore UseNumber hand back float64
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v), nil
		}
		return v, nil
	case string, bool, nil:
		return v, nil
	}
	return nil, fmt.Errorf("jsonfmt: unexpected token %T", tok)
}

func pointer(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func escape(key string) string {
	return strings.ReplaceAll(strings.ReplaceAll(key, "~", "~0"), "/", "~1")
}

func number(n j.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return u
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	// the token aliases the decoder's buffer
	return strings.Clone(string(n))
}

// Encode renders a document tree. Plain maps are emitted with sorted keys.
func (f Format) Encode(doc any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, doc); err != nil {
		return nil, err
	}
	if f.Prefix == "" && f.Indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := j.Indent(&out, buf.Bytes(), f.Prefix, f.Indent); err != nil {
		return nil, fmt.Errorf("jsonfmt: %w", err)
	}
	return out.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case *represent.Object:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		i := 0
		for k, val := range t.Pairs() {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			kb, err := j.Marshal(k)
			if err != nil {
				return fmt.Errorf("jsonfmt: key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeValue(buf, val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case *represent.List:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('[')
		for i, it := range t.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, it); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any, []any:
		return encodeValue(buf, represent.FromNative(t))
	}
	b, err := j.Marshal(v)
	if err != nil {
		return fmt.Errorf("jsonfmt: %w", err)
	}
	buf.Write(b)
	return nil
}

// Marshal serializes target to JSON.
func Marshal(ctx context.Context, target any, opts ...represent.MapOptions) ([]byte, error) {
	return represent.Marshal(ctx, Format{}, target, opts...)
}

// MarshalIndent is Marshal with two-space indentation.
func MarshalIndent(ctx context.Context, target any, opts ...represent.MapOptions) ([]byte, error) {
	return represent.Marshal(ctx, Format{Indent: "  "}, target, opts...)
}

// Unmarshal decodes JSON data onto target.
func Unmarshal(ctx context.Context, data []byte, target any, opts ...represent.MapOptions) (any, error) {
	return represent.Unmarshal(ctx, Format{}, data, target, opts...)
}
