// Package yamlfmt is the YAML document format, backed by gopkg.in/yaml.v3.
//
// Mappings decode into *represent.Object in document order, sequences into
// *represent.List; scalars keep the types yaml.v3 resolves for them. Aliases
// are expanded. Importing the package registers the format as "yaml".
package yamlfmt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	represent "github.com/reoring/represent"
)

// Format implements represent.Format. Indent defaults to two spaces. Strict
// rejects documents that repeat a key within one mapping.
type Format struct {
	Indent int
	Strict bool
}

var _ represent.Format = Format{}

func init() { represent.RegisterFormat(Format{}) }

// DuplicateKeyError reports a repeated mapping key with the positions of both
// occurrences.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("yamlfmt: duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// Name implements represent.Format.
func (Format) Name() string { return "yaml" }

// Decode parses the first document of a YAML stream. Empty input decodes to
// an empty object.
func (f Format) Decode(data []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return represent.NewObject(), nil
		}
		return nil, fmt.Errorf("yamlfmt: %w", err)
	}
	return f.fromNode(&root)
}

// DecodeAll parses every document of a multi-document YAML stream.
func (f Format) DecodeAll(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var root yaml.Node
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("yamlfmt: %w", err)
		}
		v, err := f.fromNode(&root)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (f Format) fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return f.fromNode(n.Content[0])
	case yaml.MappingNode:
		obj := represent.NewObject()
		var seen map[string]*yaml.Node
		if f.Strict {
			seen = make(map[string]*yaml.Node, len(n.Content)/2)
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Tag == "!!merge" {
				if err := f.mergeInto(obj, v); err != nil {
					return nil, err
				}
				continue
			}
			if seen != nil {
				if first, dup := seen[k.Value]; dup {
					return nil, &DuplicateKeyError{Key: k.Value, FirstLine: first.Line, FirstCol: first.Column, Line: k.Line, Col: k.Column}
				}
				seen[k.Value] = k
			}
			val, err := f.fromNode(v)
			if err != nil {
				return nil, err
			}
			obj.Write(k.Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := represent.NewList()
		for _, c := range n.Content {
			val, err := f.fromNode(c)
			if err != nil {
				return nil, err
			}
			list.Append(val)
		}
		return list, nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, nil
		}
		return f.fromNode(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("yamlfmt: line %d: %w", n.Line, err)
		}
		return normalizeScalar(v), nil
	}
	return nil, nil
}

// mergeInto applies a "<<" merge key; explicit keys already present win.
func (f Format) mergeInto(obj *represent.Object, v *yaml.Node) error {
	src, err := f.fromNode(v)
	if err != nil {
		return err
	}
	var sources []*represent.Object
	switch t := src.(type) {
	case *represent.Object:
		sources = append(sources, t)
	case *represent.List:
		for _, it := range t.Items() {
			if o, ok := it.(*represent.Object); ok {
				sources = append(sources, o)
			}
		}
	}
	for _, s := range sources {
		for k, val := range s.Pairs() {
			if _, exists := obj.Read(k); !exists {
				obj.Write(k, val)
			}
		}
	}
	return nil
}

// normalizeScalar widens integer scalars to int64 so documents decoded from
// YAML and JSON carry the same numeric types. Integers above the int64 range
// stay uint64, wider ones arrive as float64, as in format/jsonfmt.
func normalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case uint64:
		return t
	}
	return v
}

// Encode renders a document tree as a single YAML document.
func (f Format) Encode(doc any) ([]byte, error) {
	n, err := toNode(doc)
	if err != nil {
		return nil, err
	}
	indent := f.Indent
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(n); err != nil {
		return nil, fmt.Errorf("yamlfmt: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yamlfmt: %w", err)
	}
	return buf.Bytes(), nil
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *represent.Object:
		if t == nil {
			return toNode(nil)
		}
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, val := range t.Pairs() {
			vn, err := toNode(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, vn)
		}
		return n, nil
	case *represent.List:
		if t == nil {
			return toNode(nil)
		}
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range t.Items() {
			vn, err := toNode(it)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, vn)
		}
		return n, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := represent.NewObject()
		for _, k := range keys {
			obj.Write(k, t[k])
		}
		return toNode(obj)
	case []any:
		return toNode(represent.NewList(t...))
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("yamlfmt: %w", err)
	}
	return n, nil
}

// Marshal serializes target to YAML.
func Marshal(ctx context.Context, target any, opts ...represent.MapOptions) ([]byte, error) {
	return represent.Marshal(ctx, Format{}, target, opts...)
}

// Unmarshal decodes YAML data onto target.
func Unmarshal(ctx context.Context, data []byte, target any, opts ...represent.MapOptions) (any, error) {
	return represent.Unmarshal(ctx, Format{}, data, target, opts...)
}
