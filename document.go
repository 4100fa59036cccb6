package represent

import (
	"iter"
	"reflect"
	"sort"
)

// Document is the tree interface bindings read from and write into. Concrete
// formats decode into and encode from it.
type Document interface {
	// Read returns the fragment under key; found is false when the key is absent.
	Read(key string) (v any, found bool)
	// Write stores v under key, replacing any previous fragment.
	Write(key string, v any)
}

// Pair is one key/value entry of an Object.
type Pair struct {
	Key   string
	Value any
}

// Object is an insertion-ordered map document. The zero value is ready to use.
type Object struct {
	keys []string
	vals map[string]any
}

var _ Document = (*Object)(nil)

// NewObject returns an empty Object.
func NewObject() *Object { return &Object{} }

// Read implements Document.
func (o *Object) Read(key string) (any, bool) {
	if o == nil || o.vals == nil {
		return nil, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Write implements Document. Rewriting an existing key keeps its position.
func (o *Object) Write(key string, v any) {
	if o.vals == nil {
		o.vals = make(map[string]any)
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key when present.
func (o *Object) Delete(key string) {
	if o == nil || o.vals == nil {
		return
	}
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Pairs iterates entries in insertion order.
func (o *Object) Pairs() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

// List is a sequence document fragment.
type List struct {
	items []any
}

// NewList returns a List holding items.
func NewList(items ...any) *List { return &List{items: items} }

// Append adds v at the end.
func (l *List) Append(v any) { l.items = append(l.items, v) }

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Items returns the backing items; callers must not modify the slice.
func (l *List) Items() []any {
	if l == nil {
		return nil
	}
	return l.items
}

// mapDocument adapts a decoded map[string]any to Document.
type mapDocument map[string]any

func (m mapDocument) Read(key string) (any, bool) { v, ok := m[key]; return v, ok }
func (m mapDocument) Write(key string, v any)     { m[key] = v }

// AsDocument adapts v to Document. *Object, Document implementations and
// map[string]any are accepted.
func AsDocument(v any) (Document, bool) {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil, false
		}
		return t, true
	case Document:
		return t, true
	case map[string]any:
		if t == nil {
			return nil, false
		}
		return mapDocument(t), true
	}
	return nil, false
}

// listItems returns the items of a sequence fragment or Go slice/array.
func listItems(v any) ([]any, bool) {
	switch t := v.(type) {
	case *List:
		return t.Items(), true
	case []any:
		return t, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar, not a sequence
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = valueOf(rv.Index(i))
	}
	return out, true
}

// objectPairs returns the entries of a hash fragment or string-keyed Go map.
// Go maps are emitted in sorted key order for deterministic output.
func objectPairs(v any) ([]Pair, bool) {
	switch t := v.(type) {
	case *Object:
		out := make([]Pair, 0, t.Len())
		for k, val := range t.Pairs() {
			out = append(out, Pair{Key: k, Value: val})
		}
		return out, true
	case mapDocument:
		return objectPairs(map[string]any(t))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		out = append(out, Pair{Key: k, Value: valueOf(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())))})
	}
	return out, true
}

// ToNative converts an Object/List tree into map[string]any and []any values.
func ToNative(v any) any {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		for k, val := range t.Pairs() {
			out[k] = ToNative(val)
		}
		return out
	case *List:
		if t == nil {
			return nil
		}
		out := make([]any, t.Len())
		for i, it := range t.Items() {
			out[i] = ToNative(it)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = ToNative(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = ToNative(it)
		}
		return out
	}
	return v
}

// FromNative converts map[string]any and []any values into an Object/List
// tree. Map keys are inserted in sorted order.
func FromNative(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			o.Write(k, FromNative(t[k]))
		}
		return o
	case []any:
		l := &List{items: make([]any, len(t))}
		for i, it := range t {
			l.items[i] = FromNative(it)
		}
		return l
	}
	return v
}
