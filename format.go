package represent

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Format converts between wire bytes and document trees (*Object, *List and
// scalars). Concrete formats live under format/ and register themselves on
// import.
type Format interface {
	Name() string
	Decode(data []byte) (any, error)
	Encode(doc any) ([]byte, error)
}

var (
	formatsMu sync.RWMutex
	formats   = map[string]Format{}
)

// RegisterFormat makes f available by name; nil values are ignored and a
// later registration under the same name wins.
func RegisterFormat(f Format) {
	if f == nil {
		return
	}
	formatsMu.Lock()
	formats[f.Name()] = f
	formatsMu.Unlock()
}

// LookupFormat returns the format registered under name.
func LookupFormat(name string) (Format, bool) {
	formatsMu.RLock()
	f, ok := formats[name]
	formatsMu.RUnlock()
	return f, ok
}

// Formats lists registered format names in sorted order.
func Formats() []string {
	formatsMu.RLock()
	out := make([]string, 0, len(formats))
	for k := range formats {
		out = append(out, k)
	}
	formatsMu.RUnlock()
	sort.Strings(out)
	return out
}

// Marshal serializes target and encodes the document with f.
func Marshal(ctx context.Context, f Format, target any, opts ...MapOptions) ([]byte, error) {
	doc, err := Serialize(ctx, target, opts...)
	if err != nil {
		return nil, err
	}
	return f.Encode(doc)
}

// Unmarshal decodes data with f and deserializes the document onto target.
func Unmarshal(ctx context.Context, f Format, data []byte, target any, opts ...MapOptions) (any, error) {
	doc, err := f.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("represent: decode %s: %w", f.Name(), err)
	}
	return Deserialize(ctx, doc, target, opts...)
}
