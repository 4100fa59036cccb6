package main

import (
	represent "github.com/reoring/represent"
)

// record is a schemaless object: every top-level document key becomes a
// property held in vals.
type record struct {
	vals map[string]any
}

func newRecord() *record { return &record{vals: map[string]any{}} }

func (r *record) GetProperty(name string) (any, error) { return r.vals[name], nil }

func (r *record) SetProperty(name string, v any) error {
	r.vals[name] = v
	return nil
}

// recordConfig declares one property per key, in document order. Renamed
// keys are read under their old name and written under the new one.
func recordConfig(keys []string, renames map[string]string) *represent.Config {
	cfg := represent.NewConfig()
	for _, k := range keys {
		opts := represent.Options{RenderNil: true}
		if to, ok := renames[k]; ok {
			name := k
			opts.Writer = represent.Callable(1, func(recv any, args ...any) (any, error) {
				doc := args[0].(represent.Document)
				v, err := recv.(*record).GetProperty(name)
				if err != nil {
					return nil, err
				}
				doc.Write(to, represent.FromNative(v))
				return nil, nil
			})
		}
		cfg.Property(k, opts)
	}
	return cfg
}

// wrapped returns a copy of cfg that nests its output under key.
func wrapped(cfg *represent.Config, key string) *represent.Config {
	if key == "" {
		return cfg
	}
	out := cfg.Clone()
	out.SetWrap(represent.Static(key))
	return out
}
