package represent

// Package represent provides:
//
// - Declarative, ordered property schemas (Config) mapping Go objects to document trees and back
// - Per-property options: key renaming, getters/setters, filters, skip predicates, defaults, deferred eval
// - Nested objects, collections and hashes built through instance/class factories
// - Schema inheritance and feature composition with copy-on-write snapshots
// - Pluggable wire formats (format/jsonfmt, format/yamlfmt) over ordered Object/List trees
//
// Design policy:
// - Configuration is never validated up front; misconfiguration surfaces as errors on the first pass.
// - Every Serialize/Deserialize call owns its bindings and its deferred hook queue.
// - Keep only public APIs in the root package; formats live under format/ and the CLI under cmd/represent.
//
// Typical usage:
//
//	represent.Declare[Song](represent.DefaultRegistry, func(c *represent.Config) {
//		c.Property("title", represent.Options{})
//		c.Property("track", represent.Options{As: represent.Static("no")})
//	})
//
//	doc, err := represent.Serialize(ctx, &Song{Title: "Roxanne", Track: 1})
//	data, err := jsonfmt.Marshal(ctx, song)
//	_, err = jsonfmt.Unmarshal(ctx, data, &Song{})
