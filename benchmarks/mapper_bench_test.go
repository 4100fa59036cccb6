package benchmarks_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	represent "github.com/reoring/represent"
	"github.com/reoring/represent/format/jsonfmt"
	"github.com/reoring/represent/format/yamlfmt"
)

// ---- Fixtures ----

type track struct {
	Title  string
	Length int
}

type album struct {
	Name   string
	Year   int
	Tracks []*track
}

func albumConfig(tb testing.TB) *represent.Config {
	tb.Helper()
	tc := represent.NewConfig()
	tc.Property("title", represent.Options{})
	tc.Property("length", represent.Options{})

	c := represent.NewConfig()
	c.Property("name", represent.Options{})
	c.Property("year", represent.Options{})
	c.Collection("tracks", represent.Options{Class: represent.Static(reflect.TypeFor[track]()), Schema: tc})
	return c
}

func newAlbum(tracks int) *album {
	a := &album{Name: "bench", Year: 1983}
	for i := 0; i < tracks; i++ {
		a.Tracks = append(a.Tracks, &track{Title: fmt.Sprintf("t%d", i), Length: 180 + i})
	}
	return a
}

// ---- Benchmarks ----

func BenchmarkSerialize_Album100(b *testing.B) {
	m := represent.NewMapper(albumConfig(b))
	a := newAlbum(100)
	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := m.Serialize(ctx, a); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeserialize_Album100(b *testing.B) {
	m := represent.NewMapper(albumConfig(b))
	ctx := context.Background()
	doc, err := m.Serialize(ctx, newAlbum(100))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := m.Deserialize(ctx, doc, &album{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeserialize_DebugLoggerDisabled(b *testing.B) {
	// logger present but above debug level: records must not be built
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
	m := represent.NewMapper(albumConfig(b), represent.MapOptions{Logger: logger})
	ctx := context.Background()
	doc := represent.NewObject()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := m.Deserialize(ctx, doc, &album{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJSONRoundTrip_Album100(b *testing.B) {
	benchmarkFormatRoundTrip(b, jsonfmt.Format{})
}

func BenchmarkYAMLRoundTrip_Album100(b *testing.B) {
	benchmarkFormatRoundTrip(b, yamlfmt.Format{})
}

func benchmarkFormatRoundTrip(b *testing.B, f represent.Format) {
	m := represent.NewMapper(albumConfig(b))
	ctx := context.Background()
	doc, err := m.Serialize(ctx, newAlbum(100))
	if err != nil {
		b.Fatal(err)
	}
	data, err := f.Encode(doc)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		tree, err := f.Decode(data)
		if err != nil {
			b.Fatal(err)
		}
		a := &album{}
		if _, err := m.Deserialize(ctx, tree, a); err != nil {
			b.Fatal(err)
		}
		out, err := m.Serialize(ctx, a)
		if err != nil {
			b.Fatal(err)
		}
		enc, err := f.Encode(out)
		if err != nil {
			b.Fatal(err)
		}
		if !bytes.Equal(enc, data) {
			b.Fatalf("round trip changed output")
		}
	}
}
