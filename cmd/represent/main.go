package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	represent "github.com/reoring/represent"
	_ "github.com/reoring/represent/format/jsonfmt"
	_ "github.com/reoring/represent/format/yamlfmt"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "transcode":
		transcodeCmd(os.Args[2:])
	case "formats":
		fmt.Println(strings.Join(represent.Formats(), "\n"))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "represent CLI\n\nUsage:\n  represent transcode -from json -to yaml [-in file] [-out file] [-only a,b] [-skip c] [-rename a=b] [-wrap key] [-dump] [-v]\n  represent formats\n\nNotes:\n  - Top-level keys are mapped through a generated schema; nested values pass through unchanged.")
}

func transcodeCmd(args []string) {
	fs := flag.NewFlagSet("transcode", flag.ExitOnError)
	var from, to, in, out, only, skip, rename, wrap string
	var dump, verbose bool
	fs.StringVar(&from, "from", "json", "input format")
	fs.StringVar(&to, "to", "yaml", "output format")
	fs.StringVar(&in, "in", "", "input file (default stdin)")
	fs.StringVar(&out, "out", "", "output file (default stdout)")
	fs.StringVar(&only, "only", "", "comma-separated top-level keys to keep")
	fs.StringVar(&skip, "skip", "", "comma-separated top-level keys to drop")
	fs.StringVar(&rename, "rename", "", "comma-separated old=new key renames")
	fs.StringVar(&wrap, "wrap", "", "wrap the output under this key")
	fs.BoolVar(&dump, "dump", false, "dump the decoded document to stderr")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	_ = fs.Parse(args)

	src, ok := represent.LookupFormat(from)
	if !ok {
		fatalf("unknown input format %q (have: %s)", from, strings.Join(represent.Formats(), ", "))
	}
	dst, ok := represent.LookupFormat(to)
	if !ok {
		fatalf("unknown output format %q (have: %s)", to, strings.Join(represent.Formats(), ", "))
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	data, err := readInput(in)
	if err != nil {
		fatalf("reading input: %v", err)
	}
	decoded, err := src.Decode(data)
	if err != nil {
		fatalf("decode: %v", err)
	}
	if dump {
		spew.Fdump(os.Stderr, represent.ToNative(decoded))
	}
	doc, ok := decoded.(*represent.Object)
	if !ok {
		fatalf("decode: top-level value is %T, want an object", decoded)
	}

	renames, err := parseRenames(rename)
	if err != nil {
		fatalf("%v", err)
	}
	cfg := recordConfig(doc.Keys(), renames)
	opt := represent.MapOptions{
		Include: splitCSV(only),
		Exclude: splitCSV(skip),
		Logger:  logger,
	}
	ctx := context.Background()
	rec := newRecord()
	if _, err := represent.NewMapper(cfg, opt).Deserialize(ctx, doc, rec); err != nil {
		fatalf("map: %v", err)
	}
	result, err := represent.NewMapper(wrapped(cfg, wrap), opt).Serialize(ctx, rec)
	if err != nil {
		fatalf("map: %v", err)
	}
	encoded, err := dst.Encode(result)
	if err != nil {
		fatalf("encode: %v", err)
	}
	if err := writeOutput(out, encoded); err != nil {
		fatalf("writing output: %v", err)
	}
	logger.Debug("transcode done", slog.String("from", src.Name()), slog.String("to", dst.Name()), slog.Int("keys", result.Len()))
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func parseRenames(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range splitCSV(s) {
		from, to, ok := strings.Cut(p, "=")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid rename %q, want old=new", p)
		}
		out[from] = to
	}
	return out, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
