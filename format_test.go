package represent_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	represent "github.com/reoring/represent"
)

// kvFormat is a line format: one "key=value" per line, string values only.
type kvFormat struct{}

func (kvFormat) Name() string { return "kv-test" }

func (kvFormat) Decode(data []byte) (any, error) {
	obj := represent.NewObject()
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.New("kv: missing '='")
		}
		obj.Write(k, v)
	}
	return obj, nil
}

func (kvFormat) Encode(doc any) ([]byte, error) {
	obj, ok := doc.(*represent.Object)
	if !ok {
		return nil, fmt.Errorf("kv: cannot encode %T", doc)
	}
	var b strings.Builder
	for k, v := range obj.Pairs() {
		fmt.Fprintf(&b, "%s=%v\n", k, v)
	}
	return []byte(b.String()), nil
}

func TestFormatRegistry(t *testing.T) {
	represent.RegisterFormat(kvFormat{})
	represent.RegisterFormat(nil)

	f, ok := represent.LookupFormat("kv-test")
	require.True(t, ok)
	assert.Equal(t, "kv-test", f.Name())
	assert.Contains(t, represent.Formats(), "kv-test")

	_, ok = represent.LookupFormat("nope")
	assert.False(t, ok)
}

func TestMarshalUnmarshal(t *testing.T) {
	reg := represent.NewRegistry()
	represent.Declare[Artist](reg, func(c *represent.Config) {
		c.Property("name", represent.Options{As: represent.Static("artist")})
	})
	opt := represent.MapOptions{Registry: reg}

	data, err := represent.Marshal(context.Background(), kvFormat{}, &Artist{Name: "Sting"}, opt)
	require.NoError(t, err)
	assert.Equal(t, "artist=Sting\n", string(data))

	a := &Artist{}
	_, err = represent.Unmarshal(context.Background(), kvFormat{}, data, a, opt)
	require.NoError(t, err)
	assert.Equal(t, "Sting", a.Name)

	_, err = represent.Unmarshal(context.Background(), kvFormat{}, []byte("broken"), a, opt)
	assert.ErrorContains(t, err, "decode kv-test")
}
