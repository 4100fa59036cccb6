package represent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	represent "github.com/reoring/represent"
)

type titleCase interface {
	Apply(string) string
}

type bracketer struct{}

func (bracketer) Apply(s string) string { return "[" + s + "]" }

func TestService_ReachesCallablesThroughPassContext(t *testing.T) {
	c := represent.NewConfig()
	c.Property("title", represent.Options{
		PassOptions: true,
		RenderFilter: represent.CallOpts(func(_, v any, o *represent.CallOptions) (any, error) {
			tc, err := represent.PassService[titleCase](o)
			if err != nil {
				return nil, err
			}
			return tc.Apply(v.(string)), nil
		}),
	})
	m := represent.NewMapper(c)

	ctx := represent.WithService[titleCase](context.Background(), bracketer{})
	doc, err := m.Serialize(ctx, &Song{Title: "x"})
	require.NoError(t, err)
	v, _ := doc.Read("title")
	assert.Equal(t, "[x]", v)

	_, err = m.Serialize(context.Background(), &Song{Title: "x"})
	assert.ErrorIs(t, err, represent.ErrNoService)
}

func TestService_Lookup(t *testing.T) {
	ctx := represent.WithService(context.Background(), 42)
	n, ok := represent.Service[int](ctx)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = represent.Service[string](ctx)
	assert.False(t, ok)
	_, ok = represent.Service[int](nil)
	assert.False(t, ok)

	n, err := represent.RequireService[int](ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	_, err = represent.RequireService[string](ctx)
	assert.ErrorIs(t, err, represent.ErrNoService)

	_, err = represent.PassService[int](nil)
	assert.ErrorIs(t, err, represent.ErrNoService)
	n, err = represent.PassService[int](&represent.CallOptions{Context: ctx})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}
