package represent_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	represent "github.com/reoring/represent"
)

type account struct {
	FirstName string `json:"first_name"`
	Alias     string `represent:"nick,omitempty" json:"alias"`
	Secret    string `json:"-"`
	Age       int
	Score     float64
	Labels    map[string]int
	nickname  string
}

func (a *account) Nickname() string { return a.nickname }

func (a *account) SetNickname(s string) error {
	a.nickname = "~" + s
	return nil
}

func TestResolveStructKey(t *testing.T) {
	typ := reflect.TypeFor[account]()
	want := map[string]string{
		"FirstName": "first_name",
		"Alias":     "nick",
		"Secret":    "-",
		"Age":       "Age",
	}
	for field, key := range want {
		sf, ok := typ.FieldByName(field)
		require.True(t, ok)
		assert.Equal(t, key, represent.ResolveStructKey(sf), field)
	}
}

func TestAccessor_FieldsMethodsAndConversion(t *testing.T) {
	c := represent.NewConfig()
	for _, n := range []string{"first_name", "nick", "age", "score", "labels", "nickname"} {
		c.Property(n, represent.Options{})
	}
	m := represent.NewMapper(c)

	a := &account{}
	_, err := m.Deserialize(context.Background(), map[string]any{
		"first_name": "Ada",
		"nick":       "ad",
		"age":        int64(36),
		"score":      int64(7),
		"labels":     map[string]any{"x": int64(1)},
		"nickname":   "lovelace",
	}, a)
	require.NoError(t, err)
	assert.Equal(t, "Ada", a.FirstName)
	assert.Equal(t, "ad", a.Alias)
	assert.Equal(t, 36, a.Age)
	assert.Equal(t, 7.0, a.Score)
	assert.Equal(t, map[string]int{"x": 1}, a.Labels)
	assert.Equal(t, "~lovelace", a.nickname)

	doc, err := m.Serialize(context.Background(), a)
	require.NoError(t, err)
	v, _ := doc.Read("nickname")
	assert.Equal(t, "~lovelace", v)
	v, _ = doc.Read("nick")
	assert.Equal(t, "ad", v)
}

func TestAccessor_HiddenFieldIsInaccessible(t *testing.T) {
	c := represent.NewConfig()
	c.Property("Secret", represent.Options{})
	_, err := represent.NewMapper(c).Serialize(context.Background(), &account{Secret: "s"})
	assert.ErrorIs(t, err, represent.ErrNoAccessor)
}

func TestAccessor_NonPointerTargetCannotBeSet(t *testing.T) {
	c := represent.NewConfig()
	c.Property("age", represent.Options{})
	_, err := represent.NewMapper(c).Deserialize(context.Background(), map[string]any{"age": 1}, account{})
	assert.ErrorIs(t, err, represent.ErrNoAccessor)
}
