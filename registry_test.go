package represent_test

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	represent "github.com/reoring/represent"
)

func TestRegistry_BuildsConfigOnce(t *testing.T) {
	reg := represent.NewRegistry()
	var builds atomic.Int32
	represent.Declare[Song](reg, func(c *represent.Config) {
		builds.Add(1)
		c.Property("title", represent.Options{})
	})

	var wg sync.WaitGroup
	cfgs := make([]*represent.Config, 8)
	for i := range cfgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := reg.ConfigFor(&Song{})
			assert.NoError(t, err)
			assert.Equal(t, []string{"title"}, cfg.Names())
			cfgs[i] = cfg
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, c := range cfgs {
		assert.Same(t, cfgs[0], c)
	}
	byType, ok := reg.ConfigOf(reflect.TypeFor[*Song]())
	require.True(t, ok)
	assert.Same(t, cfgs[0], byType)
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := represent.NewRegistry()
	_, err := reg.ConfigFor(&Song{})
	assert.ErrorIs(t, err, represent.ErrNoConfig)
	_, err = reg.ConfigFor(nil)
	assert.ErrorIs(t, err, represent.ErrNoConfig)

	_, err = represent.Serialize(context.Background(), &Song{}, represent.MapOptions{Registry: reg})
	assert.ErrorIs(t, err, represent.ErrNoConfig)
}

type LiveSong struct {
	Song
	Venue string
}

func TestRegistry_DeclareInherited(t *testing.T) {
	reg := represent.NewRegistry()
	represent.Declare[Song](reg, func(c *represent.Config) {
		c.Property("title", represent.Options{})
		c.Property("track", represent.Options{})
	})
	represent.DeclareInherited[LiveSong, Song](reg, func(c *represent.Config) {
		c.Property("venue", represent.Options{})
		c.Property("track", represent.Options{As: represent.Static("no")})
	})

	cfg, err := reg.ConfigFor(&LiveSong{})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "track", "venue"}, cfg.Names())

	parent, _ := reg.ConfigFor(&Song{})
	assert.Equal(t, []string{"title", "track"}, parent.Names())

	doc, err := represent.Serialize(context.Background(),
		&LiveSong{Song: Song{Title: "x", Track: 2}, Venue: "Wembley"}, represent.MapOptions{Registry: reg})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "x", "no": 2, "venue": "Wembley"}, represent.ToNative(doc))
}

type Node struct {
	Name string
	Next *Node
}

func TestRegistry_SelfReferentialParentIsIgnored(t *testing.T) {
	reg := represent.NewRegistry()
	represent.DeclareInherited[Node, Node](reg, func(c *represent.Config) {
		c.Property("name", represent.Options{})
		c.Property("next", represent.Options{Class: represent.Static(reflect.TypeFor[Node]())})
	})
	n := &Node{Name: "a", Next: &Node{Name: "b"}}
	doc, err := represent.Serialize(context.Background(), n, represent.MapOptions{Registry: reg})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "a", "next": map[string]any{"name": "b"}}, represent.ToNative(doc))

	back := &Node{}
	_, err = represent.Deserialize(context.Background(), doc, back, represent.MapOptions{Registry: reg})
	require.NoError(t, err)
	assert.Equal(t, n, back)
}

func TestRegistry_FactoryTags(t *testing.T) {
	reg := represent.NewRegistry()
	reg.RegisterFactory("artist", func() any { return &Artist{} })
	reg.RegisterFactory("ignored", nil)
	represent.Declare[Artist](reg, func(c *represent.Config) {
		c.Property("name", represent.Options{})
	})
	assert.Equal(t, []string{"artist"}, reg.FactoryTags())

	c := represent.NewConfig()
	c.Property("composer", represent.Options{Class: represent.Static("artist")})
	s := &Song{}
	_, err := represent.NewMapper(c, represent.MapOptions{Registry: reg}).Deserialize(context.Background(),
		map[string]any{"composer": map[string]any{"name": "Sting"}}, s)
	require.NoError(t, err)
	assert.Equal(t, &Artist{Name: "Sting"}, s.Composer)

	doc, err := represent.NewMapper(c, represent.MapOptions{Registry: reg}).Serialize(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"composer": map[string]any{"name": "Sting"}}, represent.ToNative(doc))

	c.Property("composer", represent.Options{Class: represent.Static("unknown")})
	_, err = represent.NewMapper(c, represent.MapOptions{Registry: reg}).Deserialize(context.Background(),
		map[string]any{"composer": map[string]any{"name": "Sting"}}, s)
	assert.ErrorIs(t, err, represent.ErrNoClass)
	_, ok := represent.AsDeserializeError(err)
	assert.True(t, ok)
}

type selfDescribing struct{ Title string }

func (selfDescribing) RepresentableConfig() *represent.Config {
	c := represent.NewConfig()
	c.Property("title", represent.Options{})
	return c
}

func TestRegistry_RepresentableWins(t *testing.T) {
	reg := represent.NewRegistry()
	doc, err := represent.Serialize(context.Background(), &selfDescribing{Title: "x"}, represent.MapOptions{Registry: reg})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "x"}, represent.ToNative(doc))
}

type Tree struct {
	Label string
	Kids  []*Tree
}

func TestRegistry_BuilderMayReferToItsOwnType(t *testing.T) {
	reg := represent.NewRegistry()
	var lookedUp bool
	represent.Declare[Tree](reg, func(c *represent.Config) {
		self, ok := reg.ConfigOf(reflect.TypeFor[Tree]())
		lookedUp = ok
		c.Property("label", represent.Options{})
		c.Collection("kids", represent.Options{Class: represent.Static(reflect.TypeFor[Tree]()), Schema: self})
	})

	cfg, err := reg.ConfigFor(&Tree{})
	require.NoError(t, err)
	require.True(t, lookedUp)
	assert.Equal(t, []string{"label", "kids"}, cfg.Names())
	d, _ := cfg.Get("kids")
	assert.Same(t, cfg, d.Options().Schema)

	tree := &Tree{Label: "root", Kids: []*Tree{{Label: "a", Kids: []*Tree{{Label: "b"}}}}}
	doc, err := represent.Serialize(context.Background(), tree, represent.MapOptions{Registry: reg})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"label": "root",
		"kids": []any{map[string]any{
			"label": "a",
			"kids":  []any{map[string]any{"label": "b", "kids": []any{}}},
		}},
	}, represent.ToNative(doc))

	back := &Tree{}
	_, err = represent.Deserialize(context.Background(), doc, back, represent.MapOptions{Registry: reg})
	require.NoError(t, err)
	assert.Equal(t, "b", back.Kids[0].Kids[0].Label)
}
