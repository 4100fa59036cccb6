package represent_test

import (
	"reflect"
	"strconv"

	represent "github.com/reoring/represent"
)

type Song struct {
	Title    string
	Track    int
	Composer *Artist
	Genre    *string
}

func (s *Song) DisplayTitle() string { return s.Title + " (" + strconv.Itoa(s.Track) + ")" }

type Artist struct {
	Name string `json:"name"`
}

type Album struct {
	Name  string
	Songs []*Song
	ByKey map[string]*Song
}

type Person struct {
	Name    string
	Tags    []string
	Address *Address
}

type Address struct {
	City string
	Zip  string
}

// bag is an Accessor-backed object that logs every write.
type bag struct {
	vals map[string]any
	log  []string
}

func newBag() *bag { return &bag{vals: map[string]any{}} }

func (b *bag) GetProperty(name string) (any, error) { return b.vals[name], nil }

func (b *bag) SetProperty(name string, v any) error {
	b.log = append(b.log, "set:"+name)
	b.vals[name] = v
	return nil
}

func songConfig() *represent.Config {
	c := represent.NewConfig()
	c.Property("title", represent.Options{})
	c.Property("track", represent.Options{})
	return c
}

func addressConfig() *represent.Config {
	c := represent.NewConfig()
	c.Property("city", represent.Options{})
	c.Property("zip", represent.Options{})
	return c
}

var (
	songType    = reflect.TypeFor[Song]()
	addressType = reflect.TypeFor[Address]()
)

func strPtr(s string) *string { return &s }
