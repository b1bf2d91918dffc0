package style

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownStyle = errors.New("unknown style component")

// Component is one optional visual element of a frame.
type Component string

const (
	Ranks        Component = "ranks"
	Files        Component = "files"
	Coordinates  Component = "coordinates"
	PlayerBars   Component = "player-bars"
	Terminations Component = "terminations"
	Full         Component = "full"
	Plain        Component = "plain"
)

// expand maps a component name to the elements it switches on.
var expand = map[Component][]Component{
	Ranks:        {Ranks},
	Files:        {Files},
	Coordinates:  {Ranks, Files},
	PlayerBars:   {PlayerBars},
	Terminations: {Terminations},
	Full:         {Ranks, Files, PlayerBars, Terminations},
	Plain:        nil,
}

// Components is the resolved set of enabled elements.
type Components struct {
	set map[Component]bool
}

func New(names ...Component) (Components, error) {
	c := Components{set: make(map[Component]bool, 4)}
	for _, n := range names {
		parts, ok := expand[n]
		if !ok {
			return Components{}, fmt.Errorf("%w: %q", ErrUnknownStyle, string(n))
		}
		for _, p := range parts {
			c.set[p] = true
		}
	}
	return c, nil
}

// Parse reads a comma or space separated component list such as "ranks,player-bars".
func Parse(s string) (Components, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return Default(), nil
	}
	names := make([]Component, 0, len(fields))
	for _, f := range fields {
		names = append(names, Component(strings.ToLower(strings.TrimSpace(f))))
	}
	return New(names...)
}

func Default() Components {
	c, _ := New(Full)
	return c
}

func (c Components) Ranks() bool        { return c.set[Ranks] }
func (c Components) Files() bool        { return c.set[Files] }
func (c Components) PlayerBars() bool   { return c.set[PlayerBars] }
func (c Components) Terminations() bool { return c.set[Terminations] }

// IsPlain reports that nothing beyond squares and pieces is drawn.
func (c Components) IsPlain() bool { return len(c.set) == 0 }

func (c Components) String() string {
	if c.IsPlain() {
		return string(Plain)
	}
	out := make([]string, 0, len(c.set))
	for k := range c.set {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func (c Components) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Components) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
