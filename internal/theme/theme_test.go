package theme

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"118,150,86", color.RGBA{R: 118, G: 150, B: 86, A: 255}},
		{"118, 150, 86, 1", color.RGBA{R: 118, G: 150, B: 86, A: 255}},
		{"0,0,0,255", color.RGBA{A: 255}},
		{"255,0,0,0", color.RGBA{}},
	}
	for _, tc := range cases {
		got, err := ParseColor(tc.in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseColor(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "1,2", "1,2,3,4,5", "256,0,0", "-1,0,0", "a,b,c"} {
		if _, err := ParseColor(bad); !errors.Is(err, ErrInvalidColor) {
			t.Fatalf("ParseColor(%q) = %v, want ErrInvalidColor", bad, err)
		}
	}
}

func TestFormatColor(t *testing.T) {
	if s := FormatColor(color.RGBA{R: 238, G: 238, B: 210, A: 255}); s != "238,238,210" {
		t.Fatalf("got %q", s)
	}
}

func TestEmbeddedThemes(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	green, err := c.Get("Green")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if green.Dark != (color.RGBA{R: 118, G: 150, B: 86, A: 255}) {
		t.Fatalf("unexpected dark %+v", green.Dark)
	}
	if _, err := c.Get("nope"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
	if len(c.Names()) < 4 {
		t.Fatalf("expected built-in themes, got %v", c.Names())
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("a.yaml", "green:\n  dark: \"1,2,3\"\nmidnight:\n  dark: \"10,10,40\"\n  light: \"90,90,140\"\n")
	write("ignored.txt", "not yaml")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	green, err := c.Get("green")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if green.Dark != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) || green.Light != (color.RGBA{R: 238, G: 238, B: 210, A: 255}) {
		t.Fatalf("override not applied: %+v", green)
	}
	if _, err := c.Get("midnight"); err != nil {
		t.Fatalf("new theme: %v", err)
	}

	write("b.yml", "midnight:\n  light: \"0,0,0\"\n")
	if _, err := New(dir); err == nil {
		t.Fatalf("duplicate keys across override files must fail")
	}
}

func TestInvalidThemeColor(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("broken:\n  dark: \"1,2\"\n  light: \"1,2,3\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Get("broken"); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
}
