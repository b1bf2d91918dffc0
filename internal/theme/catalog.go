// Package theme holds the named board color themes.
package theme

import (
	"embed"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var defaultFiles embed.FS

var ErrUnknownTheme = errors.New("unknown theme")

// Theme is a pair of square colors.
type Theme struct {
	Name  string
	Dark  color.RGBA
	Light color.RGBA
}

// Catalog loads themes from the embedded defaults and an optional override directory.
type Catalog struct {
	mu   sync.RWMutex
	data map[string]string // "<theme>.dark" / "<theme>.light" -> color text
}

// New loads the embedded themes and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
	base := &Catalog{data: make(map[string]string)}

	if err := base.loadEmbedded(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := base.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return base, nil
}

func (c *Catalog) loadEmbedded() error {
	raw, err := fs.ReadFile(defaultFiles, "themes.yaml")
	if err != nil {
		return fmt.Errorf("read embedded themes: %w", err)
	}
	return c.applyYAML(raw)
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read theme dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		ext := strings.ToLower(filepath.Ext(n))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, n)
		}
	}
	sort.Strings(files)
	// Two override files must not define the same theme color.
	seen := make(map[string]string)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := parseYAMLToFlat(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate theme key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.mu.Lock()
		for k, v := range flat {
			c.data[k] = v
		}
		c.mu.Unlock()
	}
	return nil
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	if err := flattenStrings(m, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func (c *Catalog) applyYAML(b []byte) error {
	flat, err := parseYAMLToFlat(b)
	if err != nil {
		return err
	}
	c.mu.Lock()
	for k, v := range flat {
		c.data[k] = v
	}
	c.mu.Unlock()
	return nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := strings.ToLower(k)
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := flattenStrings(vv, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without theme name")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Get resolves a theme by name. Both colors must be present and valid.
func (c *Catalog) Get(name string) (Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	c.mu.RLock()
	darkText, okDark := c.data[name+".dark"]
	lightText, okLight := c.data[name+".light"]
	c.mu.RUnlock()
	if !okDark || !okLight {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	dark, err := ParseColor(darkText)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %s dark: %w", name, err)
	}
	light, err := ParseColor(lightText)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %s light: %w", name, err)
	}
	return Theme{Name: name, Dark: dark, Light: light}, nil
}

// Names lists every theme with both colors defined, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for k := range c.data {
		name, part, ok := strings.Cut(k, ".")
		if !ok || part != "dark" {
			continue
		}
		if _, ok := c.data[name+".light"]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
