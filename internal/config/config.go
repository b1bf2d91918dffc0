package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"

	"github.com/park285/chess-gif/internal/delay"
	"github.com/park285/chess-gif/internal/geometry"
	"github.com/park285/chess-gif/internal/giffer"
	"github.com/park285/chess-gif/internal/style"
	"github.com/park285/chess-gif/internal/theme"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	minSize     = 64
	defaultDark = "118,150,86"
	defaultLite = "238,238,210"
)

// AppConfig is the renderer and server configuration. Colors, delays and styles stay textual until
// RenderConfig resolves them.
type AppConfig struct {
	Size            int    `yaml:"size"`
	Flip            bool   `yaml:"flip"`
	Delay           string `yaml:"delay"`
	FirstFrameDelay string `yaml:"first_frame_delay"`
	LastFrameDelay  string `yaml:"last_frame_delay"`
	Dark            string `yaml:"dark"`
	Light           string `yaml:"light"`
	Style           string `yaml:"style"`
	Pieces          string `yaml:"pieces"`
	Theme           string `yaml:"theme"`
	ThemesPath      string `yaml:"themes_path"`
	SVGsPath        string `yaml:"svgs_path"`
	Output          string `yaml:"output"`
	Workers         int    `yaml:"workers"`

	HTTPAddr     string `yaml:"http_addr"`
	RedisURL     string `yaml:"redis_url"`
	DatabaseURL  string `yaml:"database_url"`
	CacheTTLSec  int    `yaml:"cache_ttl_sec"`
	MaxBodyBytes int    `yaml:"max_body_bytes"`
	HistoryLimit int    `yaml:"history_limit"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Size:            640,
		Delay:           "1000",
		FirstFrameDelay: "1000",
		LastFrameDelay:  "5000",
		Style:           string(style.Full),
		Pieces:          "cburnett",
		Output:          "chess.gif",
		HTTPAddr:        ":8080",
		CacheTTLSec:     3600,
		MaxBodyBytes:    1 << 20,
		HistoryLimit:    20,
	}
}

// Load reads .env, then the YAML file named by C2G_CONFIG, then C2G_* and service variables.
// Later sources override earlier ones. The result is not validated.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("C2G_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("C2G_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: C2G_SIZE: %v", ErrInvalidConfig, err)
		}
		c.Size = n
	}
	if v := strings.TrimSpace(os.Getenv("C2G_FLIP")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			c.Flip = b
		}
	}
	setString(&c.Delay, "C2G_DELAY")
	setString(&c.FirstFrameDelay, "C2G_FIRST_FRAME_DELAY")
	setString(&c.LastFrameDelay, "C2G_LAST_FRAME_DELAY")
	setString(&c.Dark, "C2G_DARK")
	setString(&c.Light, "C2G_LIGHT")
	setString(&c.Style, "C2G_STYLE")
	setString(&c.Pieces, "C2G_PIECES")
	setString(&c.Theme, "C2G_THEME")
	setString(&c.ThemesPath, "C2G_THEMES_PATH")
	setString(&c.SVGsPath, "C2G_SVGS_PATH")
	setString(&c.Output, "C2G_OUTPUT")
	if v := strings.TrimSpace(os.Getenv("C2G_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}

	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.DatabaseURL, "DATABASE_URL")
	if v := strings.TrimSpace(os.Getenv("C2G_CACHE_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.CacheTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("C2G_MAX_BODY_BYTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxBodyBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("C2G_HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.HistoryLimit = n
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Delays parses the three frame delays.
func (c *AppConfig) Delays() (delay.Delays, error) {
	frame, err := delay.Parse(c.Delay)
	if err != nil {
		return delay.Delays{}, fmt.Errorf("delay: %w", err)
	}
	first, err := delay.Parse(c.FirstFrameDelay)
	if err != nil {
		return delay.Delays{}, fmt.Errorf("first frame delay: %w", err)
	}
	last, err := delay.Parse(c.LastFrameDelay)
	if err != nil {
		return delay.Delays{}, fmt.Errorf("last frame delay: %w", err)
	}
	d := delay.Delays{Frame: frame, FirstFrame: first, LastFrame: last}
	if err := d.Validate(); err != nil {
		return delay.Delays{}, err
	}
	return d, nil
}

// Validate rejects a configuration that cannot render. Themes and piece families are checked
// against their catalogs by RenderConfig and the asset library.
func (c *AppConfig) Validate() error {
	if c.Size < minSize || c.Size > geometry.MaxSize || c.Size%8 != 0 {
		return fmt.Errorf("%w: size %d must be a multiple of 8 between %d and %d", ErrInvalidConfig, c.Size, minSize, geometry.MaxSize)
	}
	if _, err := c.Delays(); err != nil {
		return err
	}
	for _, col := range []string{c.Dark, c.Light} {
		if strings.TrimSpace(col) == "" {
			continue
		}
		if _, err := theme.ParseColor(col); err != nil {
			return err
		}
	}
	if _, err := style.Parse(c.Style); err != nil {
		return err
	}
	if strings.TrimSpace(c.Pieces) == "" {
		return fmt.Errorf("%w: pieces family is required", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// RenderConfig validates c and resolves it into renderer settings. Explicit colors win over the
// theme, which wins over the built-in colors.
func (c *AppConfig) RenderConfig(themes *theme.Catalog) (giffer.Config, error) {
	if err := c.Validate(); err != nil {
		return giffer.Config{}, err
	}
	delays, _ := c.Delays()
	st, _ := style.Parse(c.Style)

	dark, _ := theme.ParseColor(defaultDark)
	light, _ := theme.ParseColor(defaultLite)
	if name := strings.TrimSpace(c.Theme); name != "" {
		if themes == nil {
			return giffer.Config{}, fmt.Errorf("%w: theme %q without a catalog", ErrInvalidConfig, name)
		}
		th, err := themes.Get(name)
		if err != nil {
			return giffer.Config{}, err
		}
		dark, light = th.Dark, th.Light
	}
	if strings.TrimSpace(c.Dark) != "" {
		dark, _ = theme.ParseColor(c.Dark)
	}
	if strings.TrimSpace(c.Light) != "" {
		light, _ = theme.ParseColor(c.Light)
	}

	return giffer.Config{
		Size:    c.Size,
		Flipped: c.Flip,
		Dark:    dark,
		Light:   light,
		Style:   st,
		Delays:  delays,
	}, nil
}

// Clone returns a copy that can be overridden per request.
func (c *AppConfig) Clone() *AppConfig {
	cp := *c
	return &cp
}
