package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/chess-gif/internal/delay"
	"github.com/park285/chess-gif/internal/style"
	"github.com/park285/chess-gif/internal/theme"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Size != 640 || cfg.Output != "chess.gif" || cfg.Pieces != "cburnett" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "c2g.yaml")
	body := "size: 320\nflip: true\ndelay: real\ntheme: brown\nstyle: ranks,player-bars\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("C2G_CONFIG", path)
	t.Setenv("C2G_SIZE", "480")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Size != 480 || !cfg.Flip || cfg.Delay != "real" || cfg.Theme != "brown" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RedisURL != "redis://localhost:6379/1" {
		t.Fatalf("REDIS_URL not applied: %q", cfg.RedisURL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("C2G_PIECES=alpha\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("C2G_PIECES") })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pieces != "alpha" {
		t.Fatalf(".env not loaded, pieces=%q", cfg.Pieces)
	}
}

func TestLoadBadSize(t *testing.T) {
	chdirTemp(t)
	t.Setenv("C2G_SIZE", "big")
	if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppConfig)
		want   error
	}{
		{"size not multiple of 8", func(c *AppConfig) { c.Size = 100 }, ErrInvalidConfig},
		{"size too small", func(c *AppConfig) { c.Size = 56 }, ErrInvalidConfig},
		{"size too large", func(c *AppConfig) { c.Size = 1 << 20 }, ErrInvalidConfig},
		{"bad color", func(c *AppConfig) { c.Dark = "1,2" }, theme.ErrInvalidColor},
		{"bad style", func(c *AppConfig) { c.Style = "ranks,sparkles" }, style.ErrUnknownStyle},
		{"real first frame", func(c *AppConfig) { c.FirstFrameDelay = "real" }, delay.ErrInvalidDelay},
		{"real last frame", func(c *AppConfig) { c.LastFrameDelay = "real" }, delay.ErrInvalidDelay},
		{"bad delay", func(c *AppConfig) { c.Delay = "-5" }, delay.ErrInvalidDelay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRenderConfigColors(t *testing.T) {
	themes, err := theme.New("")
	if err != nil {
		t.Fatalf("themes: %v", err)
	}

	cfg := Default()
	rc, err := cfg.RenderConfig(themes)
	if err != nil {
		t.Fatalf("RenderConfig: %v", err)
	}
	if rc.Dark != (color.RGBA{R: 118, G: 150, B: 86, A: 255}) {
		t.Fatalf("default dark %+v", rc.Dark)
	}
	if !rc.Style.PlayerBars() || rc.Delays.Frame.IsReal() {
		t.Fatalf("unexpected defaults %+v", rc)
	}

	cfg.Theme = "brown"
	cfg.Light = "1,2,3"
	rc, err = cfg.RenderConfig(themes)
	if err != nil {
		t.Fatalf("RenderConfig: %v", err)
	}
	if rc.Dark != (color.RGBA{R: 181, G: 136, B: 99, A: 255}) || rc.Light != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Fatalf("theme or override not applied: %+v %+v", rc.Dark, rc.Light)
	}

	cfg.Theme = "missing"
	if _, err := cfg.RenderConfig(themes); !errors.Is(err, theme.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	cp := cfg.Clone()
	cp.Size = 64
	if cfg.Size == 64 {
		t.Fatalf("clone shares state")
	}
}
