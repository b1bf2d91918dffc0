package render

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/chess-gif/internal/assets"
	"github.com/park285/chess-gif/internal/config"
	"github.com/park285/chess-gif/internal/giffer"
	"github.com/park285/chess-gif/internal/gifenc"
	"github.com/park285/chess-gif/internal/raster"
	"github.com/park285/chess-gif/internal/theme"
	"github.com/park285/chess-gif/pkg/renderdto"
)

// Factory builds renderers from the base configuration plus per-request overrides. Asset libraries,
// the raster cache and the encoder are shared by every renderer it builds.
type Factory struct {
	base     *config.AppConfig
	themes   *theme.Catalog
	resolver assets.Resolver
	raster   *raster.Rasterizer
	encoder  *gifenc.Encoder
	logger   *zap.Logger

	mu   sync.Mutex
	libs map[string]*assets.Library
}

func NewFactory(base *config.AppConfig, themes *theme.Catalog, resolver assets.Resolver, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if base == nil {
		base = config.Default()
	}
	if resolver == nil {
		resolver = assets.Embedded()
	}
	return &Factory{
		base:     base,
		themes:   themes,
		resolver: resolver,
		raster:   raster.New(logger),
		encoder:  gifenc.New(base.Workers, logger),
		logger:   logger,
		libs:     make(map[string]*assets.Library),
	}
}

// Base returns a copy of the base configuration.
func (f *Factory) Base() *config.AppConfig {
	return f.base.Clone()
}

// Apply overlays request options on a copy of the base configuration.
func (f *Factory) Apply(opts renderdto.RenderOptions) *config.AppConfig {
	cfg := f.base.Clone()
	if opts.Size > 0 {
		cfg.Size = opts.Size
	}
	if opts.Flip != nil {
		cfg.Flip = *opts.Flip
	}
	setIf(&cfg.Delay, opts.Delay)
	setIf(&cfg.FirstFrameDelay, opts.FirstFrameDelay)
	setIf(&cfg.LastFrameDelay, opts.LastFrameDelay)
	setIf(&cfg.Style, opts.Style)
	setIf(&cfg.Pieces, opts.Pieces)
	if strings.TrimSpace(opts.Theme) != "" {
		cfg.Theme = strings.TrimSpace(opts.Theme)
		// A requested theme replaces the configured square colors.
		cfg.Dark, cfg.Light = "", ""
	}
	setIf(&cfg.Dark, opts.Dark)
	setIf(&cfg.Light, opts.Light)
	return cfg
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Renderer validates cfg and builds a renderer for it. The second result is the canonical form of
// the resolved options, used in cache keys.
func (f *Factory) Renderer(cfg *config.AppConfig) (*giffer.Renderer, string, error) {
	rc, err := cfg.RenderConfig(f.themes)
	if err != nil {
		return nil, "", err
	}
	lib, err := f.library(cfg.Pieces)
	if err != nil {
		return nil, "", err
	}
	r, err := giffer.NewRenderer(rc, lib,
		giffer.WithLogger(f.logger),
		giffer.WithRasterizer(f.raster),
		giffer.WithEncoder(f.encoder),
	)
	if err != nil {
		return nil, "", err
	}
	return r, optionsKey(rc, lib.Family()), nil
}

func (f *Factory) library(family string) (*assets.Library, error) {
	family = strings.TrimSpace(family)
	f.mu.Lock()
	defer f.mu.Unlock()
	if lib, ok := f.libs[family]; ok {
		return lib, nil
	}
	lib, err := assets.NewLibrary(f.resolver, family)
	if err != nil {
		return nil, fmt.Errorf("pieces %q: %w", family, err)
	}
	f.libs[family] = lib
	return lib, nil
}

// RasterCacheLen reports how many rasterized assets are cached.
func (f *Factory) RasterCacheLen() int {
	return f.raster.Len()
}

func optionsKey(c giffer.Config, family string) string {
	parts := []string{
		"size=" + strconv.Itoa(c.Size),
		"flip=" + strconv.FormatBool(c.Flipped),
		"delay=" + c.Delays.Frame.String(),
		"first=" + c.Delays.FirstFrame.String(),
		"last=" + c.Delays.LastFrame.String(),
		"dark=" + theme.FormatColor(c.Dark),
		"light=" + theme.FormatColor(c.Light),
		"style=" + c.Style.String(),
		"pieces=" + family,
	}
	return strings.Join(parts, ";")
}
