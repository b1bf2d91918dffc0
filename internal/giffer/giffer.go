// Package giffer turns PGN games into animated GIFs, one frame per position.
package giffer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/chess-gif/internal/assets"
	"github.com/park285/chess-gif/internal/delay"
	"github.com/park285/chess-gif/internal/geometry"
	"github.com/park285/chess-gif/internal/gifenc"
	"github.com/park285/chess-gif/internal/pgn"
	"github.com/park285/chess-gif/internal/raster"
	"github.com/park285/chess-gif/internal/style"
	"github.com/park285/chess-gif/internal/termination"
)

var ErrNoLibrary = errors.New("giffer: asset library is required")

// Config is the per-render look and timing of the animation.
type Config struct {
	Size    int
	Flipped bool
	Dark    color.RGBA
	Light   color.RGBA
	Style   style.Components
	Delays  delay.Delays
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Size:   640,
		Dark:   color.RGBA{R: 118, G: 150, B: 86, A: 255},
		Light:  color.RGBA{R: 238, G: 238, B: 210, A: 255},
		Style:  style.Default(),
		Delays: delay.Default(),
	}
}

// Game is the rendered animation of one PGN game.
type Game struct {
	GIF         []byte
	Width       int
	Height      int
	Frames      int
	Plies       int
	Skipped     int
	White       string
	Black       string
	Result      string
	Termination *termination.Reason
}

// Renderer holds what games of one render share: configuration, assets, the raster cache and the
// encoder. It is safe for concurrent use; every game gets its own Visitor.
type Renderer struct {
	cfg     Config
	geo     geometry.Geometry
	policy  delay.Policy
	lib     *assets.Library
	raster  *raster.Rasterizer
	encoder *gifenc.Encoder
	logger  *zap.Logger
}

type Option func(*Renderer)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRasterizer shares a raster cache between renderers.
func WithRasterizer(rz *raster.Rasterizer) Option {
	return func(r *Renderer) {
		if rz != nil {
			r.raster = rz
		}
	}
}

func WithEncoder(enc *gifenc.Encoder) Option {
	return func(r *Renderer) {
		if enc != nil {
			r.encoder = enc
		}
	}
}

func NewRenderer(cfg Config, lib *assets.Library, opts ...Option) (*Renderer, error) {
	if lib == nil {
		return nil, ErrNoLibrary
	}
	geo, err := geometry.New(cfg.Size, cfg.Flipped)
	if err != nil {
		return nil, err
	}
	policy, err := delay.NewPolicy(cfg.Delays)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		cfg:    cfg,
		geo:    geo,
		policy: policy,
		lib:    lib,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.raster == nil {
		r.raster = raster.New(r.logger)
	}
	if r.encoder == nil {
		r.encoder = gifenc.New(0, r.logger)
	}
	return r, nil
}

func (r *Renderer) Config() Config {
	return r.cfg
}

// Render renders every game of a PGN stream in order and hands each one to sink.
func (r *Renderer) Render(ctx context.Context, in io.Reader, sink func(index int, g Game) error) error {
	return pgn.Each(ctx, pgn.NewReader(in), func(index int) pgn.Visitor[Game] {
		return r.NewVisitor(ctx, index)
	}, sink)
}

// RenderFirst renders the first game of a PGN stream.
func (r *Renderer) RenderFirst(ctx context.Context, in io.Reader) (Game, error) {
	g, err := pgn.ReadGame[Game](pgn.NewReader(in), r.NewVisitor(ctx, 0))
	if errors.Is(err, io.EOF) {
		return Game{}, pgn.ErrNoGame
	}
	return g, err
}

// RenderAll renders the given single-game PGN texts concurrently. Results keep the input order.
func (r *Renderer) RenderAll(ctx context.Context, texts []string, workers int) ([]Game, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	games := make([]Game, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			game, err := pgn.Play[Game](text, r.NewVisitor(gctx, i))
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			games[i] = game
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return games, nil
}

// SplitGames returns the raw text of every game of a PGN stream.
func SplitGames(in io.Reader) ([]string, error) {
	rd := pgn.NewReader(in)
	var texts []string
	for {
		text, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil, pgn.ErrNoGame
	}
	return texts, nil
}
