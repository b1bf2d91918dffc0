// Package gifenc quantizes RGBA frames and writes them as a looping GIF.
package gifenc

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

var ErrNoFrames = errors.New("gifenc: no frames")

const maxColors = 256

// Frame is one image with its display time in hundredths of a second.
type Frame struct {
	Image *image.RGBA
	Delay int
}

// Encoder writes animations. The zero value is usable.
type Encoder struct {
	Workers int
	Logger  *zap.Logger
}

func New(workers int, logger *zap.Logger) *Encoder {
	return &Encoder{Workers: workers, Logger: logger}
}

// Encode quantizes every frame concurrently and writes an infinitely looping GIF to w.
// All frames must share the bounds of the first one.
func (e *Encoder) Encode(ctx context.Context, w io.Writer, frames []Frame) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bounds := frames[0].Image.Bounds()
	for i, f := range frames {
		if f.Image.Bounds() != bounds {
			return fmt.Errorf("gifenc: frame %d bounds %v differ from %v", i, f.Image.Bounds(), bounds)
		}
	}

	out := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: 0,
		Config:    image.Config{Width: bounds.Dx(), Height: bounds.Dy()},
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out.Image[i] = Quantize(frames[i].Image)
			out.Delay[i] = max(frames[i].Delay, 0)
			out.Disposal[i] = gif.DisposalNone
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	logger.Debug("encoded gif", zap.Int("frames", len(frames)), zap.Int("width", bounds.Dx()), zap.Int("height", bounds.Dy()))
	return nil
}

// Quantize converts img to a paletted image. The palette holds the most frequent colors, so board
// and piece colors survive unchanged. Frames with more than 256 colors are dithered onto that
// palette with Floyd-Steinberg.
func Quantize(img *image.RGBA) *image.Paletted {
	b := img.Bounds()
	counts := make(map[color.RGBA]int, 512)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[opaque(img.RGBAAt(x, y))]++
		}
	}

	type entry struct {
		c color.RGBA
		n int
	}
	entries := make([]entry, 0, len(counts))
	for c, n := range counts {
		entries = append(entries, entry{c, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return rgbaKey(entries[i].c) < rgbaKey(entries[j].c)
	})

	size := min(len(entries), maxColors)
	pal := make(color.Palette, size)
	index := make(map[color.RGBA]uint8, len(entries))
	for i := 0; i < size; i++ {
		pal[i] = entries[i].c
		index[entries[i].c] = uint8(i)
	}

	out := image.NewPaletted(b, pal)
	if len(entries) > maxColors {
		draw.FloydSteinberg.Draw(out, b, img, b.Min)
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetColorIndex(x, y, index[opaque(img.RGBAAt(x, y))])
		}
	}
	return out
}

// opaque flattens a premultiplied pixel onto black, which is what a GIF without transparency shows.
func opaque(c color.RGBA) color.RGBA {
	c.A = 255
	return c
}

func rgbaKey(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
