// Package drawer composes board frames: squares, pieces, coordinates, overlays and player bars.
package drawer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/park285/chess-gif/internal/assets"
	fontassets "github.com/park285/chess-gif/internal/assets/fonts"
	"github.com/park285/chess-gif/internal/geometry"
	"github.com/park285/chess-gif/internal/raster"
	"github.com/park285/chess-gif/internal/rules"
	"github.com/park285/chess-gif/internal/style"
)

var ErrMissingDependency = errors.New("drawer: missing dependency")

// Options configures a BoardDrawer.
type Options struct {
	Geometry geometry.Geometry
	Dark     color.RGBA
	Light    color.RGBA
	Style    style.Components
	Library  *assets.Library
	Raster   *raster.Rasterizer
	Logger   *zap.Logger
}

// BoardDrawer paints frames for one game. It holds font faces and is not safe for concurrent use;
// the rasterizer behind it may be shared.
type BoardDrawer struct {
	geo    geometry.Geometry
	dark   color.RGBA
	light  color.RGBA
	style  style.Components
	lib    *assets.Library
	raster *raster.Rasterizer
	logger *zap.Logger

	labelFace font.Face
	nameFace  font.Face
	clockFace font.Face
}

func New(opts Options) (*BoardDrawer, error) {
	if opts.Library == nil || opts.Raster == nil {
		return nil, ErrMissingDependency
	}
	if opts.Geometry.Size <= 0 || opts.Geometry.Size%8 != 0 {
		return nil, fmt.Errorf("%w: %d", geometry.ErrInvalidSize, opts.Geometry.Size)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sq := float64(opts.Geometry.SquareSize())
	labelFace, err := fontassets.CaptionFace(max(sq/4, 6))
	if err != nil {
		return nil, err
	}
	nameFace, err := fontassets.CaptionFace(max(sq*0.42, 8))
	if err != nil {
		return nil, err
	}
	clockFace, err := fontassets.ClockFace(max(sq*0.4, 8))
	if err != nil {
		return nil, err
	}
	return &BoardDrawer{
		geo:       opts.Geometry,
		dark:      opts.Dark,
		light:     opts.Light,
		style:     opts.Style,
		lib:       opts.Library,
		raster:    opts.Raster,
		logger:    logger,
		labelFace: labelFace,
		nameFace:  nameFace,
		clockFace: clockFace,
	}, nil
}

func (d *BoardDrawer) Geometry() geometry.Geometry {
	return d.geo
}

func (d *BoardDrawer) SquareSize() int {
	return d.geo.SquareSize()
}

// FrameRect is the bounds of a whole frame, player bars included once they are enabled.
func (d *BoardDrawer) FrameRect() image.Rectangle {
	return image.Rect(0, 0, d.geo.Size, d.geo.Size+2*d.geo.Origin.Y)
}

// InitialPosition paints the checkerboard, every piece of board and the enabled coordinates.
func (d *BoardDrawer) InitialPosition(board *nchess.Board) (*image.RGBA, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	img := image.NewRGBA(d.FrameRect())
	pieces := board.SquareMap()
	for i := 0; i < 64; i++ {
		sq := nchess.Square(i)
		d.drawSquare(img, sq)
		if p, ok := pieces[sq]; ok && p != nchess.NoPiece {
			if err := d.drawPiece(img, sq, p, ""); err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

// Move repaints the squares touched by m on img, which must already show the position before m.
func (d *BoardDrawer) Move(img *image.RGBA, m rules.MoveDelta) error {
	d.logger.Debug("drawing move", zap.String("san", m.SAN))
	d.drawSquare(img, m.From)
	if m.EnPassant {
		d.drawSquare(img, m.Captured)
	}
	if err := d.ClearSquare(img, m.To, m.Piece); err != nil {
		return err
	}
	if m.Castle {
		d.drawSquare(img, m.RookFrom)
		rook := nchess.NewPiece(nchess.Rook, m.Mover)
		if err := d.ClearSquare(img, m.RookTo, rook); err != nil {
			return err
		}
	}
	return nil
}

// ClearSquare repaints sq from scratch with piece on it, or empty for NoPiece.
func (d *BoardDrawer) ClearSquare(img *image.RGBA, sq nchess.Square, piece nchess.Piece) error {
	d.drawSquare(img, sq)
	if piece == nchess.NoPiece {
		return nil
	}
	return d.drawPiece(img, sq, piece, "")
}

func (d *BoardDrawer) squareColor(sq nchess.Square) color.RGBA {
	if geometry.IsDark(sq) {
		return d.dark
	}
	return d.light
}

func (d *BoardDrawer) drawSquare(img *image.RGBA, sq nchess.Square) {
	rect := d.geo.SquareRect(sq)
	bg := d.squareColor(sq)
	draw.Draw(img, rect, image.NewUniform(bg), image.Point{}, draw.Src)

	fg := d.light
	if bg == d.light {
		fg = d.dark
	}
	pad := max(d.SquareSize()/16, 1)
	if d.style.Ranks() && d.geo.HasRankLabel(sq) {
		drawer := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: d.labelFace}
		ascent := d.labelFace.Metrics().Ascent.Ceil()
		drawLeftString(drawer, sq.Rank().String(), rect.Min.X+pad, rect.Min.Y+pad+ascent)
	}
	if d.style.Files() && d.geo.HasFileLabel(sq) {
		drawer := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: d.labelFace}
		descent := d.labelFace.Metrics().Descent.Ceil()
		label := sq.File().String()
		width := drawer.MeasureString(label).Round()
		drawLeftString(drawer, label, rect.Max.X-pad-width, rect.Max.Y-pad-descent)
	}
}

func (d *BoardDrawer) drawPiece(img *image.RGBA, sq nchess.Square, piece nchess.Piece, variant string) error {
	id, data, err := d.lib.Piece(piece, variant)
	if err != nil {
		return fmt.Errorf("piece asset: %w", err)
	}
	glyph, err := d.raster.Render(id, data, d.SquareSize())
	if err != nil {
		return err
	}
	rect := d.geo.SquareRect(sq)
	draw.Draw(img, rect, glyph, image.Point{}, draw.Over)
	return nil
}

// Clone returns a deep copy of a frame.
func Clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
