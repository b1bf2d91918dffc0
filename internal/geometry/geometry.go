// Package geometry maps squares to pixels for either board orientation.
// Every flip decision in the renderer goes through this package.
package geometry

import (
	"errors"
	"fmt"
	"image"

	nchess "github.com/corentings/chess/v2"
)

var ErrInvalidSize = errors.New("board size must be a positive multiple of 8")

// MaxSize bounds the board so a frame with both player bars stays far below the GIF limit of 65535.
const MaxSize = 4096

// Geometry describes where the 8x8 board sits inside a frame.
type Geometry struct {
	Size    int
	Flipped bool
	// Origin is the top-left pixel of the board, non-zero once player bars are added.
	Origin image.Point
}

func New(size int, flipped bool) (Geometry, error) {
	if size <= 0 || size > MaxSize || size%8 != 0 {
		return Geometry{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return Geometry{Size: size, Flipped: flipped}, nil
}

func (g Geometry) SquareSize() int {
	return g.Size / 8
}

// WithOrigin returns a copy of g placed at origin.
func (g Geometry) WithOrigin(origin image.Point) Geometry {
	g.Origin = origin
	return g
}

// SquareToPixel returns the top-left pixel of sq. A flipped board is the unflipped board rotated
// by 180 degrees, so both axes are mirrored.
func (g Geometry) SquareToPixel(sq nchess.Square) image.Point {
	col, row := g.cell(sq)
	s := g.SquareSize()
	return image.Pt(g.Origin.X+col*s, g.Origin.Y+row*s)
}

func (g Geometry) SquareRect(sq nchess.Square) image.Rectangle {
	p := g.SquareToPixel(sq)
	s := g.SquareSize()
	return image.Rect(p.X, p.Y, p.X+s, p.Y+s)
}

// BoardRect is the pixel area covered by the 64 squares.
func (g Geometry) BoardRect() image.Rectangle {
	return image.Rect(g.Origin.X, g.Origin.Y, g.Origin.X+g.Size, g.Origin.Y+g.Size)
}

// HasFileLabel reports whether sq sits on the rank nearest to the viewer.
func (g Geometry) HasFileLabel(sq nchess.Square) bool {
	return g.view(sq).Rank() == nchess.Rank1
}

// HasRankLabel reports whether sq sits on the file at the viewer's left.
func (g Geometry) HasRankLabel(sq nchess.Square) bool {
	return g.view(sq).File() == nchess.FileA
}

// HasCoordinate reports whether sq carries any coordinate label.
func (g Geometry) HasCoordinate(sq nchess.Square) bool {
	return g.HasFileLabel(sq) || g.HasRankLabel(sq)
}

// BottomColor is the side drawn nearest to the viewer.
func (g Geometry) BottomColor() nchess.Color {
	if g.Flipped {
		return nchess.Black
	}
	return nchess.White
}

// IsDark reports whether sq is a dark square. a1 is dark.
func IsDark(sq nchess.Square) bool {
	return (int(sq.File())+int(sq.Rank()))%2 == 0
}

// rotate returns the square occupying the same pixel cell once the board is turned around.
func rotate(sq nchess.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(7-int(sq.File())), nchess.Rank(7-int(sq.Rank())))
}

// view is the square drawn where sq would sit on an unflipped board.
func (g Geometry) view(sq nchess.Square) nchess.Square {
	if g.Flipped {
		return rotate(sq)
	}
	return sq
}

func (g Geometry) cell(sq nchess.Square) (col, row int) {
	v := g.view(sq)
	return int(v.File()), 7 - int(v.Rank())
}
