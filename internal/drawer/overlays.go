package drawer

import (
	"fmt"
	"image"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/park285/chess-gif/internal/termination"
)

const checkVariant = "check"

// CheckedKing repaints the king of color on sq with its check highlight.
func (d *BoardDrawer) CheckedKing(img *image.RGBA, sq nchess.Square, color nchess.Color) error {
	d.drawSquare(img, sq)
	return d.drawPiece(img, sq, nchess.NewPiece(nchess.King, color), checkVariant)
}

// TerminationOverlay marks both kings with the glyph of reason. A decisive game puts the win
// glyph on the winner and the reason glyph on the loser. A draw puts the draw glyph on both,
// each tinted with the opposite color for contrast.
func (d *BoardDrawer) TerminationOverlay(img *image.RGBA, reason termination.Reason, whiteKing, blackKing nchess.Square) error {
	d.logger.Debug("drawing termination", zap.Stringer("reason", reason))
	if reason.IsDraw() {
		if err := d.drawGlyph(img, whiteKing, reason.Glyph(), nchess.Black); err != nil {
			return err
		}
		return d.drawGlyph(img, blackKing, reason.Glyph(), nchess.White)
	}

	winnerSq, loserSq := whiteKing, blackKing
	if reason.Winner == nchess.Black {
		winnerSq, loserSq = blackKing, whiteKing
	}
	if err := d.drawGlyph(img, winnerSq, "win", nchess.NoColor); err != nil {
		return err
	}
	return d.drawGlyph(img, loserSq, reason.Glyph(), nchess.NoColor)
}

// drawGlyph places a half-square badge on the top-right corner of sq.
func (d *BoardDrawer) drawGlyph(img *image.RGBA, sq nchess.Square, glyph string, tint nchess.Color) error {
	id, data, err := d.lib.Termination(glyph, tint)
	if err != nil {
		return fmt.Errorf("termination asset: %w", err)
	}
	size := max(d.SquareSize()/2, 1)
	badge, err := d.raster.Render(id, data, size)
	if err != nil {
		return err
	}
	rect := d.geo.SquareRect(sq)
	at := image.Rect(rect.Max.X-size, rect.Min.Y, rect.Max.X, rect.Min.Y+size)
	draw.Draw(img, at, badge, image.Point{}, draw.Over)
	return nil
}
