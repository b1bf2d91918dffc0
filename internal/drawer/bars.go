package drawer

import (
	"image"
	"image/color"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// BarHeight is the height of one player bar.
func (d *BoardDrawer) BarHeight() int {
	return d.SquareSize()
}

// BarsEnabled reports whether frames are laid out with player bars.
func (d *BoardDrawer) BarsEnabled() bool {
	return d.geo.Origin.Y > 0
}

// EnableBars moves the board below the top bar for every frame drawn from now on.
func (d *BoardDrawer) EnableBars() {
	d.geo = d.geo.WithOrigin(image.Pt(0, d.BarHeight()))
}

// AddPlayerBarSpace returns img padded with an empty bar above and below the board.
// Frames that already carry bars are returned unchanged.
func (d *BoardDrawer) AddPlayerBarSpace(img *image.RGBA) *image.RGBA {
	bar := d.BarHeight()
	if img.Bounds().Dy() >= d.geo.Size+2*bar {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, d.geo.Size, d.geo.Size+2*bar))
	draw.Draw(out, img.Bounds().Add(image.Pt(0, bar)), img, img.Bounds().Min, draw.Src)
	return out
}

// PlayerBars writes both player labels, the viewer's side at the bottom.
func (d *BoardDrawer) PlayerBars(img *image.RGBA, white, black string) {
	d.drawPlayerBar(img, white, nchess.White)
	d.drawPlayerBar(img, black, nchess.Black)
}

// PlayerClocks writes the clock of each side into its bar. An empty string leaves that clock out.
func (d *BoardDrawer) PlayerClocks(img *image.RGBA, white, black string) {
	if white != "" {
		d.drawPlayerClock(img, white, nchess.White)
	}
	if black != "" {
		d.drawPlayerClock(img, black, nchess.Black)
	}
}

func (d *BoardDrawer) barRect(c nchess.Color) image.Rectangle {
	bar := d.BarHeight()
	y := 0
	if c == d.geo.BottomColor() {
		y = d.geo.Size + bar
	}
	return image.Rect(0, y, d.geo.Size, y+bar)
}

// barColors returns the background and text colors of the bar of c.
func (d *BoardDrawer) barColors(c nchess.Color) (color.RGBA, color.RGBA) {
	if c == nchess.White {
		return d.light, d.dark
	}
	return d.dark, d.light
}

func (d *BoardDrawer) clockRect(c nchess.Color) image.Rectangle {
	sq := d.SquareSize()
	bar := d.barRect(c)
	x := d.geo.Size - sq*17/8
	y := bar.Min.Y + sq/8
	return image.Rect(x, y, x+sq*2, y+sq*3/4)
}

func (d *BoardDrawer) drawPlayerBar(img *image.RGBA, label string, c nchess.Color) {
	rect := d.barRect(c)
	bg, fg := d.barColors(c)
	draw.Draw(img, rect, image.NewUniform(bg), image.Point{}, draw.Src)

	pad := d.SquareSize() / 8
	maxWidth := d.clockRect(c).Min.X - rect.Min.X - 2*pad
	text := truncateWithEllipsis(d.nameFace, label, maxWidth)
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: d.nameFace}
	metrics := d.nameFace.Metrics()
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawLeftString(drawer, text, rect.Min.X+pad, baseline)
}

func (d *BoardDrawer) drawPlayerClock(img *image.RGBA, clock string, c nchess.Color) {
	rect := d.clockRect(c)
	fg, bg := d.barColors(c)
	drawRoundedPanel(img, rect, d.SquareSize()/10, bg)
	drawer := &font.Drawer{Dst: img, Face: d.clockFace}
	drawCenteredString(drawer, rect, clock, fg)
}
