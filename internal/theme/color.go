package theme

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var ErrInvalidColor = errors.New("invalid color")

// ParseColor reads "r,g,b" or "r,g,b,a" with components in 0..255. An alpha of 1 means opaque,
// so "118,150,86,1" is the same as "118,150,86".
func ParseColor(s string) (color.RGBA, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("%w: %q: expected r,g,b[,a]", ErrInvalidColor, s)
	}
	var c [4]uint8
	c[3] = 255
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return color.RGBA{}, fmt.Errorf("%w: %q: component %d out of range", ErrInvalidColor, s, i+1)
		}
		c[i] = uint8(n)
	}
	if len(parts) == 4 && c[3] == 1 {
		c[3] = 255
	}
	nrgba := color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
	return color.RGBAModel.Convert(nrgba).(color.RGBA), nil
}

// FormatColor is the inverse of ParseColor for opaque colors.
func FormatColor(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("%d,%d,%d,%d", n.R, n.G, n.B, n.A)
}
