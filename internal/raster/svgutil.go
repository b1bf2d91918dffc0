package raster

import "regexp"

var (
	styleColon = regexp.MustCompile(`(fill|stroke|stop-color|stroke-width|fill-opacity|stroke-opacity|opacity)\s*:\s+`)
	bareHex    = regexp.MustCompile(`(fill|stroke|stop-color):([0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)
)

// sanitizeSVG normalizes style declarations for oksvg: no blanks around the property colon and a
// leading '#' on hex colors.
func sanitizeSVG(svg []byte) []byte {
	fixed := styleColon.ReplaceAll(svg, []byte("$1:"))
	return bareHex.ReplaceAll(fixed, []byte("$1:#$2"))
}
