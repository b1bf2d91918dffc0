// Package fonts exposes the faces used for coordinates, player names and clocks.
package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
)

// Family selects one of the bundled typefaces.
type Family int

const (
	Caption Family = iota
	Mono
)

var (
	parsedOnce sync.Once
	parsed     map[Family]*opentype.Font
	parseErr   error
)

func load() {
	parsed = make(map[Family]*opentype.Font, 2)
	for fam, ttf := range map[Family][]byte{Caption: gobold.TTF, Mono: gomonobold.TTF} {
		f, err := opentype.Parse(ttf)
		if err != nil {
			parseErr = fmt.Errorf("parse font %d: %w", fam, err)
			return
		}
		parsed[fam] = f
	}
}

// Face returns a new face of family at size pixels. Faces are not safe for concurrent use, so
// every caller gets its own; the parsed fonts behind them are shared.
func Face(family Family, size float64) (font.Face, error) {
	parsedOnce.Do(load)
	if parseErr != nil {
		return nil, parseErr
	}
	if size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", size)
	}
	f, ok := parsed[family]
	if !ok {
		return nil, fmt.Errorf("unknown font family %d", family)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// CaptionFace is the bold face used for coordinates and player names.
func CaptionFace(size float64) (font.Face, error) {
	return Face(Caption, size)
}

// ClockFace is the monospaced face used for clocks.
func ClockFace(size float64) (font.Face, error) {
	return Face(Mono, size)
}
