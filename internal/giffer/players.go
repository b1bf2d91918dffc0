package giffer

import (
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

const anonymous = "Anonymous"

type player struct {
	known bool
	name  string
	title string
	elo   int
}

// label renders "Title Name (Elo)", leaving out whatever is unknown.
func (p player) label() string {
	name := p.name
	if name == "" {
		name = anonymous
	}
	if p.title != "" {
		name = p.title + " " + name
	}
	if p.elo > 0 {
		return fmt.Sprintf("%s (%d)", name, p.elo)
	}
	return name
}

type players struct {
	white player
	black player
}

// exist reports whether both sides have at least one header.
func (ps *players) exist() bool {
	return ps.white.known && ps.black.known
}

func (ps *players) side(c nchess.Color) *player {
	if c == nchess.Black {
		return &ps.black
	}
	return &ps.white
}

// playerHeader maps a PGN tag to the side and field it describes.
func playerHeader(key string) (nchess.Color, string, bool) {
	switch key {
	case "White":
		return nchess.White, "name", true
	case "Black":
		return nchess.Black, "name", true
	case "WhiteTitle":
		return nchess.White, "title", true
	case "BlackTitle":
		return nchess.Black, "title", true
	case "WhiteElo":
		return nchess.White, "elo", true
	case "BlackElo":
		return nchess.Black, "elo", true
	}
	return nchess.NoColor, "", false
}

// unknownTag reports the PGN placeholders for a missing value.
func unknownTag(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "?" || v == "-"
}

func parseElo(v string) (int, error) {
	elo, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if elo <= 0 {
		return 0, fmt.Errorf("elo %d out of range", elo)
	}
	return elo, nil
}
