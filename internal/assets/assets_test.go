package assets

import (
	"errors"
	"testing"
	"testing/fstest"

	nchess "github.com/corentings/chess/v2"
)

func TestEmbeddedHasEveryPiece(t *testing.T) {
	lib, err := NewLibrary(Embedded(), "cburnett")
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	for _, c := range []nchess.Color{nchess.White, nchess.Black} {
		for _, pt := range []nchess.PieceType{nchess.King, nchess.Queen, nchess.Rook, nchess.Bishop, nchess.Knight, nchess.Pawn} {
			if _, _, err := lib.Piece(nchess.NewPiece(pt, c), ""); err != nil {
				t.Fatalf("piece %v %v: %v", c, pt, err)
			}
		}
	}
	for _, glyph := range []string{"win", "checkmate", "resignation", "timeout", "draw"} {
		if _, _, err := lib.Termination(glyph, nchess.NoColor); err != nil {
			t.Fatalf("termination %s: %v", glyph, err)
		}
	}
}

func TestPieceVariantFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"pieces/mini/w_k.svg":       {Data: []byte("<svg/>")},
		"pieces/mini/b_k.svg":       {Data: []byte("<svg/>")},
		"pieces/mini/b_k_check.svg": {Data: []byte("<svg id='check'/>")},
	}
	lib, err := NewLibrary(NewFSResolver(fsys), "mini")
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	id, _, err := lib.Piece(nchess.WhiteKing, "check")
	if err != nil || id != "pieces/mini/w_k" {
		t.Fatalf("fallback id = %q, %v", id, err)
	}
	id, _, err = lib.Piece(nchess.BlackKing, "check")
	if err != nil || id != "pieces/mini/b_k_check" {
		t.Fatalf("variant id = %q, %v", id, err)
	}
	if _, _, err := lib.Piece(nchess.WhiteQueen, ""); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestTerminationFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"pieces/mini/w_k.svg":     {Data: []byte("<svg/>")},
		"terminations/draw.svg":   {Data: []byte("<svg/>")},
		"terminations/draw_b.svg": {Data: []byte("<svg/>")},
	}
	lib, err := NewLibrary(NewFSResolver(fsys), "mini")
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	if id, _, _ := lib.Termination("draw", nchess.White); id != "terminations/draw" {
		t.Fatalf("got %q", id)
	}
	if id, _, _ := lib.Termination("draw", nchess.Black); id != "terminations/draw_b" {
		t.Fatalf("got %q", id)
	}
}

func TestUnknownFamily(t *testing.T) {
	if _, err := NewLibrary(Embedded(), "neon"); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestChain(t *testing.T) {
	override := NewFSResolver(fstest.MapFS{"pieces/cburnett/w_q.svg": {Data: []byte("custom")}})
	c := Chain{override, Embedded()}
	data, err := c.Resolve("pieces/cburnett/w_q")
	if err != nil || string(data) != "custom" {
		t.Fatalf("override not used: %q, %v", data, err)
	}
	if _, err := c.Resolve("pieces/cburnett/w_k"); err != nil {
		t.Fatalf("embedded fallback: %v", err)
	}
	if got := Embedded().Families(); len(got) != 1 || got[0] != "cburnett" {
		t.Fatalf("families = %v", got)
	}
}
