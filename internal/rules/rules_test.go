package rules

import (
	"errors"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func play(t *testing.T, p *Position, moves ...string) MoveDelta {
	t.Helper()
	var d MoveDelta
	for _, m := range moves {
		var err error
		d, err = p.Apply(m)
		if err != nil {
			t.Fatalf("Apply(%q): %v", m, err)
		}
	}
	return d
}

func mustPosition(t *testing.T, fen string) *Position {
	t.Helper()
	p, err := NewPosition(fen)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	return p
}

func TestApplyNormalMove(t *testing.T) {
	p := mustPosition(t, "")
	d := play(t, p, "e4")
	if d.From != nchess.E2 || d.To != nchess.E4 || d.Mover != nchess.White {
		t.Fatalf("unexpected delta %+v", d)
	}
	if d.Piece != nchess.WhitePawn || d.Capture || d.Castle {
		t.Fatalf("unexpected delta %+v", d)
	}
	if p.Turn() != nchess.Black || p.Plies() != 1 {
		t.Fatalf("turn not advanced")
	}
}

func TestApplyIllegalMoveKeepsPosition(t *testing.T) {
	p := mustPosition(t, "")
	play(t, p, "e4")
	if _, err := p.Apply("e4"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if p.Plies() != 1 || p.Turn() != nchess.Black {
		t.Fatalf("illegal move changed the position")
	}
	play(t, p, "e5")
}

func TestApplyCastle(t *testing.T) {
	p := mustPosition(t, "")
	d := play(t, p, "e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5", "0-0")
	if !d.Castle || d.RookFrom != nchess.H1 || d.RookTo != nchess.F1 || d.To != nchess.G1 {
		t.Fatalf("unexpected castle delta %+v", d)
	}
}

func TestApplyQueenSideCastle(t *testing.T) {
	p := mustPosition(t, "r3k3/8/8/8/8/8/8/4K3 b q - 0 1")
	d := play(t, p, "O-O-O")
	if !d.Castle || d.RookFrom != nchess.A8 || d.RookTo != nchess.D8 || d.To != nchess.C8 {
		t.Fatalf("unexpected castle delta %+v", d)
	}
}

func TestApplyEnPassant(t *testing.T) {
	p := mustPosition(t, "")
	d := play(t, p, "e4", "a6", "e5", "d5", "exd6")
	if !d.EnPassant || d.Captured != nchess.D5 || d.To != nchess.D6 {
		t.Fatalf("unexpected en passant delta %+v", d)
	}
}

func TestApplyPromotion(t *testing.T) {
	p := mustPosition(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")
	d := play(t, p, "a8=Q")
	if d.Piece != nchess.WhiteQueen {
		t.Fatalf("promotion must paint the queen, got %v", d.Piece)
	}
}

func TestCheckAndMate(t *testing.T) {
	p := mustPosition(t, "")
	d := play(t, p, "f3", "e5", "g4", "Qh4#")
	if !d.Check {
		t.Fatalf("mate must be reported as check")
	}
	pr := p.Predicates()
	if !pr.Checkmate || pr.Mated != nchess.White {
		t.Fatalf("unexpected predicates %+v", pr)
	}
	sq, ok := p.KingSquare(nchess.White)
	if !ok || sq != nchess.E1 {
		t.Fatalf("white king at %v,%v", sq, ok)
	}
}

func TestInvalidFEN(t *testing.T) {
	if _, err := NewPosition("not a fen"); !errors.Is(err, ErrInvalidFEN) {
		t.Fatalf("expected ErrInvalidFEN, got %v", err)
	}
}
