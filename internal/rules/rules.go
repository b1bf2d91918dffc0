// Package rules wraps the chess library behind the few operations the frame pipeline needs.
package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/chess-gif/internal/termination"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrInvalidFEN  = errors.New("invalid FEN")
)

// MoveDelta lists every square a move touches and what ends up on it.
type MoveDelta struct {
	SAN   string
	Mover nchess.Color
	From  nchess.Square
	To    nchess.Square
	// Piece is the piece standing on To after the move, the promoted piece for promotions.
	Piece   nchess.Piece
	Capture bool

	EnPassant bool
	// Captured is the square of a pawn taken en passant.
	Captured nchess.Square

	Castle   bool
	RookFrom nchess.Square
	RookTo   nchess.Square

	Check bool
}

// Position owns the evolving game. It is not safe for concurrent use.
type Position struct {
	game *nchess.Game
}

// NewPosition starts from the standard position, or from fen when it is not empty.
func NewPosition(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return &Position{game: nchess.NewGame()}, nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return &Position{game: nchess.NewGame(opt)}, nil
}

// Apply plays a SAN move. On error the position is unchanged.
func (p *Position) Apply(san string) (MoveDelta, error) {
	text := normalizeSAN(san)
	if text == "" {
		return MoveDelta{}, fmt.Errorf("%w: empty move", ErrIllegalMove)
	}
	before := p.game.Position()
	mv, err := nchess.AlgebraicNotation{}.Decode(before, text)
	if err != nil {
		return MoveDelta{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, san, err)
	}
	moved := before.Board().Piece(mv.S1())
	mover := before.Turn()
	if err := p.game.Move(mv, nil); err != nil {
		return MoveDelta{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, san, err)
	}
	if played := lastMove(p.game); played != nil {
		mv = played
	}

	d := MoveDelta{
		SAN:     text,
		Mover:   mover,
		From:    mv.S1(),
		To:      mv.S2(),
		Piece:   moved,
		Capture: mv.HasTag(nchess.Capture),
		Check:   mv.HasTag(nchess.Check) || p.game.Method() == nchess.Checkmate,
	}
	if promo := mv.Promo(); promo != nchess.NoPieceType {
		d.Piece = nchess.NewPiece(promo, mover)
	}
	if mv.HasTag(nchess.EnPassant) {
		d.EnPassant = true
		d.Capture = true
		d.Captured = nchess.NewSquare(d.To.File(), d.From.Rank())
	}
	switch {
	case mv.HasTag(nchess.KingSideCastle):
		d.Castle = true
		d.RookFrom = nchess.NewSquare(nchess.FileH, d.From.Rank())
		d.RookTo = nchess.NewSquare(nchess.FileF, d.From.Rank())
	case mv.HasTag(nchess.QueenSideCastle):
		d.Castle = true
		d.RookFrom = nchess.NewSquare(nchess.FileA, d.From.Rank())
		d.RookTo = nchess.NewSquare(nchess.FileD, d.From.Rank())
	}
	return d, nil
}

func (p *Position) Board() *nchess.Board {
	return p.game.Position().Board()
}

// Turn is the side to move.
func (p *Position) Turn() nchess.Color {
	return p.game.Position().Turn()
}

// Plies is the number of moves applied so far.
func (p *Position) Plies() int {
	return len(p.game.Moves())
}

// KingSquare locates the king of color.
func (p *Position) KingSquare(color nchess.Color) (nchess.Square, bool) {
	for sq, piece := range p.Board().SquareMap() {
		if piece.Type() == nchess.King && piece.Color() == color {
			return sq, true
		}
	}
	return nchess.NoSquare, false
}

// Predicates reports the board facts the termination classifier relies on.
func (p *Position) Predicates() termination.Predicates {
	pr := termination.Predicates{Mated: nchess.NoColor}
	switch p.game.Method() {
	case nchess.Checkmate:
		pr.Checkmate = true
		pr.Mated = p.Turn()
	case nchess.Stalemate:
		pr.Stalemate = true
	case nchess.InsufficientMaterial:
		pr.InsufficientMaterial = true
	}
	return pr
}

func lastMove(game *nchess.Game) *nchess.Move {
	moves := game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

// normalizeSAN strips annotation glyphs and accepts zero-style castling.
func normalizeSAN(san string) string {
	s := strings.TrimSpace(san)
	s = strings.TrimRight(s, "!?")
	s = strings.ReplaceAll(s, "0-0-0", "O-O-O")
	s = strings.ReplaceAll(s, "0-0", "O-O")
	return s
}
