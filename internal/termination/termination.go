package termination

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Kind is the cause of the end of a game.
type Kind int

const (
	Checkmate Kind = iota + 1
	Stalemate
	DrawAgreement
	DrawByRepetition
	Timeout
	Resignation
	InsufficientMaterial
	DrawByTimeoutVsInsufficientMaterial
)

func (k Kind) String() string {
	switch k {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case DrawAgreement:
		return "draw agreement"
	case DrawByRepetition:
		return "draw by repetition"
	case Timeout:
		return "timeout"
	case Resignation:
		return "resignation"
	case InsufficientMaterial:
		return "insufficient material"
	case DrawByTimeoutVsInsufficientMaterial:
		return "timeout vs insufficient material"
	default:
		return "unknown"
	}
}

// Outcome is the raw PGN result of a game.
type Outcome int

const (
	NoOutcome Outcome = iota
	WhiteWon
	BlackWon
	Draw
)

// ParseOutcome maps a PGN result token. "*" and anything unknown is NoOutcome.
func ParseOutcome(result string) Outcome {
	switch strings.TrimSpace(result) {
	case "1-0":
		return WhiteWon
	case "0-1":
		return BlackWon
	case "1/2-1/2", "½-½":
		return Draw
	default:
		return NoOutcome
	}
}

// Winner returns the winning color of a decisive outcome, NoColor otherwise.
func (o Outcome) Winner() nchess.Color {
	switch o {
	case WhiteWon:
		return nchess.White
	case BlackWon:
		return nchess.Black
	default:
		return nchess.NoColor
	}
}

// Predicates are the facts derivable from the final position.
type Predicates struct {
	Checkmate            bool
	Stalemate            bool
	InsufficientMaterial bool
	// Mated is the side to move in a checkmate, when known.
	Mated nchess.Color
}

// Reason is a classified termination. Winner is NoColor for draws.
type Reason struct {
	Kind   Kind
	Winner nchess.Color
}

func (r Reason) String() string {
	if r.Winner == nchess.NoColor {
		return r.Kind.String()
	}
	return fmt.Sprintf("%s (%s wins)", r.Kind, colorName(r.Winner))
}

func (r Reason) IsDraw() bool {
	switch r.Kind {
	case Stalemate, DrawAgreement, DrawByRepetition, InsufficientMaterial, DrawByTimeoutVsInsufficientMaterial:
		return true
	}
	return false
}

// Glyph is the asset stem of the overlay drawn for this reason. Draw kinds share one glyph.
func (r Reason) Glyph() string {
	switch r.Kind {
	case Checkmate:
		return "checkmate"
	case Resignation:
		return "resignation"
	case Timeout:
		return "timeout"
	default:
		return "draw"
	}
}

// Classify derives the termination reason. Board facts always win over the free text, which only
// explains causes that are invisible in the final position: timeouts, resignations and agreements.
func Classify(outcome Outcome, p Predicates, reasonText string) (Reason, bool) {
	if outcome == NoOutcome {
		return Reason{}, false
	}
	winner := outcome.Winner()

	switch {
	case p.Checkmate:
		if p.Mated != nchess.NoColor {
			winner = opponent(p.Mated)
		}
		return Reason{Kind: Checkmate, Winner: winner}, true
	case p.Stalemate:
		return Reason{Kind: Stalemate, Winner: nchess.NoColor}, true
	case p.InsufficientMaterial:
		return Reason{Kind: InsufficientMaterial, Winner: nchess.NoColor}, true
	}

	text := strings.ToLower(strings.TrimSpace(reasonText))
	decisive := outcome != Draw

	switch {
	case text == "":
		if decisive {
			return Reason{Kind: Resignation, Winner: winner}, true
		}
		return Reason{Kind: DrawAgreement, Winner: nchess.NoColor}, true
	case strings.Contains(text, "resignation") && decisive:
		return Reason{Kind: Resignation, Winner: winner}, true
	case strings.Contains(text, "agreement") && !decisive:
		return Reason{Kind: DrawAgreement, Winner: nchess.NoColor}, true
	case strings.Contains(text, "repetition") && !decisive:
		return Reason{Kind: DrawByRepetition, Winner: nchess.NoColor}, true
	case decisive:
		return Reason{Kind: Timeout, Winner: winner}, true
	default:
		return Reason{Kind: DrawByTimeoutVsInsufficientMaterial, Winner: nchess.NoColor}, true
	}
}

func opponent(c nchess.Color) nchess.Color {
	if c == nchess.White {
		return nchess.Black
	}
	return nchess.White
}

func colorName(c nchess.Color) string {
	if c == nchess.Black {
		return "black"
	}
	return "white"
}
