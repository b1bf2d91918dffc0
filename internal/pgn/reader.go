// Package pgn splits a PGN stream into games and replays each game as an ordered event sequence.
package pgn

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

var ErrNoGame = errors.New("no game in input")

const maxLine = 1 << 20

// Visitor receives the events of one game in order: BeginGame, Header*, EndHeaders, then moves,
// comments and variations, Outcome when a result token is present, and finally EndGame.
type Visitor[T any] interface {
	BeginGame()
	Header(key, value string)
	EndHeaders()
	SAN(san string)
	Comment(text string)
	// BeginVariation returns true to skip the whole variation.
	BeginVariation() bool
	EndVariation()
	Outcome(result string)
	EndGame() (T, error)
}

// Reader yields the raw text of consecutive games.
type Reader struct {
	sc      *bufio.Scanner
	pending *string
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the text of the next game, io.EOF once the stream is exhausted.
// A game ends where a tag line follows movetext.
func (r *Reader) Next() (string, error) {
	var (
		sb      strings.Builder
		hasBody bool
	)
	for {
		line, ok := r.line()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && hasBody {
			r.pending = &line
			return sb.String(), nil
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "%") {
			hasBody = true
		}
		if trimmed == "" && sb.Len() == 0 {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", io.EOF
	}
	return sb.String(), nil
}

func (r *Reader) line() (string, bool) {
	if r.pending != nil {
		l := *r.pending
		r.pending = nil
		return l, true
	}
	if !r.sc.Scan() {
		return "", false
	}
	return r.sc.Text(), true
}

// Play replays the text of a single game against v.
func Play[T any](text string, v Visitor[T]) (T, error) {
	v.BeginGame()

	headersDone := false
	endHeaders := func() {
		if !headersDone {
			headersDone = true
			v.EndHeaders()
		}
	}

	var (
		skipDepth   int
		openDepth   int
		outcomeSeen bool
	)
	for _, tok := range lex(text) {
		switch tok.kind {
		case tokTag:
			if !headersDone {
				v.Header(tok.key, tok.value)
			}
		case tokSAN:
			endHeaders()
			if skipDepth == 0 && !outcomeSeen {
				v.SAN(tok.value)
			}
		case tokComment:
			endHeaders()
			if skipDepth == 0 && !outcomeSeen {
				v.Comment(tok.value)
			}
		case tokOpenVariation:
			endHeaders()
			switch {
			case skipDepth > 0:
				skipDepth++
			case v.BeginVariation():
				skipDepth = 1
			default:
				openDepth++
			}
		case tokCloseVariation:
			switch {
			case skipDepth > 0:
				skipDepth--
			case openDepth > 0:
				openDepth--
				v.EndVariation()
			}
		case tokResult:
			endHeaders()
			if skipDepth == 0 && openDepth == 0 && !outcomeSeen {
				outcomeSeen = true
				v.Outcome(tok.value)
			}
		}
	}
	endHeaders()
	return v.EndGame()
}

// ReadGame replays the next game of r against v. It returns io.EOF when no game is left.
func ReadGame[T any](r *Reader, v Visitor[T]) (T, error) {
	text, err := r.Next()
	if err != nil {
		var zero T
		return zero, err
	}
	return Play(text, v)
}

// Each replays every game of r, building a fresh visitor per game, until the stream ends or fn
// fails. It returns ErrNoGame for an empty stream.
func Each[T any](ctx context.Context, r *Reader, newVisitor func(index int) Visitor[T], fn func(index int, result T) error) error {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := r.Next()
		if errors.Is(err, io.EOF) {
			if n == 0 {
				return ErrNoGame
			}
			return nil
		}
		if err != nil {
			return err
		}
		res, err := Play(text, newVisitor(n))
		if err != nil {
			return err
		}
		if err := fn(n, res); err != nil {
			return err
		}
		n++
	}
}
