package giffer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/chess-gif/internal/clock"
	"github.com/park285/chess-gif/internal/drawer"
	"github.com/park285/chess-gif/internal/gifenc"
	"github.com/park285/chess-gif/internal/pgn"
	"github.com/park285/chess-gif/internal/rules"
	"github.com/park285/chess-gif/internal/termination"
)

var ErrGameFinished = errors.New("giffer: game already finished")

type state int

const (
	awaitingHeaders state = iota
	inBody
	finished
)

func (s state) String() string {
	switch s {
	case awaitingHeaders:
		return "awaiting-headers"
	case inBody:
		return "in-body"
	default:
		return "finished"
	}
}

type patchKind int

const (
	patchPlayerBars patchKind = iota
	patchClearCheck
)

// patch is deferred drawing work applied at the next checkpoint.
type patch struct {
	kind   patchKind
	square nchess.Square
	piece  nchess.Piece
}

type frame struct {
	img *image.RGBA
	// mover made the move that produced this frame, NoColor for the start position.
	mover nchess.Color
	// turn is the 0-based move number of mover.
	turn int
	// moves counts the moves of each side so far, white first.
	moves [2]int
}

// Visitor renders one game from its PGN events. It is not safe for concurrent use.
type Visitor struct {
	ctx    context.Context
	r      *Renderer
	logger *zap.Logger

	drawer  *drawer.BoardDrawer
	pos     *rules.Position
	clocks  *clock.GameClocks
	state   state
	frames  []frame
	pending []patch
	players players
	moves   [2]int

	fen          string
	setUp        string
	incrementSet bool
	reasonText   string
	result       string
	reason       *termination.Reason
	skipped      int
	afterSkip    bool
	err          error
}

var _ pgn.Visitor[Game] = (*Visitor)(nil)

// NewVisitor prepares a visitor for one game. index only tags the log lines.
func (r *Renderer) NewVisitor(ctx context.Context, index int) *Visitor {
	return &Visitor{
		ctx:    ctx,
		r:      r,
		logger: r.logger.With(zap.Int("game", index)),
	}
}

func (v *Visitor) BeginGame() {
	d, err := drawer.New(drawer.Options{
		Geometry: v.r.geo,
		Dark:     v.r.cfg.Dark,
		Light:    v.r.cfg.Light,
		Style:    v.r.cfg.Style,
		Library:  v.r.lib,
		Raster:   v.r.raster,
		Logger:   v.logger,
	})
	*v = Visitor{ctx: v.ctx, r: v.r, logger: v.logger, clocks: clock.NewGameClocks()}
	if err != nil {
		v.fail(err)
		return
	}
	v.drawer = d
	v.pos, _ = rules.NewPosition("")
	img, err := d.InitialPosition(v.pos.Board())
	if err != nil {
		v.fail(err)
		return
	}
	v.frames = append(v.frames, frame{img: img, mover: nchess.NoColor})
	v.logger.Debug("rendered initial board")
}

func (v *Visitor) Header(key, value string) {
	if v.state == finished {
		return
	}
	value = strings.TrimSpace(value)

	if c, field, ok := playerHeader(key); ok {
		v.playerHeader(c, field, value)
		return
	}
	switch key {
	case "TimeControl":
		if v.incrementSet {
			return
		}
		v.incrementSet = true
		v.clocks.SetIncrement(clock.ParseIncrement(value))
	case "Termination":
		v.reasonText = value
	case "FEN":
		v.fen = value
	case "SetUp":
		v.setUp = value
	}
}

func (v *Visitor) playerHeader(c nchess.Color, field, value string) {
	if unknownTag(value) {
		return
	}
	p := v.players.side(c)
	switch field {
	case "name":
		p.name = value
	case "title":
		p.title = value
	case "elo":
		elo, err := parseElo(value)
		if err != nil {
			v.logger.Debug("ignoring elo", zap.String("value", value), zap.Error(err))
			return
		}
		p.elo = elo
	}
	p.known = true
	if v.r.cfg.Style.PlayerBars() {
		v.enqueue(patch{kind: patchPlayerBars})
	}
}

func (v *Visitor) EndHeaders() {
	if v.state != awaitingHeaders {
		return
	}
	v.state = inBody
	if v.err == nil && v.fen != "" && v.setUp != "0" {
		v.startFrom(v.fen)
	}
	v.checkpoint()
}

// startFrom replaces the standard start with a FEN position. A bad FEN keeps the standard start.
func (v *Visitor) startFrom(fen string) {
	pos, err := rules.NewPosition(fen)
	if err != nil {
		v.logger.Debug("ignoring FEN", zap.String("fen", fen), zap.Error(err))
		return
	}
	img, err := v.drawer.InitialPosition(pos.Board())
	if err != nil {
		v.fail(err)
		return
	}
	v.pos = pos
	v.frames[0].img = img
}

func (v *Visitor) SAN(san string) {
	if v.state == finished || v.err != nil {
		return
	}
	v.state = inBody
	if err := v.ctx.Err(); err != nil {
		v.fail(err)
		return
	}
	v.checkpoint()

	delta, err := v.pos.Apply(san)
	if err != nil {
		v.skipped++
		v.afterSkip = true
		v.logger.Debug("skipping move", zap.String("san", san), zap.Error(err))
		return
	}
	v.afterSkip = false

	img := drawer.Clone(v.last().img)
	if err := v.clearChecks(img); err != nil {
		v.fail(err)
		return
	}
	if err := v.drawer.Move(img, delta); err != nil {
		v.fail(err)
		return
	}
	if delta.Check {
		checked := v.pos.Turn()
		if sq, ok := v.pos.KingSquare(checked); ok {
			if err := v.drawer.CheckedKing(img, sq, checked); err != nil {
				v.fail(err)
				return
			}
			v.enqueue(patch{kind: patchClearCheck, square: sq, piece: nchess.NewPiece(nchess.King, checked)})
		}
	}

	side := colorIndex(delta.Mover)
	turn := v.moves[side]
	v.moves[side]++
	v.frames = append(v.frames, frame{img: img, mover: delta.Mover, turn: turn, moves: v.moves})
}

// Comment records a clock reading for the side that just moved.
func (v *Visitor) Comment(text string) {
	if v.state == finished || v.err != nil {
		return
	}
	c, ok := clock.ExtractClock(text)
	if !ok {
		return
	}
	mover := v.last().mover
	if mover == nchess.NoColor || v.afterSkip {
		v.logger.Debug("ignoring clock without a move", zap.String("clock", c.String()))
		return
	}
	v.clocks.Record(mover, c)
}

func (v *Visitor) BeginVariation() bool {
	return true
}

func (v *Visitor) EndVariation() {}

func (v *Visitor) Outcome(result string) {
	if v.state == finished || v.err != nil {
		return
	}
	v.result = result
	v.checkpoint()

	reason, ok := termination.Classify(termination.ParseOutcome(result), v.pos.Predicates(), v.reasonText)
	if !ok {
		return
	}
	v.reason = &reason
	v.logger.Debug("game terminated", zap.Stringer("reason", reason))
	if !v.r.cfg.Style.Terminations() {
		return
	}

	whiteKing, okW := v.pos.KingSquare(nchess.White)
	blackKing, okB := v.pos.KingSquare(nchess.Black)
	if !okW || !okB {
		v.logger.Debug("missing king, skipping termination overlay")
		return
	}
	n := len(v.frames) - 1
	last := v.frames[n]
	v.frames = v.frames[:n]
	if err := v.drawer.TerminationOverlay(last.img, reason, whiteKing, blackKing); err != nil {
		v.fail(err)
		return
	}
	v.frames = append(v.frames, last)
}

// EndGame finalizes clocks and delays and encodes the animation.
func (v *Visitor) EndGame() (Game, error) {
	if v.state == finished {
		return Game{}, ErrGameFinished
	}
	if v.err == nil {
		v.checkpoint()
	}
	v.state = finished
	if v.err != nil {
		return Game{}, v.err
	}

	frames := v.finalFrames()
	var buf bytes.Buffer
	if err := v.r.encoder.Encode(v.ctx, &buf, frames); err != nil {
		return Game{}, err
	}
	bounds := frames[0].Image.Bounds()
	v.logger.Debug("rendered game", zap.Int("frames", len(frames)), zap.Int("skipped", v.skipped))
	return Game{
		GIF:         buf.Bytes(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Frames:      len(frames),
		Plies:       v.pos.Plies(),
		Skipped:     v.skipped,
		White:       v.players.white.label(),
		Black:       v.players.black.label(),
		Result:      v.result,
		Termination: v.reason,
	}, nil
}

// finalFrames draws the clocks and resolves the delay of every frame. A frame stays on screen
// while the next side thinks, so its real delay is the thinking time of the following move.
func (v *Visitor) finalFrames() []gifenc.Frame {
	total := len(v.frames)
	out := make([]gifenc.Frame, total)
	for i, f := range v.frames {
		if v.drawer.BarsEnabled() {
			v.drawClocks(f)
		}
		var turnDelay func() (time.Duration, bool)
		if i+1 < total {
			next := v.frames[i+1]
			turnDelay = func() (time.Duration, bool) {
				return v.turnDelay(next.turn, next.mover)
			}
		}
		out[i] = gifenc.Frame{Image: f.img, Delay: v.r.policy.FrameDelay(i, total, turnDelay)}
	}
	return out
}

func (v *Visitor) turnDelay(turn int, c nchess.Color) (time.Duration, bool) {
	d, ok := v.clocks.TurnDelay(turn, c)
	if ok && d == 0 {
		prev, _ := v.clocks.At(c, turn-1)
		curr, _ := v.clocks.At(c, turn)
		if prev.Duration+v.clocks.Increment() < curr.Duration {
			v.logger.Debug("clamped negative turn delay",
				zap.Int("turn", turn), zap.String("prev", prev.String()), zap.String("curr", curr.String()))
		}
	}
	return d, ok
}

// drawClocks shows the latest reading of each side as of frame f.
func (v *Visitor) drawClocks(f frame) {
	reading := func(c nchess.Color) string {
		n := max(f.moves[colorIndex(c)]-1, 0)
		if clk, ok := v.clocks.At(c, n); ok {
			return clk.String()
		}
		return ""
	}
	v.drawer.PlayerClocks(f.img, reading(nchess.White), reading(nchess.Black))
}

func (v *Visitor) enqueue(p patch) {
	if p.kind == patchPlayerBars {
		for _, q := range v.pending {
			if q.kind == patchPlayerBars {
				return
			}
		}
	}
	v.pending = append(v.pending, p)
}

// checkpoint applies the player bar patch to every frame produced so far, once both players are
// known. Other patches stay queued.
func (v *Visitor) checkpoint() {
	if v.err != nil || !v.players.exist() {
		return
	}
	kept := v.pending[:0]
	for _, p := range v.pending {
		if p.kind != patchPlayerBars {
			kept = append(kept, p)
			continue
		}
		v.applyPlayerBars()
	}
	v.pending = kept
}

func (v *Visitor) applyPlayerBars() {
	if !v.drawer.BarsEnabled() {
		for i := range v.frames {
			v.frames[i].img = v.drawer.AddPlayerBarSpace(v.frames[i].img)
		}
		v.drawer.EnableBars()
	}
	white, black := v.players.white.label(), v.players.black.label()
	for _, f := range v.frames {
		v.drawer.PlayerBars(f.img, white, black)
	}
	v.logger.Debug("applied player bars", zap.String("white", white), zap.String("black", black), zap.Int("frames", len(v.frames)))
}

// clearChecks removes the check highlights of the previous frame from img.
func (v *Visitor) clearChecks(img *image.RGBA) error {
	kept := v.pending[:0]
	for _, p := range v.pending {
		if p.kind != patchClearCheck {
			kept = append(kept, p)
			continue
		}
		if err := v.drawer.ClearSquare(img, p.square, p.piece); err != nil {
			return err
		}
	}
	v.pending = kept
	return nil
}

func (v *Visitor) last() frame {
	return v.frames[len(v.frames)-1]
}

func (v *Visitor) fail(err error) {
	if v.err == nil {
		v.err = err
		v.logger.Debug("game aborted", zap.Stringer("state", v.state), zap.Error(err))
	}
}

func colorIndex(c nchess.Color) int {
	if c == nchess.Black {
		return 1
	}
	return 0
}
