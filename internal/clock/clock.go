package clock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
)

// clockPattern matches H:MM:SS or H:MM:SS.t inside a comment such as "[%clk 0:03:00.5]".
var clockPattern = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}(?:\.\d)?`)

// Clock is the remaining time reported for a player after a move.
type Clock struct {
	Duration time.Duration
}

// ParseClock parses H:MM:SS with an optional single tenth-of-second digit.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Clock{}, fmt.Errorf("clock %q: expected H:MM:SS", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return Clock{}, fmt.Errorf("clock %q hours: %w", s, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return Clock{}, fmt.Errorf("clock %q minutes: %w", s, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Clock{}, fmt.Errorf("clock %q seconds: %w", s, err)
	}
	millis := int64(seconds*1000+0.5) + int64(minutes)*60_000 + int64(hours)*3_600_000
	return Clock{Duration: time.Duration(millis) * time.Millisecond}, nil
}

// ExtractClock finds the first clock reading in a PGN comment.
func ExtractClock(comment string) (Clock, bool) {
	m := clockPattern.FindString(comment)
	if m == "" {
		return Clock{}, false
	}
	c, err := ParseClock(m)
	if err != nil {
		return Clock{}, false
	}
	return c, true
}

func (c Clock) String() string {
	millis := c.Duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	tenths := (millis / 100) % 10
	secs := millis / 1000
	minutes := secs / 60
	hours := minutes / 60
	return fmt.Sprintf("%d:%02d:%02d.%d", hours, minutes%60, secs%60, tenths)
}

// ParseIncrement reads the increment of a "base+increment" time control, e.g. "180+2".
// Anything else, including "-" or a bare base, means no increment.
func ParseIncrement(timeControl string) time.Duration {
	_, inc, ok := strings.Cut(strings.TrimSpace(timeControl), "+")
	if !ok {
		return 0
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(inc), 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// GameClocks holds every clock reading of a game, per color, in arrival order.
type GameClocks struct {
	white     []Clock
	black     []Clock
	increment time.Duration
}

func NewGameClocks() *GameClocks {
	return &GameClocks{}
}

// SetIncrement fixes the per-move increment for the whole game.
func (g *GameClocks) SetIncrement(d time.Duration) {
	g.increment = d
}

func (g *GameClocks) Increment() time.Duration {
	return g.increment
}

// Record appends a reading for color. Readings are never rewritten.
func (g *GameClocks) Record(color nchess.Color, c Clock) {
	if color == nchess.Black {
		g.black = append(g.black, c)
		return
	}
	g.white = append(g.white, c)
}

// Len returns the number of readings recorded for color.
func (g *GameClocks) Len(color nchess.Color) int {
	return len(g.readings(color))
}

// At returns the n-th reading recorded for color.
func (g *GameClocks) At(color nchess.Color, n int) (Clock, bool) {
	r := g.readings(color)
	if n < 0 || n >= len(r) {
		return Clock{}, false
	}
	return r[n], true
}

// TurnDelay returns the time color spent on its turn-th move: the previous reading plus the
// increment minus the current reading. The first turn, or a turn missing either reading, has no
// delay. Inconsistent readings that would give a negative delay are clamped to zero.
func (g *GameClocks) TurnDelay(turn int, color nchess.Color) (time.Duration, bool) {
	if turn <= 0 {
		return 0, false
	}
	curr, ok := g.At(color, turn)
	if !ok {
		return 0, false
	}
	prev, ok := g.At(color, turn-1)
	if !ok {
		return 0, false
	}
	d := prev.Duration + g.increment - curr.Duration
	if d < 0 {
		return 0, true
	}
	return d, true
}

func (g *GameClocks) readings(color nchess.Color) []Clock {
	if color == nchess.Black {
		return g.black
	}
	return g.white
}
