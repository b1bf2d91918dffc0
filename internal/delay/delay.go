package delay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDelay = errors.New("invalid delay")

const realKeyword = "real"

// Delay is either a fixed number of milliseconds or Real, meaning the players' thinking time.
type Delay struct {
	real   bool
	millis int
}

func Fixed(ms int) Delay {
	return Delay{millis: ms}
}

func Real() Delay {
	return Delay{real: true}
}

// Parse accepts "real" or a non-negative number of milliseconds.
func Parse(s string) (Delay, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == realKeyword {
		return Real(), nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return Delay{}, fmt.Errorf("%w: %q", ErrInvalidDelay, s)
	}
	return Fixed(ms), nil
}

func (d Delay) IsReal() bool {
	return d.real
}

// Millis returns the fixed duration, false for Real.
func (d Delay) Millis() (int, bool) {
	if d.real {
		return 0, false
	}
	return d.millis, true
}

func (d Delay) String() string {
	if d.real {
		return realKeyword
	}
	return strconv.Itoa(d.millis)
}

func (d Delay) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Delay) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Delays configures a whole run.
type Delays struct {
	Frame      Delay
	FirstFrame Delay
	LastFrame  Delay
}

func Default() Delays {
	return Delays{
		Frame:      Fixed(1000),
		FirstFrame: Fixed(1000),
		LastFrame:  Fixed(5000),
	}
}

// Validate rejects a Real first or last frame delay: neither has a clock reading to derive from.
func (d Delays) Validate() error {
	if d.FirstFrame.IsReal() {
		return fmt.Errorf("%w: first frame delay must be a duration", ErrInvalidDelay)
	}
	if d.LastFrame.IsReal() {
		return fmt.Errorf("%w: last frame delay must be a duration", ErrInvalidDelay)
	}
	return nil
}

// TurnDelayFunc yields the thinking time behind a frame, false when it cannot be derived.
type TurnDelayFunc func() (time.Duration, bool)

// Policy resolves the display duration of every frame.
type Policy struct {
	delays Delays
	first  int
	last   int
}

func NewPolicy(d Delays) (Policy, error) {
	if err := d.Validate(); err != nil {
		return Policy{}, err
	}
	first, _ := d.FirstFrame.Millis()
	last, _ := d.LastFrame.Millis()
	return Policy{delays: d, first: first, last: last}, nil
}

// FrameDelay returns the delay of frame index out of total frames in centiseconds.
// The last frame wins over every other rule, then frames 0 and 1 use the first frame delay.
// Conversion from milliseconds truncates.
func (p Policy) FrameDelay(index, total int, turnDelay TurnDelayFunc) int {
	switch {
	case index == total-1:
		return centis(p.last)
	case index == 0 || index == 1:
		return centis(p.first)
	}
	if ms, ok := p.delays.Frame.Millis(); ok {
		return centis(ms)
	}
	if turnDelay == nil {
		return centis(p.first)
	}
	d, ok := turnDelay()
	if !ok {
		return centis(p.first)
	}
	return centis(int(d.Milliseconds()))
}

// MaxCentis is the largest delay a GIF frame can carry.
const MaxCentis = 1<<16 - 1

// centis converts to centiseconds, clamping negative delays to zero and long ones to MaxCentis.
func centis(ms int) int {
	if ms < 0 {
		return 0
	}
	return min(ms/10, MaxCentis)
}
