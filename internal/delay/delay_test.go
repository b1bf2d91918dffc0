package delay

import (
	"errors"
	"testing"
	"time"
)

func mustPolicy(t *testing.T, d Delays) Policy {
	t.Helper()
	p, err := NewPolicy(d)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return p
}

func TestParse(t *testing.T) {
	d, err := Parse("real")
	if err != nil || !d.IsReal() {
		t.Fatalf("Parse(real) = %v, %v", d, err)
	}
	d, err = Parse(" 250 ")
	if err != nil {
		t.Fatalf("Parse(250): %v", err)
	}
	if ms, ok := d.Millis(); !ok || ms != 250 {
		t.Fatalf("Millis = %d,%v", ms, ok)
	}
	for _, bad := range []string{"", "-5", "fast", "1.5"} {
		if _, err := Parse(bad); !errors.Is(err, ErrInvalidDelay) {
			t.Fatalf("Parse(%q) err = %v", bad, err)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var d Delay
	if err := d.UnmarshalText([]byte("real")); err != nil || !d.IsReal() {
		t.Fatalf("UnmarshalText(real) = %v, %v", d, err)
	}
	if d.String() != "real" {
		t.Fatalf("String = %q", d.String())
	}
}

func TestValidateRejectsRealEdges(t *testing.T) {
	d := Default()
	d.FirstFrame = Real()
	if _, err := NewPolicy(d); !errors.Is(err, ErrInvalidDelay) {
		t.Fatalf("expected first frame error, got %v", err)
	}
	d = Default()
	d.LastFrame = Real()
	if _, err := NewPolicy(d); !errors.Is(err, ErrInvalidDelay) {
		t.Fatalf("expected last frame error, got %v", err)
	}
}

func TestFrameDelayTwoMoveGame(t *testing.T) {
	p := mustPolicy(t, Delays{Frame: Fixed(1000), FirstFrame: Fixed(1500), LastFrame: Fixed(5000)})
	want := []int{150, 150, 500}
	for i, w := range want {
		if got := p.FrameDelay(i, len(want), nil); got != w {
			t.Fatalf("frame %d delay = %d, want %d", i, got, w)
		}
	}
}

func TestFrameDelayOneMoveGameLastWins(t *testing.T) {
	p := mustPolicy(t, Delays{Frame: Fixed(1000), FirstFrame: Fixed(1500), LastFrame: Fixed(5000)})
	if got := p.FrameDelay(1, 2, nil); got != 500 {
		t.Fatalf("frame 1 of 2 = %d, want last frame delay", got)
	}
	if got := p.FrameDelay(0, 1, nil); got != 500 {
		t.Fatalf("single frame = %d, want last frame delay", got)
	}
}

func TestFrameDelayFixedInterior(t *testing.T) {
	p := mustPolicy(t, Delays{Frame: Fixed(333), FirstFrame: Fixed(1000), LastFrame: Fixed(5000)})
	if got := p.FrameDelay(3, 10, nil); got != 33 {
		t.Fatalf("truncation expected, got %d", got)
	}
}

func TestFrameDelayReal(t *testing.T) {
	p := mustPolicy(t, Delays{Frame: Real(), FirstFrame: Fixed(1000), LastFrame: Fixed(5000)})
	got := p.FrameDelay(4, 10, func() (time.Duration, bool) { return 1509 * time.Millisecond, true })
	if got != 150 {
		t.Fatalf("real delay = %d, want 150", got)
	}
	got = p.FrameDelay(4, 10, func() (time.Duration, bool) { return 0, false })
	if got != 100 {
		t.Fatalf("missing clock must fall back to first frame delay, got %d", got)
	}
}

func TestFrameDelaySaturates(t *testing.T) {
	p := mustPolicy(t, Delays{Frame: Real(), FirstFrame: Fixed(1000), LastFrame: Fixed(900000)})
	think := func() (time.Duration, bool) { return 20 * time.Minute, true }
	if got := p.FrameDelay(3, 7, think); got != MaxCentis {
		t.Fatalf("20 minute think = %d, want %d", got, MaxCentis)
	}
	if got := p.FrameDelay(6, 7, think); got != MaxCentis {
		t.Fatalf("long last frame = %d, want %d", got, MaxCentis)
	}
	negative := func() (time.Duration, bool) { return -3 * time.Second, true }
	if got := p.FrameDelay(3, 7, negative); got != 0 {
		t.Fatalf("negative think = %d, want 0", got)
	}
}
