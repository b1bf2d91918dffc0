package renderpresenter

import (
	"errors"
	"strings"
	"testing"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/chess-gif/internal/giffer"
	"github.com/park285/chess-gif/internal/termination"
	"github.com/park285/chess-gif/pkg/renderdto"
)

func TestPresenterGame(t *testing.T) {
	var (
		paths []string
		texts []string
	)
	p := NewPresenter(nil,
		func(path string, data []byte) error {
			paths = append(paths, path)
			if string(data) != "GIF89a" {
				t.Fatalf("data = %q", data)
			}
			return nil
		},
		func(text string) error {
			texts = append(texts, text)
			return nil
		},
	)
	g := giffer.Game{
		GIF:         []byte("GIF89a"),
		Frames:      8,
		White:       "Alice",
		Black:       "",
		Result:      "1-0",
		Termination: &termination.Reason{Kind: termination.Checkmate, Winner: nchess.White},
	}
	if err := p.Game("out.gif", g); err != nil {
		t.Fatalf("Game: %v", err)
	}
	if len(paths) != 1 || paths[0] != "out.gif" {
		t.Fatalf("paths = %v", paths)
	}
	want := "out.gif: Alice vs Anonymous 1-0 (checkmate (white wins), 8 frames, 6 B)"
	if len(texts) != 1 || texts[0] != want {
		t.Fatalf("texts = %q, want %q", texts, want)
	}
}

func TestPresenterStopsOnWriteError(t *testing.T) {
	boom := errors.New("disk full")
	wrote := false
	p := NewPresenter(nil,
		func(string, []byte) error { return boom },
		func(string) error { wrote = true; return nil },
	)
	if err := p.Game("x.gif", giffer.Game{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if wrote {
		t.Fatalf("summary written after failed write")
	}
}

func TestHistory(t *testing.T) {
	f := NewFormatter(nil)
	if got := f.History(nil); got != "No renders yet." {
		t.Fatalf("empty history = %q", got)
	}
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	out := f.History([]renderdto.RenderSummary{
		{RequestID: "0123456789abcdef", White: "A", Black: "B", Result: "1/2-1/2", Termination: "stalemate", Frames: 40, Bytes: 3 << 10, CreatedAt: at, Duration: 1500 * time.Millisecond},
		{RequestID: "ffff", White: "?", Black: "B", Frames: 2, Bytes: 2 << 20, Cached: true},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 3 || lines[0] != historyHeader {
		t.Fatalf("history = %q", out)
	}
	if want := "• 2024-03-01 12:30 01234567 A vs B 1/2-1/2 (stalemate, 40 frames, 3.0 KiB), took 1.5s"; lines[1] != want {
		t.Fatalf("line 1 = %q, want %q", lines[1], want)
	}
	if want := "• - ffff Anonymous vs B * (2 frames, 2.0 MiB), cached"; lines[2] != want {
		t.Fatalf("line 2 = %q, want %q", lines[2], want)
	}
}

func TestFromResult(t *testing.T) {
	s := FromResult(&renderdto.RenderResult{RequestID: "r", GIF: make([]byte, 10), Frames: 3, Cached: true, White: "W"})
	if s.RequestID != "r" || s.Bytes != 10 || s.Frames != 3 || !s.Cached || s.White != "W" {
		t.Fatalf("summary = %+v", s)
	}
	if (FromResult(nil) != renderdto.RenderSummary{}) {
		t.Fatalf("nil result should map to zero summary")
	}
}
