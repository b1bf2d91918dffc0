package renderpresenter

import (
	"github.com/park285/chess-gif/internal/giffer"
	"github.com/park285/chess-gif/pkg/renderdto"
)

// FromGame summarizes a locally rendered game.
func FromGame(g giffer.Game) renderdto.RenderSummary {
	s := renderdto.RenderSummary{
		White:  g.White,
		Black:  g.Black,
		Result: g.Result,
		Frames: g.Frames,
		Bytes:  len(g.GIF),
	}
	if g.Termination != nil {
		s.Termination = g.Termination.String()
	}
	return s
}

// FromResult summarizes a service render.
func FromResult(r *renderdto.RenderResult) renderdto.RenderSummary {
	if r == nil {
		return renderdto.RenderSummary{}
	}
	return renderdto.RenderSummary{
		RequestID:   r.RequestID,
		White:       r.White,
		Black:       r.Black,
		Result:      r.Result,
		Termination: r.Termination,
		Frames:      r.Frames,
		Bytes:       len(r.GIF),
		Cached:      r.Cached,
	}
}
