package renderpresenter

import (
	"strings"

	"github.com/park285/chess-gif/internal/giffer"
)

// Presenter delivers rendered GIFs and their summaries without coupling to the command layer.
type Presenter struct {
	formatter *Formatter
	writeGIF  func(path string, data []byte) error
	writeText func(text string) error
}

func NewPresenter(formatter *Formatter, writeGIF func(path string, data []byte) error, writeText func(text string) error) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	return &Presenter{
		formatter: formatter,
		writeGIF:  writeGIF,
		writeText: writeText,
	}
}

// Game writes g to path and reports it.
func (p *Presenter) Game(path string, g giffer.Game) error {
	if p == nil {
		return nil
	}
	if p.writeGIF != nil {
		if err := p.writeGIF(path, g.GIF); err != nil {
			return err
		}
	}
	if p.writeText != nil {
		if text := strings.TrimSpace(p.formatter.Written(path, FromGame(g))); text != "" {
			return p.writeText(text)
		}
	}
	return nil
}
