package renderpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/chess-gif/pkg/renderdto"
)

const historyHeader = "Recent renders"

// Formatter renders summaries into plain text lines.
type Formatter struct {
	loc *time.Location
}

// NewFormatter formats timestamps in loc, or UTC when loc is nil.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// Written describes one GIF written to path.
func (f *Formatter) Written(path string, s renderdto.RenderSummary) string {
	return fmt.Sprintf("%s: %s (%s)", path, matchup(s), details(s))
}

func (f *Formatter) History(items []renderdto.RenderSummary) string {
	if len(items) == 0 {
		return "No renders yet."
	}
	var sb strings.Builder
	sb.WriteString(historyHeader)
	sb.WriteByte('\n')
	for _, s := range items {
		sb.WriteString(fmt.Sprintf("• %s %s %s (%s)", f.shortTime(s.CreatedAt), shortID(s.RequestID), matchup(s), details(s)))
		if d := formatDuration(s.Duration); d != "" {
			sb.WriteString(", took ")
			sb.WriteString(d)
		}
		if s.Cached {
			sb.WriteString(", cached")
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func matchup(s renderdto.RenderSummary) string {
	white, black := orAnonymous(s.White), orAnonymous(s.Black)
	result := strings.TrimSpace(s.Result)
	if result == "" {
		result = "*"
	}
	return fmt.Sprintf("%s vs %s %s", white, black, result)
}

func details(s renderdto.RenderSummary) string {
	parts := []string{fmt.Sprintf("%d frames", s.Frames), formatBytes(s.Bytes)}
	if t := strings.TrimSpace(s.Termination); t != "" {
		parts = append([]string{strings.ReplaceAll(t, "_", " ")}, parts...)
	}
	return strings.Join(parts, ", ")
}

func orAnonymous(name string) string {
	if n := strings.TrimSpace(name); n != "" && n != "?" {
		return n
	}
	return "Anonymous"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

func (f *Formatter) shortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(f.loc).Format("2006-01-02 15:04")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
