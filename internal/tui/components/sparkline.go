package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chaosdash/internal/view"
)

var levels = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Sparkline renders one chart line as a single row of block glyphs scaled
// to the line's window max.
type Sparkline struct {
	Data  []float64
	Width int
	Max   float64
	Style lipgloss.Style
	Label string
}

func NewSparkline(width int, line view.Line, style lipgloss.Style) Sparkline {
	data := line.Values
	if width > 0 && len(data) > width {
		data = data[len(data)-width:]
	}
	return Sparkline{
		Data:  data,
		Width: width,
		Max:   line.Max,
		Style: style,
		Label: line.Label,
	}
}

// Last is the most recent value, zero when empty.
func (s Sparkline) Last() float64 {
	if len(s.Data) == 0 {
		return 0
	}
	return s.Data[len(s.Data)-1]
}

// Graph renders only the glyph row, padded to Width.
func (s Sparkline) Graph() string {
	var graph strings.Builder
	for _, v := range s.Data {
		if s.Max <= 0 || v <= 0 {
			graph.WriteString(levels[0])
			continue
		}
		idx := int(v / s.Max * float64(len(levels)-1))
		if idx < 1 {
			idx = 1
		}
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		graph.WriteString(levels[idx])
	}
	if pad := s.Width - len(s.Data); pad > 0 {
		graph.WriteString(strings.Repeat(" ", pad))
	}
	return graph.String()
}

func (s Sparkline) View() string {
	if s.Width <= 0 {
		return ""
	}
	header := fmt.Sprintf("%s  %.1f (max %.1f)", s.Label, s.Last(), s.Max)
	return s.Style.Render(header) + "\n" + s.Style.Render(s.Graph())
}
