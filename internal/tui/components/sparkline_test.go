package components

import (
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"chaosdash/internal/view"
)

func TestSparkline_ScalesToMax(t *testing.T) {
	s := NewSparkline(4, view.Line{Label: "rps", Values: []float64{0, 5, 10}, Max: 10}, lipgloss.NewStyle())

	assert.Equal(t, " ▄█ ", s.Graph())
	assert.Equal(t, 10.0, s.Last())
}

func TestSparkline_KeepsNewestWhenWider(t *testing.T) {
	s := NewSparkline(2, view.Line{Values: []float64{1, 2, 3}, Max: 3}, lipgloss.NewStyle())

	assert.Equal(t, []float64{2, 3}, s.Data)
	assert.Equal(t, 2, utf8.RuneCountInString(s.Graph()))
}

func TestSparkline_SmallNonZeroStillVisible(t *testing.T) {
	s := NewSparkline(1, view.Line{Values: []float64{0.01}, Max: 100}, lipgloss.NewStyle())
	assert.Equal(t, "▁", s.Graph())
}

func TestSparkline_EmptyLine(t *testing.T) {
	s := NewSparkline(3, view.Line{}, lipgloss.NewStyle())
	assert.Equal(t, "   ", s.Graph())
	assert.Zero(t, s.Last())
	assert.Empty(t, NewSparkline(0, view.Line{}, lipgloss.NewStyle()).View())
}
