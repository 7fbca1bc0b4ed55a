package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"chaosdash/internal/tui/components"
	"chaosdash/internal/tui/styles"
	"chaosdash/internal/view"
)

// DashboardView draws a view.Frame. It holds layout only; every value it
// shows comes from the frame.
type DashboardView struct {
	Slider progress.Model
	// Selected is the highlighted chaos slider, -1 for none.
	Selected int

	Width  int
	Height int
}

func NewDashboardView(width, height int) DashboardView {
	return DashboardView{
		Slider: progress.New(
			progress.WithGradient("#7D56F4", "#FF5F87"),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		Selected: -1,
		Width:    width,
		Height:   height,
	}
}

func (m *DashboardView) Resize(width, height int) {
	m.Width = width
	m.Height = height
}

// Header renders the status badge and connection state.
func (m DashboardView) Header(f view.Frame) string {
	conn := styles.Success.Render("● " + f.Connection)
	if f.Connection != "live" {
		conn = styles.Warn.Render("○ " + f.Connection)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		styles.Title.Render("chaosdash"),
		"  ",
		styles.Badge(f.Badge.Class).Render(f.Badge.Text),
		"  ",
		conn,
	)
}

// Stats renders the four stat cards.
func (m DashboardView) Stats(f view.Frame) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		MakeCard("Requests/s", styles.Value.Render(f.Stats.RPS)),
		MakeCard("Failures/s", failureStyle(f.Stats.Failures).Render(f.Stats.Failures)),
		MakeCard("Avg Latency", styles.Text.Render(f.Stats.Latency)),
		MakeCard("Users", styles.Active.Render(f.Stats.Users)),
	)
}

// Charts renders the throughput and latency charts as sparklines.
func (m DashboardView) Charts(f view.Frame) string {
	width := m.chartWidth()
	s := strings.Builder{}

	s.WriteString(styles.Subtle.Render(f.Throughput.Title))
	s.WriteString("\n")
	for i, line := range f.Throughput.Lines {
		style := styles.Value
		if i > 0 {
			style = styles.Error
		}
		s.WriteString(components.NewSparkline(width, line, style).View())
		s.WriteString("\n")
	}

	s.WriteString(styles.Subtle.Render(f.LatencyChart.Title))
	s.WriteString("\n")
	for _, line := range f.LatencyChart.Lines {
		s.WriteString(components.NewSparkline(width, line, styles.Warn).View())
		s.WriteString("\n")
	}

	if n := len(f.Throughput.Labels); n > 0 {
		span := fmt.Sprintf("%s … %s", f.Throughput.Labels[0], f.Throughput.Labels[n-1])
		s.WriteString(styles.Subtle.Render(span))
		s.WriteString("\n")
	}
	if f.Summary != "" {
		s.WriteString(styles.Subtle.Render(f.Summary))
		s.WriteString("\n")
	}
	return s.String()
}

// Sliders renders the chaos panel.
func (m DashboardView) Sliders(f view.Frame) string {
	s := strings.Builder{}
	s.WriteString(styles.Title.Render("Chaos"))
	s.WriteString("\n\n")
	for i, sl := range f.Sliders {
		name := styles.Subtle.Render(fmt.Sprintf("%-16s", sl.Name))
		if i == m.Selected {
			name = styles.Active.Render(fmt.Sprintf("▸ %-14s", sl.Name))
		}
		s.WriteString(name)
		s.WriteString(m.Slider.ViewAs(sl.Fill))
		s.WriteString(" ")
		s.WriteString(styles.Text.Render(sl.Label))
		s.WriteString("\n")
	}
	return s.String()
}

// Status renders the in-flight indicator and the transient error box.
func (m DashboardView) Status(f view.Frame, spinner string) string {
	var parts []string
	if f.Busy {
		parts = append(parts, styles.Active.Render(spinner+" waiting for server"))
	}
	if f.Error != "" {
		parts = append(parts, styles.ErrorBox.Render(f.Error))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m DashboardView) chartWidth() int {
	w := m.Width - 30
	if w < 10 {
		w = 10
	}
	return w
}

func failureStyle(text string) lipgloss.Style {
	if text != "0" && text != "0.0" {
		return styles.Error
	}
	return styles.Text
}

func MakeCard(title, value string) string {
	return styles.Box.Width(18).Align(lipgloss.Center).Render(
		fmt.Sprintf("%s\n%s", styles.Subtle.Render(title), value),
	)
}
