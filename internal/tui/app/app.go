package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chaosdash/internal/chaos"
	"chaosdash/internal/dashboard"
	"chaosdash/internal/session"
	"chaosdash/internal/telemetry"
	"chaosdash/internal/tui/form"
	"chaosdash/internal/tui/styles"
	"chaosdash/internal/tui/views"
)

// TelemetryMsg wraps one event read from the telemetry channel.
type TelemetryMsg struct {
	Event telemetry.Event
}

// TelemetryDoneMsg means the telemetry channel has shut down.
type TelemetryDoneMsg struct{}

// EventMsg carries the completion event of an executed effect.
type EventMsg struct {
	Event dashboard.Event
}

type Options struct {
	State    *dashboard.State
	Executor *dashboard.Executor
	Events   <-chan telemetry.Event
	Defaults session.Defaults
	// Ctx bounds every request the UI issues.
	Ctx context.Context
}

type Model struct {
	State    *dashboard.State
	Executor *dashboard.Executor
	Events   <-chan telemetry.Event
	ctx      context.Context

	Form    form.Model
	Dash    views.DashboardView
	Spinner spinner.Model

	// Focus walks the form fields first, then the chaos sliders.
	Focus int

	Width  int
	Height int
}

func NewModel(opts Options) Model {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	m := Model{
		State:    opts.State,
		Executor: opts.Executor,
		Events:   opts.Events,
		ctx:      opts.Ctx,
		Form:     form.NewModel(opts.Defaults),
		Dash:     views.NewDashboardView(0, 0),
		Spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Active)),
	}
	m.setFocus(0)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.Events),
		m.run(m.State.Boot()),
	)
}

func waitForEvent(sub <-chan telemetry.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return TelemetryDoneMsg{}
		}
		return TelemetryMsg{Event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return m, tea.Quit

		case "tab", "down":
			m.setFocus(m.Focus + 1)
			return m, nil

		case "shift+tab", "up":
			m.setFocus(m.Focus - 1)
			return m, nil

		case "ctrl+r":
			url, users, spawn := m.Form.Values()
			return m, m.dispatch(dashboard.StartClicked{TargetURL: url, Users: users, SpawnRate: spawn})

		case "ctrl+s":
			return m, m.dispatch(dashboard.StopClicked{})
		}

		if p, ok := m.slider(); ok {
			switch msg.String() {
			case "left", "h":
				return m, m.dispatch(dashboard.EditNudged{Param: p, Steps: -1})
			case "right", "l":
				return m, m.dispatch(dashboard.EditNudged{Param: p, Steps: 1})
			case "shift+left", "H":
				return m, m.dispatch(dashboard.EditNudged{Param: p, Steps: -10})
			case "shift+right", "L":
				return m, m.dispatch(dashboard.EditNudged{Param: p, Steps: 10})
			case "home":
				return m, m.dispatch(dashboard.EditChanged{Param: p, Value: p.Min()})
			case "end":
				return m, m.dispatch(dashboard.EditChanged{Param: p, Value: p.Max()})
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.Form, cmd = m.Form.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Dash.Resize(msg.Width, msg.Height)
		return m, nil

	case TelemetryMsg:
		cmd := m.dispatch(dashboard.FromTelemetry(msg.Event))
		return m, tea.Batch(cmd, waitForEvent(m.Events))

	case TelemetryDoneMsg:
		return m, nil

	case EventMsg:
		return m, m.dispatch(msg.Event)

	case spinner.TickMsg:
		if !m.State.Frame().Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.Form, cmd = m.Form.Update(msg)
	return m, cmd
}

func (m Model) dispatch(ev dashboard.Event) tea.Cmd {
	if ev == nil {
		return nil
	}
	return m.run(m.State.Apply(ev))
}

// run turns effects into commands that execute them off the UI loop and
// feed the completion back as an EventMsg.
func (m Model) run(effs []dashboard.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effs {
		eff := eff
		cmds = append(cmds, func() tea.Msg {
			return EventMsg{Event: m.Executor.Run(m.ctx, eff)}
		})
		if _, ok := eff.(dashboard.PushChaos); !ok {
			cmds = append(cmds, m.Spinner.Tick)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) setFocus(i int) {
	n := m.Form.Len() + len(chaos.Params())
	i = ((i % n) + n) % n
	m.Focus = i
	m.Form.FocusField(i)
	m.Dash.Selected = i - m.Form.Len()
}

// slider returns the focused chaos parameter, if a slider has focus.
func (m Model) slider() (chaos.Param, bool) {
	idx := m.Focus - m.Form.Len()
	params := chaos.Params()
	if idx < 0 || idx >= len(params) {
		return 0, false
	}
	return params[idx], true
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}
	f := m.State.Frame()

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.Dash.Stats(f),
		styles.Panel.Render(m.Dash.Charts(f)),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		styles.Panel.Render(m.Form.View()),
		styles.Panel.Render(m.Dash.Sliders(f)),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	keys := []string{
		styles.RenderKey("Ctrl+R", "Start", f.StartEnabled && !f.Busy),
		styles.RenderKey("Ctrl+S", "Stop", f.StopEnabled && !f.Busy),
		styles.RenderKey("Tab", "Field", true),
		styles.RenderKey("←/→", "Adjust", true),
		styles.RenderKey("Ctrl+Q", "Quit", true),
	}
	footer := styles.FooterBase.Width(m.Width).Render(strings.Join(keys, "   "))

	rows := []string{m.Dash.Header(f), body}
	if status := m.Dash.Status(f, m.Spinner.View()); status != "" {
		rows = append(rows, status)
	}
	rows = append(rows, footer)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
