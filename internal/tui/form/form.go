package form

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chaosdash/internal/session"
	"chaosdash/internal/tui/styles"
)

const (
	FieldURL = iota
	FieldUsers
	FieldSpawnRate
	fieldCount
)

type Field struct {
	Label string
	Input textinput.Model
}

// Model is the start-session form. Values are kept as raw text; defaults
// are applied when the session request is built.
type Model struct {
	Fields []Field
	// Focus is the focused field, or -1 when the form is blurred.
	Focus int

	Width int
}

func NewModel(d session.Defaults) Model {
	m := Model{Fields: make([]Field, fieldCount), Focus: -1}

	url := textinput.New()
	url.Placeholder = session.DefaultTargetURL
	url.SetValue(d.TargetURL)
	url.Width = 50
	m.Fields[FieldURL] = Field{Label: "Target URL", Input: url}

	users := textinput.New()
	users.Placeholder = strconv.Itoa(session.DefaultUsers)
	users.SetValue(strconv.Itoa(d.Users))
	users.Width = 10
	m.Fields[FieldUsers] = Field{Label: "Users", Input: users}

	spawn := textinput.New()
	spawn.Placeholder = strconv.Itoa(session.DefaultSpawnRate)
	spawn.SetValue(strconv.Itoa(d.SpawnRate))
	spawn.Width = 10
	m.Fields[FieldSpawnRate] = Field{Label: "Spawn rate (users/s)", Input: spawn}

	for i := range m.Fields {
		m.Fields[i].Input.Cursor.SetMode(cursor.CursorStatic)
	}
	return m
}

func (m Model) Len() int { return len(m.Fields) }

// FocusField focuses field i and blurs the rest. Out of range blurs all.
func (m *Model) FocusField(i int) tea.Cmd {
	if i < 0 || i >= len(m.Fields) {
		i = -1
	}
	m.Focus = i
	var cmd tea.Cmd
	for j := range m.Fields {
		if j == i {
			cmd = m.Fields[j].Input.Focus()
			m.Fields[j].Input.PromptStyle = styles.Active
			m.Fields[j].Input.TextStyle = styles.Active
		} else {
			m.Fields[j].Input.Blur()
			m.Fields[j].Input.PromptStyle = lipgloss.NewStyle()
			m.Fields[j].Input.TextStyle = lipgloss.NewStyle()
		}
	}
	return cmd
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.Focus < 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.Fields[m.Focus].Input, cmd = m.Fields[m.Focus].Input.Update(msg)
	return m, cmd
}

// Values returns the raw url, users and spawn rate text.
func (m Model) Values() (targetURL, users, spawnRate string) {
	return m.Fields[FieldURL].Input.Value(),
		m.Fields[FieldUsers].Input.Value(),
		m.Fields[FieldSpawnRate].Input.Value()
}

func (m Model) View() string {
	s := strings.Builder{}
	s.WriteString(styles.Title.Render("Session"))
	s.WriteString("\n\n")

	for i := range m.Fields {
		s.WriteString(styles.Subtle.Render(m.Fields[i].Label))
		s.WriteString("\n")
		box := styles.InputNormal
		if i == m.Focus {
			box = styles.InputActive
		}
		s.WriteString(box.Render(m.Fields[i].Input.View()))
		s.WriteString("\n")
	}
	return s.String()
}
