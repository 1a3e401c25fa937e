package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	crmerrors "github.com/maruel/pcrm/internal/errors"
)

// promptModel asks for a single line of text.
type promptModel struct {
	label     string
	input     textinput.Model
	def       string
	done      bool
	cancelled bool
}

func newPromptModel(label, def string) promptModel {
	ti := textinput.New()
	ti.Placeholder = def
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()
	return promptModel{label: label, input: ti, def: def}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s\n", HeaderStyle.Render(m.label), m.input.View(), HelpStyle.Render("enter to confirm, esc to cancel"))
}

// value returns the entered text, or the default when nothing was typed.
func (m promptModel) value() string {
	if v := strings.TrimSpace(m.input.Value()); v != "" {
		return v
	}
	return m.def
}

// Prompt asks the user for a value on the terminal. An empty answer returns
// def; cancelling is BAD_INPUT.
func Prompt(label, def string, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(newPromptModel(label, def), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	m := final.(promptModel)
	if m.cancelled {
		return "", crmerrors.BadInput("cancelled")
	}
	return m.value(), nil
}
