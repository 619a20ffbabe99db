package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const editorHeight = 6

var ErrAborted = errors.New("prompt aborted")

var labelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("12")).
	Bold(true).
	Underline(true)

// editorModel is a multiline input box. Enter inserts a newline; Esc followed
// by Enter, Alt+Enter or Ctrl+D submits; Ctrl+C aborts.
type editorModel struct {
	textarea   textarea.Model
	label      string
	escPending bool
	submitted  bool
	aborted    bool
}

func newEditorModel(label string, width int) editorModel {
	ta := textarea.New()
	ta.Placeholder = "Esc then Enter to submit"
	ta.Prompt = ""
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	if width > 0 {
		ta.SetWidth(width)
	}
	ta.SetHeight(editorHeight)
	ta.Focus()

	return editorModel{textarea: ta, label: label}
}

func (m editorModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyEsc:
			m.escPending = true
			return m, nil
		case tea.KeyEnter:
			if m.escPending || msg.Alt {
				m.submitted = true
				return m, tea.Quit
			}
		}
		m.escPending = false

	case tea.WindowSizeMsg:
		m.textarea.SetWidth(msg.Width)
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m editorModel) View() string {
	label := labelStyle.Render(m.label)
	if m.submitted || m.aborted {
		// leave the prompt in the scrollback without the editor chrome
		return fmt.Sprintf("%s\n%s\n", label, m.textarea.Value())
	}
	return fmt.Sprintf("%s\n%s\n", label, m.textarea.View())
}

func (m editorModel) Value() string {
	return m.textarea.Value()
}

// Editor reads one multiline message per call.
type Editor struct {
	Label string
	Width int
	In    io.Reader
	Out   io.Writer
}

func NewEditor(label string, width int) *Editor {
	return &Editor{Label: label, Width: width}
}

func (e *Editor) ReadMessage(ctx context.Context) (string, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if e.In != nil {
		opts = append(opts, tea.WithInput(e.In))
	}
	if e.Out != nil {
		opts = append(opts, tea.WithOutput(e.Out))
	}

	final, err := tea.NewProgram(newEditorModel(e.Label, e.Width), opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("error running editor: %w", err)
	}

	m := final.(editorModel)
	if m.aborted {
		return "", ErrAborted
	}
	if !m.submitted {
		return "", io.EOF
	}
	return m.Value(), nil
}
