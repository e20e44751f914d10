package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docgate/docgate/internals/cliutil"
	"github.com/docgate/docgate/internals/timeouts"
	"github.com/docgate/docgate/sdk"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

const (
	fieldUser = iota
	fieldDocID
	fieldContent
)

type Form struct {
	User    string
	DocID   string
	Content string
}

type newDocumentModel struct {
	inputs    []textinput.Model
	focus     int
	submitted bool
	cancelled bool
	err       string
}

// Run shows the new document form and submits create_document for the
// entered user. An empty user falls back to defaultUser.
func Run(client *sdk.Client, out io.Writer, defaultUser string) error {
	form, submitted, err := runNewDocumentForm(defaultUser)
	if err != nil {
		return err
	}
	if !submitted {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.SecondLong)
	defer cancel()
	result, err := client.CallTool(ctx, form.User, "create_document", map[string]any{
		"doc_id":  form.DocID,
		"content": form.Content,
	}, func(line string) { cliutil.PrintLog(out, line) })
	if err != nil {
		return err
	}
	cliutil.PrintResult(out, result)
	return nil
}

func runNewDocumentForm(defaultUser string) (Form, bool, error) {
	program := tea.NewProgram(newNewDocumentModel(defaultUser))
	result, err := program.Run()
	if err != nil {
		return Form{}, false, err
	}
	finalModel, ok := result.(newDocumentModel)
	if !ok || finalModel.cancelled || !finalModel.submitted {
		return Form{}, false, nil
	}
	return finalModel.form(), true, nil
}

func newNewDocumentModel(defaultUser string) newDocumentModel {
	user := textinput.New()
	user.Prompt = "User: "
	user.SetValue(defaultUser)

	id := textinput.New()
	id.Prompt = "Document ID: "

	content := textinput.New()
	content.Prompt = "Content: "
	content.CharLimit = 0

	inputs := []textinput.Model{user, id, content}
	inputs[0].Focus()
	return newDocumentModel{inputs: inputs}
}

func (m newDocumentModel) form() Form {
	return Form{
		User:    strings.TrimSpace(m.inputs[fieldUser].Value()),
		DocID:   strings.TrimSpace(m.inputs[fieldDocID].Value()),
		Content: m.inputs[fieldContent].Value(),
	}
}

func (m newDocumentModel) validate() error {
	form := m.form()
	if form.User == "" {
		return errors.New("user is required")
	}
	if form.DocID == "" {
		return errors.New("document id is required")
	}
	return nil
}

func (m newDocumentModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m newDocumentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab":
			return m.moveFocus(1)
		case "shift+tab":
			return m.moveFocus(-1)
		case "enter":
			if m.focus == len(m.inputs)-1 {
				if err := m.validate(); err != nil {
					m.err = err.Error()
					return m, nil
				}
				m.submitted = true
				return m, tea.Quit
			}
			return m.moveFocus(1)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m newDocumentModel) View() string {
	lines := []string{titleStyle.Render("New document"), ""}
	for i, input := range m.inputs {
		marker := " "
		if i == m.focus {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %s", marker, input.View()))
	}
	if m.err != "" {
		lines = append(lines, "", errStyle.Render(m.err))
	}
	lines = append(lines, "", helpStyle.Render("Tab: next field  Enter: submit  Ctrl+C: cancel"))
	return strings.Join(lines, "\n")
}

func (m newDocumentModel) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}
	m.inputs[m.focus].Blur()
	count := len(m.inputs)
	m.focus = (m.focus + delta + count) % count
	return m, m.inputs[m.focus].Focus()
}
