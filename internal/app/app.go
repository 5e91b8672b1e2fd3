// Package app hosts the Bubble Tea program around the quiz screen.
package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studycoach/internal/screens/quiz"
	"github.com/abhisek/studycoach/internal/ui/layout"
)

// appModel is the root Bubble Tea model.
type appModel struct {
	screen quiz.Model
	width  int
	height int
}

func (m appModel) Init() tea.Cmd {
	return m.screen.Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, cmd
}

func (m appModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader(m.screen.Title(), m.screen.Position(), m.width)
	footer := layout.RenderFooter(m.screen.FooterHints(), m.width)

	contentHeight := m.height - 6 // header and footer are 3 rows each
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.screen.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the quiz program and returns the screen's fatal error,
// if the quiz could not run to a summary.
func Run(deps quiz.Deps, opts quiz.Options) error {
	model := appModel{screen: quiz.New(deps, opts)}

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return err
	}

	if m, ok := final.(appModel); ok {
		return m.screen.Err()
	}
	return nil
}
