// Package app is the root Bubble Tea model of the practice TUI.
package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/home"
	"github.com/abhisek/adaptiq/internal/ui/layout"
)

// Options selects the first screen. With ChapterID set the app opens that
// chapter's concept list directly.
type Options struct {
	ChapterID string
	Log       *logger.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	student string
	width   int
	height  int
}

func newAppModel(deps home.Deps, chapter *content.Chapter) AppModel {
	r := router.New(home.New(deps))
	if chapter != nil {
		r.Push(home.NewConcepts(deps, *chapter))
	}
	return AppModel{router: r, student: deps.Service.StudentID()}
}

// Init loads the active screen. The home screen under a preselected
// chapter loads when it is resumed.
func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if bh, ok := m.router.Active().(screen.BackHandler); ok && bh.HandlesBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, "● "+m.student, m.width)
	footer := layout.RenderFooter(m.keyHints(), m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m AppModel) keyHints() []layout.KeyHint {
	if p, ok := m.router.Active().(screen.KeyHintProvider); ok {
		if hints := p.KeyHints(); len(hints) > 0 {
			return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the TUI and blocks until it exits. A session left open by
// quitting with Ctrl+C stays current and is resumed next time.
func Run(ctx context.Context, deps home.Deps, opts Options) error {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	var chapter *content.Chapter
	if opts.ChapterID != "" {
		ch, err := deps.Content.Chapter(ctx, opts.ChapterID)
		if err != nil {
			return fmt.Errorf("open chapter %s: %w", opts.ChapterID, err)
		}
		chapter = ch
	}
	if _, err := deps.Service.Restore(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(newAppModel(deps, chapter), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		log.Error("tui exited with error", "error", err)
		return err
	}
	return nil
}
