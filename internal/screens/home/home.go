// Package home holds the chapter and concept pickers.
package home

import (
	"context"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/misconception"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/session"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// Deps are shared by the home, concept and practice screens.
type Deps struct {
	Content        store.ContentRepo
	Service        *session.Service
	Misconceptions *misconception.Service
}

type chaptersLoadedMsg struct {
	Chapters []content.Chapter
	Err      error
}

// HomeScreen lists the chapters.
type HomeScreen struct {
	deps     Deps
	chapters []content.Chapter
	menu     components.Menu
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

func New(deps Deps) *HomeScreen {
	return &HomeScreen{deps: deps}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadChapters()
}

// Resume reloads chapters, which an import may have changed.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadChapters()
}

func (h *HomeScreen) loadChapters() tea.Cmd {
	repo := h.deps.Content
	return func() tea.Msg {
		chs, err := repo.Chapters(context.Background())
		return chaptersLoadedMsg{Chapters: chs, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(chaptersLoadedMsg); ok {
		h.loaded = true
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.chapters = msg.Chapters
		h.menu = components.NewMenu(h.menuItems())
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(h.chapters)+1)
	for _, ch := range h.chapters {
		items = append(items, components.MenuItem{
			Label:  ch.Title,
			Detail: chapterDetail(ch),
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: NewConcepts(h.deps, ch)}
				}
			},
		})
	}
	items = append(items, components.MenuItem{Label: "Exit", Action: func() tea.Cmd { return tea.Quit }})
	return items
}

func chapterDetail(ch content.Chapter) string {
	var parts []string
	if ch.Subject != "" {
		parts = append(parts, ch.Subject)
	}
	if ch.Grade > 0 {
		parts = append(parts, "grade "+strconv.Itoa(ch.Grade))
	}
	return strings.Join(parts, " · ")
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 22 || width < 100
	cw := components.ContentWidth(width)

	sections := []string{renderTitle(cw, compact)}
	sections = append(sections, renderStatsBar(h.deps.Service.StudentID(), len(h.chapters), cw))

	switch {
	case h.errMsg != "":
		sections = append(sections, renderMessage("Error: "+h.errMsg, lipgloss.NewStyle().Foreground(theme.Error), cw))
	case !h.loaded:
		sections = append(sections, renderMessage("Loading chapters...", lipgloss.NewStyle().Foreground(theme.TextDim), cw))
	case len(h.chapters) == 0:
		sections = append(sections, renderMessage("No chapters yet. Run `adaptiq import <file>` first.", lipgloss.NewStyle().Foreground(theme.Accent), cw))
		sections = append(sections, h.menu.View())
	default:
		sections = append(sections, components.Card(h.menu.View(), cw))
	}

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Chapters"
}
