package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/practice"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

type conceptRow struct {
	Concept   content.Concept
	Questions int
	Mastery   mastery.ConceptMastery
}

type conceptsLoadedMsg struct {
	Rows []conceptRow
	Err  error
}

// ConceptsScreen lists a chapter's concepts with the student's mastery.
type ConceptsScreen struct {
	deps    Deps
	chapter content.Chapter
	rows    []conceptRow
	menu    components.Menu
	loaded  bool
	errMsg  string
}

var _ screen.Screen = (*ConceptsScreen)(nil)
var _ screen.Resumer = (*ConceptsScreen)(nil)

func NewConcepts(deps Deps, chapter content.Chapter) *ConceptsScreen {
	return &ConceptsScreen{deps: deps, chapter: chapter}
}

func (c *ConceptsScreen) Init() tea.Cmd {
	return c.load()
}

// Resume refreshes the badges after a practice session.
func (c *ConceptsScreen) Resume() tea.Cmd {
	return c.load()
}

func (c *ConceptsScreen) load() tea.Cmd {
	deps, chapterID := c.deps, c.chapter.ID
	return func() tea.Msg {
		ctx := context.Background()
		concepts, err := deps.Content.ConceptsByChapter(ctx, chapterID)
		if err != nil {
			return conceptsLoadedMsg{Err: err}
		}
		counts, err := deps.Content.QuestionCounts(ctx, chapterID)
		if err != nil {
			return conceptsLoadedMsg{Err: err}
		}
		rows := make([]conceptRow, 0, len(concepts))
		for _, cp := range concepts {
			m, err := deps.Service.Mastery(ctx, cp.ID)
			if err != nil {
				return conceptsLoadedMsg{Err: err}
			}
			rows = append(rows, conceptRow{Concept: cp, Questions: counts[cp.ID], Mastery: m})
		}
		return conceptsLoadedMsg{Rows: rows}
	}
}

func (c *ConceptsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(conceptsLoadedMsg); ok {
		c.loaded = true
		if msg.Err != nil {
			c.errMsg = msg.Err.Error()
			return c, nil
		}
		c.errMsg = ""
		selected := c.menu.Selected
		c.rows = msg.Rows
		c.menu = components.NewMenu(c.menuItems())
		if selected < len(c.menu.Items) {
			c.menu.Selected = selected
		}
		return c, nil
	}

	var cmd tea.Cmd
	c.menu, cmd = c.menu.Update(msg)
	return c, cmd
}

func (c *ConceptsScreen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(c.rows))
	for _, row := range c.rows {
		items = append(items, components.MenuItem{
			Label:    row.Concept.Name,
			Detail:   fmt.Sprintf("%s · %d questions", masteryBadge(row.Mastery), row.Questions),
			Disabled: row.Questions == 0,
			Action: func() tea.Cmd {
				scr := practice.New(practice.Deps{
					Service:        c.deps.Service,
					Misconceptions: c.deps.Misconceptions,
				}, c.chapter.ID, row.Concept)
				return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
			},
		})
	}
	return items
}

func (c *ConceptsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	head := lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.Secondary).
		Bold(true).
		Render(c.chapter.Title)

	var body string
	switch {
	case c.errMsg != "":
		body = renderMessage("Error: "+c.errMsg, lipgloss.NewStyle().Foreground(theme.Error), cw)
	case !c.loaded:
		body = renderMessage("Loading concepts...", lipgloss.NewStyle().Foreground(theme.TextDim), cw)
	case len(c.rows) == 0:
		body = renderMessage("This chapter has no concepts.", lipgloss.NewStyle().Foreground(theme.Accent), cw)
	default:
		body = components.Card(c.menu.View(), cw)
	}
	return components.CabinetFrame(strings.Join([]string{head, body}, "\n\n"), width, height)
}

func (c *ConceptsScreen) Title() string {
	return "Concepts"
}
