/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/Seednode/gameshelf/catalog"
	"github.com/Seednode/gameshelf/shelf"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type pane int

const (
	paneLists pane = iota
	paneGames
)

const detailWrap = 60

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("69"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle       = lipgloss.NewStyle().Bold(true)
)

type listItem struct {
	entry shelf.ListEntry
}

func (i listItem) Title() string       { return i.entry.Name }
func (i listItem) Description() string { return "list " + i.entry.ID.String() }
func (i listItem) FilterValue() string { return i.entry.Name }

type gameItem struct {
	entry   shelf.GameEntry
	grabbed bool
}

func (i gameItem) Title() string {
	if i.grabbed {
		return "⇅ " + i.entry.Title
	}
	return i.entry.Title
}

func (i gameItem) Description() string { return fmt.Sprintf("#%d", i.entry.Index+1) }
func (i gameItem) FilterValue() string { return i.entry.Title }

// viewMsg carries a snapshot taken after a session operation finished.
type viewMsg struct {
	view shelf.View
}

type tuiModel struct {
	ctx     context.Context
	session *shelf.Session
	drag    shelf.Drag

	lists list.Model
	games list.Model
	focus pane
	view  shelf.View

	markdown func(string) string
	width    int
	height   int
}

func newPane(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

func newTUIModel(ctx context.Context, session *shelf.Session, style string) *tuiModel {
	m := &tuiModel{
		ctx:     ctx,
		session: session,
		lists:   newPane("Lists"),
		games:   newPane("Games"),
		markdown: func(s string) string {
			return s
		},
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(detailWrap),
	)
	if err == nil {
		m.markdown = func(s string) string {
			out, err := r.Render(s)
			if err != nil {
				return s
			}
			return strings.TrimSpace(out)
		}
	}

	return m
}

// run wraps a session operation into a command that reports the new view.
func (m *tuiModel) run(op func(ctx context.Context, s *shelf.Session)) tea.Cmd {
	ctx, s := m.ctx, m.session

	return func() tea.Msg {
		op(ctx, s)
		return viewMsg{view: s.View()}
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return m.run(func(ctx context.Context, s *shelf.Session) {
		_ = s.LoadLists(ctx)
	})
}

func (m *tuiModel) selectList() tea.Cmd {
	it, ok := m.lists.SelectedItem().(listItem)
	if !ok {
		return nil
	}

	id := it.entry.ID
	return m.run(func(ctx context.Context, s *shelf.Session) {
		_ = s.SelectList(ctx, id)
	})
}

func (m *tuiModel) selectGame() tea.Cmd {
	if len(m.games.Items()) == 0 {
		return nil
	}

	index := m.games.Index()
	return m.run(func(_ context.Context, s *shelf.Session) {
		s.SelectGame(index)
	})
}

// grabOrDrop starts a drag on the game under the cursor, or drops the
// current drag there. The drag is handed to the drop by value, so the model
// is free to start another one while the reorder is in flight.
func (m *tuiModel) grabOrDrop() tea.Cmd {
	if len(m.games.Items()) == 0 {
		return nil
	}

	target := m.games.Index()

	if _, ok := m.drag.Source(); !ok {
		m.drag.Start(target)
		m.refreshGames()
		return nil
	}

	drag := m.drag
	m.drag.Reset()
	m.refreshGames()

	return m.run(func(ctx context.Context, s *shelf.Session) {
		_, _ = s.Drop(ctx, &drag, target)
	})
}

func (m *tuiModel) refreshLists() {
	items := make([]list.Item, len(m.view.Lists))
	selected := -1
	for i, l := range m.view.Lists {
		items[i] = listItem{entry: l}
		if l.Selected {
			selected = i
		}
	}

	m.lists.SetItems(items)
	if selected >= 0 {
		m.lists.Select(selected)
	}
}

func (m *tuiModel) refreshGames() {
	source, dragging := m.drag.Source()

	items := make([]list.Item, len(m.view.Games))
	for i, g := range m.view.Games {
		items[i] = gameItem{entry: g, grabbed: dragging && g.Index == source}
	}

	m.games.SetItems(items)
}

func (m *tuiModel) resize() {
	paneWidth := m.width / 4
	paneHeight := m.height - 4
	if paneHeight < 1 {
		paneHeight = 1
	}

	m.lists.SetSize(paneWidth, paneHeight)
	m.games.SetSize(paneWidth, paneHeight)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case viewMsg:
		m.view = msg.view
		m.refreshLists()
		m.refreshGames()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab", "shift+tab":
			if m.focus == paneLists {
				m.focus = paneGames
			} else {
				m.focus = paneLists
			}
			return m, nil
		case "r":
			return m, m.run(func(ctx context.Context, s *shelf.Session) {
				_ = s.Reload(ctx)
			})
		case "esc":
			m.drag.Reset()
			m.refreshGames()
			return m, nil
		case "enter":
			if m.focus == paneLists {
				return m, m.selectList()
			}
			return m, m.selectGame()
		case " ", "space":
			if m.focus == paneGames {
				return m, m.grabOrDrop()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == paneLists {
		m.lists, cmd = m.lists.Update(msg)
	} else {
		m.games, cmd = m.games.Update(msg)
	}

	return m, cmd
}

func (m *tuiModel) detail() string {
	d := m.view.Detail
	if d.ShowPlaceholder() {
		return "Select a game to see its details."
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Title: ") + d.Title + "\n")
	b.WriteString(labelStyle.Render("Year: ") + d.Year + "\n")
	if d.ImageURL != "" {
		b.WriteString(labelStyle.Render("Image: ") + d.ImageURL + "\n")
	}
	b.WriteString(labelStyle.Render("Description:") + "\n")
	b.WriteString(m.markdown(d.Description))

	return b.String()
}

func (m *tuiModel) View() string {
	listsStyle, gamesStyle := paneStyle, paneStyle
	if m.focus == paneLists {
		listsStyle = focusedPaneStyle
	} else {
		gamesStyle = focusedPaneStyle
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		listsStyle.Render(m.lists.View()),
		gamesStyle.Render(m.games.View()),
		paneStyle.Width(detailWrap+2).Render(m.detail()),
	)

	help := "tab switch • enter select • space grab/drop • esc cancel • r reload • q quit"
	if source, ok := m.drag.Source(); ok {
		help = fmt.Sprintf("moving #%d • ", source+1) + help
	}

	return panes + "\n" + helpStyle.Render(help)
}

func runTUI(ctx context.Context, cfg *Config, logFile string) error {
	if logFile != "" {
		f, err := tea.LogToFile(logFile, "")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	client, err := catalog.New(cfg.apiURL, cfg.apiTimeout)
	if err != nil {
		return err
	}

	info, fail := loggers(cfg, "TUI | ")
	session := shelf.NewSession(client, info, fail)

	style := "dark"
	if !lipgloss.HasDarkBackground() {
		style = "light"
	}

	_, err = tea.NewProgram(newTUIModel(ctx, session, style), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}

	return err
}

func newTUICmd(cfg *Config) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and reorder the shelf from the terminal.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateAPI(); err != nil {
				return err
			}
			if cfg.apiTimeout < 0 {
				return fmt.Errorf("invalid api timeout (must not be negative): %s", cfg.apiTimeout)
			}
			return runTUI(cmd.Context(), cfg, logFile)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "write log output to this file while the interface runs")

	return cmd
}
