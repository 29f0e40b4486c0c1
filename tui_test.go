package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Seednode/gameshelf/catalog"
	"github.com/Seednode/gameshelf/shelf"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestTUI(t *testing.T) (*catalogServer, *tuiModel) {
	t.Helper()

	upstream := newCatalogServer()
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	client, err := catalog.New(api.URL, 0)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	m := newTUIModel(context.Background(), shelf.NewSession(client, nil, nil), "notty")
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})

	return upstream, m
}

// step feeds msg to the model and runs whatever command it returns.
func step(t *testing.T, m *tuiModel, msg tea.Msg) {
	t.Helper()

	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}

	if out := cmd(); out != nil {
		if _, ok := out.(viewMsg); !ok {
			t.Fatalf("unexpected message %T", out)
		}
		m.Update(out)
	}
}

func TestTUILoadsLists(t *testing.T) {
	upstream, m := newTestTUI(t)

	m.Update(m.Init()())

	if got := len(m.lists.Items()); got != len(upstream.lists) {
		t.Fatalf("expected %d lists; got %d", len(upstream.lists), got)
	}
	if !strings.Contains(m.detail(), "Select a game") {
		t.Fatalf("expected placeholder before any selection; got %q", m.detail())
	}
}

func TestTUIGrabAndDrop(t *testing.T) {
	upstream, m := newTestTUI(t)
	m.Update(m.Init()())

	m.lists.Select(0)
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := len(m.games.Items()); got != 3 {
		t.Fatalf("expected 3 games; got %d", got)
	}

	step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != paneGames {
		t.Fatalf("expected focus on the games pane")
	}

	m.games.Select(0)
	step(t, m, tea.KeyMsg{Type: tea.KeySpace})

	grabbed, ok := m.games.Items()[0].(gameItem)
	if !ok || !strings.HasPrefix(grabbed.Title(), "⇅ ") {
		t.Fatalf("expected the first game to be marked as grabbed")
	}
	if _, _, moves := upstream.counts("1"); moves != 0 {
		t.Fatalf("grabbing must not reorder")
	}

	m.games.Select(2)
	step(t, m, tea.KeyMsg{Type: tea.KeySpace})

	_, games, moves := upstream.counts("1")
	if moves != 1 || games != 2 {
		t.Fatalf("expected one move and one refetch; got moves=%d fetches=%d", moves, games)
	}

	upstream.mu.Lock()
	move := upstream.moves[0]
	upstream.mu.Unlock()
	if move["sourceIndex"] != float64(0) || move["destinantionIndex"] != float64(2) {
		t.Fatalf("unexpected reorder body %v", move)
	}

	if _, dragging := m.drag.Source(); dragging {
		t.Fatalf("expected the drag to end after the drop")
	}
}

func TestTUIEscapeCancelsDrag(t *testing.T) {
	upstream, m := newTestTUI(t)
	m.Update(m.Init()())

	m.lists.Select(0)
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	step(t, m, tea.KeyMsg{Type: tea.KeyTab})

	step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	step(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if _, dragging := m.drag.Source(); dragging {
		t.Fatalf("expected esc to cancel the drag")
	}

	m.games.Select(1)
	step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if _, _, moves := upstream.counts("1"); moves != 0 {
		t.Fatalf("a cancelled drag must not reorder; got %d moves", moves)
	}
}

func TestTUIShowsDetail(t *testing.T) {
	_, m := newTestTUI(t)
	m.Update(m.Init()())

	m.lists.Select(0)
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	step(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m.games.Select(2)
	step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	detail := m.detail()
	for _, want := range []string{"The Witcher 3", "2015", "Monsters"} {
		if !strings.Contains(detail, want) {
			t.Fatalf("expected %q in %q", want, detail)
		}
	}
	if !strings.Contains(m.View(), "The Witcher 3") {
		t.Fatalf("expected the detail pane in the rendered view")
	}
}
