/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package shelf holds the presentation state of a gameshelf viewer: the
// list selector, the games of the selected list, and the detail panel.
//
// A Session is owned by exactly one frontend connection. Operations that talk
// to the catalog log their failures and leave the state untouched, so a
// failed fetch never changes what is on screen.
package shelf

import (
	"context"
	"sync"

	"github.com/Seednode/gameshelf/catalog"
)

// Catalog is the subset of the catalog service a Session needs.
type Catalog interface {
	Lists(ctx context.Context) ([]catalog.List, error)
	Games(ctx context.Context, id catalog.ListID) ([]catalog.Game, error)
	Move(ctx context.Context, id catalog.ListID, source, destination int) error
}

// Logger receives one formatted line per event.
type Logger func(format string, args ...any)

type Session struct {
	catalog Catalog
	logf    Logger
	errorf  Logger

	mu     sync.Mutex
	lists  []catalog.List
	listID catalog.ListID
	games  []catalog.Game
	detail *catalog.Game
}

// NewSession returns an empty Session. logf gets routine events, errorf gets
// failures; either may be nil.
func NewSession(c Catalog, logf, errorf Logger) *Session {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	if errorf == nil {
		errorf = logf
	}

	return &Session{
		catalog: c,
		logf:    logf,
		errorf:  errorf,
	}
}

// LoadLists fetches the lists for the selector.
func (s *Session) LoadLists(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.catalog.Lists(ctx)
	if err != nil {
		s.errorf("LISTS: %v", err)
		return err
	}

	s.lists = lists
	s.logf("LISTS: Received %d lists", len(lists))

	return nil
}

// SelectList fetches the games of id and makes it the shown list.
func (s *Session) SelectList(ctx context.Context, id catalog.ListID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadGamesLocked(ctx, id)
}

// Reload re-fetches the lists and, if one is shown, its games.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.LoadLists(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listID == "" {
		return nil
	}

	return s.loadGamesLocked(ctx, s.listID)
}

func (s *Session) loadGamesLocked(ctx context.Context, id catalog.ListID) error {
	games, err := s.catalog.Games(ctx, id)
	if err != nil {
		s.errorf("GAMES: %v", err)
		return err
	}

	s.listID = id
	s.games = games
	s.logf("GAMES: Received %d games for list %s", len(games), id)

	return nil
}

// SelectGame shows the game at index of the current list in the detail
// panel. It reports false when index is outside the last fetch.
func (s *Session) SelectGame(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.games) {
		return false
	}

	s.showDetailLocked(s.games[index])

	return true
}

// ShowDetail reveals the detail panel with game, replacing whatever it
// showed before.
func (s *Session) ShowDetail(game catalog.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showDetailLocked(game)
}

func (s *Session) showDetailLocked(game catalog.Game) {
	g := game
	s.detail = &g
}

// Drop ends a drag on target. When the drag carried a different source
// index, the move is sent to the catalog and the shown list is fetched
// again, whether or not the move succeeded. The drag is always reset.
//
// moved reports whether a reorder request was sent; err is the first
// failure, if any.
func (s *Session) Drop(ctx context.Context, drag *Drag, target int) (moved bool, err error) {
	source, ok := drag.Source()
	drag.Reset()

	if !ok || source == target {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.listID
	if id == "" {
		return false, nil
	}

	s.logf("MOVE: Moving game %d to %d in list %s", source, target, id)

	moveErr := s.catalog.Move(ctx, id, source, target)
	if moveErr != nil {
		s.errorf("MOVE: %v", moveErr)
	}

	loadErr := s.loadGamesLocked(ctx, id)
	if moveErr != nil {
		return true, moveErr
	}

	return true, loadErr
}
