// Shelf viewers
//
// Every browser tab showing the shelf page opens one websocket. The server
// keeps that tab's presentation state (a shelf.Session and its drag) and
// pushes a freshly rendered view after each event that changed it.
//
// Client events:
//   - select_list {list_id}: fetch and show the games of a list
//   - select_game {index}:   show a game in the detail panel
//   - drag_start {index}:    remember the dragged game
//   - drop {index}:          reorder, then fetch the list again
//   - reload:                fetch lists and the shown list again
//
// Server messages:
//   - render {html}: replacement markup for the page body

package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/Seednode/gameshelf/catalog"
	"github.com/Seednode/gameshelf/shelf"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Messages coming from the page
type ClientMessage struct {
	Type   string         `json:"type"`              // "select_list", "select_game", "drag_start", "drop", "reload"
	ListID catalog.ListID `json:"list_id,omitempty"` // select_list
	Index  *int           `json:"index,omitempty"`   // select_game, drag_start, drop
}

// Messages sent to the page
type RenderMessage struct {
	Type string `json:"type"` // "render"
	HTML string `json:"html"` // contents of #app
}

type Viewer struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	session *shelf.Session
	drag    shelf.Drag
	pages   *renderer
	errorf  func(string, ...any)
}

// ViewerManager tracks open viewers so they can be closed on shutdown.
type ViewerManager struct {
	mu      sync.Mutex
	viewers map[*Viewer]struct{}
}

func newViewerManager() *ViewerManager {
	return &ViewerManager{
		viewers: make(map[*Viewer]struct{}),
	}
}

func (vm *ViewerManager) add(v *Viewer) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.viewers[v] = struct{}{}
}

func (vm *ViewerManager) remove(v *Viewer) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	delete(vm.viewers, v)
}

func (vm *ViewerManager) count() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return len(vm.viewers)
}

// closeAll disconnects every viewer. Their read pumps exit on the next read.
func (vm *ViewerManager) closeAll() {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	for v := range vm.viewers {
		_ = v.conn.Close()
		delete(vm.viewers, v)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// render pushes the current view. A full send buffer drops the render, the
// next one carries the same state anyway.
func (v *Viewer) render() {
	html, err := v.pages.view(v.session.View())
	if err != nil {
		v.errorf("VIEW: Rendering: %v", err)
		return
	}

	select {
	case v.send <- RenderMessage{Type: "render", HTML: html}:
	default:
	}
}

// handle applies one event and reports whether the view needs rendering.
func (v *Viewer) handle(ctx context.Context, msg ClientMessage) bool {
	switch msg.Type {
	case "select_list":
		if msg.ListID == "" {
			return false
		}
		return v.session.SelectList(ctx, msg.ListID) == nil

	case "select_game":
		if msg.Index == nil {
			return false
		}
		return v.session.SelectGame(*msg.Index)

	case "drag_start":
		if msg.Index == nil {
			return false
		}
		v.drag.Start(*msg.Index)
		return false

	case "drop":
		if msg.Index == nil {
			v.drag.Reset()
			return false
		}
		moved, _ := v.session.Drop(ctx, &v.drag, *msg.Index)
		return moved

	case "reload":
		_ = v.session.Reload(ctx)
		return true

	default:
		// ignore unknown types
		return false
	}
}

func (v *Viewer) readPump(ctx context.Context) {
	for {
		var msg ClientMessage
		if err := v.conn.ReadJSON(&msg); err != nil {
			return
		}

		if v.handle(ctx, msg) {
			v.render()
		}
	}
}

func (v *Viewer) writePump() {
	defer v.conn.Close()

	for msg := range v.send {
		if err := v.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// serveWS upgrades the connection and runs a viewer until the page goes away.
// A ?list= query selects that list right after the lists are loaded.
func serveWS(cfg *Config, client shelf.Catalog, pages *renderer, viewers *ViewerManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf("VIEW: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		id := uuid.NewString()
		info, fail := loggers(cfg, id+" | ")

		v := &Viewer{
			id:      id,
			conn:    conn,
			send:    make(chan any, 8),
			session: shelf.NewSession(client, info, fail),
			pages:   pages,
			errorf:  fail,
		}

		viewers.add(v)
		logf(cfg, "VIEW: Viewer %s connected from %s (%d open)", id, realIP(r), viewers.count())

		ctx, cancel := context.WithCancel(r.Context())

		defer func() {
			cancel()
			viewers.remove(v)
			close(v.send)
			_ = conn.Close()
			logf(cfg, "VIEW: Viewer %s disconnected", id)
		}()

		go v.writePump()

		if v.session.LoadLists(ctx) == nil {
			v.render()
		}

		if list := catalog.ListID(r.URL.Query().Get("list")); list != "" {
			if v.handle(ctx, ClientMessage{Type: "select_list", ListID: list}) {
				v.render()
			}
		}

		v.readPump(ctx)
	}
}
