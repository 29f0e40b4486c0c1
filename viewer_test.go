package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/gameshelf/catalog"
	"github.com/gorilla/websocket"
)

// catalogServer fakes the catalog service and counts what it was asked.
type catalogServer struct {
	mu sync.Mutex

	lists     []catalog.List
	games     map[string][]catalog.Game
	failGames map[string]bool

	listsCalls int
	gamesCalls map[string]int
	moves      []map[string]any
}

func newCatalogServer() *catalogServer {
	return &catalogServer{
		lists: []catalog.List{
			{ID: "1", Name: "Adventure"},
			{ID: "2", Name: "Platform"},
			{ID: "3", Name: "Racing"},
		},
		games: map[string][]catalog.Game{
			"1": {
				{Title: "Mass Effect Trilogy", Year: 2012, ShortDescription: "Space **opera**", ImgURL: "https://img.example/me.png"},
				{Title: "Red Dead Redemption 2", Year: 2018, ShortDescription: "Outlaws"},
				{Title: "The Witcher 3", Year: 2015, ShortDescription: "Monsters"},
			},
			"2": {
				{Title: "Super Mario World", Year: 1990},
			},
		},
		failGames:  map[string]bool{},
		gamesCalls: map[string]int{},
	}
}

func (c *catalogServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "lists":
		c.listsCalls++
		_ = json.NewEncoder(w).Encode(c.lists)

	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "games":
		c.gamesCalls[parts[1]]++
		if c.failGames[parts[1]] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.games[parts[1]])

	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "replacement":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["list"] = parts[1]
		c.moves = append(c.moves, body)
		w.WriteHeader(http.StatusOK)

	default:
		http.NotFound(w, r)
	}
}

func (c *catalogServer) counts(list string) (lists, games, moves int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.listsCalls, c.gamesCalls[list], len(c.moves)
}

func newFrontend(t *testing.T, cfg *Config) (*catalogServer, *httptest.Server) {
	upstream, front, _ := newFrontendWithViewers(t, cfg)
	return upstream, front
}

func newFrontendWithViewers(t *testing.T, cfg *Config) (*catalogServer, *httptest.Server, *ViewerManager) {
	t.Helper()

	upstream := newCatalogServer()
	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	cfg.apiURL = api.URL

	client, err := catalog.New(cfg.apiURL, 0)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	viewers := newViewerManager()

	mux, err := newRouter(cfg, client, viewers, make(chan error, 64))
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	front := httptest.NewServer(mux)
	t.Cleanup(front.Close)

	return upstream, front, viewers
}

func dial(t *testing.T, front *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(front.URL, "http")+"/ws"+query, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readRender(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg RenderMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read render: %v", err)
	}
	if msg.Type != "render" {
		t.Fatalf("expected render message; got %q", msg.Type)
	}

	return msg.HTML
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()

	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg, err)
	}
}

func TestViewerRendersOneEntryPerList(t *testing.T) {
	upstream, front := newFrontend(t, &Config{})
	conn := dial(t, front, "")

	html := readRender(t, conn)

	if got := strings.Count(html, `class="list-entry`); got != len(upstream.lists) {
		t.Fatalf("expected %d list entries; got %d in %s", len(upstream.lists), got, html)
	}
	for _, l := range upstream.lists {
		if !strings.Contains(html, `data-list-id="`+l.ID.String()+`">`+l.Name+`</li>`) {
			t.Fatalf("missing entry for %q in %s", l.Name, html)
		}
	}
	if !strings.Contains(html, `id="placeholder-text"`) {
		t.Fatalf("expected placeholder before any selection")
	}
}

func TestViewerSelectDragAndDrop(t *testing.T) {
	upstream, front := newFrontend(t, &Config{})
	conn := dial(t, front, "")
	_ = readRender(t, conn)

	send(t, conn, map[string]any{"type": "select_list", "list_id": "1"})
	html := readRender(t, conn)

	if _, games, _ := upstream.counts("1"); games != 1 {
		t.Fatalf("expected exactly one games fetch; got %d", games)
	}
	if got := strings.Count(html, `draggable="true"`); got != 3 {
		t.Fatalf("expected 3 draggable games; got %d", got)
	}
	if !strings.Contains(html, `data-index="2">The Witcher 3</li>`) {
		t.Fatalf("expected index attached to games; got %s", html)
	}

	send(t, conn, map[string]any{"type": "drag_start", "index": 0})
	send(t, conn, map[string]any{"type": "drop", "index": 2})
	_ = readRender(t, conn)

	_, games, moves := upstream.counts("1")
	if moves != 1 {
		t.Fatalf("expected exactly one reorder request; got %d", moves)
	}
	if games != 2 {
		t.Fatalf("expected exactly one refetch after the drop; got %d fetches", games-1)
	}

	upstream.mu.Lock()
	move := upstream.moves[0]
	upstream.mu.Unlock()
	if move["list"] != "1" || move["sourceIndex"] != float64(0) || move["destinantionIndex"] != float64(2) {
		t.Fatalf("unexpected reorder body %v", move)
	}

	send(t, conn, map[string]any{"type": "drag_start", "index": 1})
	send(t, conn, map[string]any{"type": "drop", "index": 1})
	send(t, conn, map[string]any{"type": "reload"})
	_ = readRender(t, conn)

	lists, games, moves := upstream.counts("1")
	if moves != 1 {
		t.Fatalf("dropping on the source index must not reorder; got %d moves", moves)
	}
	if lists != 2 || games != 3 {
		t.Fatalf("expected reload to refetch once; got lists=%d games=%d", lists, games)
	}
}

func TestViewerDetailPanel(t *testing.T) {
	_, front := newFrontend(t, &Config{})
	conn := dial(t, front, "?list=1")

	_ = readRender(t, conn)
	_ = readRender(t, conn)

	send(t, conn, map[string]any{"type": "select_game", "index": 0})
	html := readRender(t, conn)

	if strings.Contains(html, `id="placeholder-text"`) {
		t.Fatalf("placeholder should be hidden once a game is selected")
	}
	for _, want := range []string{
		`id="game-detail-container"`,
		`src="https://img.example/me.png"`,
		`alt="Mass Effect Trilogy"`,
		`<strong>Title:</strong> Mass Effect Trilogy`,
		`<strong>Year:</strong> 2012`,
		`Space <strong>opera</strong>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}

	send(t, conn, map[string]any{"type": "select_game", "index": 1})
	html = readRender(t, conn)
	if !strings.Contains(html, `<strong>Title:</strong> Red Dead Redemption 2`) || !strings.Contains(html, `src=""`) {
		t.Fatalf("expected the panel to be overwritten; got %s", html)
	}
}

func TestViewerFailedFetchKeepsContent(t *testing.T) {
	upstream, front := newFrontend(t, &Config{})
	upstream.mu.Lock()
	upstream.failGames["2"] = true
	upstream.mu.Unlock()

	conn := dial(t, front, "")
	_ = readRender(t, conn)

	send(t, conn, map[string]any{"type": "select_list", "list_id": "1"})
	before := readRender(t, conn)

	send(t, conn, map[string]any{"type": "select_list", "list_id": "2"})
	send(t, conn, map[string]any{"type": "reload"})
	after := readRender(t, conn)

	if _, games, _ := upstream.counts("2"); games != 1 {
		t.Fatalf("expected the failing list to be fetched once; got %d", games)
	}
	if before != after {
		t.Fatalf("failed fetch changed the view:\nbefore=%s\nafter=%s", before, after)
	}
}

func TestViewerIgnoresMalformedEvents(t *testing.T) {
	upstream, front := newFrontend(t, &Config{})
	conn := dial(t, front, "?list=1")
	_ = readRender(t, conn)
	_ = readRender(t, conn)

	send(t, conn, map[string]any{"type": "drop", "index": 1})
	send(t, conn, map[string]any{"type": "select_game"})
	send(t, conn, map[string]any{"type": "launch_missiles"})
	send(t, conn, map[string]any{"type": "reload"})
	_ = readRender(t, conn)

	if _, _, moves := upstream.counts("1"); moves != 0 {
		t.Fatalf("expected no reorder without a drag start; got %d", moves)
	}
}

func TestViewerManagerCloseAll(t *testing.T) {
	_, front, viewers := newFrontendWithViewers(t, &Config{})
	conn := dial(t, front, "")
	_ = readRender(t, conn)

	if got := viewers.count(); got != 1 {
		t.Fatalf("expected one open viewer; got %d", got)
	}

	viewers.closeAll()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the connection to be closed")
	}
	if got := viewers.count(); got != 0 {
		t.Fatalf("expected no open viewers; got %d", got)
	}
}
