package main

import (
	"io"
	"net/http"

	"github.com/Seednode/gameshelf/catalog"
	"github.com/go-chi/cors"
	"github.com/julienschmidt/httprouter"
)

// forward relays a request to the catalog. The path segments after the list
// id are fixed by the route, so nothing else of the incoming path is passed
// on.
func forward(cfg *Config, client *catalog.Client, segments func(httprouter.Params) []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := httprouter.ParamsFromContext(r.Context())

		var body io.Reader
		if r.Method == http.MethodPost {
			body = http.MaxBytesReader(w, r.Body, 1<<16)
		}

		resp, err := client.Forward(r.Context(), r.Method, body, segments(p)...)
		if err != nil {
			errorf("PROXY: %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "catalog unavailable", http.StatusBadGateway)

			return
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)

		written, _ := io.Copy(w, resp.Body)

		logf(cfg, "PROXY: %s %s -> %d (%s) for %s",
			r.Method,
			r.URL.Path,
			resp.StatusCode,
			humanReadableSize(written),
			realIP(r),
		)
	})
}

// registerPassthrough mirrors the catalog endpoints under /api, with CORS, so
// a static page can use gameshelf as its backend.
func registerPassthrough(cfg *Config, mux *httprouter.Router, client *catalog.Client) {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	route := func(method, path string, segments func(httprouter.Params) []string) {
		mux.Handler(method, cfg.prefix+path, c.Handler(forward(cfg, client, segments)))
		mux.Handler(http.MethodOptions, cfg.prefix+path, c.Handler(http.NotFoundHandler()))
	}

	route(http.MethodGet, "/api/lists", func(httprouter.Params) []string {
		return []string{"lists"}
	})

	route(http.MethodGet, "/api/lists/:listid/games", func(p httprouter.Params) []string {
		return []string{"lists", p.ByName("listid"), "games"}
	})

	route(http.MethodPost, "/api/lists/:listid/replacement", func(p httprouter.Params) []string {
		return []string{"lists", p.ByName("listid"), "replacement"}
	})
}
