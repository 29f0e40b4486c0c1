/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Seednode/gameshelf/catalog"
	"github.com/Seednode/gameshelf/shelf"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templates embed.FS

// renderer turns shelf views into HTML.
type renderer struct {
	prefix string
	tmpl   *template.Template
	md     goldmark.Markdown
}

type pageData struct {
	Title   string
	Prefix  string
	Favicon template.HTML
	ListID  catalog.ListID
	View    shelf.View
}

func newRenderer(prefix string) (*renderer, error) {
	r := &renderer{
		prefix: prefix,
		md:     goldmark.New(),
	}

	tmpl, err := template.New("shelf").Funcs(template.FuncMap{
		"markdown": r.markdown,
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r.tmpl = tmpl

	return r, nil
}

// markdown renders a game description. Raw HTML in the source is escaped.
func (r *renderer) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}

	return template.HTML(buf.String())
}

func (r *renderer) view(v shelf.View) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "view", v); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (r *renderer) page(id catalog.ListID) ([]byte, error) {
	title := "gameshelf"
	if id != "" {
		title = "gameshelf: list " + id.String()
	}

	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, "index", pageData{
		Title:   title,
		Prefix:  r.prefix,
		Favicon: template.HTML(getFavicon(r.prefix)),
		ListID:  id,
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// serveShelfPage serves the page shell. The list named in the path, if any,
// is selected once the page's websocket connects.
func serveShelfPage(cfg *Config, pages *renderer, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		data, err := pages.page(catalog.ListID(p.ByName("listid")))
		if err != nil {
			errorf("SERVE: Rendering page: %v", err)
			http.Error(w, "unable to render page", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)
		cspShelf(w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Shelf page %s (%s) to %s in %s",
			r.URL.Path,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// serveQR encodes the deep link of a list as a PNG QR code.
func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if p.ByName("listid") == "" {
			http.Error(w, "missing list id", http.StatusBadRequest)

			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		link := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: QR code for %s to %s", link, realIP(r))
	}
}

// registerShelf sets up routes so that:
//   - /                   → shelf page
//   - /lists/:listid      → shelf page with that list selected
//   - /lists/:listid/qr   → PNG QR code for the list page
//   - /ws                 → websocket carrying events and renders
//   - /assets/*asset      → embedded script and stylesheet
func registerShelf(cfg *Config, mux *httprouter.Router, client shelf.Catalog, pages *renderer, viewers *ViewerManager, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveShelfPage(cfg, pages, errs))

	mux.GET(cfg.prefix+"/lists/:listid", serveShelfPage(cfg, pages, errs))

	mux.GET(cfg.prefix+"/lists/:listid/qr", serveQR(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, client, pages, viewers))

	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, errs))
}
