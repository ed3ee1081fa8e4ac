// Package panel serves the mention history over local HTTP: the stand-in
// for the userscript's settings popup. Read-only apart from an explicit
// history reset.
package panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/mentionwatch/chatmsg"
	"github.com/hazyhaar/mentionwatch/internal/history"
)

// Panel serves the history views.
type Panel struct {
	store  *history.Store
	logger *slog.Logger
	srv    *http.Server
}

// New creates a Panel over the given store.
func New(store *history.Store, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{store: store, logger: logger}
}

// Router builds the panel routes.
func (p *Panel) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", p.handleIndex)
	r.Get("/api/mentions", p.handleList)
	r.Get("/api/mentions/export", p.handleExport)
	r.Delete("/api/mentions", p.handleClear)

	return r
}

// Serve runs the panel HTTP server until ctx is canceled.
func (p *Panel) Serve(ctx context.Context, addr string) error {
	p.srv = &http.Server{
		Addr:              addr,
		Handler:           p.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.srv.ListenAndServe()
	}()
	p.logger.Info("panel: listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return p.srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (p *Panel) handleList(w http.ResponseWriter, r *http.Request) {
	msgs, err := p.store.All(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []*chatmsg.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleExport renders the history as a markdown digest, one line per
// mention, newest last.
func (p *Panel) handleExport(w http.ResponseWriter, r *http.Request) {
	msgs, err := p.store.All(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	sb.WriteString("# Mentions\n\n")
	for _, m := range msgs {
		line := m.PlainText
		if m.RenderedHTML != "" {
			if md, err := htmltomarkdown.ConvertString(m.RenderedHTML); err == nil {
				line = strings.TrimSpace(md)
			}
		}
		fmt.Fprintf(&sb, "- %s **%s**: %s\n",
			m.ReceivedAt.Format(time.RFC3339), m.Author, line)
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(sb.String()))
}

func (p *Panel) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := p.store.Clear(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>mentionwatch</title></head>
<body>
<h1>Mentions ({{len .}})</h1>
{{range .}}
<div class="mention">
  <small>{{.ReceivedAt.Format "15:04:05"}}</small>
  <strong>{{.Author}}</strong>
  {{if .RenderedHTML}}{{.Rendered}}{{else}}<span>{{.PlainText}}</span>{{end}}
</div>
{{else}}
<p>No mentions yet.</p>
{{end}}
</body>
</html>
`))

type indexEntry struct {
	*chatmsg.Message
}

// Rendered marks the stored markup as safe for the template. It already
// went through the parser's sanitiser before storage.
func (e indexEntry) Rendered() template.HTML {
	return template.HTML(e.RenderedHTML)
}

func (p *Panel) handleIndex(w http.ResponseWriter, r *http.Request) {
	msgs, err := p.store.All(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	entries := make([]indexEntry, len(msgs))
	for i, m := range msgs {
		entries[i] = indexEntry{m}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, entries); err != nil {
		p.logger.Warn("panel: render index", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("panel: encode response", "error", err)
	}
}
