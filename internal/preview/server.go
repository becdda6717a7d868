// Package preview is a local development server: it registers the
// component templates found on disk, serves them rendered to plain
// HTML, and pushes re-renders to connected browsers over a websocket
// when the files change.
package preview

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TarekRaafat/eleva"
	"github.com/TarekRaafat/eleva/internal/config"
	"github.com/TarekRaafat/eleva/pkg/dom"
	"github.com/TarekRaafat/eleva/pkg/middleware"
)

// Server serves rendered components and live updates.
type Server struct {
	app    *eleva.Eleva
	cfg    *config.Config
	hub    *Hub
	logger *slog.Logger
	router chi.Router
}

// NewServer wires the preview routes over an application.
func NewServer(app *eleva.Eleva, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		app:    app,
		cfg:    cfg,
		hub:    NewHub(),
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Prometheus())
	r.Use(middleware.OpenTelemetry())
	r.Get("/", s.handleIndex)
	r.Get("/c/{name}", s.handleComponent)
	r.Get("/ws", s.hub.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r
	return s
}

// Handler returns the HTTP handler for the preview routes.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub, so reload notifications can be fed
// from a file watcher.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe blocks serving the preview on the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("preview server listening", "addr", s.cfg.Addr)
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Render mounts a component into a detached body and returns its
// rendered HTML.
func (s *Server) Render(name string) (string, error) {
	start := time.Now()
	body := dom.NewElement("body")
	m, err := s.app.Mount(body, name, nil)
	if err != nil {
		return "", err
	}
	out := body.InnerHTML()
	if err := m.Unmount(); err != nil {
		return "", err
	}
	middleware.RecordRender(time.Since(start))
	return out, nil
}

// ObserveUpdates pushes a component's freshly serialized HTML to every
// connected client whenever the runtime reports a re-render. Returns a
// stop function that detaches the subscription.
func (s *Server) ObserveUpdates() (stop func()) {
	return s.app.Emitter().On("component:update", func(args ...any) {
		if len(args) < 2 {
			return
		}
		name, _ := args[0].(string)
		m, ok := args[1].(*eleva.MountResult)
		if !ok || name == "" {
			return
		}
		s.hub.NotifyUpdate(name, m.Container.InnerHTML())
	})
}

// Broadcast re-renders a component and pushes it to every client.
func (s *Server) Broadcast(name string) {
	out, err := s.Render(name)
	if err != nil {
		s.logger.Error("preview render failed", "component", name, "error", err)
		s.hub.NotifyError(err.Error())
		return
	}
	s.hub.NotifyUpdate(name, out)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var names []string
	if s.cfg.Component != "" {
		// A configured root component renders directly.
		s.renderPage(w, s.cfg.Component)
		return
	}
	for _, name := range s.registered() {
		names = append(names, fmt.Sprintf(`<li><a href="/c/%s">%s</a></li>`, name, html.EscapeString(name)))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexShell, strings.Join(names, "\n"))
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, chi.URLParam(r, "name"))
}

func (s *Server) renderPage(w http.ResponseWriter, name string) {
	out, err := s.Render(name)
	if err != nil {
		s.logger.Error("preview render failed", "component", name, "error", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, html.EscapeString(name), name, out)
}

// registered lists component names known to the server's config dir.
func (s *Server) registered() []string {
	names, err := LoadComponents(s.app, s.cfg.ComponentDir)
	if err != nil {
		s.logger.Warn("listing components failed", "dir", s.cfg.ComponentDir, "error", err)
		return nil
	}
	sort.Strings(names)
	return names
}

const indexShell = `<!doctype html>
<html>
<head><title>eleva preview</title></head>
<body>
<h1>Components</h1>
<ul>
%s
</ul>
</body>
</html>
`

const pageShell = `<!doctype html>
<html>
<head><title>%s - eleva preview</title></head>
<body data-component="%s">
%s
<script>
(function () {
  var ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "reload") location.reload();
    if (msg.type === "update" && msg.component === document.body.dataset.component) {
      document.body.innerHTML = msg.html;
    }
  };
})();
</script>
</body>
</html>
`
