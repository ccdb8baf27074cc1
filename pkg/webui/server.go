// Package webui serves a local HTTP browser for a generated marketplace
// index: the raw index document, per-plugin manifests and a minimal HTML
// listing.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/plugins"
)

// ServerConfig holds the web server configuration.
type ServerConfig struct {
	Host       string
	Port       int
	PluginsDir string
	Market     plugins.MarketplaceOptions
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.PluginsDir == "" {
		return errors.New("plugins directory cannot be empty")
	}
	return nil
}

// Server is the marketplace browser server. The index is regenerated on
// every request so the browser always reflects the plugins directory.
type Server struct {
	router *mux.Router
	config *ServerConfig
	server *http.Server
}

// NewServer creates the marketplace browser server.
func NewServer(config *ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		config: config,
	}
	s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/marketplace", s.handleMarketplace).Methods(http.MethodGet)
	s.router.HandleFunc("/api/validate", s.handleValidate).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	logger.G(ctx).WithField("addr", s.server.Addr).Info("marketplace browser listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "marketplace browser failed")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	market, err := plugins.GenerateMarketplace(r.Context(), s.config.PluginsDir, s.config.Market)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, market)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	summary, err := plugins.ValidateAllPlugins(r.Context(), s.config.PluginsDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	problems := make(map[string]string, len(summary.Problems))
	for dir, problem := range summary.Problems {
		problems[dir] = problem.Error()
	}

	writeJSON(w, map[string]any{
		"total":    summary.Total,
		"valid":    summary.Valid,
		"invalid":  summary.Invalid,
		"problems": problems,
	})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><title>{{ .Name }} marketplace</title></head>
<body>
<h1>{{ .Name }}</h1>
<p>{{ len .Plugins }} plugins</p>
<table border="1" cellpadding="4">
<tr><th>Name</th><th>Source</th></tr>
{{ range .Plugins }}<tr><td>{{ .Name }}</td><td>{{ .Source }}</td></tr>
{{ end }}</table>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	market, err := plugins.GenerateMarketplace(r.Context(), s.config.PluginsDir, s.config.Market)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, market); err != nil {
		logger.G(r.Context()).WithError(err).Error("failed to render marketplace index page")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
