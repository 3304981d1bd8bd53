package httpadapter

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/console"
	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/observability"
	"github.com/couchcryptid/flood-alert-dashboard/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Subscriber registers a visitor with the Subscription Service.
type Subscriber interface {
	Subscribe(ctx context.Context, form domain.SubscriptionForm) (domain.Identity, error)
}

// MapSettings controls the initial map viewport and tiles.
type MapSettings struct {
	TileURL       string        `json:"tileURL"`
	CenterLat     float64       `json:"centerLat"`
	CenterLon     float64       `json:"centerLon"`
	Zoom          int           `json:"zoom"`
	RelayoutDelay time.Duration `json:"-"`
}

// Deps are the collaborators the web handlers need.
type Deps struct {
	Subscriber   Subscriber
	Sessions     *session.Manager
	Consoles     *console.Registry
	Map          MapSettings
	OriginIP     string
	CookieSecure bool
	Metrics      *observability.Metrics
}

// Server serves the subscription gate, the risk map console, and the
// health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	pages      *template.Template
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers every route.
func NewServer(addr string, deps Deps, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Alert submissions wait for the dispatch outcome.
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		pages:  pages,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handleGate)
	mux.HandleFunc("POST /subscribe", s.handleSubscribe)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /map", s.page(s.handleMap))
	mux.HandleFunc("POST /map/alert", s.page(s.handleAlert))
	mux.HandleFunc("POST /map/panel", s.page(s.handlePanel))

	mux.HandleFunc("GET /api/console", s.api(s.handleConsoleJSON))
	mux.HandleFunc("POST /api/console/alert", s.api(s.handleAlertJSON))
	mux.HandleFunc("POST /api/console/panel", s.api(s.handlePanelJSON))

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
