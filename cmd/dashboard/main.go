// Command dashboard serves the flood alert dashboard: the subscription gate,
// the risk map console, and the alert dispatch action.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/adapter/alerting"
	"github.com/couchcryptid/flood-alert-dashboard/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/flood-alert-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/flood-alert-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/flood-alert-dashboard/internal/adapter/subscription"
	"github.com/couchcryptid/flood-alert-dashboard/internal/config"
	"github.com/couchcryptid/flood-alert-dashboard/internal/console"
	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/observability"
	"github.com/couchcryptid/flood-alert-dashboard/internal/riskfeed"
	"github.com/couchcryptid/flood-alert-dashboard/internal/session"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	feedBatchSize = 16
	reapInterval  = time.Minute
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Flood alert dashboard",
		Long: `Serves the subscription gate and the risk map console from which an
operator can alert subscribed users. Configuration is read from the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCmd(), newVersionCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flood-alert-dashboard %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "built: %s\n", date)
		},
	}
}

func serve(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	points, err := initialPoints(cfg)
	if err != nil {
		return err
	}
	points = domain.LabelRiskPoints(ctx, points, geocoder, logger)

	ready := observability.Readiness{}
	var closers []namedCloser

	var source console.RiskSource
	var recorder console.DispatchRecorder
	if cfg.KafkaEnabled() {
		reader := kafkaadapter.NewReader(cfg)
		writer := kafkaadapter.NewWriter(cfg)
		closers = append(closers, namedCloser{"kafka reader", reader.Close}, namedCloser{"kafka writer", writer.Close})

		feed := riskfeed.New(reader, geocoder, logger, metrics, feedBatchSize)
		feed.Seed(points)
		source = feed
		recorder = writer
		ready = append(ready, observability.NamedCheck{Name: "risk feed", Checker: feed})

		go func() {
			if err := feed.Run(ctx); err != nil {
				logger.Error("risk feed error", "error", err)
			}
		}()
		logger.Info("kafka risk feed enabled", "topic", cfg.KafkaRiskTopic, "audit_topic", cfg.KafkaAuditTopic)
	} else {
		source = riskfeed.NewStatic(points, metrics)
		logger.Info("serving static risk set", "points", len(points))
	}

	var store session.Store
	if cfg.SessionRedisURL != "" {
		rs, err := session.NewRedisStore(cfg.SessionRedisURL, clock)
		if err != nil {
			return err
		}
		store = rs
		closers = append(closers, namedCloser{"redis session store", rs.Close})
		ready = append(ready, observability.NamedCheck{Name: "session store", Checker: rs})
		logger.Info("redis session store enabled")
	} else {
		ms := session.NewMemoryStore(clock)
		store = ms
		go sweepSessions(ctx, ms, clock, logger)
	}
	sessions := session.NewManager(store, cfg.SessionTTL, clock)

	alerts := alerting.NewClient(cfg.AlertURL, cfg.AlertTimeout, logger)
	target := domain.AlertTarget{
		ID:          cfg.AlertID,
		SegmentID:   cfg.AlertSegmentID,
		Severity:    cfg.AlertSeverity,
		Probability: cfg.AlertProbability,
		Window:      cfg.AlertWindow,
	}

	registry := console.NewRegistry(func(identity *domain.Identity) (*console.Console, error) {
		return console.New(identity, console.Options{
			Source:        source,
			Alerts:        alerts,
			Recorder:      recorder,
			Target:        target,
			Timeout:       cfg.AlertTimeout,
			RelayoutDelay: cfg.PanelRelayoutDelay,
			Clock:         clock,
			Logger:        logger.With("component", "console"),
			Metrics:       metrics,
		})
	}, metrics, logger)
	go registry.RunReaper(ctx, sessions, reapInterval, clock)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Subscriber: subscription.NewClient(cfg.SubscribeURL, cfg.SubscribeTimeout, logger),
		Sessions:   sessions,
		Consoles:   registry,
		Map: httpadapter.MapSettings{
			TileURL:       cfg.TileURL,
			CenterLat:     cfg.MapCenterLat,
			CenterLon:     cfg.MapCenterLon,
			Zoom:          cfg.MapZoom,
			RelayoutDelay: cfg.PanelRelayoutDelay,
		},
		OriginIP:     cfg.SubscribeOriginIP,
		CookieSecure: cfg.SessionCookieSecure,
		Metrics:      metrics,
	}, ready, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	registry.CloseAll()
	for _, c := range closers {
		if err := c.close(); err != nil {
			logger.Error("close error", "component", c.name, "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

type namedCloser struct {
	name  string
	close func() error
}

func initialPoints(cfg *config.Config) ([]domain.RiskPoint, error) {
	if cfg.RiskFixturePath == "" {
		return riskfeed.DefaultPoints(), nil
	}
	points, err := riskfeed.LoadFixture(cfg.RiskFixturePath)
	if err != nil {
		return nil, fmt.Errorf("load RISK_FIXTURE_PATH: %w", err)
	}
	return points, nil
}

func sweepSessions(ctx context.Context, store *session.MemoryStore, clock clockwork.Clock, logger *slog.Logger) {
	ticker := clock.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := store.Sweep(); n > 0 {
				logger.Debug("swept expired sessions", "count", n)
			}
		}
	}
}
