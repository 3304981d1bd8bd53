package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Subscription Service.
	SubscribeURL      string
	SubscribeTimeout  time.Duration
	SubscribeOriginIP string

	// Alert Dispatch Service and the request it receives.
	AlertURL         string
	AlertTimeout     time.Duration
	AlertID          int
	AlertSegmentID   int
	AlertSeverity    int
	AlertProbability float64
	AlertWindow      time.Duration

	// Sessions.
	SessionTTL          time.Duration
	SessionRedisURL     string
	SessionCookieSecure bool

	// Map page.
	PanelRelayoutDelay time.Duration
	TileURL            string
	MapCenterLat       float64
	MapCenterLon       float64
	MapZoom            int

	// Risk data sources.
	RiskFixturePath string
	KafkaBrokers    []string
	KafkaRiskTopic  string
	KafkaAuditTopic string
	KafkaGroupID    string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// KafkaEnabled reports whether a broker list was configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SubscribeURL:      sharedcfg.EnvOrDefault("SUBSCRIBE_URL", "http://localhost:8007"),
		SubscribeTimeout:  p.positiveDuration("SUBSCRIBE_TIMEOUT", "5s"),
		SubscribeOriginIP: os.Getenv("SUBSCRIBE_ORIGIN_IP"),

		AlertURL:         sharedcfg.EnvOrDefault("ALERT_URL", "http://localhost:8007"),
		AlertTimeout:     p.positiveDuration("ALERT_TIMEOUT", "10s"),
		AlertID:          p.integer("ALERT_ID", "0"),
		AlertSegmentID:   p.integer("ALERT_SEGMENT_ID", "0"),
		AlertSeverity:    p.integer("ALERT_SEVERITY", "1"),
		AlertProbability: p.float("ALERT_PROBABILITY", "1"),
		AlertWindow:      p.positiveDuration("ALERT_WINDOW", "24h"),

		SessionTTL:          p.positiveDuration("SESSION_TTL", "12h"),
		SessionRedisURL:     os.Getenv("SESSION_REDIS_URL"),
		SessionCookieSecure: os.Getenv("SESSION_COOKIE_SECURE") == "true",

		PanelRelayoutDelay: p.positiveDuration("PANEL_RELAYOUT_DELAY", "300ms"),
		TileURL:            sharedcfg.EnvOrDefault("TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		MapCenterLat:       p.float("MAP_CENTER_LAT", "43.8927"),
		MapCenterLon:       p.float("MAP_CENTER_LON", "3.2828"),
		MapZoom:            p.integer("MAP_ZOOM", "7"),

		RiskFixturePath: os.Getenv("RISK_FIXTURE_PATH"),
		KafkaBrokers:    parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaRiskTopic:  sharedcfg.EnvOrDefault("KAFKA_RISK_TOPIC", "flood-risk-points"),
		KafkaAuditTopic: sharedcfg.EnvOrDefault("KAFKA_AUDIT_TOPIC", "alert-dispatches"),
		KafkaGroupID:    sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "flood-alert-dashboard"),

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   p.positiveDuration("MAPBOX_TIMEOUT", "5s"),
		MapboxCacheSize: parseMapboxCacheSize(),
	}
	if p.err != nil {
		return nil, p.err
	}

	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SubscribeURL == "" {
		return errors.New("SUBSCRIBE_URL is required")
	}
	if c.AlertURL == "" {
		return errors.New("ALERT_URL is required")
	}
	if c.AlertProbability < 0 || c.AlertProbability > 1 {
		return errors.New("ALERT_PROBABILITY must be within [0,1]")
	}
	if c.MapCenterLat < -90 || c.MapCenterLat > 90 {
		return errors.New("MAP_CENTER_LAT out of range")
	}
	if c.MapCenterLon < -180 || c.MapCenterLon > 180 {
		return errors.New("MAP_CENTER_LON out of range")
	}
	if c.MapZoom < 0 || c.MapZoom > 22 {
		return errors.New("MAP_ZOOM must be within [0,22]")
	}
	if c.KafkaEnabled() && c.KafkaRiskTopic == "" {
		return errors.New("KAFKA_RISK_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// parser collects the first parse failure so Load can report it once.
type parser struct {
	err error
}

func (p *parser) positiveDuration(key, def string) time.Duration {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if (err != nil || d <= 0) && p.err == nil {
		p.err = fmt.Errorf("invalid %s", key)
	}
	return d
}

func (p *parser) integer(key, def string) int {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s", key)
	}
	return n
}

func (p *parser) float(key, def string) float64 {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if (err != nil || math.IsNaN(f) || math.IsInf(f, 0)) && p.err == nil {
		p.err = fmt.Errorf("invalid %s", key)
	}
	return f
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(raw)
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
