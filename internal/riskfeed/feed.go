// Package riskfeed supplies the set of flood risk points shown on the map,
// either from a static fixture or from snapshots consumed off Kafka.
package riskfeed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw messages from the feed topic.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Static serves a fixed risk set.
type Static struct {
	points []domain.RiskPoint
}

// NewStatic returns a source that always serves points.
func NewStatic(points []domain.RiskPoint, metrics *observability.Metrics) *Static {
	recordLevels(metrics, points)
	return &Static{points: clonePoints(points)}
}

// Current returns a copy of the fixed set.
func (s *Static) Current(_ context.Context) ([]domain.RiskPoint, error) {
	return clonePoints(s.points), nil
}

// Feed keeps the latest risk snapshot consumed from the feed topic.
type Feed struct {
	extractor BatchExtractor
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int

	mu     sync.RWMutex
	points []domain.RiskPoint
	ready  atomic.Bool
}

// New creates a Feed. geocoder may be nil to skip place labels.
func New(e BatchExtractor, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Feed {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Feed{
		extractor: e,
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Seed installs an initial risk set served until the first snapshot arrives.
func (f *Feed) Seed(points []domain.RiskPoint) {
	f.replace(points)
}

// Current returns a copy of the latest risk set.
func (f *Feed) Current(_ context.Context) ([]domain.RiskPoint, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return clonePoints(f.points), nil
}

// CheckReadiness returns nil once the feed has a risk set to serve.
func (f *Feed) CheckReadiness(_ context.Context) error {
	if !f.ready.Load() {
		return errors.New("risk feed has no snapshot yet")
	}
	return nil
}

// Run consumes snapshots until the context is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("risk feed started", "batch_size", f.batchSize)
	f.metrics.FeedRunning.Set(1)
	defer f.metrics.FeedRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("risk feed stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !f.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch consumes one batch. Returns false if the feed should stop.
func (f *Feed) processBatch(ctx context.Context, backoff *time.Duration) bool {
	batch, err := f.extractor.ExtractBatch(ctx, f.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		f.logger.Error("extract batch failed", "error", err)
		return backoffOrStop(ctx, backoff)
	}
	if len(batch) == 0 {
		return ctx.Err() == nil
	}
	*backoff = initialBackoff

	// Only the newest valid snapshot of a batch matters.
	var latest *Snapshot
	for _, raw := range batch {
		s, err := DecodeSnapshot(raw)
		if err != nil {
			f.logger.Warn("invalid snapshot, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			f.metrics.FeedDecodeErrors.Inc()
			continue
		}
		latest = &s
	}

	if latest != nil {
		points := domain.LabelRiskPoints(ctx, latest.Points, f.geocoder, f.logger)
		f.replace(points)
		f.metrics.FeedSnapshots.Inc()
		f.logger.Info("risk snapshot applied", "points", len(points))
	}

	for _, raw := range batch {
		f.commitOffset(ctx, raw)
	}
	return true
}

func (f *Feed) replace(points []domain.RiskPoint) {
	f.mu.Lock()
	f.points = clonePoints(points)
	f.mu.Unlock()

	recordLevels(f.metrics, points)
	f.ready.Store(true)
}

func (f *Feed) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		f.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func recordLevels(metrics *observability.Metrics, points []domain.RiskPoint) {
	var high, medium int
	for _, p := range points {
		if p.Level() == domain.RiskHigh {
			high++
		} else {
			medium++
		}
	}
	metrics.RiskPoints.WithLabelValues(domain.RiskHigh.String()).Set(float64(high))
	metrics.RiskPoints.WithLabelValues(domain.RiskMedium.String()).Set(float64(medium))
}

func clonePoints(points []domain.RiskPoint) []domain.RiskPoint {
	out := make([]domain.RiskPoint, len(points))
	copy(out, points)
	return out
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the context ended first.
func backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}
