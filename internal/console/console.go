// Package console holds the per-session risk map and alert console: it
// renders the current risk set, guards the alert action with a dispatch state
// machine, and tracks the side panel and map re-layout.
//
// A Console can only be built from an identity, so nothing in this package
// reads risk data or dispatches alerts for a visitor who has not subscribed.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
	"github.com/couchcryptid/flood-alert-dashboard/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrNoIdentity         = errors.New("console requires a subscriber identity")
	ErrDispatchInProgress = errors.New("alert dispatch already in progress")
	ErrClosed             = errors.New("console closed")
)

const recordTimeout = 5 * time.Second

// RiskSource provides the current risk point set.
type RiskSource interface {
	Current(ctx context.Context) ([]domain.RiskPoint, error)
}

// AlertService sends alert requests to the Alert Dispatch Service.
type AlertService interface {
	AlertUsers(ctx context.Context, req domain.AlertRequest) error
}

// DispatchRecorder receives an audit record for every resolved dispatch.
type DispatchRecorder interface {
	RecordDispatch(ctx context.Context, rec domain.DispatchRecord) error
}

// Options configures a Console. Recorder is optional.
type Options struct {
	Source        RiskSource
	Alerts        AlertService
	Recorder      DispatchRecorder
	Target        domain.AlertTarget
	Timeout       time.Duration
	RelayoutDelay time.Duration
	Clock         clockwork.Clock
	Logger        *slog.Logger
	Metrics       *observability.Metrics
}

// DispatchView is the alert control as the page should show it.
type DispatchView struct {
	State  DispatchState `json:"state"`
	Busy   bool          `json:"busy"`
	Notice *Notice       `json:"notice,omitempty"`
}

// View is everything the map page needs for one render.
type View struct {
	Identity         domain.Identity `json:"identity"`
	Map              MapView         `json:"map"`
	PanelOpen        bool            `json:"panelOpen"`
	LayoutGeneration uint64          `json:"layoutGeneration"`
	Dispatch         DispatchView    `json:"dispatch"`
}

// Console is the state of one subscriber's map page.
type Console struct {
	identity domain.Identity
	opts     Options

	mu          sync.Mutex
	state       DispatchState
	notice      *Notice
	cancel      context.CancelFunc
	panelOpen   bool
	relayout    clockwork.Timer
	relayoutSeq uint64
	layoutGen   uint64
	closed      bool

	wg sync.WaitGroup
}

// New creates a console for identity. A nil identity, or one without a mail,
// is refused with ErrNoIdentity.
func New(identity *domain.Identity, opts Options) (*Console, error) {
	if identity == nil {
		return nil, ErrNoIdentity
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoIdentity, err)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Console{
		identity:  *identity,
		opts:      opts,
		state:     StateIdle,
		panelOpen: true,
	}, nil
}

// Identity returns the subscriber this console belongs to.
func (c *Console) Identity() domain.Identity {
	return c.identity
}

// State returns the current dispatch state.
func (c *Console) State() DispatchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Render builds the page view from the current risk set. A resolved dispatch
// notice is surfaced exactly once: after this render the state is Idle again.
func (c *Console) Render(ctx context.Context) (View, error) {
	return c.view(ctx, true)
}

// Snapshot is Render without consuming the dispatch notice.
func (c *Console) Snapshot(ctx context.Context) (View, error) {
	return c.view(ctx, false)
}

func (c *Console) view(ctx context.Context, consume bool) (View, error) {
	if c.isClosed() {
		return View{}, ErrClosed
	}

	points, err := c.opts.Source.Current(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load risk points: %w", err)
	}
	mv := BuildMapView(points)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return View{}, ErrClosed
	}

	v := View{
		Identity:         c.identity,
		Map:              mv,
		PanelOpen:        c.panelOpen,
		LayoutGeneration: c.layoutGen,
		Dispatch: DispatchView{
			State:  c.state,
			Busy:   c.state == StateSending,
			Notice: c.notice,
		},
	}
	if consume && (c.state == StateSucceeded || c.state == StateFailed) {
		c.state = StateIdle
		c.notice = nil
	}
	return v, nil
}

// Dispatch starts an alert request unless one is already in flight, in which
// case it returns ErrDispatchInProgress and sends nothing. The call runs
// detached from ctx's cancellation, bounded by the configured timeout; the
// returned channel yields exactly one Outcome.
func (c *Console) Dispatch(ctx context.Context) (<-chan Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.state == StateSending {
		c.opts.Metrics.Dispatches.WithLabelValues("rejected").Inc()
		return nil, ErrDispatchInProgress
	}

	id := uuid.New()
	req := domain.NewAlertRequest(c.opts.Target, c.opts.Clock.Now())
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)

	c.state = StateSending
	c.notice = nil
	c.cancel = cancel

	out := make(chan Outcome, 1)
	c.wg.Add(1)
	c.opts.Metrics.DispatchesInFlight.Inc()
	go c.send(dctx, cancel, id, req, out)

	c.opts.Logger.Info("alert dispatch started",
		"dispatch_id", id,
		"operator", c.identity.Mail,
		"id", req.ID,
		"segment_id", req.SegmentID,
	)
	return out, nil
}

func (c *Console) send(ctx context.Context, cancel context.CancelFunc, id uuid.UUID, req domain.AlertRequest, out chan<- Outcome) {
	defer c.wg.Done()
	defer close(out)
	defer cancel()

	start := time.Now()
	err := c.opts.Alerts.AlertUsers(ctx, req)
	elapsed := time.Since(start)

	c.opts.Metrics.DispatchesInFlight.Dec()
	c.opts.Metrics.DispatchDuration.Observe(elapsed.Seconds())

	outcome := outcomeFor(err)

	c.mu.Lock()
	if c.closed {
		outcome.Abandoned = true
	} else {
		c.state = outcome.State
		notice := outcome.Notice
		c.notice = &notice
		c.cancel = nil
	}
	c.mu.Unlock()

	c.opts.Metrics.Dispatches.WithLabelValues(outcome.label()).Inc()
	switch {
	case outcome.Abandoned:
		c.opts.Logger.Info("alert dispatch result discarded, console closed",
			"operator", c.identity.Mail, "error", err)
	case err != nil:
		c.opts.Logger.Warn("alert dispatch failed",
			"dispatch_id", id,
			"operator", c.identity.Mail,
			"kind", domain.FailureKind(err),
			"error", err,
			"duration", elapsed,
		)
	default:
		c.opts.Logger.Info("alert dispatch succeeded",
			"operator", c.identity.Mail, "duration", elapsed)
	}

	out <- outcome
	c.record(id, req, outcome, elapsed)
}

func (c *Console) record(id uuid.UUID, req domain.AlertRequest, outcome Outcome, elapsed time.Duration) {
	if c.opts.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	rec := domain.DispatchRecord{
		DispatchID:   id,
		Operator:     c.identity.Mail,
		Request:      req,
		Outcome:      outcome.label(),
		Detail:       outcome.Notice.Detail,
		DurationMS:   elapsed.Milliseconds(),
		DispatchedAt: req.StartDate,
	}
	if err := c.opts.Recorder.RecordDispatch(ctx, rec); err != nil {
		c.opts.Logger.Warn("record dispatch failed", "error", err)
	}
}

// TogglePanel opens or closes the side panel and schedules a map re-layout
// after the configured delay. A toggle made while a re-layout is pending
// replaces it, so a quick close/open pair yields one re-layout.
func (c *Console) TogglePanel() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}
	c.panelOpen = !c.panelOpen

	if c.relayout != nil {
		c.relayout.Stop()
	}
	c.relayoutSeq++
	seq := c.relayoutSeq
	c.relayout = c.opts.Clock.AfterFunc(c.opts.RelayoutDelay, func() { c.fireRelayout(seq) })

	return c.panelOpen, nil
}

func (c *Console) fireRelayout(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer toggle superseded this timer after it had already fired.
	if c.closed || seq != c.relayoutSeq {
		return
	}
	c.relayout = nil
	c.layoutGen++
}

// RelayoutDelay is how long after a toggle the map is re-laid out.
func (c *Console) RelayoutDelay() time.Duration {
	return c.opts.RelayoutDelay
}

// Close tears the console down. An in-flight dispatch is cancelled and its
// result, if any arrives, is discarded.
func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.relayout != nil {
		c.relayout.Stop()
		c.relayout = nil
	}
}

// Wait blocks until any dispatch goroutine has finished.
func (c *Console) Wait() {
	c.wg.Wait()
}

func (c *Console) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
