// Package scheduler periodically refreshes the product catalog.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RefreshState is the lifecycle state of the refresh job
type RefreshState string

const (
	RefreshStateIdle     RefreshState = "IDLE"
	RefreshStateFetching RefreshState = "FETCHING"
	RefreshStateSuccess  RefreshState = "SUCCESS"
	RefreshStateFailed   RefreshState = "FAILED"
)

// DefaultRefreshInterval is used when no interval is configured
const DefaultRefreshInterval = 2 * time.Minute

// Refresher performs one catalog fetch and applies the result
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshFunc adapts a function to Refresher
type RefreshFunc func(ctx context.Context) error

// Refresh calls f(ctx)
func (f RefreshFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

// RefreshObserver receives refresh outcomes, e.g. for metrics
type RefreshObserver interface {
	RefreshCompleted(ctx context.Context, duration time.Duration, err error)
	RefreshSkipped(ctx context.Context)
}

// Status is a point-in-time view of the scheduler
type Status struct {
	Running       bool          `json:"running"`
	State         RefreshState  `json:"state"`
	LastOutcome   RefreshState  `json:"last_outcome,omitempty"`
	Interval      time.Duration `json:"interval"`
	LastRunAt     *time.Time    `json:"last_run_at,omitempty"`
	LastSuccessAt *time.Time    `json:"last_success_at,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	RunCount      int64         `json:"run_count"`
	SkipCount     int64         `json:"skip_count"`
	NextRunAt     *time.Time    `json:"next_run_at,omitempty"`
}

// Config holds refresh scheduler settings
type Config struct {
	Interval time.Duration
	// Timeout bounds a single fetch. Zero means no bound beyond the refresher's own.
	Timeout time.Duration
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CatalogRefreshScheduler fires a refresh immediately on Start and then on
// every interval tick. A trigger that arrives while a fetch is running is
// skipped; fetches never overlap.
type CatalogRefreshScheduler struct {
	config    Config
	refresher Refresher
	observer  RefreshObserver
	logger    *zap.Logger
	now       func() time.Time

	state     atomic.Value // RefreshState
	runCount  atomic.Int64
	skipCount atomic.Int64

	mu            sync.Mutex
	isRunning     bool
	cancel        context.CancelFunc
	loopDone      chan struct{}
	runCtx        context.Context
	lastOutcome   RefreshState
	lastRunAt     time.Time
	lastSuccessAt time.Time
	lastError     string
	nextRunAt     time.Time

	fetches sync.WaitGroup
}

// Option configures a CatalogRefreshScheduler
type Option func(*CatalogRefreshScheduler)

// WithObserver reports refresh outcomes to o
func WithObserver(o RefreshObserver) Option {
	return func(s *CatalogRefreshScheduler) {
		s.observer = o
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *CatalogRefreshScheduler) {
		s.now = now
	}
}

// NewCatalogRefreshScheduler creates a scheduler
func NewCatalogRefreshScheduler(cfg Config, refresher Refresher, logger *zap.Logger, opts ...Option) (*CatalogRefreshScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if refresher == nil {
		return nil, fmt.Errorf("%w: refresher is required", ErrInvalidConfig)
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CatalogRefreshScheduler{
		config:    cfg,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
	s.state.Store(RefreshStateIdle)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start triggers the first refresh and begins the periodic loop
func (s *CatalogRefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.runCtx = ctx
	s.loopDone = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("Catalog refresh scheduler started",
		zap.Duration("interval", s.config.Interval),
	)

	s.fire(ctx)
	go s.loop(ctx)
	return nil
}

// Stop halts the loop and waits for an in-flight fetch or ctx expiry
func (s *CatalogRefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	loopDone := s.loopDone
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		<-loopDone
		s.fetches.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Catalog refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Catalog refresh scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger requests an immediate refresh. It returns ErrRefreshInProgress
// when a fetch is already running.
func (s *CatalogRefreshScheduler) Trigger() error {
	s.mu.Lock()
	running := s.isRunning
	ctx := s.runCtx
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}
	if !s.fire(ctx) {
		return ErrRefreshInProgress
	}
	return nil
}

// Status returns a snapshot of the scheduler state
func (s *CatalogRefreshScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:     s.isRunning,
		State:       s.State(),
		LastOutcome: s.lastOutcome,
		Interval:    s.config.Interval,
		LastError:   s.lastError,
		RunCount:    s.runCount.Load(),
		SkipCount:   s.skipCount.Load(),
	}
	st.LastRunAt = timePtr(s.lastRunAt)
	st.LastSuccessAt = timePtr(s.lastSuccessAt)
	if s.isRunning {
		st.NextRunAt = timePtr(s.nextRunAt)
	}
	return st
}

// State returns the current lifecycle state
func (s *CatalogRefreshScheduler) State() RefreshState {
	return s.state.Load().(RefreshState)
}

// Interval returns the effective refresh interval
func (s *CatalogRefreshScheduler) Interval() time.Duration {
	return s.config.Interval
}

func (s *CatalogRefreshScheduler) loop(ctx context.Context) {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

// fire starts a fetch unless one is running. It reports whether it started one.
func (s *CatalogRefreshScheduler) fire(ctx context.Context) bool {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return false
	}
	s.nextRunAt = s.now().Add(s.config.Interval)
	if !s.state.CompareAndSwap(RefreshStateIdle, RefreshStateFetching) {
		s.mu.Unlock()
		s.skipCount.Add(1)
		s.logger.Debug("Skipping catalog refresh, previous fetch still running")
		if s.observer != nil {
			s.observer.RefreshSkipped(ctx)
		}
		return false
	}
	s.fetches.Add(1)
	s.mu.Unlock()

	go s.run(ctx)
	return true
}

func (s *CatalogRefreshScheduler) run(ctx context.Context) {
	defer s.fetches.Done()

	startedAt := s.now()
	s.runCount.Add(1)

	runCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	err := s.safeRefresh(runCtx)
	duration := s.now().Sub(startedAt)

	outcome := RefreshStateSuccess
	if err != nil {
		outcome = RefreshStateFailed
	}
	s.state.Store(outcome)

	s.mu.Lock()
	s.lastRunAt = startedAt
	s.lastOutcome = outcome
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.lastSuccessAt = startedAt
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Catalog refresh failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		s.logger.Info("Catalog refreshed", zap.Duration("duration", duration))
	}
	if s.observer != nil {
		s.observer.RefreshCompleted(ctx, duration, err)
	}

	s.state.Store(RefreshStateIdle)
}

func (s *CatalogRefreshScheduler) safeRefresh(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catalog refresh panicked: %v", r)
		}
	}()
	return s.refresher.Refresh(ctx)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
