package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-compass/internal/domain"
	"github.com/couchcryptid/quake-compass/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrSourceUnavailable wraps failures to load a batch from every configured
// source. These are retried with backoff; data errors are not.
var ErrSourceUnavailable = errors.New("batch source unavailable")

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchSource loads one complete batch of raw rows.
type BatchSource interface {
	Name() string
	Load(ctx context.Context) ([]domain.RawRecord, error)
}

// Snapshot is one published engine result. Err is set when the batch was
// degenerate or invalid; the dashboard is then empty and renderers should
// show a no-data state.
type Snapshot struct {
	Dashboard   domain.Dashboard
	Err         error
	Source      string
	RecordsRead int
	GeneratedAt time.Time
}

// Service recomputes the dashboard from scratch on every refresh and
// publishes the result as an immutable snapshot.
type Service struct {
	source   BatchSource
	fallback BatchSource
	resolver domain.RegionResolver
	cfg      domain.Config
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	current  atomic.Pointer[Snapshot]
}

// Option customizes a Service.
type Option func(*Service)

// WithFallback sets a source used when the primary source fails.
func WithFallback(src BatchSource) Option {
	return func(s *Service) { s.fallback = src }
}

// WithResolver enables region backfill for rows without a region.
func WithResolver(r domain.RegionResolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithClock swaps the time source, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// New creates a Service reading from source with the given engine config.
func New(source BatchSource, cfg domain.Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		source:  source,
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver != nil {
		metrics.GeocodeEnabled.Set(1)
	}
	return s
}

// Snapshot returns the latest published result, or nil before the first
// refresh completes.
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// CheckReadiness returns nil once a snapshot has been published.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("no dashboard snapshot published yet")
	}
	return nil
}

// Run refreshes immediately and then every interval until the context is
// cancelled. An interval of zero refreshes once. Source failures are retried
// with exponential backoff regardless of the interval.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	s.logger.Info("refresh loop started", "interval", interval, "source", s.source.Name())
	s.metrics.ServiceRunning.Set(1)
	defer s.metrics.ServiceRunning.Set(0)

	backoff := initialBackoff
	for {
		err := s.Refresh(ctx)
		if ctx.Err() != nil {
			s.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		}

		wait := interval
		if errors.Is(err, ErrSourceUnavailable) {
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if wait <= 0 {
			<-ctx.Done()
			s.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		}
		if !s.sleep(ctx, wait) {
			s.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Refresh loads a fresh batch, runs the engine and publishes the result.
// On source failure the previous snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	start := s.clock.Now()

	records, sourceName, err := s.load(ctx)
	if err != nil {
		s.metrics.Refreshes.WithLabelValues("source_error").Inc()
		s.logger.Error("load batch failed", "error", err)
		return err
	}
	s.metrics.RecordsRead.Add(float64(len(records)))

	if s.resolver != nil {
		var res domain.BackfillResult
		records, res = domain.BackfillRegions(ctx, records, s.cfg, s.resolver, s.logger)
		s.recordBackfill(res)
	}

	dash, buildErr := domain.Build(records, s.cfg)
	snap := &Snapshot{
		Dashboard:   dash,
		Err:         buildErr,
		Source:      sourceName,
		RecordsRead: len(records),
		GeneratedAt: s.clock.Now(),
	}
	s.current.Store(snap)
	s.metrics.RefreshDuration.Observe(s.clock.Since(start).Seconds())

	switch {
	case buildErr == nil:
		dropped := len(records) - dash.Global.TotalValidEvents
		s.metrics.Refreshes.WithLabelValues("success").Inc()
		s.metrics.RecordsDropped.Add(float64(dropped))
		s.metrics.RegionsTracked.Set(float64(len(dash.Regions)))
		s.logger.Info("dashboard refreshed",
			"source", sourceName,
			"records", len(records),
			"dropped", dropped,
			"regions", len(dash.Regions),
		)
		return nil
	case errors.Is(buildErr, domain.ErrDegenerateInput):
		s.metrics.Refreshes.WithLabelValues("degenerate").Inc()
		s.metrics.RecordsDropped.Add(float64(len(records)))
		s.metrics.RegionsTracked.Set(0)
		s.logger.Warn("batch has no valid events", "source", sourceName, "records", len(records))
	default:
		s.metrics.Refreshes.WithLabelValues("invalid").Inc()
		s.metrics.RegionsTracked.Set(0)
		s.logger.Error("dashboard build failed", "source", sourceName, "error", buildErr)
	}
	return fmt.Errorf("refresh from %s: %w", sourceName, buildErr)
}

// load reads the primary source and falls back when it fails.
func (s *Service) load(ctx context.Context) ([]domain.RawRecord, string, error) {
	records, err := s.source.Load(ctx)
	if err == nil {
		return records, s.source.Name(), nil
	}
	if s.fallback == nil || ctx.Err() != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, s.source.Name(), err)
	}

	s.logger.Warn("primary source failed, using fallback",
		"source", s.source.Name(),
		"fallback", s.fallback.Name(),
		"error", err,
	)
	records, fbErr := s.fallback.Load(ctx)
	if fbErr != nil {
		return nil, "", fmt.Errorf("%w: %s: %w (fallback: %w)", ErrSourceUnavailable, s.source.Name(), err, fbErr)
	}
	s.metrics.FallbackLoads.Inc()
	return records, s.fallback.Name(), nil
}

func (s *Service) recordBackfill(res domain.BackfillResult) {
	s.metrics.GeocodeRequests.WithLabelValues("resolved").Add(float64(res.Resolved))
	s.metrics.GeocodeRequests.WithLabelValues("empty").Add(float64(res.Empty))
	s.metrics.GeocodeRequests.WithLabelValues("error").Add(float64(res.Failed))
	if res.Attempted > 0 {
		s.logger.Info("region backfill complete",
			"attempted", res.Attempted,
			"resolved", res.Resolved,
			"failed", res.Failed,
		)
	}
}

// sleep waits for d on the service clock. Returns false if the context was
// cancelled first.
func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}
