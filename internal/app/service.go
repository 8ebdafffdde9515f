// Package service provides the core business service that implements
// the dependencies required by the HTTP API, the MCP tools and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/cupstats/internal/adapters/mq/queue"
	"github.com/okian/cupstats/internal/adapters/mq/worker"
	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/chart"
	"github.com/okian/cupstats/internal/domain/dataset"
	"github.com/okian/cupstats/internal/domain/model"
	"github.com/okian/cupstats/internal/domain/view"
	"github.com/okian/cupstats/pkg/logger"
	"github.com/okian/cupstats/pkg/metrics"
)

// ErrNotStarted is returned by operations that need Start to have run.
var ErrNotStarted = errors.New("service not started")

type cacheKey struct {
	version string
	view    view.View
}

// Service serves screens, aggregates and KPIs over one immutable dataset.
type Service struct {
	mu sync.RWMutex

	ds     *dataset.Dataset
	engine *aggregate.Engine
	router *view.Router

	// Configuration
	order        aggregate.Order
	limit        int
	topStadiums  int
	topTeams     int
	previewRows  int
	cacheEnabled bool

	// State
	started bool
	cache   map[cacheKey]*view.Screen

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRankingOrder sets the default order of the bounded rankings.
func WithRankingOrder(o aggregate.Order) Option {
	return func(s *Service) {
		if o != "" {
			s.order = o
		}
	}
}

// WithRankingLimit sets how many rows the bounded rankings keep.
func WithRankingLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithTopStadiums sets the length of the most-used stadium list.
func WithTopStadiums(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topStadiums = n
		}
	}
}

// WithTopTeams sets the length of the highest-scoring team list.
func WithTopTeams(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topTeams = n
		}
	}
}

// WithPreviewRows sets the Dataset Info preview length.
func WithPreviewRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.previewRows = n
		}
	}
}

// WithRenderCache memoizes rendered screens per dataset version.
func WithRenderCache(enabled bool) Option {
	return func(s *Service) {
		s.cacheEnabled = enabled
	}
}

// New constructs a Service over ds with default configuration.
func New(ds *dataset.Dataset, opts ...Option) *Service {
	s := &Service{
		ds:          ds,
		order:       aggregate.OrderLiteral,
		limit:       aggregate.DefaultLimit,
		topStadiums: aggregate.DefaultTopStadiums,
		topTeams:    aggregate.DefaultTopTeams,
		previewRows: view.DefaultPreviewRows,
		cache:       make(map[cacheKey]*view.Screen),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start wires the engine and router and publishes the dataset gauges.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.ds == nil {
		return errors.New("service: nil dataset")
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}

	s.engine = aggregate.NewEngine(s.ds,
		aggregate.WithOrder(s.order),
		aggregate.WithLimit(s.limit),
		aggregate.WithTopStadiums(s.topStadiums),
		aggregate.WithTopTeams(s.topTeams),
	)
	s.router = view.NewRouter(s.engine,
		view.WithPreviewRows(s.previewRows),
		view.WithLogger(s.logger.Named("view")),
	)

	metrics.UpdateDataset(s.ds.Raw.Len(), s.ds.Matches.Len(), s.ds.Dropped, len(s.ds.Overflow))

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.String("dataset_version", s.ds.Version),
		logger.String("ranking_order", string(s.order)),
		logger.Bool("render_cache", s.cacheEnabled),
	)
	return nil
}

// Stop drops cached screens and marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	clear(s.cache)
	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

func (s *Service) parts() (*aggregate.Engine, *view.Router, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.engine, s.router, nil
}

// Dataset returns the dataset the service was built over.
func (s *Service) Dataset() *dataset.Dataset { return s.ds }

// Views lists the menu entries.
func (s *Service) Views() []view.View {
	return append([]view.View(nil), view.Views...)
}

// Render draws view v, serving it from the render cache when enabled.
func (s *Service) Render(ctx context.Context, v view.View) (*view.Screen, error) {
	_, router, err := s.parts()
	if err != nil {
		return nil, err
	}

	key := cacheKey{version: s.ds.Version, view: v}
	if s.cacheEnabled {
		s.mu.RLock()
		screen, ok := s.cache[key]
		s.mu.RUnlock()
		metrics.RecordRenderCache(ok)
		if ok {
			metrics.RecordViewRender(string(v), metrics.OutcomeCached, 0)
			return screen, nil
		}
	}

	start := time.Now()
	screen, err := router.Render(ctx, v)
	if err != nil {
		metrics.RecordViewRender(string(v), metrics.OutcomeError, time.Since(start))
		if errors.Is(err, model.ErrSchema) {
			metrics.RecordSchemaError("view")
		}
		s.logger.Warn(ctx, "render failed", logger.String("view", string(v)), logger.Error(err))
		return nil, err
	}
	metrics.RecordViewRender(string(v), metrics.OutcomeOK, time.Since(start))

	if s.cacheEnabled {
		s.mu.Lock()
		s.cache[key] = screen
		s.mu.Unlock()
	}
	return screen, nil
}

// Warm renders every view into the render cache on a worker pool. It is a
// no-op when the cache is disabled. Failures are joined; views that failed
// are rendered again on demand.
func (s *Service) Warm(ctx context.Context, workers int) error {
	if _, _, err := s.parts(); err != nil {
		return err
	}
	if !s.cacheEnabled {
		return nil
	}

	views := s.Views()
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(views)))
	for _, v := range views {
		if !q.Enqueue(ctx, queue.Job{View: v}) {
			return fmt.Errorf("prerender: could not queue %q", v)
		}
	}

	start := time.Now()
	pool := worker.NewPool(workers, q, s, worker.WithLogger(s.logger.Named("prerender")))
	pool.Start(ctx)
	err := pool.Drain(ctx)

	s.mu.RLock()
	cached := len(s.cache)
	s.mu.RUnlock()
	s.logger.Info(ctx, "render cache warmed",
		logger.Int("workers", pool.Size()),
		logger.Int("cached_screens", cached),
		logger.Duration("took", time.Since(start)),
	)
	return err
}

// Queries lists the registered aggregations.
func (s *Service) Queries() []aggregate.Query {
	return aggregate.Queries()
}

// Aggregate runs the named aggregation. An empty order uses the configured
// default. Empty results come back with an *aggregate.EmptyResultWarning.
func (s *Service) Aggregate(ctx context.Context, name string, order aggregate.Order) (*aggregate.Aggregate, error) {
	engine, _, err := s.parts()
	if err != nil {
		return nil, err
	}
	p := engine.Params()
	if order != "" {
		p.Order = order
	}

	start := time.Now()
	a, err := engine.RunWith(ctx, name, p)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		metrics.RecordAggregation(name, metrics.OutcomeOK, elapsed)
	case aggregate.IsEmptyResult(err):
		metrics.RecordAggregation(name, metrics.OutcomeEmpty, elapsed)
		metrics.RecordEmptyResult(name)
	case errors.Is(err, aggregate.ErrUnknownQuery):
		metrics.RecordErrorByComponent("aggregate", "unknown_query")
	default:
		metrics.RecordAggregation(name, metrics.OutcomeError, elapsed)
		if errors.Is(err, model.ErrSchema) {
			metrics.RecordSchemaError("aggregate")
		}
	}
	return a, err
}

// KPI computes the headline summary.
func (s *Service) KPI(ctx context.Context) (aggregate.KPI, error) {
	engine, _, err := s.parts()
	if err != nil {
		return aggregate.KPI{}, err
	}
	return engine.KPI(ctx)
}

// Info describes the raw table.
func (s *Service) Info() dataset.Info {
	return s.ds.Describe(s.previewRows)
}

// Charts returns the charts of the Visuals screen in tab order.
func (s *Service) Charts(ctx context.Context) ([]*chart.Chart, error) {
	screen, err := s.Render(ctx, view.Visuals)
	if err != nil {
		return nil, err
	}
	out := make([]*chart.Chart, 0, len(screen.Tabs))
	for _, tab := range screen.Tabs {
		out = append(out, tab.Chart)
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"rankingOrder":  string(s.order),
		"rankingLimit":  s.limit,
		"renderCache":   s.cacheEnabled,
		"cachedScreens": len(s.cache),
	}
	if s.ds != nil {
		stats["datasetVersion"] = s.ds.Version
		stats["datasetSource"] = s.ds.Source
		stats["rawRows"] = s.ds.Raw.Len()
		stats["matches"] = s.ds.Matches.Len()
		stats["duplicatesDropped"] = s.ds.Dropped
	}
	return stats
}
