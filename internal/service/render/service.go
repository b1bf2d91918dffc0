// Package render serves GIF renders with caching, history and metrics.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/park285/chess-gif/internal/assets"
	"github.com/park285/chess-gif/internal/config"
	"github.com/park285/chess-gif/internal/delay"
	"github.com/park285/chess-gif/internal/domain"
	"github.com/park285/chess-gif/internal/geometry"
	"github.com/park285/chess-gif/internal/giffer"
	"github.com/park285/chess-gif/internal/pgn"
	"github.com/park285/chess-gif/internal/style"
	"github.com/park285/chess-gif/internal/theme"
	"github.com/park285/chess-gif/pkg/renderdto"
)

const (
	outcomeOK      = "ok"
	outcomeCached  = "cached"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"

	maxHistoryLimit = 100
)

type Config struct {
	CacheTTL       time.Duration
	MaxPGNBytes    int
	MaxConcurrency int
	HistoryLimit   int
}

// Service renders PGN games on request. Identical concurrent requests share one render.
type Service struct {
	factory *Factory
	cache   Cache
	repo    Repository
	metrics *Metrics
	cfg     Config
	logger  *zap.Logger

	sem    *semaphore.Weighted
	flight singleflight.Group
	now    func() time.Time
}

// NewService wires the service. cache may be nil to disable caching.
func NewService(factory *Factory, cache Cache, repo Repository, metrics *Metrics, cfg Config, logger *zap.Logger) (*Service, error) {
	if factory == nil {
		return nil, fmt.Errorf("renderer factory is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("render repository is required")
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		factory: factory,
		cache:   cache,
		repo:    repo,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		now:     time.Now,
	}, nil
}

type flightResult struct {
	entry  *Entry
	cached bool
}

// Render renders the first game of req.PGN with req.Options over the configured defaults.
func (s *Service) Render(ctx context.Context, req renderdto.RenderRequest) (*renderdto.RenderResult, error) {
	start := s.now()
	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))

	if strings.TrimSpace(req.PGN) == "" {
		s.metrics.observe(outcomeInvalid, 0, 0, 0)
		return nil, renderdto.DomainError{Code: renderdto.CodeNoGame, Message: "request has no PGN"}
	}
	if s.cfg.MaxPGNBytes > 0 && len(req.PGN) > s.cfg.MaxPGNBytes {
		s.metrics.observe(outcomeInvalid, 0, 0, 0)
		return nil, renderdto.DomainError{Code: renderdto.CodeTooLarge, Message: fmt.Sprintf("PGN exceeds %d bytes", s.cfg.MaxPGNBytes)}
	}

	cfg := s.factory.Apply(req.Options)
	renderer, optsKey, err := s.factory.Renderer(cfg)
	if err != nil {
		s.metrics.observe(outcomeInvalid, 0, 0, 0)
		return nil, mapError(err)
	}
	key := CacheKey(req.PGN, optsKey)

	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.renderOnce(ctx, renderer, key, req.PGN, logger)
	})
	if err != nil {
		s.metrics.observe(outcomeFailed, 0, 0, 0)
		return nil, mapError(err)
	}
	res := v.(flightResult)
	e := res.entry
	elapsed := s.now().Sub(start)

	outcome := outcomeOK
	if res.cached {
		outcome = outcomeCached
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
	}
	s.metrics.observe(outcome, elapsed, len(e.GIF), e.Frames)

	rec := &domain.RenderRecord{
		RequestID:   requestID,
		CacheKey:    key,
		White:       e.White,
		Black:       e.Black,
		Result:      e.Result,
		Termination: e.Termination,
		Frames:      e.Frames,
		Plies:       e.Plies,
		Skipped:     e.Skipped,
		Bytes:       len(e.GIF),
		Options:     optsKey,
		CacheHit:    res.cached,
		CreatedAt:   start.UTC(),
		Duration:    elapsed,
	}
	if _, err := s.repo.InsertRender(ctx, rec); err != nil {
		logger.Error("render_history_persist_error", zap.Error(err))
	}
	logger.Info("render",
		zap.String("cache_key", key),
		zap.Bool("cached", res.cached),
		zap.Bool("shared", shared),
		zap.Int("frames", e.Frames),
		zap.Int("bytes", len(e.GIF)),
		zap.Duration("elapsed", elapsed),
	)

	return &renderdto.RenderResult{
		RequestID:   requestID,
		GIF:         e.GIF,
		CacheKey:    key,
		Cached:      res.cached,
		Frames:      e.Frames,
		Width:       e.Width,
		Height:      e.Height,
		White:       e.White,
		Black:       e.Black,
		Result:      e.Result,
		Termination: e.Termination,
	}, nil
}

func (s *Service) renderOnce(ctx context.Context, renderer *giffer.Renderer, key, pgnText string, logger *zap.Logger) (flightResult, error) {
	if s.cache != nil {
		e, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("render_cache_get_error", zap.Error(err))
		} else if ok {
			return flightResult{entry: e, cached: true}, nil
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return flightResult{}, err
	}
	if s.metrics != nil {
		s.metrics.InFlight.Inc()
	}
	game, err := renderer.RenderFirst(ctx, strings.NewReader(pgnText))
	if s.metrics != nil {
		s.metrics.InFlight.Dec()
	}
	s.sem.Release(1)
	if err != nil {
		return flightResult{}, err
	}

	e := entryOf(game)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, e, s.cfg.CacheTTL); err != nil {
			logger.Warn("render_cache_set_error", zap.Error(err))
		}
	}
	return flightResult{entry: e}, nil
}

func entryOf(g giffer.Game) *Entry {
	e := &Entry{
		GIF:     g.GIF,
		White:   g.White,
		Black:   g.Black,
		Result:  g.Result,
		Frames:  g.Frames,
		Plies:   g.Plies,
		Skipped: g.Skipped,
		Width:   g.Width,
		Height:  g.Height,
	}
	if g.Termination != nil {
		e.Termination = g.Termination.String()
	}
	return e
}

// History returns the most recent renders, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]renderdto.RenderSummary, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	recs, err := s.repo.RecentRenders(ctx, limit)
	if err != nil {
		return nil, renderdto.DomainError{Code: renderdto.CodeUnavailable, Message: "history unavailable", Retryable: true, Err: err}
	}
	out := make([]renderdto.RenderSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, ToSummary(r))
	}
	return out, nil
}

// ToSummary maps a history record to its public form.
func ToSummary(r *domain.RenderRecord) renderdto.RenderSummary {
	return renderdto.RenderSummary{
		RequestID:   r.RequestID,
		White:       r.White,
		Black:       r.Black,
		Result:      r.Result,
		Termination: r.Termination,
		Frames:      r.Frames,
		Bytes:       r.Bytes,
		Cached:      r.CacheHit,
		CreatedAt:   r.CreatedAt,
		Duration:    r.Duration,
	}
}

// Base exposes the defaults requests are resolved against.
func (s *Service) Base() *config.AppConfig {
	return s.factory.Base()
}

// mapError converts internal errors into DomainError values.
func mapError(err error) error {
	var de renderdto.DomainError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, pgn.ErrNoGame):
		return renderdto.DomainError{Code: renderdto.CodeNoGame, Message: "no game found in PGN", Err: err}
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, geometry.ErrInvalidSize),
		errors.Is(err, delay.ErrInvalidDelay),
		errors.Is(err, style.ErrUnknownStyle),
		errors.Is(err, theme.ErrInvalidColor),
		errors.Is(err, theme.ErrUnknownTheme),
		errors.Is(err, assets.ErrAssetNotFound):
		return renderdto.DomainError{Code: renderdto.CodeInvalidOptions, Message: err.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return renderdto.DomainError{Code: renderdto.CodeUnavailable, Message: "render canceled", Retryable: true, Err: err}
	default:
		return renderdto.DomainError{Code: renderdto.CodeRenderFailed, Message: "render failed", Err: err}
	}
}
