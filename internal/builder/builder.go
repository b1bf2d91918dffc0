// Package builder wires the render service from configuration.
package builder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/park285/chess-gif/internal/assets"
	"github.com/park285/chess-gif/internal/config"
	"github.com/park285/chess-gif/internal/service/render"
	"github.com/park285/chess-gif/internal/theme"
)

type Deps struct {
	Service  *render.Service
	Factory  *render.Factory
	Cache    render.Cache
	Repo     render.Repository
	Metrics  *render.Metrics
	Registry *prometheus.Registry

	db *sql.DB
}

// New builds the service. Redis and Postgres are optional: without REDIS_URL renders are not cached,
// without DATABASE_URL the history is kept in memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	themes, err := theme.New(cfg.ThemesPath)
	if err != nil {
		return nil, fmt.Errorf("load themes: %w", err)
	}
	resolver, err := Resolver(cfg.SVGsPath)
	if err != nil {
		return nil, err
	}
	factory := render.NewFactory(cfg, themes, resolver, logger)
	// Fail at startup on bad defaults rather than on the first request.
	if _, _, err := factory.Renderer(cfg); err != nil {
		return nil, fmt.Errorf("default render options: %w", err)
	}

	deps := &Deps{Factory: factory, Registry: prometheus.NewRegistry()}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = render.NewMetrics(deps.Registry)

	// Cache (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rc, err := render.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		deps.Cache = rc
	} else {
		logger.Info("render_cache_disabled", zap.String("reason", "REDIS_URL not set"))
	}

	// Repository (DB optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := render.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		if err := render.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			deps.Close()
			return nil, err
		}
		deps.db = db
		deps.Repo = render.NewRepository(db)
	} else {
		logger.Info("render_history_in_memory", zap.String("reason", "DATABASE_URL not set"))
		deps.Repo = render.NewMemoryRepository()
	}

	svcCfg := render.Config{
		CacheTTL:       time.Duration(cfg.CacheTTLSec) * time.Second,
		MaxPGNBytes:    cfg.MaxBodyBytes,
		MaxConcurrency: cfg.Workers,
		HistoryLimit:   cfg.HistoryLimit,
	}
	svc, err := render.NewService(factory, deps.Cache, deps.Repo, deps.Metrics, svcCfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Service = svc
	return deps, nil
}

// Resolver returns the embedded assets, overlaid by dir when it is set.
func Resolver(dir string) (assets.Resolver, error) {
	if strings.TrimSpace(dir) == "" {
		return assets.Embedded(), nil
	}
	r, err := assets.NewDirResolver(dir)
	if err != nil {
		return nil, err
	}
	return assets.Chain{r, assets.Embedded()}, nil
}

// Close releases the cache and database connections.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Cache != nil {
		_ = d.Cache.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}
