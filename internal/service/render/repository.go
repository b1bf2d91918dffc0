package render

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/park285/chess-gif/internal/domain"
)

var ErrDuplicateRender = errors.New("render already recorded")

// Repository persists the render history.
type Repository interface {
	InsertRender(ctx context.Context, rec *domain.RenderRecord) (int64, error)
	RecentRenders(ctx context.Context, limit int) ([]*domain.RenderRecord, error)
	GetRender(ctx context.Context, requestID string) (*domain.RenderRecord, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS c2g_renders (
	id           BIGSERIAL PRIMARY KEY,
	request_id   UUID NOT NULL UNIQUE,
	cache_key    TEXT NOT NULL,
	white        TEXT NOT NULL,
	black        TEXT NOT NULL,
	result       TEXT NOT NULL,
	termination  TEXT NOT NULL,
	frames       INTEGER NOT NULL,
	plies        INTEGER NOT NULL,
	skipped      INTEGER NOT NULL,
	bytes        INTEGER NOT NULL,
	options      TEXT NOT NULL,
	cache_hit    BOOLEAN NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL
)`

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// OpenPostgres opens and pings a pooled connection to databaseURL.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the history table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *repository) InsertRender(ctx context.Context, rec *domain.RenderRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil render record")
	}
	const query = `
		INSERT INTO c2g_renders (
			request_id, cache_key, white, black, result, termination,
			frames, plies, skipped, bytes, options, cache_hit, created_at, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		rec.RequestID, rec.CacheKey, rec.White, rec.Black, rec.Result, rec.Termination,
		rec.Frames, rec.Plies, rec.Skipped, rec.Bytes, rec.Options, rec.CacheHit,
		rec.CreatedAt, rec.Duration.Milliseconds(),
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicateRender
		}
		return 0, fmt.Errorf("insert render: %w", err)
	}
	return id, nil
}

const selectColumns = `id, request_id, cache_key, white, black, result, termination,
	frames, plies, skipped, bytes, options, cache_hit, created_at, duration_ms`

func (r *repository) RecentRenders(ctx context.Context, limit int) ([]*domain.RenderRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM c2g_renders ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	var out []*domain.RenderRecord
	for rows.Next() {
		rec, err := scanRender(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repository) GetRender(ctx context.Context, requestID string) (*domain.RenderRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM c2g_renders WHERE request_id = $1`, requestID)
	rec, err := scanRender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRender(s scanner) (*domain.RenderRecord, error) {
	var (
		rec        domain.RenderRecord
		durationMS int64
	)
	err := s.Scan(&rec.ID, &rec.RequestID, &rec.CacheKey, &rec.White, &rec.Black, &rec.Result, &rec.Termination,
		&rec.Frames, &rec.Plies, &rec.Skipped, &rec.Bytes, &rec.Options, &rec.CacheHit, &rec.CreatedAt, &durationMS)
	if err != nil {
		return nil, err
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return &rec, nil
}
