package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "c2g:gif:"

// Entry is a cached render: the GIF plus the game metadata reported with it.
type Entry struct {
	GIF         []byte
	White       string
	Black       string
	Result      string
	Termination string
	Frames      int
	Plies       int
	Skipped     int
	Width       int
	Height      int
}

// Cache stores rendered GIFs by key.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
	Close() error
}

// CacheKey identifies a render by its PGN text and resolved options.
func CacheKey(pgnText, options string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(pgnText)))
	h.Write([]byte{0})
	h.Write([]byte(options))
	return hex.EncodeToString(h.Sum(nil))
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for render cache")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb}, nil
}

// Get loads the entry stored under key. A missing or partial hash is a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	fields, err := c.rdb.HGetAll(ctx, cacheKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	gif, ok := fields["gif"]
	if !ok || gif == "" {
		return nil, false, nil
	}
	e := &Entry{
		GIF:         []byte(gif),
		White:       fields["white"],
		Black:       fields["black"],
		Result:      fields["result"],
		Termination: fields["termination"],
		Frames:      atoi(fields["frames"]),
		Plies:       atoi(fields["plies"]),
		Skipped:     atoi(fields["skipped"]),
		Width:       atoi(fields["width"]),
		Height:      atoi(fields["height"]),
	}
	return e, true, nil
}

// Set stores e under key. A zero ttl keeps the entry until evicted.
func (c *RedisCache) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	if e == nil {
		return fmt.Errorf("nil cache entry")
	}
	k := cacheKeyPrefix + key
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k,
			"gif", e.GIF,
			"white", e.White,
			"black", e.Black,
			"result", e.Result,
			"termination", e.Termination,
			"frames", e.Frames,
			"plies", e.Plies,
			"skipped", e.Skipped,
			"width", e.Width,
			"height", e.Height,
		)
		if ttl > 0 {
			p.Expire(ctx, k, ttl)
		}
		return nil
	})
	return err
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func (c *RedisCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
