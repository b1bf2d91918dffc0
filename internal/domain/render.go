package domain

import "time"

// RenderRecord is one entry of the render history.
type RenderRecord struct {
	ID          int64
	RequestID   string
	CacheKey    string
	White       string
	Black       string
	Result      string
	Termination string
	Frames      int
	Plies       int
	Skipped     int
	Bytes       int
	Options     string
	CacheHit    bool
	CreatedAt   time.Time
	Duration    time.Duration
}
