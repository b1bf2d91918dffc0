package renderdto

import "time"

// RenderSummary is the public view of one past render.
type RenderSummary struct {
	RequestID   string        `json:"request_id"`
	White       string        `json:"white"`
	Black       string        `json:"black"`
	Result      string        `json:"result"`
	Termination string        `json:"termination,omitempty"`
	Frames      int           `json:"frames"`
	Bytes       int           `json:"bytes"`
	Cached      bool          `json:"cached"`
	CreatedAt   time.Time     `json:"created_at"`
	Duration    time.Duration `json:"duration_ns"`
}
