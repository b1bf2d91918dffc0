package renderdto

// RenderOptions override the server defaults for one request. Zero values keep the default.
type RenderOptions struct {
	Size            int    `json:"size,omitempty"`
	Flip            *bool  `json:"flip,omitempty"`
	Delay           string `json:"delay,omitempty"`
	FirstFrameDelay string `json:"first_frame_delay,omitempty"`
	LastFrameDelay  string `json:"last_frame_delay,omitempty"`
	Dark            string `json:"dark,omitempty"`
	Light           string `json:"light,omitempty"`
	Style           string `json:"style,omitempty"`
	Pieces          string `json:"pieces,omitempty"`
	Theme           string `json:"theme,omitempty"`
}

type RenderRequest struct {
	PGN     string
	Options RenderOptions
}

type RenderResult struct {
	RequestID   string
	GIF         []byte
	CacheKey    string
	Cached      bool
	Frames      int
	Width       int
	Height      int
	White       string
	Black       string
	Result      string
	Termination string
}
