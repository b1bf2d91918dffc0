// Package httpapi exposes the render service over fasthttp.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/park285/chess-gif/internal/adapter/renderpresenter"
	"github.com/park285/chess-gif/pkg/renderdto"
)

const (
	contentTypeGIF  = "image/gif"
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"

	HeaderRequestID = "X-Request-Id"
	HeaderCache     = "X-Cache"
	HeaderCacheKey  = "X-Cache-Key"
	HeaderFrames    = "X-Frames"
	HeaderResult    = "X-Result"
)

// RenderService is the part of the render service the API needs.
type RenderService interface {
	Render(ctx context.Context, req renderdto.RenderRequest) (*renderdto.RenderResult, error)
	History(ctx context.Context, limit int) ([]renderdto.RenderSummary, error)
}

type Server struct {
	svc       RenderService
	gatherer  prometheus.Gatherer
	formatter *renderpresenter.Formatter
	logger    *zap.Logger

	maxBody       int
	renderTimeout time.Duration
	started       time.Time

	requests *prometheus.CounterVec
	metrics  fasthttp.RequestHandler
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes bounds accepted request bodies.
func WithMaxBodyBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

func WithRenderTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.renderTimeout = d
		}
	}
}

// WithRegistry serves metrics from reg and registers the API request counter on it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg == nil {
			return
		}
		s.gatherer = reg
		reg.MustRegister(s.requests)
	}
}

func New(svc RenderService, opts ...Option) *Server {
	s := &Server{
		svc:           svc,
		gatherer:      prometheus.DefaultGatherer,
		formatter:     renderpresenter.NewFormatter(nil),
		logger:        zap.NewNop(),
		maxBody:       1 << 20,
		renderTimeout: time.Minute,
		started:       time.Now(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "c2g_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return s
}

// HTTPServer returns a fasthttp server running the API handler.
func (s *Server) HTTPServer() *fasthttp.Server {
	return &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "c2g",
		MaxRequestBodySize: s.maxBody,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       s.renderTimeout + 10*time.Second,
		IdleTimeout:        time.Minute,
	}
}

// Handler routes a request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	route := string(ctx.Path())
	switch route {
	case "/render":
		if !ctx.IsPost() {
			s.methodNotAllowed(ctx, fasthttp.MethodPost)
			break
		}
		s.handleRender(ctx)
	case "/history":
		if !ctx.IsGet() {
			s.methodNotAllowed(ctx, fasthttp.MethodGet)
			break
		}
		s.handleHistory(ctx)
	case "/healthz":
		s.handleHealth(ctx)
	case "/metrics":
		s.metrics(ctx)
	default:
		route = "other"
		writeJSON(ctx, fasthttp.StatusNotFound, errorBody{Code: "not_found", Message: "no such route"})
	}

	status := ctx.Response.StatusCode()
	s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	s.logger.Debug("http_request",
		zap.String("method", string(ctx.Method())),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) handleRender(ctx *fasthttp.RequestCtx) {
	if len(ctx.PostBody()) > s.maxBody {
		s.writeError(ctx, renderdto.DomainError{Code: renderdto.CodeTooLarge, Message: "request body too large"})
		return
	}
	req, err := parseRenderRequest(ctx)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	rctx, cancel := context.WithTimeout(context.Background(), s.renderTimeout)
	defer cancel()
	res, err := s.svc.Render(rctx, req)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	ctx.Response.Header.Set(HeaderRequestID, res.RequestID)
	ctx.Response.Header.Set(HeaderCacheKey, res.CacheKey)
	ctx.Response.Header.Set(HeaderFrames, strconv.Itoa(res.Frames))
	if res.Result != "" {
		ctx.Response.Header.Set(HeaderResult, res.Result)
	}
	if res.Cached {
		ctx.Response.Header.Set(HeaderCache, "HIT")
	} else {
		ctx.Response.Header.Set(HeaderCache, "MISS")
	}
	ctx.SetContentType(contentTypeGIF)
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(res.GIF)
}

func (s *Server) handleHistory(ctx *fasthttp.RequestCtx) {
	limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))
	items, err := s.svc.History(ctx, limit)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if string(ctx.QueryArgs().Peek("format")) == "text" {
		ctx.SetContentType(contentTypeText)
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString(s.formatter.History(items))
		return
	}
	if items == nil {
		items = []renderdto.RenderSummary{}
	}
	writeJSON(ctx, fasthttp.StatusOK, items)
}

type healthBody struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, healthBody{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) methodNotAllowed(ctx *fasthttp.RequestCtx, allow string) {
	ctx.Response.Header.Set(fasthttp.HeaderAllow, allow)
	writeJSON(ctx, fasthttp.StatusMethodNotAllowed, errorBody{Code: "method_not_allowed", Message: "use " + allow})
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	var de renderdto.DomainError
	if !errors.As(err, &de) {
		de = renderdto.DomainError{Code: renderdto.CodeRenderFailed, Message: "render failed", Err: err}
	}
	status := StatusFor(de.Code)
	if status >= 500 {
		s.logger.Error("render_request_failed", zap.String("code", de.Code), zap.Error(err))
	}
	writeJSON(ctx, status, errorBody{Code: de.Code, Message: de.Error(), Retryable: de.Retryable})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case renderdto.CodeInvalidOptions:
		return fasthttp.StatusBadRequest
	case renderdto.CodeNoGame:
		return fasthttp.StatusUnprocessableEntity
	case renderdto.CodeTooLarge:
		return fasthttp.StatusRequestEntityTooLarge
	case renderdto.CodeUnavailable:
		return fasthttp.StatusServiceUnavailable
	default:
		return fasthttp.StatusInternalServerError
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		ctx.Error(`{"code":"render_failed","message":"encode response"}`, fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType(contentTypeJSON)
	ctx.SetStatusCode(status)
	ctx.SetBody(payload)
}

type jsonRenderRequest struct {
	PGN     string                  `json:"pgn"`
	Options renderdto.RenderOptions `json:"options"`
}

// parseRenderRequest reads the PGN from the body and options from the query string. A JSON body may
// carry both; query options override its options.
func parseRenderRequest(ctx *fasthttp.RequestCtx) (renderdto.RenderRequest, error) {
	var req renderdto.RenderRequest
	body := ctx.PostBody()
	if strings.HasPrefix(string(ctx.Request.Header.ContentType()), contentTypeJSON) {
		var in jsonRenderRequest
		if err := json.Unmarshal(body, &in); err != nil {
			return req, renderdto.DomainError{Code: renderdto.CodeInvalidOptions, Message: "malformed JSON body", Err: err}
		}
		req.PGN, req.Options = in.PGN, in.Options
	} else {
		req.PGN = string(body)
	}

	args := ctx.QueryArgs()
	if v := args.Peek("size"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return req, renderdto.DomainError{Code: renderdto.CodeInvalidOptions, Message: "size must be an integer", Err: err}
		}
		req.Options.Size = n
	}
	if args.Has("flip") {
		flip := true
		if v := args.Peek("flip"); len(v) > 0 {
			b, err := strconv.ParseBool(string(v))
			if err != nil {
				return req, renderdto.DomainError{Code: renderdto.CodeInvalidOptions, Message: "flip must be a boolean", Err: err}
			}
			flip = b
		}
		req.Options.Flip = &flip
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"delay", &req.Options.Delay},
		{"first_frame_delay", &req.Options.FirstFrameDelay},
		{"last_frame_delay", &req.Options.LastFrameDelay},
		{"dark", &req.Options.Dark},
		{"light", &req.Options.Light},
		{"style", &req.Options.Style},
		{"pieces", &req.Options.Pieces},
		{"theme", &req.Options.Theme},
	} {
		if v := args.Peek(f.name); len(v) > 0 {
			*f.dst = string(v)
		}
	}
	return req, nil
}
