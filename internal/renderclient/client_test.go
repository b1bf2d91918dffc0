package renderclient

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/chess-gif/pkg/renderdto"
)

func serve(t *testing.T, h fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	opts = append([]Option{WithDial(func(string) (net.Conn, error) { return ln.Dial() })}, opts...)
	return NewClient("http://c2g/", opts...)
}

func TestRenderSendsOptions(t *testing.T) {
	var gotQuery, gotBody string
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/render" || !ctx.IsPost() {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		gotQuery = string(ctx.QueryArgs().QueryString())
		gotBody = string(ctx.PostBody())
		ctx.Response.Header.Set("X-Request-Id", "req-1")
		ctx.Response.Header.Set("X-Cache", "HIT")
		ctx.Response.Header.Set("X-Frames", "12")
		ctx.Response.Header.Set("X-Result", "1-0")
		ctx.SetContentType("image/gif")
		ctx.SetBodyString("GIF89a")
	})

	flip := true
	res, err := c.Render(context.Background(), "1. e4 *", renderdto.RenderOptions{Size: 320, Flip: &flip, Theme: "blue"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if gotBody != "1. e4 *" {
		t.Fatalf("body = %q", gotBody)
	}
	if gotQuery != "size=320&flip=true&theme=blue" {
		t.Fatalf("query = %q", gotQuery)
	}
	if res.RequestID != "req-1" || !res.Cached || res.Frames != 12 || res.Result != "1-0" || string(res.GIF) != "GIF89a" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRetryOnRetryableError(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"code":"unavailable","message":"busy","retryable":true}`)
			return
		}
		ctx.SetBodyString("GIF89a")
	}, WithRetry(3))

	if _, err := c.Render(context.Background(), "1. e4 *", renderdto.RenderOptions{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString(`{"code":"invalid_options","message":"size 100 must be a multiple of 8"}`)
	})

	_, err := c.Render(context.Background(), "1. e4 *", renderdto.RenderOptions{Size: 100})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != fasthttp.StatusBadRequest || apiErr.Code != renderdto.CodeInvalidOptions {
		t.Fatalf("api error = %+v", apiErr)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestRenderFailedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"code":"render_failed","message":"render failed"}`)
	})
	if _, err := c.Render(context.Background(), "1. e4 *", renderdto.RenderOptions{}); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestBareGatewayErrorRetried(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		ctx.SetBodyString("upstream down")
	}, WithRetry(2))
	_, err := c.Render(context.Background(), "1. e4 *", renderdto.RenderOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestHealthAndHistory(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		switch string(ctx.Path()) {
		case "/healthz":
			ctx.SetBodyString(`{"status":"ok","uptime":"1s"}`)
		case "/history":
			if string(ctx.QueryArgs().Peek("limit")) != "2" {
				ctx.SetStatusCode(fasthttp.StatusBadRequest)
				return
			}
			ctx.SetBodyString(`[{"request_id":"a","white":"W","black":"B","result":"*","frames":3,"bytes":10,"cached":false,"created_at":"2024-01-01T00:00:00Z","duration_ns":0}]`)
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	items, err := c.History(ctx, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(items) != 1 || items[0].RequestID != "a" || items[0].Frames != 3 {
		t.Fatalf("items = %+v", items)
	}
}

func TestCanceledContext(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("GIF89a") })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Render(ctx, "1. e4 *", renderdto.RenderOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
