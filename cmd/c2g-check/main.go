// Command c2g-check probes a running render server.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/park285/chess-gif/internal/renderclient"
	"github.com/park285/chess-gif/pkg/renderdto"
)

const probeGame = "1. e4 e5 2. Nf3 Nc6 *"

func main() {
	baseURL := os.Getenv("C2G_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := renderclient.NewClient(baseURL, renderclient.WithTimeout(30*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Printf("/healthz ok")

	if os.Getenv("C2G_CHECK_RENDER") == "" {
		return
	}
	rctx, rcancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer rcancel()
	res, err := client.Render(rctx, probeGame, renderdto.RenderOptions{Size: 256, Style: "plain"})
	if err != nil {
		log.Fatalf("/render error: %v", err)
	}
	log.Printf("/render ok: request=%s frames=%d bytes=%d cached=%t", res.RequestID, res.Frames, len(res.GIF), res.Cached)

	items, err := client.History(rctx, 5)
	if err != nil {
		log.Fatalf("/history error: %v", err)
	}
	for _, it := range items {
		log.Printf("history: %s %s vs %s frames=%d", it.RequestID, it.White, it.Black, it.Frames)
	}
}
