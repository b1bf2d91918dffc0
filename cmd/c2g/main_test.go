package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"image/gif"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/park285/chess-gif/internal/config"
	"github.com/park285/chess-gif/internal/pgn"
)

const twoGames = `[White "A"]
[Black "B"]
[Result "*"]

1. e4 e5 *

[White "C"]
[Black "D"]
[Result "*"]

1. d4 d5 2. c4 *
`

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"C2G_CONFIG", "C2G_SIZE", "C2G_OUTPUT", "C2G_STYLE", "C2G_THEME", "C2G_DARK", "C2G_LIGHT"} {
		t.Setenv(k, "")
	}
	return dir
}

func decodeFile(t *testing.T, path string) *gif.GIF {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return g
}

func TestRunFromFile(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "game.pgn"), []byte(twoGames), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"game.pgn", "-o", "out.gif", "--size", "80", "--style", "plain"}, nil, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v (stderr %s)", err, stderr.String())
	}
	g := decodeFile(t, filepath.Join(dir, "out.gif"))
	if len(g.Image) != 3 {
		t.Fatalf("frames = %d, want 3", len(g.Image))
	}
	if g.Config.Width != 80 {
		t.Fatalf("width = %d", g.Config.Width)
	}
	if !strings.HasPrefix(stdout.String(), "out.gif: A vs B *") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunStdinToStdout(t *testing.T) {
	chdirTemp(t)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", "-", "--size", "80", "--flip"}, strings.NewReader(twoGames), &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := gif.DecodeAll(&stdout); err != nil {
		t.Fatalf("stdout is not a gif: %v", err)
	}
	if !strings.Contains(stderr.String(), "A vs B") {
		t.Fatalf("summary should go to stderr, got %q", stderr.String())
	}
}

func TestRunAll(t *testing.T) {
	dir := chdirTemp(t)
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"--all", "-o", "games.gif", "--size", "80", "--workers", "2"}, strings.NewReader(twoGames), &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(decodeFile(t, filepath.Join(dir, "games-1.gif")).Image); n != 3 {
		t.Fatalf("game 1 frames = %d", n)
	}
	if n := len(decodeFile(t, filepath.Join(dir, "games-2.gif")).Image); n != 4 {
		t.Fatalf("game 2 frames = %d", n)
	}
	if lines := strings.Count(stdout.String(), "\n"); lines != 2 {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunAllStreaming(t *testing.T) {
	dir := chdirTemp(t)
	stream := twoGames + "\n[White \"E\"]\n[Black \"F\"]\n\n1. e4 e5 2. Ke2 Ke7 *\n"
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"--all", "-o", "games.gif", "--size", "80", "--workers", "1"}, strings.NewReader(stream), &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, want := range []int{3, 4, 5} {
		name := filepath.Join(dir, "games-"+strconv.Itoa(i+1)+".gif")
		if n := len(decodeFile(t, name).Image); n != want {
			t.Fatalf("game %d frames = %d, want %d", i+1, n, want)
		}
	}
	if !strings.HasPrefix(stdout.String(), "games-1.gif: A vs B") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	chdirTemp(t)
	cases := []struct {
		name  string
		args  []string
		input string
		check func(error) bool
	}{
		{"bad size", []string{"--size", "100"}, twoGames, func(err error) bool { return err != nil }},
		{"bad style", []string{"--style", "glitter"}, twoGames, func(err error) bool { return err != nil }},
		{"real first delay", []string{"--first-frame-delay", "real"}, twoGames, func(err error) bool { return err != nil }},
		{"no game", []string{"--size", "80"}, "", func(err error) bool { return errors.Is(err, pgn.ErrNoGame) }},
		{"all to stdout", []string{"--all", "-o", "-"}, twoGames, func(err error) bool { return err != nil }},
		{"extra args", []string{"a.pgn", "b.pgn"}, twoGames, func(err error) bool { return err != nil }},
		{"help", []string{"-h"}, twoGames, func(err error) bool { return errors.Is(err, flag.ErrHelp) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := run(context.Background(), tc.args, strings.NewReader(tc.input), &bytes.Buffer{}, &bytes.Buffer{})
			if !tc.check(err) {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestThemeFlagOverridesConfiguredColors(t *testing.T) {
	chdirTemp(t)
	t.Setenv("C2G_DARK", "1,2,3")
	var c cli
	cfg, fs := loadFlags(t, &c, "--theme", "brown")
	c.apply(fs, cfg)
	if cfg.Theme != "brown" || cfg.Dark != "" {
		t.Fatalf("cfg = %+v", cfg)
	}

	c = cli{}
	cfg, fs = loadFlags(t, &c, "--theme", "brown", "--dark", "9,9,9")
	c.apply(fs, cfg)
	if cfg.Dark != "9,9,9" {
		t.Fatalf("explicit dark lost: %q", cfg.Dark)
	}
}

func loadFlags(t *testing.T, c *cli, args ...string) (*config.AppConfig, *flag.FlagSet) {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fs := c.flags(&bytes.Buffer{}, cfg)
	if _, err := parseArgs(fs, args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cfg, fs
}

func TestNumbered(t *testing.T) {
	cases := map[string]string{
		"chess.gif":     "chess-2.gif",
		"out/game.gif":  "out/game-2.gif",
		"noext":         "noext-2.gif",
		"dir.v1/a.anim": "dir.v1/a-2.anim",
	}
	for in, want := range cases {
		if got := numbered(in, 2); got != want {
			t.Fatalf("numbered(%q) = %q, want %q", in, got, want)
		}
	}
}
