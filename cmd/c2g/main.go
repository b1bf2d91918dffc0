// Command c2g renders PGN games into animated GIFs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/park285/chess-gif/internal/adapter/renderpresenter"
	"github.com/park285/chess-gif/internal/builder"
	"github.com/park285/chess-gif/internal/config"
	"github.com/park285/chess-gif/internal/giffer"
	"github.com/park285/chess-gif/internal/obslog"
	"github.com/park285/chess-gif/internal/service/render"
	"github.com/park285/chess-gif/internal/theme"
)

const usage = `usage: c2g [PGN] [flags]

Renders the first game of PGN (stdin when omitted) into an animated GIF.
`

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "c2g: logger: %v\n", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "c2g: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	output          string
	flip            bool
	size            int
	delay           string
	firstFrameDelay string
	lastFrameDelay  string
	style           string
	dark            string
	light           string
	pieces          string
	theme           string
	themesPath      string
	svgsPath        string
	all             bool
	workers         int
}

func (c *cli) flags(stderr io.Writer, base *config.AppConfig) *flag.FlagSet {
	fs := flag.NewFlagSet("c2g", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&c.output, "o", base.Output, `output file, "-" for stdout`)
	fs.StringVar(&c.output, "output", base.Output, "same as -o")
	fs.BoolVar(&c.flip, "flip", base.Flip, "show the board from black's side")
	fs.IntVar(&c.size, "size", base.Size, "board size in pixels, a multiple of 8")
	fs.StringVar(&c.delay, "delay", base.Delay, `milliseconds between moves, or "real" for clock times`)
	fs.StringVar(&c.firstFrameDelay, "first-frame-delay", base.FirstFrameDelay, "milliseconds on the first two frames")
	fs.StringVar(&c.lastFrameDelay, "last-frame-delay", base.LastFrameDelay, "milliseconds on the last frame")
	fs.StringVar(&c.style, "style", base.Style, "comma separated: ranks, files, coordinates, player-bars, terminations, full, plain")
	fs.StringVar(&c.dark, "dark", base.Dark, `dark square color "r,g,b[,a]"`)
	fs.StringVar(&c.light, "light", base.Light, `light square color "r,g,b[,a]"`)
	fs.StringVar(&c.pieces, "pieces", base.Pieces, "piece set")
	fs.StringVar(&c.theme, "theme", base.Theme, "named board colors")
	fs.StringVar(&c.themesPath, "themes-path", base.ThemesPath, "directory of extra theme YAML files")
	fs.StringVar(&c.svgsPath, "svgs-path", base.SVGsPath, "directory overriding the bundled SVG assets")
	fs.BoolVar(&c.all, "all", false, "render every game, writing NAME-N.gif")
	fs.IntVar(&c.workers, "workers", base.Workers, "parallel games with --all, 0 for one per CPU, 1 to stream games one by one")
	return fs
}

// apply copies explicitly set flags onto cfg.
func (c *cli) apply(fs *flag.FlagSet, cfg *config.AppConfig) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o", "output":
			cfg.Output = c.output
		case "flip":
			cfg.Flip = c.flip
		case "size":
			cfg.Size = c.size
		case "delay":
			cfg.Delay = c.delay
		case "first-frame-delay":
			cfg.FirstFrameDelay = c.firstFrameDelay
		case "last-frame-delay":
			cfg.LastFrameDelay = c.lastFrameDelay
		case "style":
			cfg.Style = c.style
		case "dark":
			cfg.Dark = c.dark
		case "light":
			cfg.Light = c.light
		case "pieces":
			cfg.Pieces = c.pieces
		case "theme":
			cfg.Theme = c.theme
			// A theme given on the command line wins over configured colors.
			if !isSet(fs, "dark") {
				cfg.Dark = ""
			}
			if !isSet(fs, "light") {
				cfg.Light = ""
			}
		case "themes-path":
			cfg.ThemesPath = c.themesPath
		case "svgs-path":
			cfg.SVGsPath = c.svgsPath
		case "workers":
			cfg.Workers = c.workers
		}
	})
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// parseArgs accepts the PGN path before or after the flags.
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	var input string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		input, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	rest := fs.Args()
	if input == "" && len(rest) > 0 {
		input, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return "", fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	return input, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := obslog.L()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var c cli
	fs := c.flags(stderr, cfg)
	input, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	c.apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	renderer, err := newRenderer(cfg, logger)
	if err != nil {
		return err
	}

	in := stdin
	if input != "" && input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	toStdout := cfg.Output == "-"
	report := stdout
	if toStdout {
		report = stderr
	}
	presenter := renderpresenter.NewPresenter(nil,
		func(path string, data []byte) error {
			if toStdout {
				_, err := stdout.Write(data)
				return err
			}
			return os.WriteFile(path, data, 0o644)
		},
		func(text string) error {
			_, err := fmt.Fprintln(report, text)
			return err
		},
	)

	if !c.all {
		g, err := renderer.RenderFirst(ctx, in)
		if err != nil {
			return err
		}
		return presenter.Game(cfg.Output, g)
	}

	if toStdout {
		return fmt.Errorf("--all cannot write to stdout")
	}
	// A single worker streams: each game is written before the next one is read.
	if cfg.Workers == 1 {
		return renderer.Render(ctx, in, func(i int, g giffer.Game) error {
			return presenter.Game(numbered(cfg.Output, i+1), g)
		})
	}
	texts, err := giffer.SplitGames(in)
	if err != nil {
		return err
	}
	games, err := renderer.RenderAll(ctx, texts, cfg.Workers)
	if err != nil {
		return err
	}
	for i, g := range games {
		if err := presenter.Game(numbered(cfg.Output, i+1), g); err != nil {
			return err
		}
	}
	return nil
}

func newRenderer(cfg *config.AppConfig, logger *zap.Logger) (*giffer.Renderer, error) {
	themes, err := theme.New(cfg.ThemesPath)
	if err != nil {
		return nil, err
	}
	resolver, err := builder.Resolver(cfg.SVGsPath)
	if err != nil {
		return nil, err
	}
	r, _, err := render.NewFactory(cfg, themes, resolver, logger).Renderer(cfg)
	return r, err
}

// numbered turns "out/chess.gif" into "out/chess-3.gif".
func numbered(path string, n int) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".gif"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "-" + strconv.Itoa(n) + ext
}
