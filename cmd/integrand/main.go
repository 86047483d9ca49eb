// cmd/integrand/main.go: integrand command line
//
// Usage:
//
//	integrand [-config file] solve [-mode indefinite|definite|area] [-lower a -upper b] <expression>
//	integrand [-config file] solve -image expr.png
//	integrand [-config file] solve -voice
//	integrand [-config file] shell
//	integrand [-config file] serve [-addr :8080]
//	integrand [-config file] batch [-c 4] < requests.jsonl
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/njchilds90/integrand"
	"github.com/njchilds90/integrand/internal/batch"
	"github.com/njchilds90/integrand/internal/config"
	"github.com/njchilds90/integrand/internal/dispatch"
	"github.com/njchilds90/integrand/internal/narrate"
	"github.com/njchilds90/integrand/internal/plot"
	"github.com/njchilds90/integrand/internal/server"
	"github.com/njchilds90/integrand/internal/shell"
)

const usage = `usage: integrand [-config file] <command> [flags]

commands:
  solve   integrate one expression (typed, -image or -voice)
  shell   interactive prompt
  serve   HTTP server
  batch   solve JSON lines from stdin
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "integrand:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("integrand", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	configPath := global.String("config", "", "YAML config file (default $"+config.EnvConfig+")")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "solve":
		return solveCmd(ctx, cfg, rest, stdout)
	case "shell":
		return shellCmd(ctx, cfg)
	case "serve":
		return serveCmd(ctx, cfg, logger, rest)
	case "batch":
		return batchCmd(ctx, cfg, rest, stdin, stdout)
	}
	global.Usage()
	return errors.Errorf("unknown command %q", cmd)
}

// newSolver wires the configured engines. Narration is attached only when
// enabled.
func newSolver(cfg *config.Config, narration bool) *integrand.Solver {
	s := &integrand.Solver{
		Dispatcher:   cfg.Dispatcher(),
		Extractor:    cfg.Extractor(),
		MaxImageSide: cfg.OCR.MaxSide,
	}
	if narration && *cfg.Narration.Enabled {
		s.Announcer = &narrate.Announcer{Narrator: cfg.Narrator()}
	}
	return s
}

func solveCmd(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	modeName := fs.String("mode", "indefinite", "indefinite, definite or area")
	lower := fs.String("lower", "", "lower bound")
	upper := fs.String("upper", "", "upper bound")
	source := fs.String("source", "typed", "typed, ocr or spoken")
	imagePath := fs.String("image", "", "read the expression from an image")
	voice := fs.Bool("voice", false, "speak the expression")
	pngPath := fs.String("png", "", "write the plot to this PNG file")
	asJSON := fs.Bool("json", false, "print the response as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := integrand.Request{Expression: strings.Join(fs.Args(), " "), Source: *source, Plot: *pngPath != ""}
	mode, err := dispatch.ParseMode(*modeName)
	if err != nil {
		return err
	}
	req.Mode = mode
	if mode != dispatch.Indefinite {
		b, err := dispatch.ParseBounds(*lower, *upper)
		if err != nil {
			return err
		}
		req.Lower, req.Upper = &b.Lower, &b.Upper
	}

	s := newSolver(cfg, true)
	defer s.Announcer.Wait()

	var resp *integrand.Response
	switch {
	case *imagePath != "":
		image, err := os.ReadFile(*imagePath)
		if err != nil {
			return errors.Wrap(err, "read image")
		}
		resp, err = s.SolveImage(ctx, image, req)
		if err != nil {
			return err
		}
	case *voice:
		l, err := cfg.Listener()
		if err != nil {
			return err
		}
		raw, err := l.ListenAloud(ctx, s.Announcer, func(msg string) { fmt.Fprintln(os.Stderr, msg) })
		if err != nil {
			return err
		}
		resp, err = s.SolveRaw(ctx, raw, req)
		if err != nil {
			return err
		}
	default:
		resp, err = s.Solve(ctx, req)
		if err != nil {
			return err
		}
	}

	if *pngPath != "" {
		if err := writePlot(*pngPath, resp); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Str("file", *pngPath).Msg("plot written")
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err = fmt.Fprintln(stdout, shell.Render(resp))
	return err
}

func writePlot(path string, resp *integrand.Response) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create plot file")
	}
	if err := plot.WritePNG(f, resp.Bundle(), plot.DefaultWidth, plot.DefaultHeight); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func shellCmd(ctx context.Context, cfg *config.Config) error {
	s := newSolver(cfg, true)
	defer s.Announcer.Wait()

	l, err := cfg.Listener()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("voice input disabled")
	}
	sh := shell.New(ctx, s, l)
	sh.Run()
	return nil
}

func serveCmd(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	srv := server.New(newSolver(cfg, false), logger)
	return srv.ListenAndServe(ctx, *addr)
}

func batchCmd(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	concurrency := fs.Int("c", cfg.Batch.Concurrency, "requests solved in parallel")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r := &batch.Runner{Solver: newSolver(cfg, false), Concurrency: *concurrency}
	return r.Run(ctx, stdin, stdout)
}
