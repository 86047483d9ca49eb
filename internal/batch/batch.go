// Package batch solves newline-delimited JSON requests concurrently.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/integrand"
)

const maxLineBytes = 1 << 20

// Result is one output line. Exactly one of Response and Error is set.
type Result struct {
	Line     int                 `json:"line"`
	Response *integrand.Response `json:"response,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Runner solves requests with at most Concurrency in flight.
type Runner struct {
	Solver      *integrand.Solver
	Concurrency int
}

// Run reads one integrand.Request per line of r and writes one Result per
// request to w, in input order. Blank lines are skipped. A request that
// fails only produces an error line; Run itself fails on read, write or
// context errors.
func (b *Runner) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	log := zerolog.Ctx(ctx)

	lines, err := readLines(r)
	if err != nil {
		return err
	}

	results := make([]Result, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Concurrency, 1))
	for i, ln := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.solve(gctx, ln)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
		if err := enc.Encode(res); err != nil {
			return errors.Wrap(err, "write result")
		}
	}
	log.Info().Int("requests", len(results)).Int("failed", failed).Msg("batch finished")
	return nil
}

type line struct {
	number int
	data   []byte
}

func readLines(r io.Reader) ([]line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var lines []line
	for n := 1; sc.Scan(); n++ {
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		lines = append(lines, line{number: n, data: bytes.Clone(data)})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read requests")
	}
	return lines, nil
}

func (b *Runner) solve(ctx context.Context, ln line) Result {
	res := Result{Line: ln.number}

	dec := json.NewDecoder(bytes.NewReader(ln.data))
	dec.DisallowUnknownFields()
	var req integrand.Request
	if err := dec.Decode(&req); err != nil {
		res.Error = errors.Wrap(err, "invalid JSON").Error()
		return res
	}

	log := zerolog.Ctx(ctx).With().Int("line", ln.number).Logger()
	resp, err := b.Solver.Solve(log.WithContext(ctx), req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Response = resp
	return res
}
