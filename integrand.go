// Package integrand computes integrals of one-variable functions given as
// typed text, OCR output or a speech transcript.
//
// Raw text goes through phrase normalization, sanitization and parsing into
// the rule-based algebra engine in package symbolic; the dispatcher then
// integrates it in one of three modes and the formatter renders the result
// as LaTeX, a spoken sentence and plot data.
//
//	s := integrand.NewSolver()
//	resp, err := s.Solve(ctx, integrand.Request{Expression: "x squared", Mode: integrand.Indefinite})
//	fmt.Println(resp.Antiderivative) // x**3/3
package integrand

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/njchilds90/integrand/internal/dispatch"
	"github.com/njchilds90/integrand/internal/format"
	"github.com/njchilds90/integrand/internal/input"
	"github.com/njchilds90/integrand/internal/mathtext"
	"github.com/njchilds90/integrand/internal/narrate"
	"github.com/njchilds90/integrand/internal/ocr"
	"github.com/njchilds90/integrand/internal/parser"
	"github.com/njchilds90/integrand/internal/sample"
	"github.com/njchilds90/integrand/internal/speech"
)

// ============================================================
// Errors
// ============================================================

var (
	ErrEmptyExpression    = mathtext.ErrEmptyExpression
	ErrInvalidBounds      = dispatch.ErrInvalidBounds
	ErrSpeechUnrecognized = speech.ErrSpeechUnrecognized
	ErrNarrationBusy      = narrate.ErrBusy
	ErrUnsupportedImage   = ocr.ErrUnsupportedImage

	// ErrNoOCR is returned by Extract when the solver has no OCR engine.
	ErrNoOCR = errors.New("no OCR engine configured")
)

type (
	ParseError         = parser.ParseError
	IntegrationError   = dispatch.IntegrationError
	SampleError        = sample.SampleError
	SpeechServiceError = speech.SpeechServiceError
)

// ============================================================
// Request / Response
// ============================================================

type (
	Mode   = dispatch.Mode
	Bounds = dispatch.Bounds
)

const (
	Indefinite           = dispatch.Indefinite
	DefiniteSigned       = dispatch.DefiniteSigned
	DefiniteAbsoluteArea = dispatch.DefiniteAbsoluteArea
)

// Request is the mode-agnostic solve request. Lower and Upper are required
// for the definite modes and may be given in either order.
type Request struct {
	Expression string   `json:"expression"`
	Source     string   `json:"source,omitempty"`
	Mode       Mode     `json:"mode"`
	Lower      *float64 `json:"lower,omitempty"`
	Upper      *float64 `json:"upper,omitempty"`
	Plot       bool     `json:"plot,omitempty"`
}

// Response is a rendered result.
type Response struct {
	Source         string         `json:"source"`
	Normalized     string         `json:"normalized"`
	Mode           Mode           `json:"mode"`
	Bounds         *Bounds        `json:"bounds,omitempty"`
	Integrand      string         `json:"integrand"`
	Antiderivative string         `json:"antiderivative,omitempty"`
	ValueLaTeX     string         `json:"value_latex,omitempty"`
	Numeric        *float64       `json:"numeric,omitempty"`
	Display        string         `json:"display"`
	Spoken         string         `json:"spoken"`
	Plot           *format.Bundle `json:"plot,omitempty"`

	// Record is the dispatcher output the response was rendered from.
	Record *dispatch.Record `json:"-"`
}

// Bundle returns the plot data for the response.
func (r *Response) Bundle() format.Bundle {
	if r.Plot != nil {
		return *r.Plot
	}
	return format.Plot(r.Record)
}

// ============================================================
// Solver
// ============================================================

// Solver runs the full pipeline. Fields may be left nil: a nil Dispatcher
// uses the defaults, a nil Extractor disables image input and a nil
// Announcer disables narration.
type Solver struct {
	Dispatcher   *dispatch.Dispatcher
	Extractor    ocr.Extractor
	Announcer    *narrate.Announcer
	MaxImageSide uint
}

func NewSolver() *Solver {
	return &Solver{Dispatcher: &dispatch.Dispatcher{}}
}

func (s *Solver) dispatcher() *dispatch.Dispatcher {
	if s == nil || s.Dispatcher == nil {
		return &dispatch.Dispatcher{}
	}
	return s.Dispatcher
}

// Solve normalizes, parses and integrates req.Expression. Errors are
// ErrEmptyExpression, *ParseError, ErrInvalidBounds or *IntegrationError;
// none of them yields a partial response.
func (s *Solver) Solve(ctx context.Context, req Request) (*Response, error) {
	source, err := input.ParseSource(req.Source)
	if err != nil {
		return nil, err
	}
	return s.SolveRaw(ctx, input.Raw{Source: source, Text: req.Expression}, req)
}

// SolveRaw is Solve for input that was already captured. req.Expression and
// req.Source are ignored.
func (s *Solver) SolveRaw(ctx context.Context, raw input.Raw, req Request) (*Response, error) {
	log := zerolog.Ctx(ctx).With().Stringer("source", raw.Source).Stringer("mode", req.Mode).Logger()

	text, err := mathtext.Canonicalize(raw.Candidate())
	if err != nil {
		return nil, err
	}
	expr, err := parser.Parse(text)
	if err != nil {
		log.Debug().Str("normalized", text.String()).Err(err).Msg("parse failed")
		return nil, err
	}
	bounds, err := requestBounds(req)
	if err != nil {
		return nil, err
	}

	rec, err := s.dispatcher().Dispatch(log.WithContext(ctx), dispatch.Request{Expression: expr, Mode: req.Mode, Bounds: bounds})
	if err != nil {
		log.Debug().Str("expression", expr.String()).Err(err).Msg("dispatch failed")
		return nil, err
	}

	resp := &Response{
		Source:         raw.Source.String(),
		Normalized:     text.String(),
		Mode:           rec.Mode,
		Bounds:         rec.Bounds,
		Integrand:      rec.Integrand,
		Antiderivative: rec.Antiderivative,
		Numeric:        rec.Numeric,
		Display:        format.Display(rec),
		Spoken:         format.Spoken(rec),
		Record:         rec,
	}
	if rec.ValueLaTeX != nil {
		resp.ValueLaTeX = *rec.ValueLaTeX
	}
	if req.Plot {
		b := format.Plot(rec)
		resp.Plot = &b
	}
	log.Info().Str("integrand", resp.Integrand).Str("display", resp.Display).Msg("solved")

	if s != nil && s.Announcer != nil {
		s.Announcer.Announce(ctx, resp.Spoken)
	}
	return resp, nil
}

// requestBounds orders the bounds so the dispatcher never sees them
// reversed.
func requestBounds(req Request) (*Bounds, error) {
	if req.Mode == Indefinite {
		return nil, nil
	}
	if req.Lower == nil || req.Upper == nil {
		return nil, errors.Wrap(ErrInvalidBounds, "definite integrals need lower and upper bounds")
	}
	b := dispatch.NewBounds(*req.Lower, *req.Upper)
	return &b, nil
}

// Extract reads an expression from an image.
func (s *Solver) Extract(ctx context.Context, image []byte) (input.Raw, error) {
	if s == nil || s.Extractor == nil {
		return input.Raw{}, ErrNoOCR
	}
	prepared, err := ocr.Prepare(image, s.MaxImageSide)
	if err != nil {
		return input.Raw{}, err
	}
	text, err := s.Extractor.ExtractText(ctx, prepared)
	if err != nil {
		return input.Raw{}, errors.Wrap(err, "ocr")
	}
	zerolog.Ctx(ctx).Debug().Str("text", text).Msg("ocr text extracted")
	return input.OCR(text), nil
}

// SolveImage runs OCR on image and solves the extracted expression.
func (s *Solver) SolveImage(ctx context.Context, image []byte, req Request) (*Response, error) {
	raw, err := s.Extract(ctx, image)
	if err != nil {
		return nil, err
	}
	return s.SolveRaw(ctx, raw, req)
}

// Float64 is a convenience for building Request bounds.
func Float64(v float64) *float64 { return &v }
