// Package server exposes the solver over HTTP.
//
//	POST /tool       execute a JSON tool call
//	POST /integrate  solve a JSON request
//	POST /ocr        solve the expression in a multipart "image" upload
//	POST /plot       solve a JSON request and return the plot as PNG
//	GET  /schema     tool schema for agent registration
//	GET  /health     liveness check
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/njchilds90/integrand"
	"github.com/njchilds90/integrand/internal/dispatch"
	"github.com/njchilds90/integrand/internal/plot"
)

const (
	maxBodyBytes  = 1 << 20 // 1 MiB
	maxImageBytes = 10 << 20

	maxPlotSide = 2000

	RequestIDHeader = "X-Request-Id"
)

type Server struct {
	Solver *integrand.Solver
	Logger zerolog.Logger
}

func New(solver *integrand.Solver, logger zerolog.Logger) *Server {
	return &Server{Solver: solver, Logger: logger}
}

// Handler returns the routed handler with request ids, logging and panic
// recovery applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tool", s.handleTool)
	mux.HandleFunc("POST /integrate", s.handleIntegrate)
	mux.HandleFunc("POST /ocr", s.handleOCR)
	mux.HandleFunc("POST /plot", s.handlePlot)
	mux.HandleFunc("GET /schema", s.handleSchema)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.middleware(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.Logger.Info().Str("addr", addr).Msg("integrand server listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// ============================================================
// Middleware
// ============================================================

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		log := s.Logger.With().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).Logger()
		r = r.WithContext(log.WithContext(r.Context()))
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("stack", string(debug.Stack())).Msg("panic in handler")
				http.Error(sw, "internal server error", http.StatusInternalServerError)
			}
			log.Debug().Int("status", sw.status).Dur("elapsed", time.Since(start)).Msg("request")
		}()
		next.ServeHTTP(sw, r)
	})
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req integrand.ToolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Solver.HandleToolCall(r.Context(), req))
}

func (s *Server) handleIntegrate(w http.ResponseWriter, r *http.Request) {
	var req integrand.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.Solver.Solve(r.Context(), req)
	if err != nil {
		writeError(w, statusOf(err, http.StatusBadRequest), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "multipart form"))
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "image field"))
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req, err := formRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.Solver.SolveImage(r.Context(), image, req)
	if err != nil {
		writeError(w, statusOf(err, http.StatusBadGateway), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	width, err := side(r, "width", plot.DefaultWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := side(r, "height", plot.DefaultHeight)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req integrand.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.Solver.Solve(r.Context(), req)
	if err != nil {
		writeError(w, statusOf(err, http.StatusBadRequest), err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := plot.WritePNG(w, resp.Bundle(), width, height); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("write png")
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, integrand.ToolSpec())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"ocr":    s.Solver.Extractor != nil,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ============================================================
// Helpers
// ============================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "invalid JSON")
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

// formRequest reads mode and bounds from multipart form values.
func formRequest(r *http.Request) (integrand.Request, error) {
	var req integrand.Request
	mode, err := dispatch.ParseMode(r.FormValue("mode"))
	if err != nil {
		return req, err
	}
	req.Mode = mode
	for _, b := range []struct {
		key string
		dst **float64
	}{{"lower", &req.Lower}, {"upper", &req.Upper}} {
		text := r.FormValue(b.key)
		if text == "" {
			continue
		}
		v, err := dispatch.ParseBound(text)
		if err != nil {
			return req, errors.Wrap(err, b.key)
		}
		*b.dst = &v
	}
	req.Plot = r.FormValue("plot") == "true"
	return req, nil
}

func side(r *http.Request, key string, def int) (int, error) {
	text := r.URL.Query().Get(key)
	if text == "" {
		return def, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 100 || n > maxPlotSide {
		return 0, errors.Errorf("%s must be an integer in [100, %d]", key, maxPlotSide)
	}
	return n, nil
}

// statusOf maps the error taxonomy to HTTP status codes. Anything else gets
// fallback.
func statusOf(err error, fallback int) int {
	var (
		perr *integrand.ParseError
		ierr *integrand.IntegrationError
	)
	switch {
	case errors.Is(err, integrand.ErrEmptyExpression),
		errors.Is(err, integrand.ErrInvalidBounds),
		errors.As(err, &perr):
		return http.StatusBadRequest
	case errors.As(err, &ierr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, integrand.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, integrand.ErrNoOCR):
		return http.StatusServiceUnavailable
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
