package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/autoroute/pkg/board"
	"github.com/matzehuels/autoroute/pkg/buildinfo"
	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/pipeline"
	"github.com/matzehuels/autoroute/pkg/render"
)

// =============================================================================
// Request and response types
// =============================================================================

// RouteRequest is the body of the route endpoints.
type RouteRequest struct {
	// Board is a scenario in its JSON form.
	Board json.RawMessage `json:"board"`

	Formats   []string `json:"formats,omitempty"`
	Scale     int      `json:"scale,omitempty"`
	Obstacles bool     `json:"obstacles,omitempty"`
	GridLines bool     `json:"grid_lines,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`
}

// RouteResponse is returned by POST /v1/route. Artifacts are base64-encoded
// by the JSON encoder.
type RouteResponse struct {
	RequestID string            `json:"request_id"`
	BoardHash string            `json:"board_hash"`
	RouteHash string            `json:"route_hash"`
	Cached    CachedStages      `json:"cached"`
	Timing    Timing            `json:"timing"`
	Report    *render.Report    `json:"report"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
}

// CachedStages reports which pipeline stages were served from cache.
type CachedStages struct {
	Route  bool `json:"route"`
	Render bool `json:"render"`
}

// Timing reports stage durations in milliseconds.
type Timing struct {
	RouteMS  int64 `json:"route_ms"`
	RenderMS int64 `json:"render_ms"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

var contentTypes = map[string]string{
	render.FormatSVG:   "image/svg+xml",
	render.FormatPNG:   "image/png",
	render.FormatDOT:   "text/vnd.graphviz; charset=utf-8",
	render.FormatNets:  "image/svg+xml",
	render.FormatJSON:  "application/json",
	render.FormatASCII: "text/plain; charset=utf-8",
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   "autoroute",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, board.Example())
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := RouteResponse{
		RequestID: RequestIDFrom(r.Context()),
		BoardHash: res.BoardHash,
		RouteHash: res.RouteHash,
		Cached:    CachedStages{Route: res.CacheInfo.RouteHit, Render: res.CacheInfo.RenderHit},
		Timing: Timing{
			RouteMS:  res.Stats.RouteTime.Milliseconds(),
			RenderMS: res.Stats.RenderTime.Milliseconds(),
		},
		Report:    res.Report(),
		Artifacts: make(map[string][]byte),
	}
	for format, data := range res.Artifacts {
		// The report is already inline.
		if format != render.FormatJSON {
			resp.Artifacts[format] = data
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRouteArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts, err := s.decodeRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Board-Hash", res.BoardHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// decodeRequest reads a RouteRequest and turns it into pipeline options.
// The route endpoint always renders the JSON report.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req RouteRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	if len(req.Board) == 0 {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "board is required")
	}

	b, err := board.DecodeJSON(bytes.NewReader(req.Board))
	if err != nil {
		return pipeline.Options{}, err
	}
	if cells := b.Grid.Width * b.Grid.Height; cells > s.cfg.MaxCells {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput,
			"board %dx%d has %d cells, limit is %d", b.Grid.Width, b.Grid.Height, cells, s.cfg.MaxCells)
	}
	if s.cfg.Parallelism == 0 && b.Search.Parallelism > s.cfg.MaxParallelism {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput,
			"parallelism %d exceeds limit %d", b.Search.Parallelism, s.cfg.MaxParallelism)
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = []string{render.FormatJSON}
	}
	return pipeline.Options{
		Board:       b,
		Formats:     formats,
		Scale:       req.Scale,
		Obstacles:   req.Obstacles,
		GridLines:   req.GridLines,
		Refresh:     req.Refresh,
		Parallelism: s.cfg.Parallelism,
		Logger:      s.logger.With("request", RequestIDFrom(r.Context())),
	}, nil
}

// =============================================================================
// Response helpers
// =============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestIDFrom(r.Context()), "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.writeJSON(w, status, ErrorResponse{
		Code:      string(code),
		Error:     errors.UserMessage(err),
		RequestID: RequestIDFrom(r.Context()),
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeOverlap:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeGridAllocation:
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}
