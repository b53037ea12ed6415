// Package pipeline provides the routing pipeline shared by the CLI and the
// HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Validate the board and build a routing session from it
//  2. Route: Route every queued connection in request order
//  3. Render: Generate output in the requested formats (SVG, PNG, DOT, JSON, ...)
//
// The route and render stages are cached by content hash, so re-running an
// unchanged board returns the previous result without searching.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Board:   b,
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autoroute/pkg/board"
	"github.com/matzehuels/autoroute/pkg/cache"
	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/render"
	"github.com/matzehuels/autoroute/pkg/router"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = render.FormatSVG

	// DefaultScale is the PNG pixels per grid cell.
	DefaultScale = 4

	// MaxScale bounds PNG upscaling.
	MaxScale = 32

	// MaxPixels bounds the PNG raster (width*scale × height*scale).
	MaxPixels = 1 << 26
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Board is the scenario to route. Required.
	Board *board.Board `json:"board"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Scale     int      `json:"scale,omitempty"`
	Obstacles bool     `json:"obstacles,omitempty"`
	GridLines bool     `json:"grid_lines,omitempty"`

	// Refresh bypasses cached routes and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Parallelism overrides the board's candidate parallelism when > 0.
	// It never changes the routed result.
	Parallelism int `json:"parallelism,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// BoardHash is the content hash of the canonical board.
	BoardHash string

	// RouteHash is the content hash of the routed state.
	RouteHash string

	// Snapshot is the routed board.
	Snapshot *router.Snapshot

	// Outcomes lists one entry per connection, in request order.
	Outcomes []router.Outcome

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Report returns the JSON report of the run.
func (r *Result) Report() *render.Report {
	return render.NewReport(r.Snapshot, r.Outcomes)
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Leads       int
	Connections int
	Routed      int
	Failed      int
	LoadTime    time.Duration
	RouteTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RouteHit  bool // Whether the routed board came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(render.Formats, format) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be one of: %s)",
			format, strings.Join(render.Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Board == nil {
		return errors.New(errors.ErrCodeInvalidInput, "board is required")
	}
	o.Board.ApplyDefaults()
	if o.Parallelism > 0 {
		o.Board.Search.Parallelism = o.Parallelism
	}
	if err := o.Board.Validate(); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 1 || o.Scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "scale %d outside 1..%d", o.Scale, MaxScale)
	}
	if slices.Contains(o.Formats, render.FormatPNG) {
		w, h := int64(o.Board.Grid.Width*o.Scale), int64(o.Board.Grid.Height*o.Scale)
		if w*h > MaxPixels {
			return errors.New(errors.ErrCodeInvalidInput, "png of %dx%d pixels exceeds %d pixels, lower the scale", w, h, MaxPixels)
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RouteKeyOpts returns cache key options for the route stage.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	return cache.RouteKeyOpts{
		D1:          o.Board.Search.D1,
		D2:          o.Board.Search.D2,
		MaxRestarts: o.Board.Search.MaxRestarts,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case render.FormatPNG:
		k.Scale = o.Scale
	case render.FormatSVG:
		k.Grid = o.GridLines
		k.Obstacles = o.Obstacles
	}
	return k
}

// RenderOptions returns the renderer settings.
func (o *Options) RenderOptions() render.Options {
	return render.Options{Scale: o.Scale, Obstacles: o.Obstacles, GridLines: o.GridLines}
}
