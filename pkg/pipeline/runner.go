package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autoroute/pkg/cache"
	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/observability"
	"github.com/matzehuels/autoroute/pkg/render"
	"github.com/matzehuels/autoroute/pkg/router"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options; every
// run builds its own session.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → route → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		BoardHash: BoardHash(&opts),
		Artifacts: make(map[string][]byte),
	}
	result.Stats.Leads = len(opts.Board.Leads)
	result.Stats.Connections = len(opts.Board.Connections)

	// Stage 1+2: Load and route
	routeStart := time.Now()
	routed, hit, err := r.RouteWithCacheInfo(ctx, opts, result.BoardHash)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.Snapshot = routed.Snapshot
	result.Outcomes = routed.Outcomes
	result.RouteHash = routed.hash
	result.Stats.RouteTime = time.Since(routeStart)
	result.CacheInfo.RouteHit = hit
	for _, o := range result.Outcomes {
		switch o.Status {
		case router.StatusRouted:
			result.Stats.Routed++
		case router.StatusFailed:
			result.Stats.Failed++
		}
	}

	r.Logger.Info("routed board",
		"connections", len(result.Outcomes),
		"routed", result.Stats.Routed,
		"failed", result.Stats.Failed,
		"cached", hit,
		"duration", result.Stats.RouteTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, routed, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BoardHash hashes the canonical board. Parallelism is excluded because it
// never changes the routed result.
func BoardHash(opts *Options) string {
	b := *opts.Board
	b.Search.Parallelism = 0
	return cache.Hash(b.Canonical())
}

// Load builds a routing session from the board: vias and leads placed,
// connections queued.
func (r *Runner) Load(ctx context.Context, opts Options) (*router.Session, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	s, err := opts.Board.Build(router.WithLogger(opts.Logger))
	observability.Pipeline().OnLoadComplete(ctx, len(opts.Board.Leads), len(opts.Board.Connections), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("loaded board",
		"session", s.ID,
		"width", opts.Board.Grid.Width,
		"height", opts.Board.Grid.Height,
		"leads", len(opts.Board.Leads),
		"vias", len(opts.Board.Vias),
		"duration", time.Since(start))
	return s, nil
}

// Routed is the state the route stage hands to the render stage.
type Routed struct {
	Snapshot *router.Snapshot
	Outcomes []router.Outcome
	hash     string
}

// routedEntry is the cached form of Routed. Occupancy is stored as raw
// bytes, which JSON encodes as base64.
type routedEntry struct {
	Snapshot  *router.Snapshot       `json:"snapshot"`
	Occupancy []byte                 `json:"occupancy"`
	Outcomes  []render.ReportOutcome `json:"outcomes"`
}

func encodeRouted(snap *router.Snapshot, outcomes []router.Outcome) ([]byte, error) {
	e := routedEntry{
		Snapshot:  snap,
		Occupancy: make([]byte, len(snap.Occupancy)),
		Outcomes:  render.NewReport(snap, outcomes).Outcomes,
	}
	for i, o := range snap.Occupancy {
		e.Occupancy[i] = byte(o)
	}
	return json.Marshal(e)
}

func decodeRouted(data []byte) (*Routed, error) {
	var e routedEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Snapshot == nil || len(e.Occupancy) != e.Snapshot.Width*e.Snapshot.Height {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "cached route is incomplete")
	}

	e.Snapshot.Occupancy = make([]grid.Obstacle, len(e.Occupancy))
	for i, b := range e.Occupancy {
		e.Snapshot.Occupancy[i] = grid.Obstacle(b)
	}
	out := &Routed{Snapshot: e.Snapshot, hash: cache.Hash(data)}
	for _, ro := range e.Outcomes {
		o := ro.Outcome
		if ro.Code != "" {
			o.Err = errors.New(errors.Code(ro.Code), "%s", ro.Error)
		}
		out.Outcomes = append(out.Outcomes, o)
	}
	return out, nil
}

// RouteWithCacheInfo loads the board, routes it, and reports whether the
// result came from cache. Runs interrupted by cancellation or that hit a
// non-routing error are not cached.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, opts Options, boardHash string) (*Routed, bool, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.RouteKey(boardHash, opts.RouteKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if routed, err := decodeRouted(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "route")
				return routed, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "route")
	}

	s, err := r.Load(ctx, opts)
	if err != nil {
		return nil, false, fmt.Errorf("load: %w", err)
	}

	start := time.Now()
	outcomes := s.Route(ctx)
	snap := s.Snapshot()

	cacheable := ctx.Err() == nil
	routed, failed := 0, 0
	for _, o := range outcomes {
		switch o.Status {
		case router.StatusRouted:
			routed++
		case router.StatusFailed:
			failed++
			if !errors.IsRoutingFailure(o.Err) {
				cacheable = false
			}
		}
	}
	observability.Pipeline().OnRouteStageComplete(ctx, routed, failed, time.Since(start), ctx.Err())
	if err := ctx.Err(); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeCanceled, err, "routing interrupted")
	}

	data, err := encodeRouted(snap, outcomes)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encode routed board")
	}
	if cacheable && !opts.Refresh {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.RouteTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "route", len(data))
		} else {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		}
	}

	return &Routed{Snapshot: snap, Outcomes: outcomes, hash: cache.Hash(data)}, false, nil
}

// RenderWithCacheInfo renders every requested format and reports whether all
// artifacts came from cache. Formats missing from the cache are rendered
// concurrently.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, routed *Routed, opts Options) (map[string][]byte, bool, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(routed.hash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
		return artifacts, true, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, format := range missing {
		g.Go(func() error {
			data, err := render.Render(gctx, format, routed.Snapshot, routed.Outcomes, opts.RenderOptions())
			if err != nil {
				return fmt.Errorf("%s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if !opts.Refresh {
		for _, format := range missing {
			key := r.Keyer.ArtifactKey(routed.hash, opts.ArtifactKeyOpts(format))
			if err := r.Cache.Set(ctx, key, artifacts[format], cache.ArtifactTTL); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(artifacts[format]))
			}
		}
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
