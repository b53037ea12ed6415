package router

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/observability"
	"github.com/matzehuels/autoroute/pkg/search"
	"github.com/matzehuels/autoroute/pkg/trace"
)

// Status is the result kind of routing one connection.
type Status string

const (
	StatusRouted           Status = "routed"
	StatusAlreadyConnected Status = "already_connected"
	StatusFailed           Status = "failed"
)

// Outcome reports what happened to one connection.
type Outcome struct {
	Conn   netlist.ConnID  `json:"conn"`
	Start  netlist.LeadID  `json:"start"`
	End    netlist.LeadID  `json:"end"`
	Status Status          `json:"status"`
	Trace  netlist.TraceID `json:"trace"`

	// Lines are the routed segments, start lead to end lead.
	Lines []netlist.Line `json:"lines,omitempty"`

	// NewObstacles lists the cells this trace turned into obstacles.
	NewObstacles []grid.Point `json:"new_obstacles,omitempty"`

	Candidates int           `json:"candidates"`
	Length     float64       `json:"length"`
	Restarts   int           `json:"restarts"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// pair is a candidate (source, destination) endpoint pair.
type pair struct {
	src, dst grid.Point
}

// Route routes every queued connection in request order and clears the queue.
// A failed connection does not stop the batch; once ctx is done the remaining
// connections are reported as CANCELED.
func (s *Session) Route(ctx context.Context) []Outcome {
	queue := s.queue
	s.queue = nil

	outcomes := make([]Outcome, 0, len(queue))
	for _, id := range queue {
		outcomes = append(outcomes, s.route(ctx, id))
	}
	return outcomes
}

// RequestConnection queues a connection between a and b and routes it right
// away, leaving other queued connections untouched. The error reports invalid
// requests only; routing failures are reported in the Outcome.
func (s *Session) RequestConnection(ctx context.Context, a, b netlist.LeadID) (Outcome, error) {
	id, err := s.Connect(a, b)
	if err != nil {
		return Outcome{}, err
	}
	s.queue = s.queue[:len(s.queue)-1]
	return s.route(ctx, id), nil
}

func (s *Session) route(ctx context.Context, id netlist.ConnID) Outcome {
	start := time.Now()
	c, _ := s.nets.Connection(id)
	out := Outcome{Conn: id, Start: c.Start, End: c.End, Trace: netlist.NoTrace}

	la, _ := s.nets.Lead(c.Start)
	lb, _ := s.nets.Lead(c.End)
	logger := s.logger.With("conn", id, "from", la.Name, "to", lb.Name)

	finish := func(status Status, err error) Outcome {
		out.Status = status
		out.Err = err
		out.Duration = time.Since(start)
		observability.Router().OnRouteComplete(ctx, int(id), string(status), out.Duration, err)
		return out
	}

	if err := ctx.Err(); err != nil {
		return finish(StatusFailed, errors.Wrap(errors.ErrCodeCanceled, err, "connection %d not routed", id))
	}

	if c.Routed() || s.nets.Connected(c.Start, c.End) {
		logger.Info("leads already connected")
		return finish(StatusAlreadyConnected, nil)
	}

	work, err := s.grid.Clone()
	if err != nil {
		logger.Error("cannot allocate work grid", "err", err)
		return finish(StatusFailed, errors.Wrap(errors.ErrCodeGridAllocation, err, "connection %d", id))
	}
	work.Lift(s.nets.Obstacles(c.Start))
	work.Lift(s.nets.Obstacles(c.End))

	pairs := candidates(s.nets.Endpoints(c.Start), s.nets.Endpoints(c.End))
	out.Candidates = len(pairs)
	observability.Router().OnRouteStart(ctx, int(id), len(pairs))
	logger.Debug("evaluating candidates", "candidates", len(pairs), "workers", s.workers(len(pairs)))

	best, err := s.evaluate(ctx, id, work, pairs)
	if err != nil {
		return finish(StatusFailed, err)
	}

	chosen := pair{src: la.Origin, dst: lb.Origin}
	if best >= 0 {
		chosen = pairs[best]
	} else {
		logger.Debug("no candidate succeeded, falling back to lead origins")
	}

	opts := s.cfg.Search
	opts.Indefinite = true
	res, err := search.Search(ctx, work, chosen.src, chosen.dst, opts)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeCanceled) {
			err = errors.Wrap(errors.ErrCodeNoPath, err, "no path for connection %d", id)
		}
		logger.Warn("routing failed", "err", err)
		return finish(StatusFailed, err)
	}

	tr, err := trace.Materialize(work, res, s.grid)
	if err != nil {
		logger.Error("cannot materialize trace", "err", err)
		return finish(StatusFailed, err)
	}

	tid, err := s.nets.AddTrace(id, tr.Lines)
	if err != nil {
		trace.Lift(s.grid, tr.Lines)
		return finish(StatusFailed, err)
	}

	out.Trace = tid
	out.Lines = tr.Lines
	out.NewObstacles = tr.Marked
	out.Length = tr.Length
	out.Restarts = res.Restarts

	logger.Info("routed connection",
		"lines", len(tr.Lines),
		"length", math.Round(tr.Length*100)/100,
		"restarts", res.Restarts,
		"duration", time.Since(start))
	return finish(StatusRouted, nil)
}

// candidates enumerates every start endpoint against every end endpoint,
// start-major.
func candidates(starts, ends []grid.Point) []pair {
	pairs := make([]pair, 0, len(starts)*len(ends))
	for _, src := range starts {
		for _, dst := range ends {
			pairs = append(pairs, pair{src: src, dst: dst})
		}
	}
	return pairs
}

func (s *Session) workers(n int) int {
	return max(1, min(s.cfg.Parallelism, n))
}

// evaluate runs a definite search for every pair and returns the index of the
// shortest path, or -1 if none succeeded. Ties keep the earliest pair, so the
// choice does not depend on the number of workers. Only cancellation and
// allocation failures are returned as errors.
func (s *Session) evaluate(ctx context.Context, conn netlist.ConnID, work *grid.Grid, pairs []pair) (int, error) {
	lengths := make([]float64, len(pairs))

	workers := s.workers(len(pairs))
	if workers == 1 {
		for i, p := range pairs {
			l, err := s.try(ctx, conn, work, p)
			if err != nil {
				return -1, err
			}
			lengths[i] = l
		}
		return shortest(lengths), nil
	}

	// One private field per worker.
	fields := make([]*grid.Grid, workers)
	for w := range fields {
		f, err := work.Clone()
		if err != nil {
			return -1, errors.Wrap(errors.ErrCodeGridAllocation, err, "connection %d", conn)
		}
		fields[w] = f
	}

	g, gctx := errgroup.WithContext(ctx)
	next := make(chan int)
	g.Go(func() error {
		defer close(next)
		for i := range pairs {
			select {
			case next <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for _, field := range fields {
		g.Go(func() error {
			for i := range next {
				l, err := s.try(gctx, conn, field, pairs[i])
				if err != nil {
					return err
				}
				lengths[i] = l
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !errors.Is(err, errors.ErrCodeCanceled) {
			err = errors.Wrap(errors.ErrCodeCanceled, err, "connection %d", conn)
		}
		return -1, err
	}
	return shortest(lengths), nil
}

// try searches one pair on field and returns the path length, or +Inf if the
// pair failed. It returns an error only on cancellation.
func (s *Session) try(ctx context.Context, conn netlist.ConnID, field *grid.Grid, p pair) (float64, error) {
	opts := s.cfg.Search
	opts.Indefinite = false

	res, err := search.Search(ctx, field, p.src, p.dst, opts)
	if err == nil {
		var path []grid.Point
		if path, err = res.Path(field); err == nil {
			l := search.PathLength(path)
			observability.Router().OnCandidate(ctx, int(conn), l, nil)
			return l, nil
		}
	}
	if errors.Is(err, errors.ErrCodeCanceled) {
		return 0, err
	}

	s.logger.Debug("candidate failed", "conn", conn, "src", p.src, "dst", p.dst, "err", err)
	observability.Router().OnCandidate(ctx, int(conn), math.Inf(1), err)
	return math.Inf(1), nil
}

func shortest(lengths []float64) int {
	best := -1
	for i, l := range lengths {
		if math.IsInf(l, 1) {
			continue
		}
		if best < 0 || l < lengths[best] {
			best = i
		}
	}
	return best
}
