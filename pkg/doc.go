// Package pkg provides the core libraries for Autoroute, an incremental PCB
// grid autorouter.
//
// # Overview
//
// Autoroute lays out copper traces on a discretized board. Leads (component
// pads) are placed onto a grid, connections between leads are requested, and
// each connection is routed as a chain of straight segments around everything
// already on the board. Routed traces become permanent obstacles, so the
// order in which connections are requested matters.
//
// The pkg directory is organized into four areas:
//
//  1. Routing core: [grid], [search], [trace], [netlist], [router]
//  2. Input and output: [board], [render]
//  3. Orchestration: [pipeline], [cache], [observability]
//  4. Serving: [server]
//
// # Architecture
//
// The typical data flow:
//
//	Scenario file (TOML/JSON)
//	         ↓
//	    [board] package (decode, validate, build a session)
//	         ↓
//	    [router] package (route queued connections in order)
//	         ↓             uses [search] for the distance field and
//	         ↓             [trace] to turn it into segments
//	    [render] package (SVG/PNG/JSON/DOT/ASCII)
//
// [pipeline] runs the whole chain with content-addressed caching, and is
// shared by the CLI and the HTTP [server].
//
// # Quick Start
//
//	s, _ := router.New(router.DefaultConfig())
//	a, _ := s.PlaceNamedLead("U1", grid.Pt(10, 10))
//	b, _ := s.PlaceNamedLead("U2", grid.Pt(80, 40))
//	s.Connect(a, b)
//
//	outcomes := s.Route(ctx)
//	svg, _ := render.Render(ctx, render.FormatSVG, s.Snapshot(), outcomes, render.Options{})
//
// # Main Packages
//
// ## Routing Core
//
// [grid] - Block-tiled cell grid with obstacle kinds and per-search scratch
// state, with deep copies for per-candidate scratch grids.
//
// [search] - Greedy best-first distance-field search with a deferred
// frontier and an optional indefinite mode that restarts from the closest
// cell reached.
//
// [trace] - Walks the distance field back from the target and emits line
// segments, marking the trace cells as obstacles.
//
// [netlist] - Leads, connections, traces and the electrical nets they form.
//
// [router] - The routing session: lead and via placement, the connection
// queue, and candidate evaluation across goroutines.
//
// ## Input and Output
//
// [board] - Scenario files. TOML is the native format; JSON is accepted for
// the HTTP API.
//
// [render] - Board renderers. SVG and PNG draw the grid, DOT and the nets SVG
// draw the net graph through Graphviz, JSON is the machine-readable report.
//
// ## Orchestration
//
// [pipeline] - Load → route → render, with route results and artifacts
// cached by content hash.
//
// [cache] - Cache backends: null, file (CLI) and Redis (server).
//
// [observability] - Hook registries for routing, pipeline and HTTP events.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/router/...     # Specific package
//
// [grid]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/grid
// [search]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/search
// [trace]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/trace
// [netlist]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/netlist
// [router]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/router
// [board]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/board
// [render]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/observability
// [server]: https://pkg.go.dev/github.com/matzehuels/autoroute/pkg/server
package pkg
