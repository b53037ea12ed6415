package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoroute/pkg/board"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/observability"
	"github.com/matzehuels/autoroute/pkg/pipeline"
	"github.com/matzehuels/autoroute/pkg/render"
	"github.com/matzehuels/autoroute/pkg/router"
)

// routeOpts holds the command-line flags for the route command.
type routeOpts struct {
	output    string   // output base path
	formats   []string // output formats
	scale     int      // PNG pixels per cell
	obstacles bool     // shade obstacle cells in SVG output
	gridLines bool     // draw block boundaries in SVG output
	parallel  int      // candidate evaluation workers
	noCache   bool     // disable the route cache
	refresh   bool     // recompute and overwrite cached results
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var formatsStr string
	opts := routeOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "route [scenario]",
		Short: "Route every connection of a scenario and write the results",
		Long: `Route every connection of a scenario file (TOML, or JSON with a .json
extension) in the order it is listed, then write the requested artifacts.

Connections that cannot be routed are reported and skipped; the remaining
connections are still routed.`,
		Example: `  autoroute route board.toml
  autoroute route board.toml -f svg,png,json -o out/board
  autoroute route board.toml -f nets --parallel 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRoute(cmd.Context(), args[0], opts)
		},
		ValidArgsFunction: completeScenario,
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: scenario path without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): "+strings.Join(render.Formats, ", ")+" (comma-separated, default svg)")
	cmd.Flags().IntVar(&opts.scale, "scale", opts.scale, "PNG pixels per grid cell")
	cmd.Flags().BoolVar(&opts.obstacles, "obstacles", false, "shade every obstacle cell in SVG output")
	cmd.Flags().BoolVar(&opts.gridLines, "grid", false, "draw grid block boundaries in SVG output")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "goroutines evaluating candidate endpoints (default from scenario)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the route cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runRoute(ctx context.Context, input string, opts routeOpts) error {
	b, err := board.Load(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	stop := c.startRouteSpinner(ctx, len(b.Connections))
	res, err := runner.Execute(ctx, pipeline.Options{
		Board:       b,
		Formats:     opts.formats,
		Scale:       opts.scale,
		Obstacles:   opts.obstacles,
		GridLines:   opts.gridLines,
		Refresh:     opts.refresh,
		Parallelism: opts.parallel,
		Logger:      c.Logger,
	})
	stop()
	if err != nil {
		return err
	}

	printSuccess("Routed %s", StyleHighlight.Render(input))
	fmt.Println(boardLine(res.Snapshot))
	already := len(res.Outcomes) - res.Stats.Routed - res.Stats.Failed
	printStats(res.Stats.Routed, already, res.Stats.Failed, res.CacheInfo.RouteHit)
	printFailures(res.Snapshot, res.Outcomes)

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		path := base + "." + render.Extension(format)
		if err := writeArtifact(path, res.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}

	printNewline()
	printNextStep("List the electrical nets", fmt.Sprintf("%s nets %s", appName, input))
	return nil
}

// startRouteSpinner shows per-connection progress unless debug logging is on,
// in which case the log already reports every connection. The returned
// function stops the spinner and restores the previous router hooks.
func (c *CLI) startRouteSpinner(ctx context.Context, total int) func() {
	if c.Logger.GetLevel() <= log.DebugLevel || total == 0 {
		return func() {}
	}
	s := newSpinnerWithContext(ctx, "Routing connections")
	prev := observability.Router()
	observability.SetRouterHooks(&spinnerHooks{spinner: s, total: total})
	s.Start()

	return func() {
		s.Stop()
		observability.SetRouterHooks(prev)
	}
}

// printFailures lists every connection that could not be routed.
func printFailures(snap *router.Snapshot, outcomes []router.Outcome) {
	for _, o := range outcomes {
		if o.Status != router.StatusFailed {
			continue
		}
		printWarning("%s", failureLine(snap, o))
	}
}

func leadName(snap *router.Snapshot, id netlist.LeadID) string {
	if l := snap.Lead(id); l != nil {
		return l.Name
	}
	return fmt.Sprintf("#%d", id)
}

// basePath derives the base output path from the output and input paths.
// If output is empty, the extension is stripped from input. If output ends
// in a known format extension, that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Longest extensions first, so "x.nets.svg" does not stop at ".svg".
	exts := make([]string, 0, len(render.Formats))
	for _, format := range render.Formats {
		exts = append(exts, "."+render.Extension(format))
	}
	slices.SortFunc(exts, func(a, b string) int { return len(b) - len(a) })
	for _, ext := range exts {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// writeArtifact writes data to path, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
