package render

import (
	"context"
	"strings"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/router"
)

// Options selects renderer settings shared by the CLI and the HTTP API.
type Options struct {
	Scale     int  // PNG pixels per cell
	Obstacles bool // SVG: shade obstacle cells
	GridLines bool // SVG: draw block boundaries
}

// Render produces one artifact in the given format.
func Render(ctx context.Context, format string, snap *router.Snapshot, outcomes []router.Outcome, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		var svgOpts []SVGOption
		if opts.Obstacles {
			svgOpts = append(svgOpts, WithObstacles())
		}
		if opts.GridLines {
			svgOpts = append(svgOpts, WithGridLines())
		}
		return RenderSVG(snap, svgOpts...), nil
	case FormatPNG:
		scale := opts.Scale
		if scale == 0 {
			scale = 4
		}
		return RenderPNG(snap, WithScale(scale), WithPNGLabels())
	case FormatDOT:
		return []byte(ToDOT(snap)), nil
	case FormatNets:
		return RenderNetSVG(ctx, ToDOT(snap))
	case FormatJSON:
		return RenderJSON(NewReport(snap, outcomes))
	case FormatASCII:
		return []byte(strings.Join(ASCII(snap, 0, 0, snap.Width, snap.Height), "\n") + "\n"), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %s)",
		format, strings.Join(Formats, ", "))
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	if format == FormatNets {
		return "nets.svg"
	}
	return format
}
