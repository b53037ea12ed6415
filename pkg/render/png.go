package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/grid"
	"github.com/matzehuels/autoroute/pkg/netlist"
	"github.com/matzehuels/autoroute/pkg/router"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale  int
	labels bool
}

// WithScale sets the number of pixels per grid cell (default 4).
func WithScale(s int) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// WithPNGLabels draws lead names onto the raster.
func WithPNGLabels() PNGOption { return func(r *pngRenderer) { r.labels = true } }

var (
	colorFree = color.RGBA{0xfb, 0xfa, 0xf5, 0xff}
	colorLine = color.RGBA{0xd8, 0xd4, 0xc4, 0xff}
	colorVia  = color.RGBA{0x55, 0x55, 0x55, 0xff}
	colorText = color.RGBA{0x22, 0x22, 0x22, 0xff}
)

// RenderPNG rasterizes the occupancy grid: one pixel per cell, coloured by
// obstacle kind, then scaled up with nearest-neighbour sampling. Trace cells
// take the colour of their net; lead pads take the colour of the lead's net.
func RenderPNG(snap *router.Snapshot, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 4}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %d", r.scale)
	}

	src := rasterize(snap)

	dst := image.NewRGBA(image.Rect(0, 0, snap.Width*r.scale, snap.Height*r.scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if r.labels {
		if err := drawLabels(dst, snap, r.scale); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func rasterize(snap *router.Snapshot) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, snap.Width, snap.Height))
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			c := colorFree
			switch snap.At(x, y) {
			case grid.Line:
				c = colorLine
			case grid.Via:
				c = colorVia
			}
			img.SetRGBA(x, y, c)
		}
	}

	// Overlay traces and pads in net colours.
	for _, t := range snap.Routed() {
		conn, _ := connOf(snap, t)
		col := netColor(netlist.NetOf(snap.Nets, conn.Start))
		for _, l := range t.Lines {
			walkLine(l.Start, l.End, func(p grid.Point) { img.SetRGBA(p.X, p.Y, col) })
		}
	}
	for _, l := range snap.Leads {
		col := netColor(netlist.NetOf(snap.Nets, l.ID))
		for y := l.Origin.Y - l.HalfExtent; y <= l.Origin.Y+l.HalfExtent; y++ {
			for x := l.Origin.X - l.HalfExtent; x <= l.Origin.X+l.HalfExtent; x++ {
				if x >= 0 && y >= 0 && x < snap.Width && y < snap.Height {
					img.SetRGBA(x, y, col)
				}
			}
		}
	}
	return img
}

// walkLine visits the cells of an axis-aligned or diagonal segment.
func walkLine(a, b grid.Point, fn func(grid.Point)) {
	step := grid.Pt(sign(b.X-a.X), sign(b.Y-a.Y))
	p := a
	for {
		fn(p)
		if p == b {
			return
		}
		p = p.Add(step)
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func drawLabels(img *image.RGBA, snap *router.Snapshot, scale int) error {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "parse font")
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(3 * scale),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "font face")
	}
	defer face.Close()

	d := &font.Drawer{Dst: img, Src: image.NewUniform(colorText), Face: face}
	for _, l := range snap.Leads {
		d.Dot = fixed.Point26_6{
			X: fixed.I((l.Origin.X + l.HalfExtent + 1) * scale),
			Y: fixed.I((l.Origin.Y - l.HalfExtent) * scale),
		}
		d.DrawString(l.Name)
	}
	return nil
}
