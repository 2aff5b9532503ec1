package locate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultRenderScale is the number of canvas millimeters per world meter.
const DefaultRenderScale = 40.0

var ledColors = map[Color]color.RGBA{
	Red:     {R: 220, G: 40, B: 40, A: 255},
	Green:   {R: 40, G: 170, B: 60, A: 255},
	Blue:    {R: 40, G: 80, B: 220, A: 255},
	Yellow:  {R: 230, G: 200, B: 30, A: 255},
	Cyan:    {R: 30, G: 200, B: 210, A: 255},
	Magenta: {R: 200, G: 40, B: 200, A: 255},
	White:   {R: 245, G: 245, B: 245, A: 255},
}

// ledColor returns the display color of a beacon
func ledColor(c Color) color.RGBA {
	if rgba, ok := ledColors[c]; ok {
		return rgba
	}
	return color.RGBA{R: 128, G: 128, B: 128, A: 255}
}

// MapRenderer draws the beacon layout, the perimeter and, optionally, the
// candidates and estimate of one cycle
type MapRenderer struct {
	Landmarks   []Landmark
	Perimeter   []Point
	Result      *Result
	Scale       float64           // canvas millimeters per meter
	Padding     float64           // padding in meters
	GridSpacing float64           // grid line spacing in meters; 0 disables
	Resolution  canvas.Resolution // resolution for PNG output
	Labels      bool              // draw beacon labels on PNG output
}

// NewMapRenderer creates a renderer for cfg with default settings
func NewMapRenderer(cfg *Configuration, res *Result) *MapRenderer {
	return &MapRenderer{
		Landmarks:   cfg.Registry().Landmarks(),
		Perimeter:   cfg.Perimeter().Corners(),
		Result:      res,
		Scale:       DefaultRenderScale,
		Padding:     1.0,
		GridSpacing: 1.0,
		Resolution:  canvas.DPI(72),
		Labels:      true,
	}
}

// canvasRenderer is implemented by both the svg and rasterizer renderers
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// bounds returns the world-space box covering beacons, perimeter and any
// cycle candidates
func (r *MapRenderer) bounds() orb.Bound {
	var mp orb.MultiPoint
	for _, lm := range r.Landmarks {
		mp = append(mp, lm.Position.Orb())
	}
	for _, p := range r.Perimeter {
		mp = append(mp, p.Orb())
	}
	if r.Result != nil {
		for _, p := range r.Result.Candidates {
			mp = append(mp, p.Orb())
		}
		if r.Result.State == StateDone {
			mp = append(mp, r.Result.Position.Orb())
		}
	}
	if len(mp) == 0 {
		return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	}
	return mp.Bound().Pad(r.Padding)
}

func (r *MapRenderer) scale() float64 {
	if r.Scale <= 0 {
		return DefaultRenderScale
	}
	return r.Scale
}

// Size returns the canvas size in millimeters
func (r *MapRenderer) Size() (float64, float64) {
	b := r.bounds()
	return (b.Max[0] - b.Min[0]) * r.scale(), (b.Max[1] - b.Min[1]) * r.scale()
}

// RenderToSVG writes the map as an SVG to the provided writer
func (r *MapRenderer) RenderToSVG(w io.Writer) error {
	width, height := r.Size()
	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, r.bounds(), width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the map as a PNG to the provided writer
func (r *MapRenderer) RenderToPNG(w io.Writer) error {
	width, height := r.Size()
	b := r.bounds()
	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, b, width, height)

	if r.Labels {
		r.drawLabels(rast, b, width)
	}
	return png.Encode(w, rast)
}

// toCanvas converts a world point to canvas millimeters
func (r *MapRenderer) toCanvas(b orb.Bound, p Point) (float64, float64) {
	s := r.scale()
	return (p.X - b.Min[0]) * s, (p.Y - b.Min[1]) * s
}

func (r *MapRenderer) renderToCanvas(renderer canvasRenderer, b orb.Bound, width, height float64) {
	s := r.scale()

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: color.RGBA{R: 210, G: 210, B: 210, A: 255}}
		gridStyle.StrokeWidth = 0.01 * s
		gridStyle.Dashes = []float64{0.1 * s, 0.1 * s}

		for x := math.Ceil(b.Min[0]/r.GridSpacing) * r.GridSpacing; x <= b.Max[0]; x += r.GridSpacing {
			gridPath := &canvas.Path{}
			gridPath.MoveTo(r.toCanvas(b, Point{X: x, Y: b.Min[1]}))
			gridPath.LineTo(r.toCanvas(b, Point{X: x, Y: b.Max[1]}))
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
		for y := math.Ceil(b.Min[1]/r.GridSpacing) * r.GridSpacing; y <= b.Max[1]; y += r.GridSpacing {
			gridPath := &canvas.Path{}
			gridPath.MoveTo(r.toCanvas(b, Point{X: b.Min[0], Y: y}))
			gridPath.LineTo(r.toCanvas(b, Point{X: b.Max[0], Y: y}))
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Perimeter, filled lightly and outlined.
	if len(r.Perimeter) >= 3 {
		perimeterStyle := canvas.DefaultStyle
		perimeterStyle.Fill = canvas.Paint{Color: color.RGBA{R: 235, G: 242, B: 250, A: 255}}
		perimeterStyle.Stroke = canvas.Paint{Color: color.RGBA{R: 47, G: 79, B: 79, A: 255}}
		perimeterStyle.StrokeWidth = 0.04 * s

		cp := &canvas.Path{}
		for i, p := range r.Perimeter {
			x, y := r.toCanvas(b, p)
			if i == 0 {
				cp.MoveTo(x, y)
			} else {
				cp.LineTo(x, y)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, perimeterStyle, canvas.Identity)
	}

	for _, lm := range r.Landmarks {
		beaconStyle := canvas.DefaultStyle
		beaconStyle.Fill = canvas.Paint{Color: ledColor(lm.Color)}
		beaconStyle.Stroke = canvas.Paint{Color: canvas.Black}
		beaconStyle.StrokeWidth = 0.02 * s

		x, y := r.toCanvas(b, lm.Position)
		renderer.RenderPath(canvas.Circle(0.2*s).Translate(x, y), beaconStyle, canvas.Identity)
	}

	if r.Result == nil {
		return
	}

	candidateStyle := canvas.DefaultStyle
	candidateStyle.Fill = canvas.Paint{Color: canvas.Gray}
	candidateStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	for _, p := range r.Result.Candidates {
		x, y := r.toCanvas(b, p)
		renderer.RenderPath(canvas.Circle(0.06*s).Translate(x, y), candidateStyle, canvas.Identity)
	}

	retainedStyle := canvas.DefaultStyle
	retainedStyle.Fill = canvas.Paint{Color: color.RGBA{R: 255, G: 140, B: 0, A: 255}}
	retainedStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	for _, p := range r.Result.Retained {
		x, y := r.toCanvas(b, p)
		renderer.RenderPath(canvas.Circle(0.08*s).Translate(x, y), retainedStyle, canvas.Identity)
	}

	if r.Result.State == StateDone {
		estimateStyle := canvas.DefaultStyle
		estimateStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		estimateStyle.Stroke = canvas.Paint{Color: canvas.Black}
		estimateStyle.StrokeWidth = 0.03 * s

		x, y := r.toCanvas(b, r.Result.Position)
		renderer.RenderPath(canvas.Circle(0.15*s).Translate(x, y), estimateStyle, canvas.Identity)

		cross := &canvas.Path{}
		cross.MoveTo(x-0.25*s, y)
		cross.LineTo(x+0.25*s, y)
		cross.MoveTo(x, y-0.25*s)
		cross.LineTo(x, y+0.25*s)
		renderer.RenderPath(cross, estimateStyle, canvas.Identity)
	}
}

// drawLabels writes beacon names and the estimate next to their markers.
// The canvas origin is bottom-left while image rows grow downwards.
func (r *MapRenderer) drawLabels(img draw.Image, b orb.Bound, width float64) {
	bounds := img.Bounds()
	if width <= 0 || bounds.Dx() == 0 {
		return
	}
	pxPerMM := float64(bounds.Dx()) / width
	s := r.scale()

	toPixel := func(p Point) (int, int) {
		x, y := r.toCanvas(b, p)
		return int(x * pxPerMM), bounds.Dy() - int(y*pxPerMM)
	}

	for _, lm := range r.Landmarks {
		x, y := toPixel(lm.Position)
		drawText(img, x+int(0.25*s*pxPerMM), y+4, lm.Color.String(), color.RGBA{0, 0, 0, 255})
	}
	if r.Result != nil && r.Result.State == StateDone {
		x, y := toPixel(r.Result.Position)
		drawText(img, x+int(0.3*s*pxPerMM), y-int(0.2*s*pxPerMM), r.Result.Position.String(), color.RGBA{0, 0, 0, 255})
	}
}

// drawText renders text onto an image at the specified position
func drawText(img draw.Image, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// RenderResult renders cfg and res as "svg", "png" or "geojson". A
// non-positive scale selects DefaultRenderScale.
func RenderResult(w io.Writer, cfg *Configuration, res *Result, format string, scale float64) error {
	r := NewMapRenderer(cfg, res)
	if scale > 0 {
		r.Scale = scale
	}
	switch format {
	case "svg":
		return r.RenderToSVG(w)
	case "png":
		return r.RenderToPNG(w)
	case "geojson":
		data, err := MapFeatures(cfg, res).MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding geojson: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown render format %q (want svg, png or geojson)", format)
	}
}
