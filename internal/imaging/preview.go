package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	xdraw "golang.org/x/image/draw"
)

// PreviewOptions controls RenderPreview.
type PreviewOptions struct {
	// Background fills the letterbox margins. Zero value is transparent.
	Background color.NRGBA

	// Selection, when non-nil, is outlined on top of the image in display
	// coordinates.
	Selection *SelectionRect

	// SelectionColor is the outline color. Zero value means opaque red.
	SelectionColor color.NRGBA
}

// RenderPreview draws buf into a displayWidth x displayHeight canvas using
// fit scaling with letterboxing.
//
// The image placement is computed from the same ViewportGeometry that
// MapSelectionToSource inverts, so a selection drawn over the preview maps
// back to exactly the pixels under it.
func RenderPreview(buf *PixelBuffer, displayWidth, displayHeight int, opts PreviewOptions) (*PixelBuffer, error) {
	g := GeometryFor(buf, float64(displayWidth), float64(displayHeight))
	fit, err := FitRect(g)
	if err != nil {
		return nil, err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, displayWidth, displayHeight))
	if opts.Background != (color.NRGBA{}) {
		xdraw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, xdraw.Src)
	}
	xdraw.CatmullRom.Scale(dst, fit, buf.Image(), buf.Bounds(), xdraw.Over, nil)

	if opts.Selection != nil {
		c := opts.SelectionColor
		if c == (color.NRGBA{}) {
			c = color.NRGBA{R: 255, A: 255}
		}
		drawOutline(dst, *opts.Selection, c)
	}

	return fromNRGBA(dst), nil
}

// drawOutline draws a one-pixel rectangle outline, clipped to dst.
func drawOutline(dst *image.NRGBA, r SelectionRect, c color.NRGBA) {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.W))
	y1 := int(math.Round(r.Y + r.H))
	bounds := dst.Bounds()

	set := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(bounds) {
			dst.SetNRGBA(x, y, c)
		}
	}
	for x := x0; x <= x1; x++ {
		set(x, y0)
		set(x, y1)
	}
	for y := y0; y <= y1; y++ {
		set(x0, y)
		set(x1, y)
	}
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
