package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// MinSelectionSize is the smallest selection width or height, in display
// units, accepted for cropping.
const MinSelectionSize = 5.0

var (
	// ErrSelectionTooSmall is returned when a selection is narrower or
	// shorter than MinSelectionSize display units.
	ErrSelectionTooSmall = errors.New("selection too small")

	// ErrInvalidGeometry is returned when viewport extents are zero,
	// negative or not finite, or produce a zero mapping denominator.
	ErrInvalidGeometry = errors.New("invalid viewport geometry")
)

// SelectionRect is a rectangle in display coordinates.
type SelectionRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ViewportGeometry describes how a source image is laid out on screen.
//
// The image is scaled uniformly to fit inside DisplayWidth x DisplayHeight
// and centered, leaving letterbox margins on the shorter axis. The same
// geometry must describe both the surface the image is drawn on and the
// surface selections are drawn on; RenderPreview uses it for exactly that.
type ViewportGeometry struct {
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
	SourceWidth   float64 `json:"source_width"`
	SourceHeight  float64 `json:"source_height"`
}

// GeometryFor builds the geometry of buf shown in a display of the given size.
func GeometryFor(buf *PixelBuffer, displayWidth, displayHeight float64) ViewportGeometry {
	return ViewportGeometry{
		DisplayWidth:  displayWidth,
		DisplayHeight: displayHeight,
		SourceWidth:   float64(buf.Width),
		SourceHeight:  float64(buf.Height),
	}
}

// fitLayout holds the derived fit-scale values for a geometry.
type fitLayout struct {
	offsetX float64
	offsetY float64
	scaleX  float64
	scaleY  float64
}

func (g ViewportGeometry) layout() (fitLayout, error) {
	for _, v := range []float64{g.DisplayWidth, g.DisplayHeight, g.SourceWidth, g.SourceHeight} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fitLayout{}, fmt.Errorf("%w: display %gx%g, source %gx%g", ErrInvalidGeometry,
				g.DisplayWidth, g.DisplayHeight, g.SourceWidth, g.SourceHeight)
		}
	}

	ratio := math.Min(g.DisplayWidth/g.SourceWidth, g.DisplayHeight/g.SourceHeight)
	offsetX := (g.DisplayWidth - g.SourceWidth*ratio) / 2
	offsetY := (g.DisplayHeight - g.SourceHeight*ratio) / 2

	// The inverse scale is taken from the display extents minus the
	// letterbox rather than from 1/ratio.
	denomX := g.DisplayWidth - 2*offsetX
	denomY := g.DisplayHeight - 2*offsetY
	if !(denomX > 0) || !(denomY > 0) {
		return fitLayout{}, fmt.Errorf("%w: zero image extent after letterboxing", ErrInvalidGeometry)
	}
	scaleX := g.SourceWidth / denomX
	scaleY := g.SourceHeight / denomY
	if math.IsInf(scaleX, 0) || math.IsInf(scaleY, 0) || math.IsNaN(scaleX) || math.IsNaN(scaleY) {
		return fitLayout{}, fmt.Errorf("%w: non-finite scale", ErrInvalidGeometry)
	}

	return fitLayout{
		offsetX: offsetX,
		offsetY: offsetY,
		scaleX:  scaleX,
		scaleY:  scaleY,
	}, nil
}

// MapSelectionToSource converts a display-space selection into a source
// pixel rectangle under fit scaling with letterboxing.
//
// Steps:
//  1. Reject selections smaller than MinSelectionSize on either axis.
//  2. ratio = min(dw/sw, dh/sh).
//  3. Letterbox offsets: offX = (dw - sw*ratio)/2, offY = (dh - sh*ratio)/2.
//  4. Inverse scale: scaleX = sw/(dw - 2*offX), scaleY = sh/(dh - 2*offY).
//  5. x = round((sel.X-offX)*scaleX), y likewise; w = round(sel.W*scaleX),
//     h likewise. Rounding is half-to-even.
//  6. Clamp x and y to [0, source extent], then shrink w and h so the
//     rectangle does not extend past the source's right and bottom edges.
//
// The result may be empty (w or h <= 0) when the selection lies entirely in
// the letterbox past the image; callers must check PixelRect.Empty.
func MapSelectionToSource(sel SelectionRect, g ViewportGeometry) (PixelRect, error) {
	for _, v := range []float64{sel.X, sel.Y, sel.W, sel.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return PixelRect{}, fmt.Errorf("%w: non-finite selection %g,%g %gx%g",
				ErrInvalidGeometry, sel.X, sel.Y, sel.W, sel.H)
		}
	}
	if sel.W < MinSelectionSize || sel.H < MinSelectionSize {
		return PixelRect{}, fmt.Errorf("%w: %gx%g display units, minimum %g",
			ErrSelectionTooSmall, sel.W, sel.H, MinSelectionSize)
	}

	l, err := g.layout()
	if err != nil {
		return PixelRect{}, err
	}

	// Clamping happens in float space so that selections far outside the
	// image never overflow the int conversion.
	x, w := clampSpan(
		math.RoundToEven((sel.X-l.offsetX)*l.scaleX),
		math.RoundToEven(sel.W*l.scaleX),
		math.Floor(g.SourceWidth))
	y, h := clampSpan(
		math.RoundToEven((sel.Y-l.offsetY)*l.scaleY),
		math.RoundToEven(sel.H*l.scaleY),
		math.Floor(g.SourceHeight))

	return PixelRect{X: int(x), Y: int(y), W: int(w), H: int(h)}, nil
}

// clampSpan moves start into [0, limit] and shrinks length so the span
// ends at or before limit. The returned length may be zero or negative
// but is never below -limit.
func clampSpan(start, length, limit float64) (float64, float64) {
	start = math.Min(math.Max(start, 0), limit)
	length = math.Max(math.Min(length, limit-start), -limit)
	return start, length
}

// MapSourceToDisplay is the forward mapping of MapSelectionToSource: it
// places a source pixel rectangle on the display surface.
func MapSourceToDisplay(r PixelRect, g ViewportGeometry) (SelectionRect, error) {
	l, err := g.layout()
	if err != nil {
		return SelectionRect{}, err
	}
	return SelectionRect{
		X: float64(r.X)/l.scaleX + l.offsetX,
		Y: float64(r.Y)/l.scaleY + l.offsetY,
		W: float64(r.W) / l.scaleX,
		H: float64(r.H) / l.scaleY,
	}, nil
}

// MapPointToSource converts a display point to source pixel coordinates.
// ok is false when the point falls in the letterbox or outside the image.
func MapPointToSource(x, y float64, g ViewportGeometry) (px, py int, ok bool, err error) {
	l, err := g.layout()
	if err != nil {
		return 0, 0, false, err
	}
	fx := (x - l.offsetX) * l.scaleX
	fy := (y - l.offsetY) * l.scaleY
	px, py = int(math.Floor(fx)), int(math.Floor(fy))
	ok = px >= 0 && py >= 0 && px < int(g.SourceWidth) && py < int(g.SourceHeight)
	return px, py, ok, nil
}

// FitRect returns the display-space rectangle the fitted image occupies,
// rounded to whole display pixels.
func FitRect(g ViewportGeometry) (image.Rectangle, error) {
	l, err := g.layout()
	if err != nil {
		return image.Rectangle{}, err
	}
	x0 := int(math.Round(l.offsetX))
	y0 := int(math.Round(l.offsetY))
	x1 := int(math.Round(g.DisplayWidth - l.offsetX))
	y1 := int(math.Round(g.DisplayHeight - l.offsetY))
	return image.Rect(x0, y0, x1, y1), nil
}
