package detection

import (
	"errors"
	"fmt"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

// ErrNoContent is returned when no content is found to crop to.
var ErrNoContent = errors.New("no content detected")

// Mode selects what ContentBounds treats as content.
type Mode string

const (
	// ModeEdges bounds every Canny edge pixel.
	ModeEdges Mode = "edges"

	// ModeText bounds the detected text blocks only, ignoring isolated
	// marks such as scanner dust or punch holes.
	ModeText Mode = "text"
)

// Options tunes ContentBounds. The zero value uses ModeEdges with the
// default thresholds and no margin.
type Options struct {
	Mode Mode

	// Low and High are the Canny hysteresis thresholds. When both are zero
	// the defaults apply.
	Low  int
	High int

	// Margin pads the detected bounds on every side, clamped to the image.
	Margin int

	// MinConfidence filters text blocks in ModeText.
	MinConfidence float64
}

// ContentBounds suggests a crop rectangle for buf: the bounding box of its
// content, padded by opts.Margin. It returns ErrNoContent for a blank
// image.
func ContentBounds(buf *imaging.PixelBuffer, opts Options) (imaging.PixelRect, error) {
	low, high := opts.Low, opts.High
	if low == 0 && high == 0 {
		low, high = DefaultLowThreshold, DefaultHighThreshold
	}
	edges := Canny(buf, low, high)

	var (
		r  imaging.PixelRect
		ok bool
	)
	switch opts.Mode {
	case "", ModeEdges:
		r, ok = edges.Bounds()
	case ModeText:
		for i, b := range TextBlocks(edges, opts.MinConfidence) {
			if i == 0 {
				r = b.Rect
			} else {
				r = union(r, b.Rect)
			}
			ok = true
		}
	default:
		return imaging.PixelRect{}, fmt.Errorf("unknown content mode: %s", opts.Mode)
	}
	if !ok {
		return imaging.PixelRect{}, ErrNoContent
	}

	return pad(r, opts.Margin, buf.Width, buf.Height), nil
}

// pad grows r by margin on every side without leaving a width x height image.
func pad(r imaging.PixelRect, margin, width, height int) imaging.PixelRect {
	if margin < 0 {
		margin = 0
	}
	x0 := max(r.X-margin, 0)
	y0 := max(r.Y-margin, 0)
	x1 := min(r.X+r.W+margin, width)
	y1 := min(r.Y+r.H+margin, height)
	return imaging.PixelRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
