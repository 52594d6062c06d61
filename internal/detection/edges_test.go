package detection

import (
	"image/color"
	"testing"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

func newFilled(width, height int, c color.NRGBA) *imaging.PixelBuffer {
	buf := imaging.NewPixelBuffer(width, height)
	img := buf.Image()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return buf
}

// newPage returns a white page with a black block covering [x0,x1) x [y0,y1).
func newPage(width, height, x0, y0, x1, y1 int) *imaging.PixelBuffer {
	buf := newFilled(width, height, color.NRGBA{255, 255, 255, 255})
	img := buf.Image()
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}
	return buf
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestCanny_BlankImage(t *testing.T) {
	edges := Canny(newFilled(64, 48, color.NRGBA{200, 200, 200, 255}), DefaultLowThreshold, DefaultHighThreshold)
	if n := edges.Count(); n != 0 {
		t.Errorf("blank image produced %d edge pixels", n)
	}
	if _, ok := edges.Bounds(); ok {
		t.Error("blank image should have no edge bounds")
	}
}

func TestCanny_TinyImage(t *testing.T) {
	edges := Canny(newPage(2, 2, 0, 0, 1, 1), DefaultLowThreshold, DefaultHighThreshold)
	if edges.Width != 2 || edges.Height != 2 || edges.Count() != 0 {
		t.Errorf("tiny image: %dx%d with %d edges", edges.Width, edges.Height, edges.Count())
	}
}

func TestCanny_BlockOutline(t *testing.T) {
	edges := Canny(newPage(200, 150, 50, 40, 150, 110), DefaultLowThreshold, DefaultHighThreshold)

	r, ok := edges.Bounds()
	if !ok {
		t.Fatal("expected edges around the block")
	}
	if abs(r.X-50) > 3 || abs(r.Y-40) > 3 || abs(r.X+r.W-150) > 3 || abs(r.Y+r.H-110) > 3 {
		t.Errorf("edge bounds %+v do not hug block [50,150)x[40,110)", r)
	}

	// The inside of the block and the page margin stay clear.
	for _, p := range [][2]int{{100, 75}, {10, 10}, {190, 140}} {
		if edges.At(p[0], p[1]) {
			t.Errorf("unexpected edge at (%d,%d)", p[0], p[1])
		}
	}
}

func TestCanny_EdgesAreThin(t *testing.T) {
	edges := Canny(newPage(100, 100, 0, 0, 50, 100), DefaultLowThreshold, DefaultHighThreshold)

	// A vertical step should give an edge at most two pixels wide per row.
	for y := 10; y < 90; y++ {
		n := 0
		for x := 0; x < 100; x++ {
			if edges.At(x, y) {
				n++
			}
		}
		if n == 0 || n > 2 {
			t.Fatalf("row %d has %d edge pixels, want 1 or 2", y, n)
		}
	}
}

func TestCanny_ThresholdsOrder(t *testing.T) {
	page := newPage(80, 80, 20, 20, 60, 60)

	loose := Canny(page, 10, 40).Count()
	strict := Canny(page, 250, 255*8).Count()
	if strict > loose {
		t.Errorf("stricter thresholds found more edges: %d > %d", strict, loose)
	}
	if strict != 0 {
		t.Errorf("thresholds above any gradient should find nothing, got %d", strict)
	}
}

func TestEdgeMap_SetAt(t *testing.T) {
	m := NewEdgeMap(5, 4)
	m.Set(2, 3, true)
	m.Set(9, 9, true) // ignored

	if !m.At(2, 3) || m.At(3, 2) || m.At(-1, 0) {
		t.Error("At does not reflect Set")
	}
	if m.Count() != 1 {
		t.Errorf("Count: got %d, want 1", m.Count())
	}

	r, ok := m.Bounds()
	if !ok || r != (imaging.PixelRect{X: 2, Y: 3, W: 1, H: 1}) {
		t.Errorf("Bounds: got %+v %v", r, ok)
	}
}
