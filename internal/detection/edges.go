package detection

import (
	"math"

	imgproc "github.com/disintegration/imaging"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

// Default hysteresis thresholds on the 0-255 gradient scale.
const (
	DefaultLowThreshold  = 50
	DefaultHighThreshold = 150
)

// blurSigma matches the classic 5x5 Canny smoothing kernel.
const blurSigma = 1.4

// EdgeMap is a binary edge image with the dimensions of its source.
type EdgeMap struct {
	Width  int
	Height int
	edges  []bool
}

// NewEdgeMap returns an empty width x height edge map.
func NewEdgeMap(width, height int) *EdgeMap {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &EdgeMap{Width: width, Height: height, edges: make([]bool, width*height)}
}

// At reports whether (x, y) is an edge. Points outside the map are not.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.edges[y*m.Width+x]
}

// Set marks or clears (x, y). Points outside the map are ignored.
func (m *EdgeMap) Set(x, y int, edge bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.edges[y*m.Width+x] = edge
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, e := range m.edges {
		if e {
			n++
		}
	}
	return n
}

// Bounds returns the smallest rectangle containing every edge pixel, and
// false when there are none.
func (m *EdgeMap) Bounds() (imaging.PixelRect, bool) {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1
	for y := 0; y < m.Height; y++ {
		row := m.edges[y*m.Width : (y+1)*m.Width]
		for x, e := range row {
			if !e {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return imaging.PixelRect{}, false
	}
	return imaging.PixelRect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}, true
}

// Canny runs Canny edge detection on buf.
//
// The buffer is converted to BT.601 luminance and smoothed with a Gaussian
// of sigma 1.4. Sobel gradients are thinned by non-maximum suppression
// along the gradient direction, then hysteresis keeps every pixel at or
// above high and every pixel at or above low that is 8-connected to one.
// Thresholds are on the 0-255 scale; low is raised to high if above it.
func Canny(buf *imaging.PixelBuffer, low, high int) *EdgeMap {
	w, h := buf.Width, buf.Height
	m := NewEdgeMap(w, h)
	if w < 3 || h < 3 {
		return m
	}
	if low > high {
		low = high
	}

	smooth := imgproc.Blur(imgproc.Grayscale(buf.Image()), blurSigma)
	lum := make([]float64, w*h)
	for i := range lum {
		lum[i] = float64(smooth.Pix[i*4]) / 255
	}
	at := func(x, y int) float64 {
		return lum[clamp(y, 0, h-1)*w+clamp(x, 0, w-1)]
	}

	magnitude := make([]float64, w*h)
	direction := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			magnitude[y*w+x] = math.Hypot(gx, gy)
			direction[y*w+x] = math.Atan2(gy, gx)
		}
	}

	thin := suppressNonMaxima(magnitude, direction, w, h)

	lo := float64(low) / 255
	hi := float64(high) / 255
	var stack []int
	for i, v := range thin {
		if v > 0 && v >= hi {
			m.edges[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if !m.edges[j] && thin[j] > 0 && thin[j] >= lo {
					m.edges[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return m
}

// suppressNonMaxima keeps a gradient only where it is a local maximum
// across the edge. Border pixels are dropped.
func suppressNonMaxima(magnitude, direction []float64, w, h int) []float64 {
	thin := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			angle := direction[i]
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[i-1], magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[i-w-1], magnitude[i+w+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[i-w], magnitude[i+w]
			default:
				n1, n2 = magnitude[i-w+1], magnitude[i+w-1]
			}
			if magnitude[i] >= n1 && magnitude[i] >= n2 {
				thin[i] = magnitude[i]
			}
		}
	}
	return thin
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
