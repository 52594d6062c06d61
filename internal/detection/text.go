package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

// TextBlock is a region whose edge structure looks like lines of text.
type TextBlock struct {
	Rect       imaging.PixelRect `json:"rect"`
	Confidence float64           `json:"confidence"`
}

// Window sizes scanned for text, roughly one to three words of body text
// at scanning resolution.
var textWindows = []struct{ w, h int }{
	{80, 25},
	{100, 30},
	{150, 40},
	{200, 50},
}

// TextBlocks finds regions of edges whose density and horizontal structure
// match printed text. Overlapping hits are merged. Blocks are ordered by
// confidence, highest first.
func TextBlocks(edges *EdgeMap, minConfidence float64) []TextBlock {
	sum := edges.integral()

	var candidates []TextBlock
	for _, win := range textWindows {
		if win.w > edges.Width || win.h > edges.Height {
			continue
		}
		stepX, stepY := win.w/2, win.h/2
		area := float64(win.w * win.h)

		for y := 0; y+win.h <= edges.Height; y += stepY {
			for x := 0; x+win.w <= edges.Width; x += stepX {
				density := float64(sum.count(x, y, win.w, win.h)) / area
				// Sparse windows are background, dense ones are texture.
				if density < 0.05 || density > 0.4 {
					continue
				}

				score := horizontalScore(edges, x, y, win.w, win.h)
				confidence := score * (1 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence {
					continue
				}
				candidates = append(candidates, TextBlock{
					Rect:       imaging.PixelRect{X: x, Y: y, W: win.w, H: win.h},
					Confidence: math.Round(confidence*1000) / 1000,
				})
			}
		}
	}

	blocks := mergeBlocks(candidates)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Confidence > blocks[j].Confidence
	})
	return blocks
}

// horizontalScore is the share of horizontal edge runs among all runs in
// the window. Lines of text produce many short horizontal runs.
func horizontalScore(edges *EdgeMap, x, y, w, h int) float64 {
	horizontal, vertical := 0, 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			e := edges.At(col, row)
			if e && !inRun {
				horizontal++
			}
			inRun = e
		}
	}
	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			e := edges.At(col, row)
			if e && !inRun {
				vertical++
			}
			inRun = e
		}
	}

	if horizontal+vertical == 0 {
		return 0
	}
	return float64(horizontal) / float64(horizontal+vertical)
}

// mergeBlocks folds overlapping blocks into their union, repeating until
// no two blocks overlap.
func mergeBlocks(blocks []TextBlock) []TextBlock {
	merged := append([]TextBlock(nil), blocks...)
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged) && !changed; i++ {
			for j := i + 1; j < len(merged); j++ {
				if !overlaps(merged[i].Rect, merged[j].Rect) {
					continue
				}
				merged[i].Rect = union(merged[i].Rect, merged[j].Rect)
				merged[i].Confidence = math.Max(merged[i].Confidence, merged[j].Confidence)
				merged = append(merged[:j], merged[j+1:]...)
				changed = true
				break
			}
		}
	}
	return merged
}

func overlaps(a, b imaging.PixelRect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X && a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

func union(a, b imaging.PixelRect) imaging.PixelRect {
	x0, y0 := min(a.X, b.X), min(a.Y, b.Y)
	x1, y1 := max(a.X+a.W, b.X+b.W), max(a.Y+a.H, b.Y+b.H)
	return imaging.PixelRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// integralImage holds running edge counts for constant-time window sums.
type integralImage struct {
	stride int
	sums   []int
}

func (m *EdgeMap) integral() integralImage {
	stride := m.Width + 1
	sums := make([]int, stride*(m.Height+1))
	for y := 0; y < m.Height; y++ {
		rowSum := 0
		for x := 0; x < m.Width; x++ {
			if m.edges[y*m.Width+x] {
				rowSum++
			}
			sums[(y+1)*stride+x+1] = sums[y*stride+x+1] + rowSum
		}
	}
	return integralImage{stride: stride, sums: sums}
}

func (s integralImage) count(x, y, w, h int) int {
	a := s.sums[y*s.stride+x]
	b := s.sums[y*s.stride+x+w]
	c := s.sums[(y+h)*s.stride+x]
	d := s.sums[(y+h)*s.stride+x+w]
	return d - b - c + a
}
