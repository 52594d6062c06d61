package imaging

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RGBAColor represents a straight-alpha RGBA color with 8-bit components.
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex  string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGB  RGBColor  `json:"rgb"`  // RGB components
	RGBA RGBAColor `json:"rgba"` // RGBA components with alpha
	HSL  HSLColor  `json:"hsl"`  // HSL representation
}

// SampledColor is a ColorResult tagged with the pixel it was read from.
type SampledColor struct {
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// SampleColor returns the color at pixel (x, y) of buf.
//
// Coordinates are 0-based from the top-left corner. An error is returned
// when the point lies outside the buffer.
func SampleColor(buf *PixelBuffer, x, y int) (*SampledColor, error) {
	if x < 0 || x >= buf.Width || y < 0 || y >= buf.Height {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, buf.Width, buf.Height)
	}

	i := (y*buf.Width + x) * 4
	c := color.NRGBA{R: buf.Pix[i], G: buf.Pix[i+1], B: buf.Pix[i+2], A: buf.Pix[i+3]}

	return &SampledColor{X: x, Y: y, Color: describeColor(c)}, nil
}

func describeColor(c color.NRGBA) ColorResult {
	// Alpha is reported separately; the color model conversion uses the
	// opaque color so hue and lightness are not darkened by transparency.
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, l := cf.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return ColorResult{
		Hex:  fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
		RGB:  RGBColor{R: c.R, G: c.G, B: c.B},
		RGBA: RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL: HSLColor{
			H: int(h),
			S: int(s * 100),
			L: int(l * 100),
		},
	}
}

// ColorFrequency represents a color and its occurrence frequency.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64  `json:"percentage"` // Percentage of pixels with this color (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components (quantized)
}

// DominantColorsResult contains the most frequent colors, most common first.
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"`
}

// DominantColors returns the count most common colors of buf, or of region
// when it is non-nil.
//
// Components are quantized to multiples of 16 before counting so that
// near-identical shades group together. Fully transparent pixels are
// ignored.
func DominantColors(buf *PixelBuffer, count int, region *PixelRect) (*DominantColorsResult, error) {
	bounds := PixelRect{W: buf.Width, H: buf.Height}
	if region != nil {
		bounds = *region
		if bounds.Empty() || bounds.X < 0 || bounds.Y < 0 ||
			bounds.X+bounds.W > buf.Width || bounds.Y+bounds.H > buf.Height {
			return nil, fmt.Errorf("region (%d,%d) %dx%d outside image bounds %dx%d",
				bounds.X, bounds.Y, bounds.W, bounds.H, buf.Width, buf.Height)
		}
	}
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	type key struct{ r, g, b uint8 }
	counts := make(map[key]int)
	total := 0

	for y := bounds.Y; y < bounds.Y+bounds.H; y++ {
		for x := bounds.X; x < bounds.X+bounds.W; x++ {
			i := (y*buf.Width + x) * 4
			if buf.Pix[i+3] == 0 {
				continue
			}
			counts[key{buf.Pix[i] / 16 * 16, buf.Pix[i+1] / 16 * 16, buf.Pix[i+2] / 16 * 16}]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for k, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", k.r, k.g, k.b),
			Percentage: float64(n) / float64(total) * 100,
			RGB:        RGBColor{R: k.r, G: k.g, B: k.b},
		})
	}

	// Ties are broken by hex so the output is deterministic.
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}

	return &DominantColorsResult{Colors: colors}, nil
}
