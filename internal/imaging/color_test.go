package imaging

import (
	"image/color"
	"testing"
)

func TestSampleColor(t *testing.T) {
	buf := newPatternBuffer(100, 100)

	tests := []struct {
		name    string
		x, y    int
		wantHex string
		wantHSL HSLColor
	}{
		{"red quadrant", 10, 10, "#FF0000", HSLColor{H: 0, S: 100, L: 50}},
		{"green quadrant", 90, 10, "#00FF00", HSLColor{H: 120, S: 100, L: 50}},
		{"blue quadrant", 10, 90, "#0000FF", HSLColor{H: 240, S: 100, L: 50}},
		{"white quadrant", 90, 90, "#FFFFFF", HSLColor{H: 0, S: 0, L: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SampleColor(buf, tt.x, tt.y)
			if err != nil {
				t.Fatalf("SampleColor failed: %v", err)
			}
			if got.X != tt.x || got.Y != tt.y {
				t.Errorf("position: got (%d,%d)", got.X, got.Y)
			}
			if got.Color.Hex != tt.wantHex {
				t.Errorf("Hex: got %s, want %s", got.Color.Hex, tt.wantHex)
			}
			if got.Color.HSL != tt.wantHSL {
				t.Errorf("HSL: got %+v, want %+v", got.Color.HSL, tt.wantHSL)
			}
			if got.Color.RGBA.A != 255 {
				t.Errorf("alpha: got %d, want 255", got.Color.RGBA.A)
			}
		})
	}
}

func TestSampleColor_KeepsAlpha(t *testing.T) {
	buf := newSolidBuffer(2, 2, color.NRGBA{10, 20, 30, 64})

	got, err := SampleColor(buf, 1, 1)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	want := RGBAColor{R: 10, G: 20, B: 30, A: 64}
	if got.Color.RGBA != want {
		t.Errorf("RGBA: got %+v, want %+v", got.Color.RGBA, want)
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	buf := newPatternBuffer(10, 10)

	points := [][2]int{{-1, 0}, {0, -1}, {10, 0}, {0, 10}, {100, 100}}
	for _, p := range points {
		if _, err := SampleColor(buf, p[0], p[1]); err == nil {
			t.Errorf("SampleColor(%d,%d) should fail", p[0], p[1])
		}
	}
}

func TestDominantColors(t *testing.T) {
	buf := newPatternBuffer(100, 100)

	result, err := DominantColors(buf, 10, nil)
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}
	if len(result.Colors) != 4 {
		t.Fatalf("got %d colors, want 4", len(result.Colors))
	}
	for _, c := range result.Colors {
		if c.Percentage != 25 {
			t.Errorf("%s: got %.2f%%, want 25%%", c.Hex, c.Percentage)
		}
	}
	// Equal shares are ordered by hex.
	if result.Colors[0].Hex != "#0000F0" {
		t.Errorf("first color: got %s, want #0000F0", result.Colors[0].Hex)
	}
}

func TestDominantColors_Count(t *testing.T) {
	buf := newPatternBuffer(100, 100)

	result, err := DominantColors(buf, 2, nil)
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}
	if len(result.Colors) != 2 {
		t.Errorf("got %d colors, want 2", len(result.Colors))
	}

	if _, err := DominantColors(buf, 0, nil); err == nil {
		t.Error("count 0 should fail")
	}
}

func TestDominantColors_Region(t *testing.T) {
	buf := newPatternBuffer(100, 100)

	result, err := DominantColors(buf, 5, &PixelRect{X: 0, Y: 0, W: 50, H: 50})
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}
	if len(result.Colors) != 1 {
		t.Fatalf("got %d colors, want 1", len(result.Colors))
	}
	if c := result.Colors[0]; c.Hex != "#F00000" || c.Percentage != 100 {
		t.Errorf("got %s at %.2f%%, want #F00000 at 100%%", c.Hex, c.Percentage)
	}

	bad := []PixelRect{
		{X: 60, Y: 0, W: 50, H: 10},
		{X: -1, Y: 0, W: 10, H: 10},
		{X: 0, Y: 0, W: 0, H: 10},
	}
	for _, r := range bad {
		r := r
		if _, err := DominantColors(buf, 5, &r); err == nil {
			t.Errorf("region %+v should fail", r)
		}
	}
}

func TestDominantColors_SkipsTransparent(t *testing.T) {
	buf := newSolidBuffer(10, 10, color.NRGBA{255, 255, 255, 0})
	for x := 0; x < 10; x++ {
		buf.Image().SetNRGBA(x, 0, color.NRGBA{0, 0, 0, 255})
	}

	result, err := DominantColors(buf, 5, nil)
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}
	if len(result.Colors) != 1 || result.Colors[0].Hex != "#000000" {
		t.Errorf("expected only opaque black, got %+v", result.Colors)
	}
}
