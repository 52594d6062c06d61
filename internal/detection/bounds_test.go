package detection

import (
	"errors"
	"image/color"
	"testing"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

func TestContentBounds(t *testing.T) {
	page := newPage(200, 150, 50, 40, 150, 110)

	tests := []struct {
		name   string
		margin int
		want   imaging.PixelRect
		tol    int
	}{
		{"tight", 0, imaging.PixelRect{X: 50, Y: 40, W: 100, H: 70}, 3},
		{"with margin", 10, imaging.PixelRect{X: 40, Y: 30, W: 120, H: 90}, 3},
		{"margin clamped to page", 100, imaging.PixelRect{X: 0, Y: 0, W: 200, H: 150}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContentBounds(page, Options{Margin: tt.margin})
			if err != nil {
				t.Fatalf("ContentBounds failed: %v", err)
			}
			if abs(got.X-tt.want.X) > tt.tol || abs(got.Y-tt.want.Y) > tt.tol ||
				abs(got.X+got.W-(tt.want.X+tt.want.W)) > tt.tol ||
				abs(got.Y+got.H-(tt.want.Y+tt.want.H)) > tt.tol {
				t.Errorf("got %+v, want about %+v", got, tt.want)
			}
			if got.X < 0 || got.Y < 0 || got.X+got.W > 200 || got.Y+got.H > 150 {
				t.Errorf("%+v leaves the page", got)
			}
		})
	}
}

func TestContentBounds_CropsCleanly(t *testing.T) {
	page := newPage(120, 90, 30, 20, 90, 70)

	r, err := ContentBounds(page, Options{Margin: 2})
	if err != nil {
		t.Fatalf("ContentBounds failed: %v", err)
	}
	if _, err := page.Crop(r); err != nil {
		t.Errorf("suggested rect %+v is not croppable: %v", r, err)
	}
}

func TestContentBounds_NoContent(t *testing.T) {
	blank := newFilled(100, 100, color.NRGBA{255, 255, 255, 255})

	for _, mode := range []Mode{ModeEdges, ModeText} {
		if _, err := ContentBounds(blank, Options{Mode: mode}); !errors.Is(err, ErrNoContent) {
			t.Errorf("mode %s: got %v, want ErrNoContent", mode, err)
		}
	}
}

func TestContentBounds_UnknownMode(t *testing.T) {
	_, err := ContentBounds(newFilled(10, 10, color.NRGBA{A: 255}), Options{Mode: "faces"})
	if err == nil || errors.Is(err, ErrNoContent) {
		t.Errorf("unknown mode: got %v", err)
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		r      imaging.PixelRect
		margin int
		want   imaging.PixelRect
	}{
		{imaging.PixelRect{X: 10, Y: 10, W: 5, H: 5}, 2, imaging.PixelRect{X: 8, Y: 8, W: 9, H: 9}},
		{imaging.PixelRect{X: 1, Y: 1, W: 5, H: 5}, 3, imaging.PixelRect{X: 0, Y: 0, W: 9, H: 9}},
		{imaging.PixelRect{X: 15, Y: 15, W: 5, H: 5}, 3, imaging.PixelRect{X: 12, Y: 12, W: 8, H: 8}},
		{imaging.PixelRect{X: 4, Y: 4, W: 2, H: 2}, -5, imaging.PixelRect{X: 4, Y: 4, W: 2, H: 2}},
	}
	for _, tt := range tests {
		if got := pad(tt.r, tt.margin, 20, 20); got != tt.want {
			t.Errorf("pad(%+v, %d): got %+v, want %+v", tt.r, tt.margin, got, tt.want)
		}
	}
}
