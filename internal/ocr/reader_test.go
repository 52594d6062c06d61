package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	imgproc "github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

// newTextPage renders text in basicfont on a white page and scales it up
// so Tesseract sees glyphs of a readable size.
func newTextPage(text string, scale int) *imaging.PixelBuffer {
	width := len(text)*7 + 40
	height := 40

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(20), Y: fixed.I(25)},
	}
	d.DrawString(text)

	return imaging.FromImage(imgproc.Resize(img, width*scale, height*scale, imgproc.NearestNeighbor))
}

func skipIfUnavailable(t *testing.T, err error) {
	t.Helper()
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tesseract") || strings.Contains(msg, "language") || strings.Contains(msg, "library") {
		t.Skipf("Tesseract not available: %v", err)
	}
}

func TestNewReader_DefaultLanguage(t *testing.T) {
	if got := NewReader("").Language(); got != DefaultLanguage {
		t.Errorf("Language: got %s, want %s", got, DefaultLanguage)
	}
	if got := NewReader("deu").Language(); got != "deu" {
		t.Errorf("Language: got %s, want deu", got)
	}
}

func TestSummarize(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 60, 40), Word: "HELLO", Confidence: 90},
		{Box: image.Rect(70, 20, 130, 40), Word: "WORLD", Confidence: 70},
		{Box: image.Rect(0, 0, 5, 5), Word: "", Confidence: 10},
	}

	res := summarize("HELLO WORLD\n", boxes, nil)

	if res.FullText != "HELLO WORLD\n" {
		t.Errorf("FullText: got %q", res.FullText)
	}
	if len(res.Words) != 2 {
		t.Fatalf("got %d words, want 2", len(res.Words))
	}
	want := Word{Text: "HELLO", Confidence: 0.9, Rect: imaging.PixelRect{X: 10, Y: 20, W: 50, H: 20}}
	if res.Words[0] != want {
		t.Errorf("first word: got %+v, want %+v", res.Words[0], want)
	}
	if res.MeanConfidence != 0.8 {
		t.Errorf("MeanConfidence: got %v, want 0.8", res.MeanConfidence)
	}
}

func TestSummarize_NoWords(t *testing.T) {
	res := summarize("", nil, nil)
	if res.Words == nil || len(res.Words) != 0 {
		t.Errorf("Words should be an empty slice, got %#v", res.Words)
	}
	if res.MeanConfidence != 0 {
		t.Errorf("MeanConfidence: got %v, want 0", res.MeanConfidence)
	}
}

func TestSummarize_WordBoxError(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 60, 40), Word: "HELLO", Confidence: 90},
	}
	tests := []struct {
		name      string
		boxes     []gosseract.BoundingBox
		boxErr    error
		wantWords int
		wantErr   string
	}{
		{"boxes available", boxes, nil, 1, ""},
		{"boxes failed", nil, errors.New("iterator unavailable"), 0, "iterator unavailable"},
		{"partial boxes ignored on failure", boxes, errors.New("layout failed"), 0, "layout failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := summarize("HELLO\n", tt.boxes, tt.boxErr)
			if res.FullText != "HELLO\n" {
				t.Errorf("FullText: got %q", res.FullText)
			}
			if len(res.Words) != tt.wantWords {
				t.Errorf("got %d words, want %d", len(res.Words), tt.wantWords)
			}
			if res.Words == nil {
				t.Error("Words should never be nil")
			}
			if res.WordsError != tt.wantErr {
				t.Errorf("WordsError: got %q, want %q", res.WordsError, tt.wantErr)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	buf := imaging.NewPixelBuffer(2, 1)
	copy(buf.Pix, []uint8{100, 100, 100, 255, 200, 200, 200, 255})

	if got := prepare(buf, Options{}); got != buf {
		t.Error("prepare without Binarize should return the buffer unchanged")
	}

	tests := []struct {
		name      string
		threshold uint8
		want      [2]uint8
	}{
		{"default threshold", 0, [2]uint8{0, 255}},
		{"low threshold", 50, [2]uint8{255, 255}},
		{"high threshold", 250, [2]uint8{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := prepare(buf, Options{Binarize: true, Threshold: tt.threshold})
			if out.Width != 2 || out.Height != 1 {
				t.Fatalf("dimensions: got %dx%d", out.Width, out.Height)
			}
			if out.Pix[0] != tt.want[0] || out.Pix[4] != tt.want[1] {
				t.Errorf("got %d,%d want %d,%d", out.Pix[0], out.Pix[4], tt.want[0], tt.want[1])
			}
		})
	}
}

func TestRead_EmptyImage(t *testing.T) {
	_, err := NewReader("").Read(context.Background(), imaging.NewPixelBuffer(0, 0), Options{})
	if err == nil {
		t.Error("Read should fail on an empty image")
	}
}

func TestRead_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader("").Read(ctx, newTextPage("TEST", 2), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRead_RenderedText(t *testing.T) {
	tests := []struct {
		name     string
		binarize bool
	}{
		{"plain", false},
		{"binarized", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewReader("eng").Read(context.Background(), newTextPage("HELLO WORLD", 4), Options{Binarize: tt.binarize})
			if err != nil {
				skipIfUnavailable(t, err)
				t.Fatalf("Read failed: %v", err)
			}

			if res.Language != "eng" || res.Binarized != tt.binarize {
				t.Errorf("result metadata: %+v", res)
			}
			if res.MeanConfidence < 0 || res.MeanConfidence > 1 {
				t.Errorf("MeanConfidence out of range: %v", res.MeanConfidence)
			}
			t.Logf("text %q, %d words, mean confidence %.2f", strings.TrimSpace(res.FullText), len(res.Words), res.MeanConfidence)
		})
	}
}

func TestRead_InvalidLanguage(t *testing.T) {
	_, err := NewReader("").Read(context.Background(), newTextPage("TEST", 2), Options{Language: "not_a_language"})
	if err == nil {
		t.Error("Read should fail for an unknown language")
	}
}
