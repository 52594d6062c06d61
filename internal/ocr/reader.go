package ocr

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/anthonynsimon/bild/segment"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// DefaultThreshold is the binarization level used when none is given.
const DefaultThreshold = 128

// Options tunes a single Read.
type Options struct {
	// Language overrides the Reader's language for this call.
	Language string

	// Binarize converts the page to pure black and white before
	// recognition, which often helps on yellowed or low-contrast scans.
	Binarize bool

	// Threshold is the luminance level separating black from white when
	// Binarize is set. Zero means DefaultThreshold.
	Threshold uint8
}

// Word is one recognized word.
type Word struct {
	Text string `json:"text"`

	// Confidence ranges from 0 to 1.
	Confidence float64 `json:"confidence"`

	Rect imaging.PixelRect `json:"rect"`
}

// Result is the outcome of a Read.
type Result struct {
	FullText string `json:"full_text"`
	Words    []Word `json:"words"`

	// MeanConfidence averages word confidences, 0 when nothing was read.
	MeanConfidence float64 `json:"mean_confidence"`

	Language  string `json:"language"`
	Binarized bool   `json:"binarized"`

	// WordsError is set when Tesseract recognized text but could not
	// report word boxes. Words is then empty even though FullText is not.
	WordsError string `json:"words_error,omitempty"`
}

// Reader runs Tesseract on pixel buffers. Each Read uses its own engine
// instance, so a Reader may be shared.
type Reader struct {
	language string
}

// NewReader returns a Reader for language, or DefaultLanguage when empty.
func NewReader(language string) *Reader {
	if language == "" {
		language = DefaultLanguage
	}
	return &Reader{language: language}
}

// Language returns the default language of r.
func (r *Reader) Language() string {
	return r.language
}

// Read recognizes the text in buf.
//
// Tesseract cannot be interrupted, so ctx is only checked before work
// starts.
func (r *Reader) Read(ctx context.Context, buf *imaging.PixelBuffer, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if buf == nil || buf.Width == 0 || buf.Height == 0 {
		return nil, fmt.Errorf("ocr: empty image")
	}

	language := opts.Language
	if language == "" {
		language = r.language
	}

	data, err := imaging.EncodeBytes(prepare(buf, opts), imaging.FormatPNG, imaging.EncodeOptions{})
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	// Some Tesseract builds fail here while still returning text.
	boxes, boxErr := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if boxErr != nil {
		log.Printf("ocr: word boxes unavailable: %v", boxErr)
	}

	res := summarize(text, boxes, boxErr)
	res.Language = language
	res.Binarized = opts.Binarize
	return res, nil
}

// prepare returns the buffer Tesseract sees: buf itself, or a thresholded
// black and white copy.
func prepare(buf *imaging.PixelBuffer, opts Options) *imaging.PixelBuffer {
	if !opts.Binarize {
		return buf
	}
	level := opts.Threshold
	if level == 0 {
		level = DefaultThreshold
	}
	return imaging.FromImage(segment.Threshold(buf.Image(), level))
}

func summarize(text string, boxes []gosseract.BoundingBox, boxErr error) *Result {
	res := &Result{FullText: text, Words: []Word{}}
	if boxErr != nil {
		res.WordsError = boxErr.Error()
		return res
	}

	var sum float64
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		conf := float64(box.Confidence) / 100
		res.Words = append(res.Words, Word{
			Text:       box.Word,
			Confidence: conf,
			Rect: imaging.PixelRect{
				X: box.Box.Min.X,
				Y: box.Box.Min.Y,
				W: box.Box.Dx(),
				H: box.Box.Dy(),
			},
		})
		sum += conf
	}
	if n := len(res.Words); n > 0 {
		res.MeanConfidence = math.Round(sum/float64(n)*1000) / 1000
	}
	return res
}

// Version returns the version of the linked Tesseract library.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
