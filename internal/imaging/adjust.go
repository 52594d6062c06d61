package imaging

import (
	"context"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// AdjustmentParams carries the slider values driving the pipeline.
//
// Brightness and Contrast are fractional deltas: 0 leaves the image
// unchanged, 1 is +100%, -1 is -100%. Both are multiplied by Total before
// application. Sharpen is the Gaussian sigma (or unsharp radius) and only
// applies when greater than zero. No range is enforced; values beyond the
// nominal range saturate.
type AdjustmentParams struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Sharpen    float64 `json:"sharpen"`
	Total      float64 `json:"total"`
}

// SharpenMode selects the sharpening convolution.
type SharpenMode string

const (
	// SharpenGaussian sharpens by subtracting a Gaussian blur of the given sigma.
	SharpenGaussian SharpenMode = "gaussian"

	// SharpenUnsharp applies an unsharp mask with the given radius.
	SharpenUnsharp SharpenMode = "unsharp"
)

// ParseSharpenMode converts a configuration string to a SharpenMode.
// An empty string selects SharpenGaussian.
func ParseSharpenMode(s string) (SharpenMode, error) {
	switch SharpenMode(s) {
	case "", SharpenGaussian:
		return SharpenGaussian, nil
	case SharpenUnsharp:
		return SharpenUnsharp, nil
	default:
		return "", fmt.Errorf("unknown sharpen mode: %s", s)
	}
}

// Pipeline applies brightness, contrast and sharpening in that fixed order.
//
// A Pipeline holds configuration only and no per-call state, so one value
// may be shared by concurrent callers.
type Pipeline struct {
	// Mode selects the sharpening convolution. Zero value means SharpenGaussian.
	Mode SharpenMode

	// UnsharpAmount is the mask strength used by SharpenUnsharp.
	// Zero value means 1.0.
	UnsharpAmount float64
}

// Apply runs the default pipeline. See Pipeline.Apply.
func Apply(src *PixelBuffer, p AdjustmentParams) *PixelBuffer {
	out, _ := Pipeline{}.Apply(context.Background(), src, p)
	return out
}

// Apply derives a new buffer from src according to p.
//
// src is never modified and the result never aliases it. Identical inputs
// always produce bit-identical output. Stages whose effective amount is
// exactly zero are skipped, so zero params yield a pixel-identical copy.
//
// ctx is checked between stages; when it is cancelled Apply stops and
// returns ctx.Err() with a nil buffer.
func (pl Pipeline) Apply(ctx context.Context, src *PixelBuffer, p AdjustmentParams) (*PixelBuffer, error) {
	var img image.Image = src.Image()
	changed := false

	if amount := p.Brightness * p.Total; p.Brightness != 0 && amount != 0 {
		img = imaging.AdjustBrightness(img, amount*100)
		changed = true
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if amount := p.Contrast * p.Total; p.Contrast != 0 && amount != 0 {
		img = imaging.AdjustContrast(img, amount*100)
		changed = true
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if p.Sharpen > 0 {
		img = pl.sharpen(img, p.Sharpen)
		changed = true
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if !changed {
		return src.Clone(), nil
	}
	// Every stage allocates its result, so img never aliases src here.
	if out, ok := img.(*image.NRGBA); ok {
		return fromNRGBA(out), nil
	}
	return fromNRGBA(imaging.Clone(img)), nil
}

func (pl Pipeline) sharpen(img image.Image, amount float64) image.Image {
	switch pl.Mode {
	case SharpenUnsharp:
		strength := pl.UnsharpAmount
		if strength == 0 {
			strength = 1.0
		}
		return effect.UnsharpMask(img, amount, strength)
	default:
		return imaging.Sharpen(img, amount)
	}
}
