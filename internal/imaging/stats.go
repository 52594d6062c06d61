package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/histogram"
	"gonum.org/v1/gonum/stat"
)

// Shadow and highlight clipping thresholds on 8-bit luminance.
const (
	shadowClipLevel    = 2
	highlightClipLevel = 253
)

// ChannelStats summarizes one 8-bit channel.
type ChannelStats struct {
	Mean float64 `json:"mean"`
	Min  int     `json:"min"`
	Max  int     `json:"max"`
}

// ImageStats describes the tonal distribution of a buffer: the figures a
// print operator watches while adjusting brightness and contrast.
type ImageStats struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Red   ChannelStats `json:"red"`
	Green ChannelStats `json:"green"`
	Blue  ChannelStats `json:"blue"`

	// LuminanceMean and LuminanceStdDev use Rec. 601 weights on 0-255.
	LuminanceMean   float64 `json:"luminance_mean"`
	LuminanceStdDev float64 `json:"luminance_stddev"`

	// ShadowClipPercent is the share of pixels at or below luminance 2.
	ShadowClipPercent float64 `json:"shadow_clip_percent"`

	// HighlightClipPercent is the share of pixels at or above luminance 253.
	HighlightClipPercent float64 `json:"highlight_clip_percent"`

	// Digest identifies the exact pixel content.
	Digest string `json:"digest"`
}

// ComputeStats returns channel and luminance statistics for buf.
func ComputeStats(buf *PixelBuffer) *ImageStats {
	st := &ImageStats{
		Width:  buf.Width,
		Height: buf.Height,
		Digest: buf.Digest(),
	}
	n := buf.Width * buf.Height
	if n == 0 {
		return st
	}

	h := histogram.NewRGBAHistogram(buf.Image())
	st.Red = channelStats(h.R.Bins, n)
	st.Green = channelStats(h.G.Bins, n)
	st.Blue = channelStats(h.B.Bins, n)

	lum := make([]float64, n)
	shadows, highlights := 0, 0
	for i := 0; i < n; i++ {
		p := buf.Pix[i*4 : i*4+3]
		l := 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		lum[i] = l
		switch {
		case l <= shadowClipLevel:
			shadows++
		case l >= highlightClipLevel:
			highlights++
		}
	}

	mean, std := stat.MeanStdDev(lum, nil)
	if math.IsNaN(std) {
		std = 0
	}
	st.LuminanceMean = round2(mean)
	st.LuminanceStdDev = round2(std)
	st.ShadowClipPercent = round2(float64(shadows) / float64(n) * 100)
	st.HighlightClipPercent = round2(float64(highlights) / float64(n) * 100)
	return st
}

func channelStats(bins []int, n int) ChannelStats {
	cs := ChannelStats{Min: -1}
	var sum float64
	for v, count := range bins {
		if count == 0 {
			continue
		}
		if cs.Min < 0 {
			cs.Min = v
		}
		cs.Max = v
		sum += float64(v) * float64(count)
	}
	if cs.Min < 0 {
		cs.Min = 0
	}
	cs.Mean = round2(sum / float64(n))
	return cs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
