package imaging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// PixelBuffer is an owned grid of straight-alpha RGBA8 pixels.
//
// Pixels are stored row-major with a stride of 4*Width bytes, in the same
// layout as image.NRGBA. The invariant len(Pix) == Width*Height*4 always
// holds for buffers produced by this package.
//
// A PixelBuffer is owned exclusively by whoever holds it. Functions in this
// package never modify a buffer passed to them; they return new buffers.
// Use Clone to obtain an independent copy before handing a buffer to code
// that may keep it.
type PixelBuffer struct {
	// Width is the buffer width in pixels.
	Width int

	// Height is the buffer height in pixels.
	Height int

	// Pix holds the pixel data as R, G, B, A bytes per pixel.
	Pix []uint8
}

// PixelRect is a rectangle in source pixel coordinates.
//
// (X, Y) is the top-left corner (inclusive). W and H may be zero or
// negative after clamping, which callers treat as an empty region.
type PixelRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the rectangle covers no pixels.
func (r PixelRect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Rectangle converts r to an image.Rectangle.
func (r PixelRect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// NewPixelBuffer allocates a zeroed (transparent black) buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage copies any image.Image into a new PixelBuffer.
//
// The source image is converted to straight-alpha RGBA8 and its bounds are
// translated so the buffer origin is (0,0). The result never aliases the
// source's pixel memory.
func FromImage(img image.Image) *PixelBuffer {
	return fromNRGBA(imaging.Clone(img))
}

// fromNRGBA adopts the pixel memory of img without copying. img must be
// freshly allocated by the caller and not retained elsewhere.
func fromNRGBA(img *image.NRGBA) *PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if img.Stride == w*4 && b.Min == (image.Point{}) {
		return &PixelBuffer{Width: w, Height: h, Pix: img.Pix[:w*h*4]}
	}
	// Sub-images and padded strides are repacked.
	out := NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		i := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*w*4:(y+1)*w*4], img.Pix[i:i+w*4])
	}
	return out
}

// Image returns an *image.NRGBA view over the buffer's pixel memory.
//
// The view aliases Pix: it must be treated as read-only unless the caller
// owns the buffer. It is the bridge to the imaging libraries, which accept
// image.Image and return freshly allocated results.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Bounds returns the buffer bounds, always anchored at (0,0).
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Clone returns a fully independent copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Crop returns a new buffer containing the pixels inside r.
//
// The rectangle must be non-empty and lie entirely inside the buffer;
// callers clamp display selections with MapSelectionToSource first.
func (b *PixelBuffer) Crop(r PixelRect) (*PixelBuffer, error) {
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region %dx%d: width and height must be positive", r.W, r.H)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.W > b.Width || r.Y+r.H > b.Height {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside buffer bounds (0,0)-(%d,%d)",
			r.X, r.Y, r.X+r.W, r.Y+r.H, b.Width, b.Height)
	}
	return fromNRGBA(imaging.Crop(b.Image(), r.Rectangle())), nil
}

// Equal reports whether two buffers have identical dimensions and pixels.
func (b *PixelBuffer) Equal(other *PixelBuffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.Width != other.Width || b.Height != other.Height || len(b.Pix) != len(other.Pix) {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Digest returns a hex SHA-256 of the dimensions and pixel data.
//
// Digests are used to report buffer identity to clients and to verify in
// tests that a buffer was not mutated.
func (b *PixelBuffer) Digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "%dx%d:", b.Width, b.Height)
	h.Write(b.Pix)
	return hex.EncodeToString(h.Sum(nil))
}
