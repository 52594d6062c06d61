package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// CodecError reports a decode or encode failure from the image codec.
//
// Codec failures never leave partial state behind: callers receive no
// buffer and the session is not modified.
type CodecError struct {
	// Op is "decode", "encode", "open" or "save".
	Op string

	// Err is the underlying error.
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("failed to %s image: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Format identifies an encoded image format.
type Format string

// Supported output formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// ParseFormat converts a format name or file extension ("jpg", ".png",
// "TIFF") to a Format. An empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unsupported image format: %s", s)
	}
}

// MimeType returns the MIME type for the format.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

func (f Format) imagingFormat() imaging.Format {
	switch f {
	case FormatJPEG:
		return imaging.JPEG
	case FormatGIF:
		return imaging.GIF
	case FormatBMP:
		return imaging.BMP
	case FormatTIFF:
		return imaging.TIFF
	default:
		return imaging.PNG
	}
}

// EncodeOptions tunes Encode. The zero value uses library defaults.
type EncodeOptions struct {
	// JPEGQuality ranges from 1 to 100. Zero means 95.
	JPEGQuality int
}

// Decode reads an encoded image and returns it as a PixelBuffer.
//
// PNG, JPEG, GIF, BMP, TIFF and WebP are supported. EXIF orientation is
// applied so the buffer is upright.
func Decode(r io.Reader) (*PixelBuffer, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &CodecError{Op: "decode", Err: err}
	}
	return FromImage(img), nil
}

// Encode writes buf to w in the given format.
func Encode(w io.Writer, buf *PixelBuffer, format Format, opts EncodeOptions) error {
	var encOpts []imaging.EncodeOption
	if opts.JPEGQuality > 0 {
		encOpts = append(encOpts, imaging.JPEGQuality(opts.JPEGQuality))
	}
	if err := imaging.Encode(w, buf.Image(), format.imagingFormat(), encOpts...); err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	return nil
}

// EncodeBytes encodes buf and returns the encoded bytes.
func EncodeBytes(buf *PixelBuffer, format Format, opts EncodeOptions) ([]byte, error) {
	var out bytes.Buffer
	if err := Encode(&out, buf, format, opts); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// LoadFile opens and decodes the image at path.
func LoadFile(path string) (*PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CodecError{Op: "open", Err: err}
	}
	defer f.Close()

	return Decode(f)
}

// SaveFile encodes buf to path. When format is empty it is derived from
// the file extension. The file is written in full or not replaced at all.
func SaveFile(path string, buf *PixelBuffer, format Format, opts EncodeOptions) error {
	if format == "" {
		f, err := ParseFormat(filepath.Ext(path))
		if err != nil {
			return &CodecError{Op: "save", Err: err}
		}
		format = f
	}

	data, err := EncodeBytes(buf, format, opts)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &CodecError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &CodecError{Op: "save", Err: err}
	}
	return nil
}

// ImageInfo contains metadata about a loaded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected encoding: "png", "jpeg", "gif", "bmp", "tiff",
	// "webp", or "unknown". Detection is based on file contents.
	Format string `json:"format"`

	// HasAlpha reports whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the encoded file in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// DetectFormat sniffs the encoded format from the first bytes of data.
func DetectFormat(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "unknown"
	}
	return format
}

// DescribeFile returns metadata for an encoded image file and the decoded
// buffer, so callers do not read the file twice.
func DescribeFile(path string) (*ImageInfo, *PixelBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &CodecError{Op: "open", Err: err}
	}

	buf, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}

	return &ImageInfo{
		Width:         buf.Width,
		Height:        buf.Height,
		Format:        DetectFormat(data),
		HasAlpha:      HasAlpha(buf),
		FileSizeBytes: int64(len(data)),
	}, buf, nil
}

// HasAlpha reports whether any pixel of buf is not fully opaque.
func HasAlpha(buf *PixelBuffer) bool {
	for i := 3; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 0xff {
			return true
		}
	}
	return false
}
