package imaging

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeDecode_PNGLossless(t *testing.T) {
	src := newPatternBuffer(40, 30)
	src.Pix[3] = 128 // one translucent pixel

	data, err := EncodeBytes(src, FormatPNG, EncodeOptions{})
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}

	got, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(src) {
		t.Error("PNG round trip changed pixels")
	}
}

func TestEncode_Formats(t *testing.T) {
	src := newSolidBuffer(16, 12, color.NRGBA{200, 100, 50, 255})

	tests := []struct {
		format     Format
		wantFormat string
	}{
		{FormatPNG, "png"},
		{FormatJPEG, "jpeg"},
		{FormatGIF, "gif"},
		{FormatBMP, "bmp"},
		{FormatTIFF, "tiff"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			data, err := EncodeBytes(src, tt.format, EncodeOptions{JPEGQuality: 90})
			if err != nil {
				t.Fatalf("EncodeBytes failed: %v", err)
			}
			if got := DetectFormat(data); got != tt.wantFormat {
				t.Errorf("DetectFormat: got %s, want %s", got, tt.wantFormat)
			}

			decoded, err := Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if decoded.Width != 16 || decoded.Height != 12 {
				t.Errorf("dimensions: got %dx%d, want 16x12", decoded.Width, decoded.Height)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not an image"))
	if err == nil {
		t.Fatal("Decode should fail for garbage input")
	}

	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("error should be *CodecError, got %T", err)
	}
	if codecErr.Op != "decode" {
		t.Errorf("Op: got %s, want decode", codecErr.Op)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPNG, false},
		{"png", FormatPNG, false},
		{".PNG", FormatPNG, false},
		{"jpg", FormatJPEG, false},
		{"jpeg", FormatJPEG, false},
		{".tif", FormatTIFF, false},
		{"bmp", FormatBMP, false},
		{"gif", FormatGIF, false},
		{"webp", "", true},
		{"psd", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormat_MimeType(t *testing.T) {
	if got := FormatJPEG.MimeType(); got != "image/jpeg" {
		t.Errorf("JPEG: got %s", got)
	}
	if got := FormatPNG.MimeType(); got != "image/png" {
		t.Errorf("PNG: got %s", got)
	}
}

func TestSaveFile_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	src := newPatternBuffer(20, 20)

	if err := SaveFile(path, src, "", EncodeOptions{}); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !got.Equal(src) {
		t.Error("saved and loaded buffers differ")
	}
}

func TestSaveFile_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xyz")
	err := SaveFile(path, newPatternBuffer(4, 4), "", EncodeOptions{})

	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("expected *CodecError, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no file should be written on failure")
	}
}

func TestLoadFile_NonExistent(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/image.png")

	var codecErr *CodecError
	if !errors.As(err, &codecErr) || codecErr.Op != "open" {
		t.Errorf("expected open CodecError, got %v", err)
	}
}

func TestDescribeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	src := newSolidBuffer(32, 24, color.NRGBA{10, 20, 30, 255})
	if err := SaveFile(path, src, "", EncodeOptions{}); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	info, buf, err := DescribeFile(path)
	if err != nil {
		t.Fatalf("DescribeFile failed: %v", err)
	}
	if info.Width != 32 || info.Height != 24 {
		t.Errorf("dimensions: got %dx%d, want 32x24", info.Width, info.Height)
	}
	if info.Format != "jpeg" {
		t.Errorf("Format: got %s, want jpeg", info.Format)
	}
	if info.HasAlpha {
		t.Error("JPEG should not report alpha")
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
	}
	if buf.Width != 32 {
		t.Errorf("buffer width: got %d", buf.Width)
	}
}

func TestHasAlpha(t *testing.T) {
	opaque := newSolidBuffer(3, 3, color.NRGBA{1, 2, 3, 255})
	if HasAlpha(opaque) {
		t.Error("opaque buffer reported alpha")
	}

	opaque.Pix[len(opaque.Pix)-1] = 0
	if !HasAlpha(opaque) {
		t.Error("transparent pixel not detected")
	}
}
