package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
	"github.com/ironsheep/print-optimizer-mcp/internal/ocr"
	"github.com/ironsheep/print-optimizer-mcp/internal/session"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLogLevel      = "PRINT_OPTIMIZER_LOG_LEVEL"
	EnvDebounceMS    = "PRINT_OPTIMIZER_DEBOUNCE_MS"
	EnvSharpenMode   = "PRINT_OPTIMIZER_SHARPEN_MODE"
	EnvUnsharpAmount = "PRINT_OPTIMIZER_UNSHARP_AMOUNT"
	EnvJPEGQuality   = "PRINT_OPTIMIZER_JPEG_QUALITY"
	EnvOCRLanguage   = "PRINT_OPTIMIZER_OCR_LANGUAGE"
)

// Config holds the server settings.
type Config struct {
	// Debug enables per-request logging.
	Debug bool

	// DebounceInterval is the quiet period before an adjustment is computed.
	DebounceInterval time.Duration

	SharpenMode   imaging.SharpenMode
	UnsharpAmount float64

	// JPEGQuality is used by session_export when the format is JPEG.
	JPEGQuality int

	// OCRLanguage is the Tesseract language used when a session_ocr call
	// does not name one.
	OCRLanguage string
}

// DefaultConfig returns the settings used when no environment variable is set.
func DefaultConfig() Config {
	return Config{
		DebounceInterval: session.DefaultDebounceInterval,
		SharpenMode:      imaging.SharpenGaussian,
		UnsharpAmount:    1.0,
		JPEGQuality:      95,
		OCRLanguage:      ocr.DefaultLanguage,
	}
}

// ConfigFromEnv reads the configuration from the process environment.
func ConfigFromEnv() (Config, error) {
	return configFrom(os.Getenv)
}

func configFrom(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	cfg.Debug = getenv(EnvLogLevel) == "debug"

	if v := getenv(EnvDebounceMS); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return cfg, fmt.Errorf("%s: invalid value %q", EnvDebounceMS, v)
		}
		cfg.DebounceInterval = time.Duration(ms) * time.Millisecond
	}

	if v := getenv(EnvSharpenMode); v != "" {
		mode, err := imaging.ParseSharpenMode(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvSharpenMode, err)
		}
		cfg.SharpenMode = mode
	}

	if v := getenv(EnvUnsharpAmount); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil || amount <= 0 {
			return cfg, fmt.Errorf("%s: invalid value %q", EnvUnsharpAmount, v)
		}
		cfg.UnsharpAmount = amount
	}

	if v := getenv(EnvJPEGQuality); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 1 || q > 100 {
			return cfg, fmt.Errorf("%s: must be between 1 and 100, got %q", EnvJPEGQuality, v)
		}
		cfg.JPEGQuality = q
	}

	if v := getenv(EnvOCRLanguage); v != "" {
		cfg.OCRLanguage = v
	}

	return cfg, nil
}
