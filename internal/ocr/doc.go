// Package ocr checks that text in a scanned page is still legible.
//
// It wraps the Tesseract engine through gosseract/v2. A Reader encodes a
// PixelBuffer to PNG in memory, optionally binarizing it first, and
// reports the recognized text, per-word boxes and the mean word
// confidence. Watching the mean confidence while adjusting brightness,
// contrast and sharpening shows whether the adjustments help or hurt
// readability of the printed result.
//
// # Prerequisites
//
// The Tesseract library and the language data must be installed:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Languages use Tesseract codes such as "eng", "deu" or "fra".
package ocr
