// Package detection finds content in scanned pages so a crop can be
// suggested.
//
// Canny produces a thin binary edge map: luminance, Gaussian smoothing,
// Sobel gradients, non-maximum suppression and hysteresis. ContentBounds
// turns that map into a crop rectangle, either the bounding box of every
// edge or of the regions TextBlocks classifies as printed text.
//
// All rectangles are imaging.PixelRect values in source pixel coordinates.
// The functions are pure and safe for concurrent use.
package detection
