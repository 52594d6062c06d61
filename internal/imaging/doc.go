// Package imaging provides the pixel-level core of the print optimizer.
//
// It implements the owned RGBA8 PixelBuffer, the brightness/contrast/sharpen
// adjustment pipeline, the fit-and-letterbox viewport mapping between display
// selections and source pixels, selection drag tracking, codec wrappers,
// preview rendering, and color sampling and tonal statistics.
//
// # Coordinate Systems
//
// Two coordinate spaces are used:
//   - Display space (float64): the surface the user draws selections on.
//     The image is scaled uniformly to fit it and centered, leaving
//     letterbox margins on the shorter axis.
//   - Source space (int): 0-based pixel coordinates of a PixelBuffer, with
//     (0,0) at the top-left corner, X increasing rightward and Y downward.
//
// MapSelectionToSource converts from display to source space and clamps
// the result to the buffer. RenderPreview and MapSourceToDisplay go the
// other way using the same ViewportGeometry.
//
// # Ownership
//
// Functions never modify a PixelBuffer passed to them. Every transform
// returns a newly allocated buffer, so an "original" buffer can be shared
// read-only while "working" buffers are derived from it. PixelBuffer.Image
// returns a view aliasing the pixel memory for use with image libraries;
// treat it as read-only.
//
// # Thread Safety
//
// PixelBuffer values are not synchronized. Read-only use from several
// goroutines is safe; the session package guarantees a single writer.
// Pipeline holds configuration only and may be shared.
//
// # Error Handling
//
// Selection and geometry problems are reported with the sentinel errors
// ErrSelectionTooSmall and ErrInvalidGeometry (test with errors.Is).
// Decode and encode failures are *CodecError values.
package imaging
