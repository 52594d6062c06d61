package session

import "errors"

var (
	// ErrNoImageLoaded is returned by operations that need an image before
	// one has been loaded.
	ErrNoImageLoaded = errors.New("no image loaded")

	// ErrNoSelection is returned by Crop when no selection is visible.
	ErrNoSelection = errors.New("no selection")

	// ErrEmptyCropRegion is returned when a selection maps to a region with
	// no pixels, for example one lying entirely in the letterbox margin.
	ErrEmptyCropRegion = errors.New("crop region is empty")

	// ErrNothingToExport is returned by Export before an image is loaded.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
)
