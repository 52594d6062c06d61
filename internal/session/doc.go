// Package session holds the interactive edit state for one image.
//
// A Session keeps two buffers: the original, which adjustments are always
// computed from, and the working buffer, which is what the user sees and
// what Export returns. Slider updates are debounced so a burst of
// UpdateAdjustment calls triggers one recomputation with the last values.
// Cropping flattens the current working buffer into a new original.
//
// # Concurrency
//
// Session state is owned by one goroutine reading an inbox of closures.
// Debounce timers and pipeline workers never touch state directly; they
// post back into the inbox. A newer computation cancels the one in flight
// through its context, and results that were superseded, or that belong to
// an image replaced by Load or a crop, are discarded.
//
// Debouncer is exported for reuse and can be used on its own.
package session
