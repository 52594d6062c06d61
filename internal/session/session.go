package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
)

// Pipeline computes an adjusted copy of src. imaging.Pipeline satisfies it.
type Pipeline interface {
	Apply(ctx context.Context, src *imaging.PixelBuffer, p imaging.AdjustmentParams) (*imaging.PixelBuffer, error)
}

// Option configures a Session.
type Option func(*Session)

// WithPipeline sets the adjustment pipeline. The default is a zero
// imaging.Pipeline (Gaussian sharpening).
func WithPipeline(p Pipeline) Option {
	return func(s *Session) {
		s.pipeline = p
	}
}

// WithLogger sets the logger for rejected geometry and discarded results.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithDebounceInterval sets the quiet period between the last
// UpdateAdjustment and the recomputation it triggers.
func WithDebounceInterval(d time.Duration) Option {
	return func(s *Session) {
		s.interval = d
	}
}

// Info is a snapshot of session state.
type Info struct {
	Loaded bool `json:"loaded"`
	Width  int  `json:"width"`
	Height int  `json:"height"`

	Params imaging.AdjustmentParams `json:"params"`

	// Adjusted is true once an adjustment was requested since the last
	// load or crop. Until then Params holds the zero value.
	Adjusted bool `json:"adjusted"`

	Selection *imaging.SelectionRect `json:"selection,omitempty"`
	Dragging  bool                   `json:"dragging"`

	// Pending is true while an adjustment waits for the debounce interval
	// or for the worker to become free.
	Pending bool `json:"pending"`

	// Computing is true while the pipeline runs.
	Computing bool `json:"computing"`

	// Applied counts adjustment results committed since the last load or crop.
	Applied uint64 `json:"applied"`

	// Crops counts crops committed since the last load.
	Crops int `json:"crops"`
}

type adjustRequest struct {
	epoch  uint64
	params imaging.AdjustmentParams
}

type job struct {
	gen    uint64
	src    *imaging.PixelBuffer
	params imaging.AdjustmentParams
}

// Session is an interactive edit session over one image.
//
// All state is owned by a single goroutine that executes closures posted
// to its inbox; public methods post a closure and wait for the reply.
// Pipeline work runs on a separate worker goroutine, at most one at a
// time, and its result is posted back to the owner.
//
// A Session is safe for concurrent use. Call Close to release it.
type Session struct {
	inbox     chan func()
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	pipeline Pipeline
	logger   *log.Logger
	interval time.Duration
	debounce *Debouncer[adjustRequest]

	// Everything below is touched only by the run goroutine.

	original  *imaging.PixelBuffer
	working   *imaging.PixelBuffer
	params    imaging.AdjustmentParams
	adjusted  bool
	selection imaging.SelectionTracker

	// epoch changes on load and crop; requests from an older epoch are dropped.
	epoch uint64

	// gen changes whenever a newer computation supersedes the current one.
	// Only a result whose job.gen matches is committed.
	gen uint64

	queued    bool
	running   bool
	cancelRun context.CancelFunc
	next      *job
	waiters   []chan struct{}

	applied uint64
	crops   int
}

// New starts a Session with no image loaded.
func New(opts ...Option) *Session {
	s := &Session{
		inbox:    make(chan func(), 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		pipeline: imaging.Pipeline{},
		logger:   log.Default(),
		interval: DefaultDebounceInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.debounce = NewDebouncer(s.interval, func(r adjustRequest) {
		s.post(func() { s.schedule(r) })
	})

	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case f := <-s.inbox:
			f()
		case <-s.done:
			return
		}
	}
}

// post queues f for the run goroutine. It returns false once closed.
func (s *Session) post(f func()) bool {
	select {
	case s.inbox <- f:
		return true
	case <-s.done:
		return false
	}
}

// call runs f on the run goroutine and returns its error.
func (s *Session) call(f func() error) error {
	reply := make(chan error, 1)
	if !s.post(func() { reply <- f() }) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// Load replaces the session image with buf. Pending and in-flight
// adjustments are dropped, params reset to zero and the selection cleared.
//
// The session takes ownership of buf; callers must not modify it afterwards.
func (s *Session) Load(buf *imaging.PixelBuffer) error {
	if buf == nil {
		return errors.New("load: nil buffer")
	}
	return s.call(func() error {
		s.reset()
		s.original = buf
		s.working = buf.Clone()
		s.crops = 0
		return nil
	})
}

// LoadFile decodes the image at path and loads it. On a codec error the
// session is left untouched.
func (s *Session) LoadFile(path string) error {
	buf, err := imaging.LoadFile(path)
	if err != nil {
		return err
	}
	return s.Load(buf)
}

// Decode decodes an image from r and loads it. On a codec error the
// session is left untouched.
func (s *Session) Decode(r io.Reader) error {
	buf, err := imaging.Decode(r)
	if err != nil {
		return err
	}
	return s.Load(buf)
}

// UpdateAdjustment records new slider values. The working buffer is
// recomputed from the original once no further update has arrived for the
// debounce interval.
func (s *Session) UpdateAdjustment(p imaging.AdjustmentParams) error {
	return s.call(func() error {
		if s.original == nil {
			return ErrNoImageLoaded
		}
		s.params = p
		s.adjusted = true
		s.queued = true
		s.debounce.Notify(adjustRequest{epoch: s.epoch, params: p})
		return nil
	})
}

// schedule hands a debounced request to the worker.
func (s *Session) schedule(r adjustRequest) {
	s.queued = s.debounce.Pending()
	if r.epoch != s.epoch || s.original == nil {
		s.checkIdle()
		return
	}

	s.gen++
	j := &job{gen: s.gen, src: s.original, params: r.params}
	if s.running {
		s.cancelRun()
		s.next = j
		return
	}
	s.start(j)
}

func (s *Session) start(j *job) {
	ctx, cancel := context.WithCancel(s.ctx)
	s.running = true
	s.cancelRun = cancel

	go func() {
		out, err := s.pipeline.Apply(ctx, j.src, j.params)
		s.post(func() { s.finish(j, out, err) })
	}()
}

func (s *Session) finish(j *job, out *imaging.PixelBuffer, err error) {
	s.running = false
	s.cancelRun()
	s.cancelRun = nil

	switch {
	case errors.Is(err, context.Canceled):
	case err != nil:
		s.logger.Printf("adjustment failed: %v", err)
	case j.gen != s.gen:
		s.logger.Printf("discarding stale adjustment result (generation %d, current %d)", j.gen, s.gen)
	default:
		s.working = out
		s.applied++
	}

	if n := s.next; n != nil {
		s.next = nil
		s.start(n)
	}
	s.checkIdle()
}

// reset drops every pending or in-flight adjustment and clears params and
// selection. Results still in flight become stale.
func (s *Session) reset() {
	s.debounce.Cancel()
	s.queued = false
	if s.running {
		s.cancelRun()
	}
	s.next = nil
	s.epoch++
	s.gen++
	s.params = imaging.AdjustmentParams{}
	s.adjusted = false
	s.selection.Clear()
	s.applied = 0
	s.checkIdle()
}

func (s *Session) idle() bool {
	return !s.queued && !s.running && s.next == nil
}

func (s *Session) checkIdle() {
	if !s.idle() {
		return
	}
	for _, w := range s.waiters {
		close(w)
	}
	s.waiters = nil
}

// BeginSelection starts a selection drag at p in display coordinates.
func (s *Session) BeginSelection(p imaging.Point) error {
	return s.call(func() error {
		if s.original == nil {
			return ErrNoImageLoaded
		}
		s.selection.Begin(p)
		return nil
	})
}

// MoveSelection extends the active drag to p. It does nothing when no
// drag is active.
func (s *Session) MoveSelection(p imaging.Point) error {
	return s.call(func() error {
		s.selection.Move(p)
		return nil
	})
}

// EndSelection finishes the drag; the selection stays visible.
func (s *Session) EndSelection() error {
	return s.call(func() error {
		s.selection.End()
		return nil
	})
}

// ClearSelection hides the selection.
func (s *Session) ClearSelection() error {
	return s.call(func() error {
		s.selection.Clear()
		return nil
	})
}

// SetSelection replaces the selection with r in display coordinates.
func (s *Session) SetSelection(r imaging.SelectionRect) error {
	return s.call(func() error {
		if s.original == nil {
			return ErrNoImageLoaded
		}
		s.selection.Set(r)
		return nil
	})
}

// Selection returns the visible selection, if any.
func (s *Session) Selection() (imaging.SelectionRect, bool) {
	var (
		r  imaging.SelectionRect
		ok bool
	)
	s.call(func() error {
		r, ok = s.selection.Rect()
		return nil
	})
	return r, ok
}

// Geometry returns the viewport geometry of the working image shown in a
// displayWidth x displayHeight surface.
func (s *Session) Geometry(displayWidth, displayHeight float64) (imaging.ViewportGeometry, error) {
	var g imaging.ViewportGeometry
	err := s.call(func() error {
		if s.working == nil {
			return ErrNoImageLoaded
		}
		g = imaging.GeometryFor(s.working, displayWidth, displayHeight)
		return nil
	})
	return g, err
}

// Crop crops the working image to the visible selection mapped through g.
// See CropSelection for the commit rules.
func (s *Session) Crop(g imaging.ViewportGeometry) error {
	return s.call(func() error {
		if s.working == nil {
			return ErrNoImageLoaded
		}
		sel, ok := s.selection.Rect()
		if !ok {
			return ErrNoSelection
		}
		return s.cropSelection(sel, g)
	})
}

// CropSelection crops the working image to sel, a display-space rectangle
// mapped through g.
//
// On success the cropped working buffer becomes the new original, so the
// adjustments visible at the time of the crop are flattened into it. Params
// reset to zero, the selection is cleared and pending adjustments are
// dropped. On failure nothing changes.
func (s *Session) CropSelection(sel imaging.SelectionRect, g imaging.ViewportGeometry) error {
	return s.call(func() error {
		if s.working == nil {
			return ErrNoImageLoaded
		}
		return s.cropSelection(sel, g)
	})
}

func (s *Session) cropSelection(sel imaging.SelectionRect, g imaging.ViewportGeometry) error {
	rect, err := imaging.MapSelectionToSource(sel, g)
	if err != nil {
		if errors.Is(err, imaging.ErrInvalidGeometry) {
			s.logger.Printf("crop rejected: %v (display %gx%g, source %gx%g)",
				err, g.DisplayWidth, g.DisplayHeight, g.SourceWidth, g.SourceHeight)
		}
		return err
	}
	return s.commitCrop(rect)
}

// CropPixels crops the working image to rect in source pixels, with the
// same commit rules as CropSelection.
func (s *Session) CropPixels(rect imaging.PixelRect) error {
	return s.call(func() error {
		if s.working == nil {
			return ErrNoImageLoaded
		}
		return s.commitCrop(rect)
	})
}

func (s *Session) commitCrop(rect imaging.PixelRect) error {
	if rect.Empty() {
		return ErrEmptyCropRegion
	}
	cropped, err := s.working.Crop(rect)
	if err != nil {
		return fmt.Errorf("crop: %w", err)
	}

	s.reset()
	s.original = cropped
	s.working = cropped.Clone()
	s.crops++
	return nil
}

// Export returns a copy of the working buffer. Call Flush first to include
// an adjustment still waiting for its debounce interval.
func (s *Session) Export() (*imaging.PixelBuffer, error) {
	var out *imaging.PixelBuffer
	err := s.call(func() error {
		if s.working == nil {
			return ErrNothingToExport
		}
		out = s.working.Clone()
		return nil
	})
	return out, err
}

// Original returns a copy of the buffer adjustments are computed from.
func (s *Session) Original() (*imaging.PixelBuffer, error) {
	var out *imaging.PixelBuffer
	err := s.call(func() error {
		if s.original == nil {
			return ErrNoImageLoaded
		}
		out = s.original.Clone()
		return nil
	})
	return out, err
}

// Params returns the most recently requested adjustment.
func (s *Session) Params() imaging.AdjustmentParams {
	var p imaging.AdjustmentParams
	s.call(func() error {
		p = s.params
		return nil
	})
	return p
}

// Info returns a snapshot of the session state. After Close it returns
// the zero Info.
func (s *Session) Info() Info {
	var info Info
	s.call(func() error {
		info = Info{
			Loaded:    s.working != nil,
			Params:    s.params,
			Adjusted:  s.adjusted,
			Dragging:  s.selection.Dragging(),
			Pending:   s.queued || s.next != nil,
			Computing: s.running,
			Applied:   s.applied,
			Crops:     s.crops,
		}
		if s.working != nil {
			info.Width = s.working.Width
			info.Height = s.working.Height
		}
		if r, ok := s.selection.Rect(); ok {
			info.Selection = &r
		}
		return nil
	})
	return info
}

// Flush fires a pending adjustment without waiting for the debounce
// interval, then waits until no computation is in flight.
func (s *Session) Flush(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.debounce.Flush()
	return s.WaitIdle(ctx)
}

// WaitIdle blocks until no adjustment is pending or running, ctx is done,
// or the session is closed.
func (s *Session) WaitIdle(ctx context.Context) error {
	ch := make(chan struct{})
	err := s.call(func() error {
		if s.idle() {
			close(ch)
		} else {
			s.waiters = append(s.waiters, ch)
		}
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Close stops the session. In-flight work is cancelled and every later
// call returns ErrClosed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.debounce.Cancel()
		close(s.done)
		s.cancel()
		<-s.stopped
	})
	return nil
}
