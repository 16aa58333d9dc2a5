// Package session owns the mutable state of one editing session: the
// loaded image, the current palette and the extraction settings, with a
// single-flight guard around extraction.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/spectral-tools/paleta/internal/config"
	img "github.com/spectral-tools/paleta/internal/image"
	"github.com/spectral-tools/paleta/internal/palette"
	"github.com/spectral-tools/paleta/internal/quant"
)

var (
	// ErrNoImage is returned when extraction is requested before an image
	// has been loaded.
	ErrNoImage = errors.New("no image loaded")

	// ErrBusy is returned when an extraction is already running; the
	// session never runs two extractions concurrently.
	ErrBusy = errors.New("extraction already in progress")

	// ErrConfirmationRequired signals that the requested colour count is
	// allowed but large; the caller must confirm and retry.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// ConfirmError carries the count that triggered a confirmation request.
// It matches ErrConfirmationRequired under errors.Is.
type ConfirmError struct {
	// Count is the colour count awaiting confirmation. For max mode this
	// is the estimated number of unique colours.
	Count int
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("%d colours requested, confirmation required", e.Count)
}

func (e *ConfirmError) Is(target error) bool {
	return target == ErrConfirmationRequired
}

// Request describes one extraction run.
type Request struct {
	// Count is the number of colours to extract. Ignored when Max is set.
	Count int

	// Max requests every distinct colour instead of a fixed count.
	Max bool

	// Algorithm selects the adaptive quantizer. Empty means median cut.
	Algorithm quant.Algorithm

	// Confirmed acknowledges a prior ErrConfirmationRequired for the same
	// request.
	Confirmed bool

	// Force overrides the hard count limit entirely.
	Force bool

	// ForceFullScan makes max mode walk the full image regardless of the
	// size heuristics.
	ForceFullScan bool
}

// Session holds one image and its palette. Methods are safe for
// concurrent use; extraction is single-flight.
type Session struct {
	mu       sync.Mutex
	running  bool
	image    *image.NRGBA
	path     string
	pal      *palette.Palette
	settings config.Settings
	logger   hclog.Logger
}

// New returns an empty session using the given settings.
func New(settings config.Settings, logger hclog.Logger) *Session {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Session{
		settings: settings,
		logger:   logger.Named("session"),
	}
}

// LoadImage loads and normalizes the image at path, replacing any
// previously loaded image and discarding the current palette. A failed
// load leaves the session unchanged.
func (s *Session) LoadImage(path string) error {
	loaded, err := img.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = loaded
	s.path = path
	s.pal = nil
	s.logger.Debug("image loaded", "path", path,
		"width", loaded.Bounds().Dx(), "height", loaded.Bounds().Dy())
	return nil
}

// Image returns the loaded image, or nil.
func (s *Session) Image() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// ImagePath returns the path of the loaded image, or "".
func (s *Session) ImagePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Palette returns the current palette, or nil before the first
// extraction.
func (s *Session) Palette() *palette.Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pal
}

// SetPalette replaces the current palette.
func (s *Session) SetPalette(p *palette.Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pal = p
}

// Settings returns the session's settings.
func (s *Session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Extract runs one extraction and atomically replaces the session
// palette on success. The old palette survives every failure, including
// context cancellation.
func (s *Session) Extract(ctx context.Context, req Request) (*palette.Palette, error) {
	s.mu.Lock()
	if s.image == nil {
		s.mu.Unlock()
		return nil, ErrNoImage
	}
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.running = true
	src := s.image
	opts := s.settings.QuantOptions()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	opts.Algorithm = req.Algorithm
	opts.Force = req.Force
	opts.ForceFullScan = req.ForceFullScan

	if err := s.checkRequest(src, req, opts); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		pal *palette.Palette
		err error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		if req.Max {
			r.pal, r.err = quant.ExhaustiveAuto(src, opts)
		} else {
			r.pal, r.err = quant.Adaptive(src, req.Count, opts)
		}
		done <- r
	}()

	select {
	case <-ctx.Done():
		// The worker finishes on its own; its result is discarded and
		// the previous palette stays in place.
		s.logger.Debug("extraction cancelled", "err", ctx.Err())
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		quant.BackfillSamples(r.pal, src, 0)
		s.mu.Lock()
		s.pal = r.pal
		s.mu.Unlock()
		s.logger.Debug("extraction complete", "colours", r.pal.Len(), "max", req.Max)
		return r.pal, nil
	}
}

// checkRequest applies the count policy before any pixels are touched.
// Fixed counts are checked directly; max mode is checked against the
// estimated number of unique colours.
func (s *Session) checkRequest(src *image.NRGBA, req Request, opts quant.Options) error {
	lim := opts.Limits
	if lim.ConfirmThreshold <= 0 || lim.HardLimit <= 0 {
		lim = quant.DefaultLimits()
	}

	n := req.Count
	if req.Max {
		stats := quant.EstimateUniqueStats(src, opts.MaxSampleDim)
		n = stats.EstimatedUnique()
		if n == 0 {
			return quant.ErrEmptyImage
		}
		s.logger.Debug("estimated unique colours", "estimate", n,
			"sampled", stats.SamplePixels, "opaque", stats.TotalOpaque)
	}

	decision, err := quant.CheckCount(n, lim)
	if err != nil {
		return err
	}
	switch decision {
	case quant.DecisionRejected:
		if !req.Force {
			if req.Max {
				return fmt.Errorf("%w: about %d unique colours (limit %d)",
					quant.ErrExcessiveCount, n, lim.HardLimit)
			}
			return fmt.Errorf("%w: %d colours requested (limit %d)",
				quant.ErrExcessiveCount, n, lim.HardLimit)
		}
	case quant.DecisionNeedsConfirm:
		if !req.Confirmed && !req.Force {
			return &ConfirmError{Count: n}
		}
	}
	return nil
}
