package capture

import (
	"time"

	"github.com/okian/pacer/pkg/logger"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithTempDir sets the directory for recorded artifacts.
func WithTempDir(dir string) Option {
	return func(r *Recorder) {
		if dir != "" {
			r.dir = dir
		}
	}
}

// WithLogger sets the recorder logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the wall clock used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// FrameOption configures a FrameExtractor.
type FrameOption func(*FrameExtractor)

// WithFrameTimeout bounds the wait for the first decoded frame.
func WithFrameTimeout(d time.Duration) FrameOption {
	return func(e *FrameExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithJPEGQuality sets the still encoding quality (1-100).
func WithJPEGQuality(q int) FrameOption {
	return func(e *FrameExtractor) {
		if q >= 1 && q <= 100 {
			e.quality = q
		}
	}
}

// WithFallbackSize sets the raster size used when the frame size is unknown.
func WithFallbackSize(w, h int) FrameOption {
	return func(e *FrameExtractor) {
		if w > 0 && h > 0 {
			e.fallbackW, e.fallbackH = w, h
		}
	}
}
