package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pacer/pkg/logger"
)

// Recording is the result of one Begin/End cycle.
type Recording struct {
	Video    Artifact
	URL      string
	Duration float64
	Err      error
}

// Recorder owns a device and at most one active recording.
type Recorder struct {
	src Source
	dir string
	log logger.Logger
	now func() time.Time

	mu        sync.Mutex
	stream    Stream
	active    *session
	artifacts []string
	closed    bool
}

type session struct {
	path    string
	started time.Time
	stop    func()
	done    chan struct{}
	size    int64
	err     error
}

// NewRecorder creates a recorder over src.
func NewRecorder(src Source, opts ...Option) *Recorder {
	r := &Recorder{
		src: src,
		dir: os.TempDir(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("capture")
	}
	return r
}

// StartCapture acquires the device. Calling it again while the device is
// held is a no-op.
func (r *Recorder) StartCapture(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(ctx)
}

func (r *Recorder) startLocked(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	if r.stream != nil {
		return nil
	}
	stream, err := r.src.Open(ctx)
	if err != nil {
		if !errors.Is(err, ErrDeviceDenied) {
			err = fmt.Errorf("%w: %v", ErrDeviceDenied, err)
		}
		r.log.Warn(ctx, "camera unavailable", logger.Error(err))
		return err
	}
	r.stream = stream
	r.log.Debug(ctx, "camera acquired")
	return nil
}

// BeginRecording starts buffering the device into a new artifact. The device
// is acquired first if needed.
func (r *Recorder) BeginRecording(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return ErrRecordingActive
	}
	if err := r.startLocked(ctx); err != nil {
		return err
	}

	path := filepath.Join(r.dir, "pacer-"+uuid.NewString()+".webm")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("capture: create artifact: %w", err)
	}
	r.artifacts = append(r.artifacts, path)

	chunks, stop, err := r.stream.Record(ctx)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("capture: start encoder: %w", err)
	}

	s := &session{path: path, started: r.now(), stop: stop, done: make(chan struct{})}
	r.active = s
	go s.drain(f, chunks)
	r.log.Info(ctx, "recording started", logger.String("artifact", path))
	return nil
}

func (s *session) drain(f *os.File, chunks <-chan []byte) {
	defer close(s.done)
	for chunk := range chunks {
		if s.err != nil {
			continue
		}
		n, err := f.Write(chunk)
		s.size += int64(n)
		if err != nil {
			s.err = fmt.Errorf("capture: write artifact: %w", err)
		}
	}
	if err := f.Close(); err != nil && s.err == nil {
		s.err = fmt.Errorf("capture: close artifact: %w", err)
	}
}

// EndRecording stops the active recording. The returned channel delivers
// exactly one Recording and is then closed.
func (r *Recorder) EndRecording() <-chan Recording {
	out := make(chan Recording, 1)

	r.mu.Lock()
	s := r.active
	r.active = nil
	var stopped time.Time
	if s != nil {
		stopped = r.now()
	}
	r.mu.Unlock()

	if s == nil {
		out <- Recording{Err: ErrNotRecording}
		close(out)
		return out
	}

	s.stop()
	go func() {
		defer close(out)
		<-s.done
		rec := Recording{
			Video:    Artifact{Path: s.path, MIME: WebMMIME, Size: s.size},
			Duration: stopped.Sub(s.started).Seconds(),
			Err:      s.err,
		}
		rec.URL = rec.Video.URL()
		r.log.Info(context.Background(), "recording finished",
			logger.String("artifact", s.path),
			logger.Int64("bytes", s.size),
			logger.Float64("duration_s", rec.Duration),
		)
		out <- rec
	}()
	return out
}

// Recording reports whether a recording is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Close stops any active recording, releases the device and removes every
// artifact this recorder created. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	s := r.active
	r.active = nil
	stream := r.stream
	r.stream = nil
	artifacts := r.artifacts
	r.artifacts = nil
	r.mu.Unlock()

	if s != nil {
		s.stop()
		<-s.done
	}

	var errs []error
	if stream != nil {
		if err := stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("capture: release device: %w", err))
		}
	}
	for _, p := range artifacts {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
