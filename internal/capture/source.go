// Package capture records attempts from a local camera and extracts a
// still frame for remote feedback.
package capture

import "context"

// Source is a video input device.
type Source interface {
	// Open acquires the device. Failures are reported as ErrDeviceDenied.
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired device.
type Stream interface {
	// Record starts one encoding session producing a self-contained WebM
	// stream (VP8, no audio). Chunks are delivered until stop is called or
	// ctx ends; the channel is closed once the encoder has flushed.
	Record(ctx context.Context) (chunks <-chan []byte, stop func(), err error)

	// Close releases the device.
	Close() error
}
