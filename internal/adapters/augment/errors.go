package augment

import "errors"

var (
	// ErrNotConfigured means no credential is set. Only the standalone probe
	// endpoint reports it; the pipeline treats it as a skip.
	ErrNotConfigured = errors.New("OpenAI not configured")
	// ErrUnavailable wraps every failed remote call.
	ErrUnavailable = errors.New("augmentation unavailable")
	// ErrRateLimited means the outbound limiter refused the call.
	ErrRateLimited = errors.New("rate limited")
)
