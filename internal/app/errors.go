package service

import "errors"

// DefaultSport is used when a submission names no sport.
const DefaultSport = "unknown"

// ErrNotStarted is returned by Analyze before Start or after Stop.
var ErrNotStarted = errors.New("service not started")
