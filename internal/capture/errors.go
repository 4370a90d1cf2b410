package capture

import "errors"

// Error constants.
var (
	// ErrDeviceDenied means the video device was refused or is unavailable.
	ErrDeviceDenied = errors.New("camera access denied")
	// ErrRecordingActive is returned when a recording is already running.
	ErrRecordingActive = errors.New("recording already active")
	// ErrNotRecording is delivered by EndRecording when nothing was recording.
	ErrNotRecording = errors.New("no active recording")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("recorder closed")
	// ErrNotVideo is returned by ArtifactFromFile for non-regular files.
	ErrNotVideo = errors.New("not a video file")
)
