//go:build !gst

package capture

// Backend names the compiled-in default capture backend.
const Backend = "ffmpeg"

// NewDefaultSource returns the default source for device.
func NewDefaultSource(device string) Source { return NewFFmpegSource(device) }

// NewDefaultDecoder returns the default frame decoder.
func NewDefaultDecoder() Decoder { return NewFFmpegDecoder() }
