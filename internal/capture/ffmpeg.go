package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/exec"
	"sync"
)

const chunkSize = 32 * 1024

// DefaultDevice is the V4L2 device opened when none is configured.
const DefaultDevice = "/dev/video0"

// FFmpegSource captures a V4L2 device by running ffmpeg.
type FFmpegSource struct {
	Binary string
	Device string
}

// NewFFmpegSource creates an ffmpeg-backed source for device.
func NewFFmpegSource(device string) *FFmpegSource {
	if device == "" {
		device = DefaultDevice
	}
	return &FFmpegSource{Binary: "ffmpeg", Device: device}
}

// Open checks that ffmpeg is installed and the device can be opened.
func (s *FFmpegSource) Open(_ context.Context) (Stream, error) {
	bin, err := exec.LookPath(s.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceDenied, err)
	}
	dev, err := os.OpenFile(s.Device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceDenied, err)
	}
	return &ffmpegStream{bin: bin, device: s.Device, dev: dev}, nil
}

type ffmpegStream struct {
	bin    string
	device string
	dev    *os.File
}

func (s *ffmpegStream) Record(ctx context.Context) (<-chan []byte, func(), error) {
	cmd := exec.CommandContext(ctx, s.bin,
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-i", s.device,
		"-an",
		"-c:v", "libvpx", "-deadline", "realtime", "-b:v", "1M",
		"-f", "webm", "pipe:1",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	chunks := make(chan []byte, 16)
	go func() {
		defer close(chunks)
		buf := make([]byte, chunkSize)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				chunks <- chunk
			}
			if err != nil {
				break
			}
		}
		_ = cmd.Wait()
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			// ffmpeg finalizes the container on SIGINT.
			_ = cmd.Process.Signal(os.Interrupt)
		})
	}
	return chunks, stop, nil
}

func (s *ffmpegStream) Close() error {
	return s.dev.Close()
}

// FFmpegDecoder decodes frames by running ffmpeg.
type FFmpegDecoder struct {
	Binary string
}

// NewFFmpegDecoder creates an ffmpeg-backed decoder.
func NewFFmpegDecoder() *FFmpegDecoder {
	return &FFmpegDecoder{Binary: "ffmpeg"}
}

// FirstFrame renders the first video frame of a as PNG and decodes it.
func (d *FFmpegDecoder) FirstFrame(ctx context.Context, a Artifact) (Frame, error) {
	cmd := exec.CommandContext(ctx, d.Binary,
		"-hide_banner", "-loglevel", "error",
		"-i", a.Path,
		"-frames:v", "1",
		"-f", "image2pipe", "-c:v", "png", "pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Frame{}, fmt.Errorf("ffmpeg decode: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return Frame{}, io.ErrUnexpectedEOF
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return Frame{}, errors.Join(errors.New("ffmpeg decode: bad frame"), err)
	}
	b := img.Bounds()
	return Frame{Image: img, Width: b.Dx(), Height: b.Dy()}, nil
}
