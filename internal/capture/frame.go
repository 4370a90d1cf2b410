package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"golang.org/x/image/draw"

	"github.com/okian/pacer/internal/domain/model"
	"github.com/okian/pacer/pkg/logger"
	"github.com/okian/pacer/pkg/metrics"
)

// Frame extraction defaults.
const (
	DefaultFrameTimeout = 5 * time.Second
	DefaultJPEGQuality  = 80
	FallbackWidth       = 640
	FallbackHeight      = 360
)

// Frame is a decoded picture. Width and Height are the stream's declared
// size and may be zero when the container does not report it.
type Frame struct {
	Image  image.Image
	Width  int
	Height int
}

// Decoder decodes the first available frame of a video.
type Decoder interface {
	FirstFrame(ctx context.Context, a Artifact) (Frame, error)
}

// Still is a JPEG snapshot.
type Still struct {
	Data   []byte
	Width  int
	Height int
}

// Part converts the still into an upload part named frame.jpg.
func (s *Still) Part() *model.Part {
	if s == nil {
		return nil
	}
	return &model.Part{Data: s.Data, Size: int64(len(s.Data)), MIME: "image/jpeg", Filename: "frame.jpg"}
}

// FrameExtractor turns a video artifact into a single still.
type FrameExtractor struct {
	dec       Decoder
	timeout   time.Duration
	quality   int
	fallbackW int
	fallbackH int
	log       logger.Logger
}

// NewFrameExtractor creates an extractor over dec.
func NewFrameExtractor(dec Decoder, opts ...FrameOption) *FrameExtractor {
	e := &FrameExtractor{
		dec:       dec,
		timeout:   DefaultFrameTimeout,
		quality:   DefaultJPEGQuality,
		fallbackW: FallbackWidth,
		fallbackH: FallbackHeight,
		log:       logger.Get().Named("frame"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type decoded struct {
	frame Frame
	err   error
}

// Extract returns a JPEG of the first frame. When no frame becomes ready
// within the timeout, or the video cannot be decoded, it returns (nil, nil).
// Only cancellation of ctx is reported as an error.
func (e *FrameExtractor) Extract(ctx context.Context, a Artifact) (*Still, error) {
	dctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ready := make(chan decoded, 1)
	go func() {
		f, err := e.dec.FirstFrame(dctx, a)
		ready <- decoded{frame: f, err: err}
	}()

	var d decoded
	select {
	case d = <-ready:
	case <-dctx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.log.Debug(ctx, "no frame before timeout", logger.String("artifact", a.Path), logger.Duration("timeout", e.timeout))
		metrics.RecordFrameExtraction("timeout")
		return nil, nil
	}
	if d.err != nil || d.frame.Image == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.log.Debug(ctx, "no frame decoded", logger.String("artifact", a.Path), logger.Error(d.err))
		metrics.RecordFrameExtraction("none")
		return nil, nil
	}

	still, err := e.encode(d.frame)
	if err != nil {
		metrics.RecordFrameExtraction("error")
		return nil, err
	}
	metrics.RecordFrameExtraction("ok")
	return still, nil
}

func (e *FrameExtractor) encode(f Frame) (*Still, error) {
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		b := f.Image.Bounds()
		w, h = b.Dx(), b.Dy()
	}
	if w <= 0 || h <= 0 {
		w, h = e.fallbackW, e.fallbackH
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), f.Image, f.Image.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("capture: encode still: %w", err)
	}
	return &Still{Data: buf.Bytes(), Width: w, Height: h}, nil
}
