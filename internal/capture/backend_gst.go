//go:build gst

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Backend names the compiled-in default capture backend.
const Backend = "gst"

const eosTimeout = 5 * time.Second

// NewDefaultSource returns the default source for device.
func NewDefaultSource(device string) Source { return NewGstSource(device) }

// NewDefaultDecoder returns the default frame decoder.
func NewDefaultDecoder() Decoder { return &GstDecoder{} }

// GstSource captures a V4L2 device with a GStreamer pipeline.
type GstSource struct {
	Device string
}

// NewGstSource creates a GStreamer-backed source for device.
func NewGstSource(device string) *GstSource {
	if device == "" {
		device = DefaultDevice
	}
	return &GstSource{Device: device}
}

// Open checks that the v4l2 plugin is present and the device can be opened.
func (s *GstSource) Open(_ context.Context) (Stream, error) {
	gst.Init(nil)
	if _, err := gst.NewElement("v4l2src"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceDenied, err)
	}
	dev, err := os.OpenFile(s.Device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceDenied, err)
	}
	return &gstStream{device: s.Device, dev: dev}, nil
}

type gstStream struct {
	device string
	dev    *os.File
}

// chunkSink forwards appsink buffers to a channel and closes it once.
type chunkSink struct {
	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func (c *chunkSink) push(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.out <- b
	}
}

func (c *chunkSink) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}

func (s *gstStream) Record(ctx context.Context) (<-chan []byte, func(), error) {
	pipeline, err := gst.NewPipelineFromString(fmt.Sprintf(
		"v4l2src device=%s ! videoconvert ! vp8enc deadline=1 ! webmmux streamable=true ! appsink name=sink sync=false",
		s.device,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("create pipeline: %w", err)
	}
	elem, err := pipeline.GetElementByName("sink")
	if err != nil {
		return nil, nil, fmt.Errorf("find appsink: %w", err)
	}
	sink := app.SinkFromElement(elem)

	out := &chunkSink{out: make(chan []byte, 64)}
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			sample := sink.PullSample()
			if sample == nil {
				return gst.FlowOK
			}
			buffer := sample.GetBuffer()
			if buffer == nil {
				return gst.FlowOK
			}
			data := buffer.Map(gst.MapRead).Bytes()
			chunk := make([]byte, len(data))
			copy(chunk, data)
			buffer.Unmap()
			if len(chunk) > 0 {
				out.push(chunk)
			}
			return gst.FlowOK
		},
		EOSFunc: func(*app.Sink) { out.close() },
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, nil, fmt.Errorf("start pipeline: %w", err)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			go func() {
				pipeline.SendEvent(gst.NewEOSEvent())
				bus := pipeline.GetPipelineBus()
				deadline := time.Now().Add(eosTimeout)
				for time.Now().Before(deadline) {
					msg := bus.TimedPop(time.Until(deadline))
					if msg == nil {
						break
					}
					if t := msg.Type(); t == gst.MessageEOS || t == gst.MessageError {
						break
					}
				}
				_ = pipeline.SetState(gst.StateNull)
				out.close()
			}()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return out.out, stop, nil
}

func (s *gstStream) Close() error {
	return s.dev.Close()
}

// GstDecoder decodes frames with a GStreamer decodebin pipeline.
type GstDecoder struct{}

// FirstFrame pulls the first RGBA frame of a.
func (d *GstDecoder) FirstFrame(ctx context.Context, a Artifact) (Frame, error) {
	gst.Init(nil)
	pipeline, err := gst.NewPipelineFromString(fmt.Sprintf(
		"filesrc location=%q ! decodebin ! videoconvert ! video/x-raw,format=RGBA ! appsink name=sink sync=false max-buffers=1",
		a.Path,
	))
	if err != nil {
		return Frame{}, fmt.Errorf("create pipeline: %w", err)
	}
	defer func() { _ = pipeline.SetState(gst.StateNull) }()

	elem, err := pipeline.GetElementByName("sink")
	if err != nil {
		return Frame{}, fmt.Errorf("find appsink: %w", err)
	}
	sink := app.SinkFromElement(elem)
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return Frame{}, fmt.Errorf("start pipeline: %w", err)
	}

	type pulled struct {
		frame Frame
		err   error
	}
	ready := make(chan pulled, 1)
	go func() {
		f, err := pullFrame(sink)
		ready <- pulled{frame: f, err: err}
	}()

	select {
	case p := <-ready:
		return p.frame, p.err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func pullFrame(sink *app.Sink) (Frame, error) {
	sample := sink.PullSample()
	if sample == nil {
		return Frame{}, errors.New("no frame")
	}
	s := sample.GetCaps().GetStructureAt(0)
	w, err := intField(s, "width")
	if err != nil {
		return Frame{}, err
	}
	h, err := intField(s, "height")
	if err != nil {
		return Frame{}, err
	}

	buffer := sample.GetBuffer()
	data := buffer.Map(gst.MapRead).Bytes()
	defer buffer.Unmap()
	if len(data) < w*h*4 {
		return Frame{}, fmt.Errorf("short frame: %d bytes for %dx%d", len(data), w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, data[:w*h*4])
	return Frame{Image: img, Width: w, Height: h}, nil
}

func intField(s *gst.Structure, name string) (int, error) {
	v, err := s.GetValue(name)
	if err != nil {
		return 0, fmt.Errorf("caps %s: %w", name, err)
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("caps %s: unexpected %T", name, v)
	}
	return n, nil
}
