// Package submitter is the client side of the analysis API: it uploads an
// attempt as multipart/form-data and decodes the analysis.
package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/internal/domain/model"
	"github.com/okian/pacer/pkg/logger"
)

// Upload file names used for the media parts.
const (
	VideoFilename = "attempt.webm"
	FrameFilename = "frame.jpg"
)

const (
	defaultBaseURL = "http://localhost:9080"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 64 * 1024
)

// ErrServer is matched by every non-2xx response.
var ErrServer = errors.New("server error")

// StatusError carries a non-2xx response.
type StatusError struct {
	Status  int
	Message string
	Code    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *StatusError) Is(target error) bool { return target == ErrServer }

// Client talks to the analysis API.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Get().Named("submitter"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze uploads sub to /api/analyze.
func (c *Client) Analyze(ctx context.Context, sub model.Submission) (model.AnalysisResponse, error) {
	var out model.AnalysisResponse
	err := c.postMultipart(ctx, "/api/analyze", sub, &out)
	return out, err
}

// Probe uploads sub to /api/analyze/augment and returns the remote feedback.
func (c *Client) Probe(ctx context.Context, sub model.Submission) (string, error) {
	var out struct {
		Feedback string `json:"feedback"`
	}
	if err := c.postMultipart(ctx, "/api/analyze/augment", sub, &out); err != nil {
		return "", err
	}
	return out.Feedback, nil
}

// Leads fetches the server's lead table.
func (c *Client) Leads(ctx context.Context) ([]leads.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/leads", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var out struct {
		Leads []leads.Record `json:"leads"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Leads, nil
}

func (c *Client) postMultipart(ctx context.Context, path string, sub model.Submission, out any) error {
	body, contentType, err := encode(sub)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", uuid.NewString())

	c.log.Debug(ctx, "submitting attempt",
		logger.String("path", path),
		logger.String("sport", sub.Sport),
		logger.Int("bytes", body.Len()),
	)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{Status: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			se.Message, se.Code = body.Error, body.Code
		} else {
			se.Message = strings.TrimSpace(string(data))
		}
		return se
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// encode writes sub as multipart/form-data with the field names the
// server expects.
func encode(sub model.Submission) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"sport", sub.Sport},
		{"distance", formatNumber(sub.ReportedMetric)},
		{"duration", formatNumber(sub.DurationSeconds)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writePart(mw, "video", VideoFilename, sub.Video); err != nil {
		return nil, "", err
	}
	if err := writePart(mw, "frame", FrameFilename, sub.Frame); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writePart(mw *multipart.Writer, field, filename string, p *model.Part) error {
	if !p.Present() {
		return nil
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	mimeType := p.MIME
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h.Set("Content-Type", mimeType)
	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = w.Write(p.Data)
	return err
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
