package api

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pacer/internal/domain/model"
	"github.com/okian/pacer/pkg/metrics"
)

// Multipart field names.
const (
	fieldSport          = "sport"
	fieldDistance       = "distance"
	fieldReportedMetric = "reportedMetric"
	fieldDuration       = "duration"
	fieldVideo          = "video"
	fieldFrame          = "frame"

	defaultSport    = "unknown"
	defaultPartMIME = "application/octet-stream"
	maxFieldBytes   = 64 * 1024
	bodyOverhead    = 1 << 20
)

// parseSubmission streams a multipart body into a Submission. Every binary
// part is capped at maxPart; numeric fields never fail and coerce to 0.
func parseSubmission(w http.ResponseWriter, r *http.Request, maxPart int64) (model.Submission, error) {
	const op = "api.parse_submission"

	var sub model.Submission
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "multipart/form-data" {
			return sub, WrapKind(op, ErrBadRequest, fmt.Errorf("expected multipart/form-data, got %q", ct))
		}
	}

	// Two file parts plus small text fields.
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxPart+bodyOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return sub, WrapKind(op, ErrBadRequest, err)
	}

	fields := make(map[string]string)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sub, classifyReadError(op, err)
		}

		name := part.FormName()
		switch name {
		case fieldVideo, fieldFrame:
			data, err := readLimited(part, maxPart)
			if err != nil {
				_ = part.Close()
				if errors.Is(err, ErrPartTooLarge) {
					return sub, WrapKind(op, ErrPartTooLarge, fmt.Errorf("%s exceeds %d bytes", name, maxPart))
				}
				return sub, classifyReadError(op, err)
			}
			p := &model.Part{
				Data:     data,
				Size:     int64(len(data)),
				MIME:     partMIME(part.Header.Get("Content-Type")),
				Filename: part.FileName(),
			}
			if name == fieldVideo {
				if sub.Video != nil {
					_ = part.Close()
					return sub, WrapKind(op, ErrBadRequest, errors.New("more than one video part"))
				}
				sub.Video = p
			} else {
				if sub.Frame != nil {
					_ = part.Close()
					return sub, WrapKind(op, ErrBadRequest, errors.New("more than one frame part"))
				}
				sub.Frame = p
			}
			metrics.RecordMediaBytes(name, p.Size)
		default:
			if part.FileName() != "" {
				_ = part.Close()
				return sub, WrapKind(op, ErrBadRequest, fmt.Errorf("unexpected file field %q", name))
			}
			data, err := readLimited(part, maxFieldBytes)
			if err != nil {
				_ = part.Close()
				if errors.Is(err, ErrPartTooLarge) {
					return sub, WrapKind(op, ErrBadRequest, fmt.Errorf("field %q too long", name))
				}
				return sub, classifyReadError(op, err)
			}
			if _, seen := fields[name]; !seen {
				fields[name] = string(data)
			}
		}
		_ = part.Close()
	}

	sub.Sport = fields[fieldSport]
	if sub.Sport == "" {
		sub.Sport = defaultSport
	}

	metric, ok := fields[fieldDistance]
	if !ok {
		metric = fields[fieldReportedMetric]
	}
	sub.ReportedMetric = coerceNumber(fieldDistance, metric)
	sub.DurationSeconds = coerceNumber(fieldDuration, fields[fieldDuration])

	return sub, nil
}

// readLimited reads at most limit bytes, failing with ErrPartTooLarge if
// more remain.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrPartTooLarge
	}
	return data, nil
}

func classifyReadError(op string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return WrapKind(op, ErrPartTooLarge, err)
	}
	return WrapKind(op, ErrBadRequest, err)
}

func partMIME(ct string) string {
	if ct == "" {
		return defaultPartMIME
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

// coerceNumber mirrors lenient numeric form handling: blank is 0, and
// anything unparsable or non-finite is also 0.
func coerceNumber(field, raw string) float64 {
	v, ok := parseNumber(raw)
	if !ok {
		metrics.RecordCoercedField(field)
	}
	return v
}

// parseNumber returns the finite value of s. ok is false when s was
// non-blank yet not a finite number.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
