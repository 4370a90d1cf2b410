// Package model contains domain models passed between layers.
package model

import "github.com/okian/pacer/internal/domain/types"

// Part is one binary multipart field (video or frame) held in memory.
type Part struct {
	Data     []byte
	Size     int64
	MIME     string
	Filename string
}

// Present reports whether the part was supplied.
func (p *Part) Present() bool { return p != nil }

// Submission is a single analyzed attempt. It lives for one request only.
type Submission struct {
	Sport           string
	ReportedMetric  float64
	DurationSeconds float64
	Video           *Part // optional
	Frame           *Part // optional
}

// HasMedia reports whether a video or frame was attached.
func (s Submission) HasMedia() bool { return s.Video.Present() || s.Frame.Present() }

// Lead is the lead record as echoed in responses.
type Lead struct {
	Name   string          `json:"name"`
	Metric float64         `json:"metric"`
	Unit   string          `json:"unit"`
	Better types.Direction `json:"better"`
}

// Comparison is the wire form of a comparison result.
type Comparison struct {
	Delta     float64         `json:"delta"`
	PctOfLead float64         `json:"pctOfLead"`
	BetterIs  types.Direction `json:"betterIs"`
}

// Media describes the primary uploaded part. MIME is null when nothing was sent.
type Media struct {
	Received  bool    `json:"received"`
	SizeBytes int64   `json:"sizeBytes"`
	MIME      *string `json:"mime"`
}

// AnalysisResponse is the JSON body returned by POST /api/analyze.
type AnalysisResponse struct {
	ID          string     `json:"id"`
	Sport       string     `json:"sport"`
	Duration    float64    `json:"duration"`
	InputMetric float64    `json:"inputMetric"`
	Lead        Lead       `json:"lead"`
	Comparison  Comparison `json:"comparison"`
	Media       Media      `json:"media"`
	Feedback    string     `json:"feedback"`
}
