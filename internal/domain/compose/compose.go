// Package compose merges comparison output with the optional augmentation
// outcome into the response payload.
package compose

import (
	"github.com/okian/pacer/internal/adapters/augment"
	"github.com/okian/pacer/internal/domain/comparison"
	"github.com/okian/pacer/internal/domain/model"
)

// Feedback sources, as reported in metrics and logs.
const (
	SourceAugmented = "augmented"
	SourceHeuristic = "heuristic"
)

// Feedback applies the precedence rule: augmented text when present,
// heuristic otherwise. Empty augmented text counts as absent.
func Feedback(cmp comparison.Result, out augment.Outcome) (text, source string) {
	if t, ok := out.Text(); ok {
		return t, SourceAugmented
	}
	return cmp.HeuristicFeedback, SourceHeuristic
}

// Media describes the primary part: video if present, else frame.
func Media(sub model.Submission) model.Media {
	primary := sub.Video
	if primary == nil {
		primary = sub.Frame
	}
	if primary == nil {
		return model.Media{}
	}
	m := model.Media{Received: true, SizeBytes: primary.Size}
	if primary.MIME != "" {
		mime := primary.MIME
		m.MIME = &mime
	}
	return m
}

// Response builds the full payload. The lead direction is always the
// matched record's, never anything from the submission.
func Response(id string, sub model.Submission, cmp comparison.Result, out augment.Outcome) model.AnalysisResponse {
	feedback, _ := Feedback(cmp, out)
	return model.AnalysisResponse{
		ID:          id,
		Sport:       sub.Sport,
		Duration:    sub.DurationSeconds,
		InputMetric: sub.ReportedMetric,
		Lead: model.Lead{
			Name:   cmp.Lead.AthleteName,
			Metric: cmp.Lead.Metric,
			Unit:   cmp.Lead.Unit,
			Better: cmp.Better,
		},
		Comparison: model.Comparison{
			Delta:     cmp.Delta,
			PctOfLead: cmp.PctOfLead,
			BetterIs:  cmp.Better,
		},
		Media:    Media(sub),
		Feedback: feedback,
	}
}
