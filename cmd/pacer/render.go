package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/okian/pacer/internal/domain/comparison"
	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/internal/domain/model"
)

const barWidth = 24

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, r model.AnalysisResponse) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	_, _ = bold.Fprintf(w, "%s\n", strings.ToUpper(r.Sport))
	_, _ = dim.Fprintln(w, strings.Repeat("━", 50))

	fmt.Fprintf(w, "  You:   %s %s\n", formatMetric(r.InputMetric), r.Lead.Unit)
	fmt.Fprintf(w, "  Lead:  %s %s (%s)\n", formatMetric(r.Lead.Metric), r.Lead.Unit, r.Lead.Name)
	fmt.Fprintf(w, "  Delta: %+.2f %s ", r.Comparison.Delta, r.Lead.Unit)
	_, _ = dim.Fprintf(w, "(%s is better)\n", r.Comparison.BetterIs)
	printPctBar(w, r.Comparison.PctOfLead)

	fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "FEEDBACK")
	fmt.Fprintln(w, r.Feedback)

	fmt.Fprintln(w)
	media := "no media"
	if r.Media.Received {
		mime := "unknown type"
		if r.Media.MIME != nil {
			mime = *r.Media.MIME
		}
		media = fmt.Sprintf("%d bytes, %s", r.Media.SizeBytes, mime)
	}
	_, _ = dim.Fprintf(w, "id %s | %.1fs | %s\n", r.ID, r.Duration, media)
}

func printPctBar(w io.Writer, pct float64) {
	filled := int(pct * barWidth / 100)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	var barColor *color.Color
	switch {
	case pct >= 90:
		barColor = color.New(color.FgGreen)
	case pct >= 70:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	fmt.Fprintf(w, "  Of lead: %.2f%% ", pct)
	_, _ = barColor.Fprintln(w, strings.Repeat("█", filled)+strings.Repeat("░", barWidth-filled))
}

func printProgress(w io.Writer, p comparison.ProgressResult) {
	c := color.New(color.FgGreen)
	if p.Pct < 0 {
		c = color.New(color.FgYellow)
	}
	fmt.Fprintln(w)
	_, _ = c.Fprintf(w, "Since last session: %+.2f%% %s\n", p.Pct, p.Message)
}

func printLeads(w io.Writer, records []leads.Record) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)
	for _, r := range records {
		name := r.DisplayName
		if name == "" {
			name = r.Sport
		}
		_, _ = bold.Fprintf(w, "%-16s", r.Sport)
		fmt.Fprintf(w, " %-22s %s %s (%s)", name, formatMetric(r.Metric), r.Unit, r.AthleteName)
		_, _ = dim.Fprintf(w, " %s is better\n", r.Better)
		if r.Tip != "" {
			_, _ = dim.Fprintf(w, "%16s %s\n", "", r.Tip)
		}
	}
}

func formatMetric(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
