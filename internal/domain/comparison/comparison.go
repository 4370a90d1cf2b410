// Package comparison compares a reported metric against the sport's lead
// record and picks heuristic feedback from fixed threshold bands.
//
// Everything here is pure: no I/O and no shared mutable state.
package comparison

import (
	"math"
	"strings"

	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/internal/domain/types"
)

// Tier is the heuristic band a metric falls into.
type Tier string

// Tiers. Generic is used for sports without a band set.
const (
	TierElite      Tier = "elite"
	TierSolid      Tier = "solid"
	TierDeveloping Tier = "developing"
	TierGeneric    Tier = "generic"
)

// GenericFeedback is returned for sports without specific bands.
const GenericFeedback = "Session recorded. Keep progressing with structured training."

// Band holds the two thresholds and three messages of one sport.
// With Lower set, a metric at or under a threshold reaches that tier.
type Band struct {
	Lower      bool
	Elite      float64
	Solid      float64
	EliteMsg   string
	SolidMsg   string
	DevelopMsg string
}

func (b Band) classify(metric float64) (Tier, string) {
	reaches := func(threshold float64) bool {
		if b.Lower {
			return metric <= threshold
		}
		return metric >= threshold
	}
	switch {
	case reaches(b.Elite):
		return TierElite, b.EliteMsg
	case reaches(b.Solid):
		return TierSolid, b.SolidMsg
	default:
		return TierDeveloping, b.DevelopMsg
	}
}

// DefaultBands is the canonical band table.
func DefaultBands() map[string]Band {
	return map[string]Band{
		"javelin": {
			Elite: 80, Solid: 60,
			EliteMsg:   "Elite release and run-up — well done!",
			SolidMsg:   "Good base — work on speed and angle (36–38°).",
			DevelopMsg: "Focus on technique drills and approach consistency.",
		},
		"sprint400": {
			Lower: true, Elite: 48, Solid: 55,
			EliteMsg:   "Excellent split control — strong finish!",
			SolidMsg:   "Solid pace — build aerobic capacity and lactic tolerance.",
			DevelopMsg: "Work on rhythm and stride efficiency.",
		},
		"weightlifting": {
			Elite: 180, Solid: 140,
			EliteMsg:   "Powerful pulls and solid lockout!",
			SolidMsg:   "Good base — strengthen leg drive and turnover speed.",
			DevelopMsg: "Prioritize technique work and positional strength.",
		},
	}
}

// Result is the derived comparison for one submission.
type Result struct {
	Lead              leads.Record
	Known             bool
	Delta             float64
	PctOfLead         float64
	Better            types.Direction
	HeuristicFeedback string
	Tier              Tier
}

// Option configures an Engine.
type Option func(*Engine)

// WithBands replaces the band table.
func WithBands(bands map[string]Band) Option {
	return func(e *Engine) {
		if bands != nil {
			e.bands = bands
		}
	}
}

// Engine computes comparisons against a lead table.
type Engine struct {
	table *leads.Table
	bands map[string]Band
}

// NewEngine creates an Engine over table; a nil table means the built-in one.
func NewEngine(table *leads.Table, opts ...Option) *Engine {
	if table == nil {
		table = leads.Default()
	}
	e := &Engine{table: table, bands: DefaultBands()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns the lead table the engine reads from.
func (e *Engine) Table() *leads.Table { return e.table }

// Compare never fails: unknown sports resolve to the placeholder record.
func (e *Engine) Compare(sport string, reported float64) Result {
	lead, known := e.table.Lookup(sport)
	if !known {
		lead = leads.Placeholder(sport)
	}
	if math.IsNaN(reported) || math.IsInf(reported, 0) {
		reported = 0
	}

	res := Result{Lead: lead, Known: known, Better: lead.Better.Normalize()}
	res.Delta, res.PctOfLead = Measure(lead.Better, lead.Metric, reported)
	res.Tier, res.HeuristicFeedback = e.feedback(lead.Sport, reported)
	return res
}

func (e *Engine) feedback(sport string, metric float64) (Tier, string) {
	band, ok := e.bands[strings.ToLower(strings.TrimSpace(sport))]
	if !ok {
		return TierGeneric, GenericFeedback
	}
	return band.classify(metric)
}

// Measure returns delta and percentage of lead for one direction rule.
func Measure(better types.Direction, lead, reported float64) (delta, pct float64) {
	if better.IsLower() {
		delta = reported - lead
		if lead > 0 && reported > 0 {
			pct = lead / reported * 100
		}
	} else {
		delta = lead - reported
		if lead > 0 {
			pct = reported / lead * 100
		}
	}
	return finite(delta), clampPct(Round2(pct))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return finite(math.Round(v*100) / 100)
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
