// Package leads holds the reference lead-athlete record per sport.
//
// A Table is built once at startup and only read afterwards, so it is safe
// to share across goroutines without locking.
package leads

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/pacer/internal/domain/types"
)

// PlaceholderName is the athlete name used for sports without a record.
const PlaceholderName = "Lead Athlete"

// Record is the best known performance for one sport.
type Record struct {
	Sport       string          `json:"sport" yaml:"sport"`
	AthleteName string          `json:"athleteName" yaml:"athlete"`
	Metric      float64         `json:"metric" yaml:"metric"`
	Unit        string          `json:"unit" yaml:"unit"`
	Better      types.Direction `json:"better" yaml:"better"`
	DisplayName string          `json:"displayName,omitempty" yaml:"display_name"`
	Tip         string          `json:"tip,omitempty" yaml:"tip"`
}

// Placeholder returns the zero-valued record used for unknown sports.
func Placeholder(sport string) Record {
	return Record{Sport: sport, AthleteName: PlaceholderName, Better: types.Higher}
}

// Table maps sport identifiers to records.
type Table struct {
	records map[string]Record
	order   []string
}

// New builds a table. Sport keys are case-insensitive and must be unique.
func New(records []Record) (*Table, error) {
	t := &Table{records: make(map[string]Record, len(records))}
	for _, r := range records {
		key := normalize(r.Sport)
		if key == "" {
			return nil, fmt.Errorf("%w: empty sport key", ErrInvalidTable)
		}
		if _, dup := t.records[key]; dup {
			return nil, fmt.Errorf("%w: duplicate sport %q", ErrInvalidTable, key)
		}
		r.Sport = key
		r.Better = r.Better.Normalize()
		t.records[key] = r
		t.order = append(t.order, key)
	}
	return t, nil
}

// Lookup returns the record for sport. ok is false for unknown sports.
func (t *Table) Lookup(sport string) (Record, bool) {
	r, ok := t.records[normalize(sport)]
	return r, ok
}

// Resolve returns the record for sport, or the placeholder when unknown.
func (t *Table) Resolve(sport string) Record {
	if r, ok := t.Lookup(sport); ok {
		return r
	}
	return Placeholder(sport)
}

// All returns records in table order.
func (t *Table) All() []Record {
	out := make([]Record, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.records[k])
	}
	return out
}

// Sports returns the known sport keys sorted alphabetically.
func (t *Table) Sports() []string {
	keys := append([]string(nil), t.order...)
	sort.Strings(keys)
	return keys
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

var defaultRecords = []Record{
	{"javelin", "Neeraj Chopra", 89.94, "m", types.Higher, "Javelin Throw", "Focus on run-up speed and release angle (~36–38°)."},
	{"shotput", "Tajinderpal Singh Toor", 21.77, "m", types.Higher, "Shot Put", "Explode through hips; keep a strong finish on release."},
	{"discus", "Kamalpreet Kaur", 66.59, "m", types.Higher, "Discus Throw", "Smooth rotational rhythm; finish high and long."},
	{"longjump", "Jeswin Aldrin", 8.42, "m", types.Higher, "Long Jump", "Drive the last two steps and hit the board tall."},
	{"highjump", "Tejaswin Shankar", 2.29, "m", types.Higher, "High Jump", "Controlled curve and late, powerful takeoff."},
	{"sprint400", "Muhammed Anas", 45.21, "s", types.Lower, "400m Sprint", "Even pacing and strong final 100m drive are key."},
	{"weightlifting", "Mirabai Chanu", 209, "kg", types.Higher, "Weightlifting (Total)", "Keep bar path close and explode through extension."},
	{"badminton", "Lakshya Sen", 22, "pts", types.Higher, "Badminton (Match Points)", "Exploit opponent's backhand and control the net."},
	{"wrestling", "Bajrang Punia", 10, "pts", types.Higher, "Wrestling (Bout Points)", "Level changes and hand fighting set up your shots."},
	{"boxing", "Nikhat Zareen", 5, "pts", types.Higher, "Boxing (Bout Points)", "Keep a tight guard; work the jab and angles."},
	{"hockey", "PR Sreejesh", 20, "sv", types.Higher, "Hockey (Saves)", "Set early; explosive lateral pushes for corners."},
	{"tabletennis", "Manika Batra", 11, "pts", types.Higher, "Table Tennis (Game Points)", "Vary spin on serve; attack third ball aggressively."},
}

// Default returns the built-in table.
func Default() *Table {
	t, err := New(defaultRecords)
	if err != nil {
		panic(fmt.Sprintf("built-in lead table: %v", err))
	}
	return t
}
