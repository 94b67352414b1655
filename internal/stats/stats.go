package stats

import (
	"fmt"
	"strings"

	"tierconvert/internal/tier"

	"go.uber.org/zap"
)

// Outcome is the terminal state of a discovered object within a run
type Outcome int

const (
	Converted Outcome = iota
	Failed
	Skipped
	// Dropped marks objects whose restore request was rejected
	Dropped
	// TimedOut marks objects still restoring when the poll bounds ran out
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Converted:
		return "converted"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Dropped:
		return "dropped"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Stats holds the counters of one tier. Counters only ever grow.
type Stats struct {
	Found     int
	Converted int
	Failed    int
	Skipped   int
	Dropped   int
	TimedOut  int
}

// Record increments the counter for o
func (s *Stats) Record(o Outcome) {
	switch o {
	case Converted:
		s.Converted++
	case Failed:
		s.Failed++
	case Skipped:
		s.Skipped++
	case Dropped:
		s.Dropped++
	case TimedOut:
		s.TimedOut++
	}
}

// Accounted returns how many found objects reached a terminal outcome
func (s Stats) Accounted() int {
	return s.Converted + s.Failed + s.Skipped + s.Dropped + s.TimedOut
}

// Table keeps one Stats per tier, reported in the order tiers were added
type Table struct {
	order []tier.Tier
	stats [tier.Count]Stats
}

// NewTable creates a table reporting the given tiers
func NewTable(tiers ...tier.Tier) *Table {
	t := &Table{}
	for _, tr := range tiers {
		t.track(tr)
	}
	return t
}

func (t *Table) track(tr tier.Tier) {
	for _, existing := range t.order {
		if existing == tr {
			return
		}
	}
	t.order = append(t.order, tr)
}

// For returns the mutable Stats of tr, adding tr to the report if needed
func (t *Table) For(tr tier.Tier) *Stats {
	t.track(tr)
	return &t.stats[tr]
}

// Get returns a copy of the Stats of tr
func (t *Table) Get(tr tier.Tier) Stats {
	return t.stats[tr]
}

// Tiers returns the reported tiers
func (t *Table) Tiers() []tier.Tier {
	return append([]tier.Tier(nil), t.order...)
}

// Report renders the per-tier statistics
func (t *Table) Report() []string {
	lines := make([]string, 0, len(t.order)*7+2)

	lines = append(lines, "Conversion Statistics:")
	lines = append(lines, strings.Repeat("=", 40))

	for _, tr := range t.order {
		s := t.stats[tr]
		lines = append(lines, fmt.Sprintf("%s Statistics:", tr))
		lines = append(lines, fmt.Sprintf("  Total objects found: %d", s.Found))
		lines = append(lines, fmt.Sprintf("  Successfully converted: %d", s.Converted))
		lines = append(lines, fmt.Sprintf("  Failed conversions: %d", s.Failed))
		lines = append(lines, fmt.Sprintf("  Skipped conversions: %d", s.Skipped))
		if tr.Staged() {
			lines = append(lines, fmt.Sprintf("  Restore requests rejected: %d", s.Dropped))
			lines = append(lines, fmt.Sprintf("  Restores timed out: %d", s.TimedOut))
		}
	}

	return lines
}

// LogReport writes the report line by line and a structured summary per tier
func (t *Table) LogReport(logger *zap.Logger) {
	for _, line := range t.Report() {
		logger.Info(line)
	}

	for _, tr := range t.order {
		s := t.stats[tr]
		logger.Debug("Tier summary",
			zap.Stringer("tier", tr),
			zap.Int("found", s.Found),
			zap.Int("converted", s.Converted),
			zap.Int("failed", s.Failed),
			zap.Int("skipped", s.Skipped),
			zap.Int("dropped", s.Dropped),
			zap.Int("timed_out", s.TimedOut),
		)
	}
}
