package stats

import (
	"testing"

	"tierconvert/internal/tier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStatsRecord(t *testing.T) {
	var s Stats
	s.Found = 6

	for _, o := range []Outcome{Converted, Converted, Failed, Skipped, Dropped, TimedOut} {
		s.Record(o)
	}

	assert.Equal(t, Stats{Found: 6, Converted: 2, Failed: 1, Skipped: 1, Dropped: 1, TimedOut: 1}, s)
	assert.Equal(t, s.Found, s.Accounted())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "converted", Converted.String())
	assert.Equal(t, "timed_out", TimedOut.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}

func TestTableOrderAndIsolation(t *testing.T) {
	table := NewTable(tier.GlacierIR, tier.Glacier, tier.GlacierIR)

	table.For(tier.Glacier).Found = 3
	table.For(tier.DeepArchive).Found = 1

	assert.Equal(t, []tier.Tier{tier.GlacierIR, tier.Glacier, tier.DeepArchive}, table.Tiers())
	assert.Equal(t, 3, table.Get(tier.Glacier).Found)
	assert.Zero(t, table.Get(tier.GlacierIR).Found)
}

func TestTableReport(t *testing.T) {
	table := NewTable(tier.GlacierIR, tier.Glacier)
	ir := table.For(tier.GlacierIR)
	ir.Found = 2
	ir.Record(Converted)
	ir.Record(Failed)

	lines := table.Report()

	assert.Contains(t, lines, "GLACIER_IR Statistics:")
	assert.Contains(t, lines, "  Total objects found: 2")
	assert.Contains(t, lines, "  Failed conversions: 1")
	assert.Contains(t, lines, "GLACIER Statistics:")
	assert.Contains(t, lines, "  Restores timed out: 0")
}

func TestTableLogReport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	table := NewTable(tier.Glacier)
	table.For(tier.Glacier).Found = 1

	table.LogReport(zap.New(core))

	require.Equal(t, len(table.Report()), logs.Len())
	assert.Equal(t, "Conversion Statistics:", logs.All()[0].Message)
}
