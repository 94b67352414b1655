package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tierconvert/internal/config"
	"tierconvert/internal/journal"
	"tierconvert/internal/migrate"
	"tierconvert/internal/stats"
	"tierconvert/internal/storage"
	"tierconvert/internal/storage/storagetest"
	"tierconvert/internal/tier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Region = "us-east-1"
	cfg.Conversion.Bucket = "archive"
	cfg.ShowProgress = false
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config, gw storage.Gateway) *Runner {
	t.Helper()
	r, err := NewWithGateway(cfg, gw, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	r.Configure = func(o *migrate.Orchestrator) {
		o.Sleep = func(time.Duration) {}
	}
	return r
}

func scenarioGateway() *storagetest.Gateway {
	return &storagetest.Gateway{
		Objects: []storage.ObjectInfo{
			{Key: "A", StorageClass: "GLACIER_IR"},
			{Key: "B", StorageClass: "GLACIER"},
			{Key: "C", StorageClass: "STANDARD"},
		},
	}
}

func TestRunConvertsEveryTier(t *testing.T) {
	gw := scenarioGateway()
	r := newTestRunner(t, testConfig(), gw)

	table, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, stats.Stats{Found: 1, Converted: 1}, table.Get(tier.GlacierIR))
	assert.Equal(t, stats.Stats{Found: 1, Converted: 1}, table.Get(tier.Glacier))
	assert.Equal(t, []tier.Tier{tier.Glacier, tier.GlacierIR}, table.Tiers())

	assert.Equal(t, []string{"B"}, gw.Restores)
	assert.Equal(t, []string{"A", "B"}, gw.CopiedKeys())
	for _, c := range gw.Copies {
		assert.Equal(t, "archive", c.Bucket)
		assert.Equal(t, tier.Adaptive, c.StorageClass)
	}
}

func TestRunConvertsDirectTiersBeforeRestoreWait(t *testing.T) {
	gw := scenarioGateway()
	gw.RestoredAfter = map[string]int{"B": 3}
	r := newTestRunner(t, testConfig(), gw)

	var copiedAtWait [][]string
	r.Configure = func(o *migrate.Orchestrator) {
		o.Sleep = func(time.Duration) {
			copiedAtWait = append(copiedAtWait, gw.CopiedKeys())
		}
	}

	table, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"A"}, {"A"}}, copiedAtWait)
	assert.Equal(t, []string{"A", "B"}, gw.CopiedKeys())
	assert.Equal(t, []tier.Tier{tier.Glacier, tier.GlacierIR}, table.Tiers(), "report keeps configured order")
}

func TestNewWithoutValidPolicies(t *testing.T) {
	cfg := testConfig()
	cfg.Conversion.StorageClasses = "BOGUS#STANDARD#glacier"
	cfg.Journal = filepath.Join(t.TempDir(), "journal.db")
	gw := scenarioGateway()

	r, err := NewWithGateway(cfg, gw, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoPolicies)
	assert.Nil(t, r)

	assert.NoFileExists(t, cfg.Journal)
	assert.Empty(t, gw.Restores)
	assert.Empty(t, gw.Copies)
}

func TestRunDryRun(t *testing.T) {
	cfg := testConfig()
	cfg.Conversion.DryRun = true
	gw := scenarioGateway()

	core, logs := observer.New(zap.InfoLevel)
	r, err := NewWithGateway(cfg, gw, zap.New(core))
	require.NoError(t, err)

	table, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, stats.Stats{Found: 1}, table.Get(tier.Glacier))
	assert.Equal(t, stats.Stats{Found: 1}, table.Get(tier.GlacierIR))
	assert.Empty(t, gw.Restores)
	assert.Empty(t, gw.Copies)
	assert.Equal(t, 2, logs.FilterMessage("Would process object").Len())
}

func TestRunProcessesPartialListing(t *testing.T) {
	gw := scenarioGateway()
	gw.ListErr = errors.New("connection reset")
	gw.ListFailAfter = 1
	r := newTestRunner(t, testConfig(), gw)

	table, err := r.Run(context.Background())
	assert.EqualError(t, err, "connection reset")
	require.NotNil(t, table)

	assert.Equal(t, stats.Stats{Found: 1, Converted: 1}, table.Get(tier.GlacierIR))
	assert.Equal(t, stats.Stats{}, table.Get(tier.Glacier))
	assert.Equal(t, []string{"A"}, gw.CopiedKeys())
}

func TestRunTimesOutPendingRestores(t *testing.T) {
	cfg := testConfig()
	cfg.Conversion.MaxPollRounds = 3
	gw := scenarioGateway()
	gw.RestoredAfter = map[string]int{"B": 0}
	r := newTestRunner(t, cfg, gw)

	table, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, stats.Stats{Found: 1, TimedOut: 1}, table.Get(tier.Glacier))
	assert.Equal(t, 3, gw.Heads["B"])
	assert.Equal(t, []string{"A"}, gw.CopiedKeys())
}

func TestRunJournalsOutcomes(t *testing.T) {
	cfg := testConfig()
	cfg.Journal = filepath.Join(t.TempDir(), "journal.db")
	gw := scenarioGateway()
	gw.CopyErrs = map[string]error{"A": errors.New("AccessDenied")}
	r := newTestRunner(t, cfg, gw)
	require.NotEmpty(t, r.RunID())

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	converted, err := r.journal.ListByStatus(r.RunID(), journal.StatusConverted)
	require.NoError(t, err)
	require.Len(t, converted, 1)
	assert.Equal(t, "B", converted[0].Key)

	failed, err := r.journal.ListByStatus(r.RunID(), journal.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "A", failed[0].Key)
	assert.Equal(t, "AccessDenied", failed[0].LastError)
}

type panickingGateway struct {
	storagetest.Gateway
}

func (g *panickingGateway) List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	panic("listing exploded")
}

func TestRunRecoversPanics(t *testing.T) {
	r := newTestRunner(t, testConfig(), &panickingGateway{})

	_, err := r.Run(context.Background())
	assert.ErrorContains(t, err, "listing exploded")
}
