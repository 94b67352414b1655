package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tierconvert/internal/config"
	"tierconvert/internal/journal"
	"tierconvert/internal/metrics"
	"tierconvert/internal/migrate"
	"tierconvert/internal/progress"
	"tierconvert/internal/stats"
	"tierconvert/internal/storage"
	"tierconvert/internal/tier"

	"go.uber.org/zap"
)

const progressInterval = time.Minute

// ErrNoPolicies is returned when the storage class list names no known tier
var ErrNoPolicies = errors.New("no valid storage classes to convert")

// Runner holds everything one conversion run needs
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	gateway  storage.Gateway
	journal  journal.Store
	recorder *journal.Recorder
	metrics  *metrics.Collector
	progress *progress.Tracker
	policies []tier.Policy

	// Configure adjusts the orchestrator before staged tiers run
	Configure func(*migrate.Orchestrator)
}

// New creates a runner connected to the configured object store
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	gateway, err := storage.New(ctx, cfg.StorageClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return NewWithGateway(cfg, gateway, logger)
}

// NewWithGateway creates a runner on top of an existing gateway. It fails
// with ErrNoPolicies before creating anything when no storage class is usable.
func NewWithGateway(cfg *config.Config, gateway storage.Gateway, logger *zap.Logger) (*Runner, error) {
	policies := tier.ParsePolicies(cfg.Conversion.StorageClasses, logger)
	if len(policies) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoPolicies, cfg.Conversion.StorageClasses)
	}

	r := &Runner{
		cfg:      cfg,
		logger:   logger,
		gateway:  gateway,
		policies: policies,
	}

	if cfg.Journal != "" {
		store, err := journal.NewSQLiteStore(cfg.Journal)
		if err != nil {
			return nil, fmt.Errorf("failed to create journal: %w", err)
		}
		r.journal = store
		r.recorder = journal.NewRecorder(store, logger)
		logger.Info("Journal enabled",
			zap.String("path", cfg.Journal),
			zap.String("run_id", r.recorder.RunID()),
		)
	}

	if cfg.MetricsAddr != "" {
		r.metrics = metrics.New()
	}

	if cfg.ShowProgress && !cfg.Conversion.DryRun && progress.IsTerminalSupported() {
		r.progress = progress.NewTracker()
		logger.Info("Progress display enabled")
	}

	return r, nil
}

// RunID returns the journal run id, or "" when the journal is disabled
func (r *Runner) RunID() string {
	if r.recorder == nil {
		return ""
	}
	return r.recorder.RunID()
}

func (r *Runner) observer() migrate.Observer {
	var observers []migrate.Observer
	if r.metrics != nil {
		observers = append(observers, r.metrics)
	}
	if r.recorder != nil {
		observers = append(observers, r.recorder)
	}
	if r.progress != nil {
		observers = append(observers, r.progress)
	}
	if len(observers) == 0 {
		return nil
	}
	return migrate.Observers(observers...)
}

// Run classifies the bucket, converts every matched object and logs the
// per-tier report. The returned table is complete even when err is a
// listing error.
func (r *Runner) Run(ctx context.Context) (table *stats.Table, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Conversion aborted", zap.Any("panic", p))
			err = fmt.Errorf("conversion aborted: %v", p)
		}
	}()

	conv := r.cfg.Conversion
	r.logger.Info("Starting conversion",
		zap.String("bucket", conv.Bucket),
		zap.String("prefix", conv.Prefix),
		zap.String("storage_classes", conv.StorageClasses),
		zap.Bool("dry_run", conv.DryRun),
	)

	if r.metrics != nil {
		go func() {
			if err := r.metrics.StartServer(r.cfg.MetricsAddr); err != nil {
				r.logger.Error("Failed to start metrics server", zap.Error(err))
			}
		}()
	}

	if r.progress != nil {
		display := progress.NewDisplay(r.progress, progressInterval)
		display.Start()
		defer display.Stop()
	}

	obs := r.observer()
	plan, table, listErr := migrate.NewClassifier(r.gateway, obs, r.logger).Classify(ctx, conv.Bucket, conv.Prefix, r.policies)
	if listErr != nil {
		r.logger.Warn("Continuing with the objects listed before the error",
			zap.Int("objects", plan.Len()),
		)
	}

	if conv.DryRun {
		logPlan(r.logger, conv.Bucket, &plan, table)
		table.LogReport(r.logger)
		return table, listErr
	}

	converter := migrate.NewConverter(r.gateway, conv.Bucket, obs, r.logger)
	orchestrator := migrate.NewOrchestrator(r.gateway, conv.Bucket, migrate.RestoreConfig{
		Restore: storage.RestoreOptions{
			Days: conv.RestoreDays,
			Tier: conv.RestoreTier,
		},
		PollInterval:  conv.PollInterval,
		MaxPollRounds: conv.MaxPollRounds,
		MaxWait:       conv.MaxWait,
	}, converter, obs, r.logger)
	if r.Configure != nil {
		r.Configure(orchestrator)
	}

	// Direct tiers convert before any restore wait starts
	for _, t := range table.Tiers() {
		if items := plan.Items(t); len(items) > 0 && !t.Staged() {
			converter.Convert(ctx, t, items, table.For(t))
		}
	}
	for _, t := range table.Tiers() {
		items := plan.Items(t)
		if len(items) == 0 || !t.Staged() {
			continue
		}

		rounds := orchestrator.Run(ctx, t, items, table.For(t))
		r.logger.Info("Restore phase finished",
			zap.Stringer("tier", t),
			zap.Int("poll_rounds", rounds),
		)
	}

	table.LogReport(r.logger)
	r.logger.Info("Conversion completed")
	return table, listErr
}

// Close releases the journal
func (r *Runner) Close() error {
	if r.journal != nil {
		return r.journal.Close()
	}
	return nil
}
