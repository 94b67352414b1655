package migrate

import (
	"context"
	"errors"
	"time"

	"tierconvert/internal/stats"
	"tierconvert/internal/storage"
	"tierconvert/internal/tier"

	"go.uber.org/zap"
)

// Restore defaults
const (
	DefaultRestoreDays  = 10
	DefaultRestoreTier  = storage.RetrievalBulk
	DefaultPollInterval = time.Hour
)

var errDuplicateKey = errors.New("duplicate key")

// RestoreConfig controls restore requests and the poll loop
type RestoreConfig struct {
	Restore      storage.RestoreOptions
	PollInterval time.Duration
	// MaxPollRounds stops polling after this many rounds; 0 polls forever
	MaxPollRounds int
	// MaxWait stops polling once this much time has passed; 0 waits forever
	MaxWait time.Duration
}

// DefaultRestoreConfig returns the unbounded hourly configuration
func DefaultRestoreConfig() RestoreConfig {
	return RestoreConfig{
		Restore: storage.RestoreOptions{
			Days: DefaultRestoreDays,
			Tier: DefaultRestoreTier,
		},
		PollInterval: DefaultPollInterval,
	}
}

// Orchestrator restores staged objects and hands them to the converter once
// their temporary copy is available
type Orchestrator struct {
	gateway   storage.Gateway
	bucket    string
	cfg       RestoreConfig
	converter *Converter
	observer  Observer
	logger    *zap.Logger

	// Sleep blocks between poll rounds
	Sleep func(time.Duration)
	Now   func() time.Time
}

// NewOrchestrator creates an orchestrator. observer may be nil.
func NewOrchestrator(gateway storage.Gateway, bucket string, cfg RestoreConfig, converter *Converter, observer Observer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:   gateway,
		bucket:    bucket,
		cfg:       cfg,
		converter: converter,
		observer:  observer,
		logger:    logger,
		Sleep:     time.Sleep,
		Now:       time.Now,
	}
}

// pendingSet keeps restoring items keyed by object key in request order
type pendingSet struct {
	order []string
	items map[string]WorkItem
}

func newPendingSet() *pendingSet {
	return &pendingSet{items: make(map[string]WorkItem)}
}

func (p *pendingSet) add(item WorkItem) bool {
	if _, ok := p.items[item.Key]; ok {
		return false
	}
	p.items[item.Key] = item
	p.order = append(p.order, item.Key)
	return true
}

func (p *pendingSet) len() int {
	return len(p.order)
}

// take removes and returns the items whose keys satisfy done, in set order
func (p *pendingSet) take(done func(WorkItem) bool) []WorkItem {
	var taken []WorkItem
	kept := p.order[:0]
	for _, key := range p.order {
		item := p.items[key]
		if done(item) {
			taken = append(taken, item)
			delete(p.items, key)
			continue
		}
		kept = append(kept, key)
	}
	p.order = kept
	return taken
}

// Run requests restores for items, then polls until every accepted request
// has completed and been converted or a configured bound runs out. It
// returns the number of poll rounds performed.
func (o *Orchestrator) Run(ctx context.Context, t tier.Tier, items []WorkItem, st *stats.Stats) int {
	pending := o.requestRestores(ctx, t, items, st)
	if pending.len() == 0 {
		return 0
	}

	start := o.Now()
	rounds := 0

	for pending.len() > 0 {
		rounds++
		o.logger.Info("Checking restore status",
			zap.Stringer("tier", t),
			zap.Int("round", rounds),
			zap.Int("pending", pending.len()),
		)

		restored := pending.take(func(item WorkItem) bool {
			return o.restored(ctx, t, item)
		})
		if o.observer != nil {
			o.observer.PollRound(t, pending.len())
		}

		if len(restored) > 0 {
			o.converter.Convert(ctx, t, restored, st)
		}

		if pending.len() == 0 {
			break
		}

		if o.exhausted(rounds, start) {
			o.timeOut(t, pending, st)
			break
		}

		o.logger.Info("Waiting for objects to complete restore",
			zap.Stringer("tier", t),
			zap.Int("pending", pending.len()),
			zap.Duration("interval", o.cfg.PollInterval),
		)
		o.Sleep(o.cfg.PollInterval)
	}

	return rounds
}

func (o *Orchestrator) requestRestores(ctx context.Context, t tier.Tier, items []WorkItem, st *stats.Stats) *pendingSet {
	pending := newPendingSet()
	var skipped []WorkItem

	for _, item := range items {
		if !item.ConvertToAdaptive {
			skipped = append(skipped, item)
			continue
		}

		err := o.gateway.RestoreRequest(ctx, o.bucket, item.Key, o.cfg.Restore)
		switch {
		case err == nil:
			o.logger.Info("Initiated restore", zap.Stringer("tier", t), zap.String("key", item.Key))
		case errors.Is(err, storage.ErrRestoreInProgress):
			o.logger.Info("Restore already in progress", zap.Stringer("tier", t), zap.String("key", item.Key))
		default:
			o.logger.Error("Error initiating restore",
				zap.Stringer("tier", t),
				zap.String("key", item.Key),
				zap.Error(err),
			)
			record(o.observer, st, t, item.Key, stats.Dropped, err)
			continue
		}

		if !pending.add(item) {
			o.logger.Warn("Duplicate key in restore set", zap.String("key", item.Key))
			record(o.observer, st, t, item.Key, stats.Dropped, errDuplicateKey)
		}
	}

	if len(skipped) > 0 {
		o.converter.Convert(ctx, t, skipped, st)
	}

	return pending
}

func (o *Orchestrator) restored(ctx context.Context, t tier.Tier, item WorkItem) bool {
	status, err := o.gateway.HeadStatus(ctx, o.bucket, item.Key)
	if err != nil {
		o.logger.Error("Error checking restore status",
			zap.Stringer("tier", t),
			zap.String("key", item.Key),
			zap.Error(err),
		)
		return false
	}

	if status.Restored() {
		o.logger.Info("Restore completed", zap.Stringer("tier", t), zap.String("key", item.Key))
		return true
	}
	return false
}

func (o *Orchestrator) exhausted(rounds int, start time.Time) bool {
	if o.cfg.MaxPollRounds > 0 && rounds >= o.cfg.MaxPollRounds {
		return true
	}
	if o.cfg.MaxWait > 0 && o.Now().Sub(start) >= o.cfg.MaxWait {
		return true
	}
	return false
}

func (o *Orchestrator) timeOut(t tier.Tier, pending *pendingSet, st *stats.Stats) {
	o.logger.Warn("Restore wait bound reached",
		zap.Stringer("tier", t),
		zap.Int("pending", pending.len()),
		zap.Int("max_poll_rounds", o.cfg.MaxPollRounds),
		zap.Duration("max_wait", o.cfg.MaxWait),
	)

	for _, item := range pending.take(func(WorkItem) bool { return true }) {
		o.logger.Warn("Restore timed out", zap.Stringer("tier", t), zap.String("key", item.Key))
		record(o.observer, st, t, item.Key, stats.TimedOut, nil)
	}
}
