package migrate

import (
	"context"
	"time"

	"tierconvert/internal/stats"
	"tierconvert/internal/storage"
	"tierconvert/internal/tier"

	"go.uber.org/zap"
)

// Converter copies objects onto themselves with the adaptive storage class
type Converter struct {
	gateway  storage.Gateway
	bucket   string
	target   string
	observer Observer
	logger   *zap.Logger
}

// NewConverter creates a converter targeting tier.Adaptive. observer may be nil.
func NewConverter(gateway storage.Gateway, bucket string, observer Observer, logger *zap.Logger) *Converter {
	return &Converter{
		gateway:  gateway,
		bucket:   bucket,
		target:   tier.Adaptive,
		observer: observer,
		logger:   logger,
	}
}

// Convert processes items in order. A failed item never stops the batch and
// nothing is retried.
func (c *Converter) Convert(ctx context.Context, t tier.Tier, items []WorkItem, st *stats.Stats) {
	for _, item := range items {
		c.convert(ctx, t, item, st)
	}
}

func (c *Converter) convert(ctx context.Context, t tier.Tier, item WorkItem, st *stats.Stats) {
	if !item.ConvertToAdaptive {
		c.logger.Info("Skipping conversion",
			zap.Stringer("tier", t),
			zap.String("key", item.Key),
		)
		record(c.observer, st, t, item.Key, stats.Skipped, nil)
		return
	}

	startTime := time.Now()
	if err := c.gateway.CopyInPlace(ctx, c.bucket, item.Key, c.target); err != nil {
		c.logger.Error("Error converting object",
			zap.Stringer("tier", t),
			zap.String("key", item.Key),
			zap.Error(err),
		)
		record(c.observer, st, t, item.Key, stats.Failed, err)
		return
	}

	c.logger.Info("Converted object",
		zap.Stringer("tier", t),
		zap.String("key", item.Key),
		zap.String("storage_class", c.target),
		zap.Duration("duration", time.Since(startTime)),
	)
	record(c.observer, st, t, item.Key, stats.Converted, nil)
}
