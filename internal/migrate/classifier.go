package migrate

import (
	"context"

	"tierconvert/internal/stats"
	"tierconvert/internal/storage"
	"tierconvert/internal/tier"

	"go.uber.org/zap"
)

// Classifier lists a prefix and sorts archived objects into per-tier work
type Classifier struct {
	gateway  storage.Gateway
	observer Observer
	logger   *zap.Logger
}

// NewClassifier creates a classifier. observer may be nil.
func NewClassifier(gateway storage.Gateway, observer Observer, logger *zap.Logger) *Classifier {
	return &Classifier{
		gateway:  gateway,
		observer: observer,
		logger:   logger,
	}
}

// Classify lists objects under prefix and records a work item for every
// object whose storage class matches a policy. The first matching policy
// claims the object. A listing error is returned together with the plan and
// stats built from the objects listed before it.
func (c *Classifier) Classify(ctx context.Context, bucket, prefix string, policies []tier.Policy) (Plan, *stats.Table, error) {
	var plan Plan

	tiers := make([]tier.Tier, 0, len(policies))
	for _, p := range policies {
		tiers = append(tiers, p.Tier)
	}
	table := stats.NewTable(tiers...)

	c.logger.Info("Listing objects",
		zap.String("bucket", bucket),
		zap.String("prefix", prefix),
	)

	objects, listErr := c.gateway.List(ctx, bucket, prefix)
	if listErr != nil {
		c.logger.Error("Error listing objects",
			zap.Int("listed_before_error", len(objects)),
			zap.Error(listErr),
		)
	}

	for _, obj := range objects {
		if obj.StorageClass == "" {
			continue
		}

		for _, p := range policies {
			if obj.StorageClass != p.Tier.String() {
				continue
			}

			table.For(p.Tier).Found++
			plan[p.Tier] = append(plan[p.Tier], WorkItem{
				Key:               obj.Key,
				ConvertToAdaptive: p.ConvertToAdaptive,
			})
			if c.observer != nil {
				c.observer.Discovered(p.Tier, obj.Key)
			}
			c.logger.Debug("Found object",
				zap.Stringer("tier", p.Tier),
				zap.String("key", obj.Key),
			)
			break
		}
	}

	for _, t := range table.Tiers() {
		c.logger.Info("Found objects",
			zap.Stringer("tier", t),
			zap.Int("count", table.Get(t).Found),
		)
	}

	return plan, table, listErr
}
