package app

import (
	"tierconvert/internal/migrate"
	"tierconvert/internal/stats"
	"tierconvert/internal/tier"

	"go.uber.org/zap"
)

// logPlan reports what a run would do without touching any object
func logPlan(logger *zap.Logger, bucket string, plan *migrate.Plan, table *stats.Table) {
	for _, t := range table.Tiers() {
		for _, item := range plan.Items(t) {
			action := "convert"
			switch {
			case !item.ConvertToAdaptive:
				action = "skip"
			case t.Staged():
				action = "restore and convert"
			}

			logger.Info("Would process object",
				zap.String("bucket", bucket),
				zap.String("key", item.Key),
				zap.Stringer("tier", t),
				zap.String("action", action),
				zap.String("target", tier.Adaptive),
			)
		}
	}
}
