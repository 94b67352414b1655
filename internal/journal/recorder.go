package journal

import (
	"tierconvert/internal/stats"
	"tierconvert/internal/tier"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder writes run events to a Store. Write failures are logged and
// otherwise ignored so the journal can never stop a run.
type Recorder struct {
	store  Store
	runID  string
	logger *zap.Logger
}

// NewRecorder creates a recorder for a fresh run id
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		runID:  uuid.NewString(),
		logger: logger,
	}
}

// RunID returns the id the recorder writes under
func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) Discovered(t tier.Tier, key string) {
	r.save(t, key, StatusDiscovered, nil)
}

func (r *Recorder) Observe(t tier.Tier, key string, outcome stats.Outcome, err error) {
	r.save(t, key, StatusOf(outcome), err)
}

// PollRound is not journaled
func (r *Recorder) PollRound(t tier.Tier, pending int) {}

func (r *Recorder) save(t tier.Tier, key string, status Status, cause error) {
	record := &ObjectRecord{
		RunID:  r.runID,
		Key:    key,
		Tier:   t.String(),
		Status: status,
	}
	if cause != nil {
		record.LastError = cause.Error()
	}

	if err := r.store.SaveObject(record); err != nil {
		r.logger.Warn("Failed to journal object",
			zap.String("key", key),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
