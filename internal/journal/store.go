package journal

import (
	"time"

	"tierconvert/internal/stats"
)

// Status represents the state of an object within a run
type Status string

const (
	StatusDiscovered Status = "discovered"
	StatusConverted  Status = "converted"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusDropped    Status = "dropped"
	StatusTimedOut   Status = "timed_out"
)

// StatusOf maps a run outcome to its journal status
func StatusOf(o stats.Outcome) Status {
	return Status(o.String())
}

// ObjectRecord represents an object row in the journal
type ObjectRecord struct {
	RunID     string    `json:"run_id"`
	Key       string    `json:"key"`
	Tier      string    `json:"tier"`
	Status    Status    `json:"status"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for the run journal. It is an audit trail only;
// runs never read it back to resume work.
type Store interface {
	GetObject(runID, key string) (*ObjectRecord, error)
	SaveObject(record *ObjectRecord) error
	ListByStatus(runID string, status Status) ([]*ObjectRecord, error)

	Close() error
}
