package progress

import (
	"fmt"
	"sync"
	"time"

	"tierconvert/internal/stats"
	"tierconvert/internal/tier"
)

// Status represents the current conversion status
type Status struct {
	FoundObjects     int64
	ProcessedObjects int64
	ConvertedObjects int64
	FailedObjects    int64
	SkippedObjects   int64
	DroppedObjects   int64
	TimedOutObjects  int64
	PendingRestores  int64
	PollRounds       int64
	StartTime        time.Time
	LastUpdateTime   time.Time
}

// Tracker tracks conversion progress across all tiers. It satisfies
// migrate.Observer and is safe to read while a run updates it.
type Tracker struct {
	mu      sync.RWMutex
	status  Status
	pending [tier.Count]int64
	now     func() time.Time
}

// NewTracker creates a new progress tracker
func NewTracker() *Tracker {
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	start := now()
	return &Tracker{
		status: Status{
			StartTime:      start,
			LastUpdateTime: start,
		},
		now: now,
	}
}

// Discovered counts a classified object
func (t *Tracker) Discovered(tr tier.Tier, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.FoundObjects++
	t.status.LastUpdateTime = t.now()
}

// Observe counts a final outcome
func (t *Tracker) Observe(tr tier.Tier, key string, outcome stats.Outcome, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch outcome {
	case stats.Converted:
		t.status.ConvertedObjects++
	case stats.Failed:
		t.status.FailedObjects++
	case stats.Skipped:
		t.status.SkippedObjects++
	case stats.Dropped:
		t.status.DroppedObjects++
	case stats.TimedOut:
		t.status.TimedOutObjects++
	}
	t.status.ProcessedObjects++
	t.status.LastUpdateTime = t.now()
}

// PollRound records the number of restores still pending in tr
func (t *Tracker) PollRound(tr tier.Tier, pending int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending[tr] = int64(pending)
	var total int64
	for _, n := range t.pending {
		total += n
	}
	t.status.PendingRestores = total
	t.status.PollRounds++
	t.status.LastUpdateTime = t.now()
}

// GetStatus returns the current status (thread-safe)
func (t *Tracker) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.status
}

// GetProgressPercent returns the share of found objects with an outcome
func (t *Tracker) GetProgressPercent() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.status.FoundObjects == 0 {
		return 0
	}

	return float64(t.status.ProcessedObjects) / float64(t.status.FoundObjects) * 100
}

// FormatDuration formats duration in human readable format
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	} else {
		return fmt.Sprintf("%ds", seconds)
	}
}
