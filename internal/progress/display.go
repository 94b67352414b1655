package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Display periodically renders a Tracker to a writer
type Display struct {
	tracker  *Tracker
	interval time.Duration
	out      io.Writer
	stopCh   chan struct{}
	done     sync.WaitGroup
}

// NewDisplay creates a new progress display writing to stdout
func NewDisplay(tracker *Tracker, interval time.Duration) *Display {
	return &Display{
		tracker:  tracker,
		interval: interval,
		out:      os.Stdout,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the progress display
func (d *Display) Start() {
	d.done.Add(1)
	go d.displayLoop()
}

// Stop stops the display and prints the final summary
func (d *Display) Stop() {
	close(d.stopCh)
	d.done.Wait()
}

func (d *Display) displayLoop() {
	defer d.done.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fmt.Fprintln(d.out, strings.Join(d.generateDisplay(d.tracker.GetStatus()), "\n"))
		case <-d.stopCh:
			fmt.Fprintln(d.out, strings.Join(d.generateFinalDisplay(d.tracker.GetStatus()), "\n"))
			return
		}
	}
}

func (d *Display) generateDisplay(status Status) []string {
	percent := d.tracker.GetProgressPercent()

	lines := []string{
		"",
		"Conversion progress",
		strings.Repeat("=", 40),
		fmt.Sprintf("Objects: %d/%d (%.1f%%)", status.ProcessedObjects, status.FoundObjects, percent),
		"    " + generateProgressBar(percent, 40),
		fmt.Sprintf("  Converted: %d", status.ConvertedObjects),
		fmt.Sprintf("  Failed: %d", status.FailedObjects),
		fmt.Sprintf("  Skipped: %d", status.SkippedObjects),
	}
	if status.DroppedObjects > 0 {
		lines = append(lines, fmt.Sprintf("  Restore rejected: %d", status.DroppedObjects))
	}
	if status.PollRounds > 0 {
		lines = append(lines,
			fmt.Sprintf("  Restores pending: %d (after %d checks)", status.PendingRestores, status.PollRounds),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Elapsed: %s", FormatDuration(status.LastUpdateTime.Sub(status.StartTime))),
		fmt.Sprintf("Last update: %s", status.LastUpdateTime.Format("15:04:05")),
	)
	return lines
}

func (d *Display) generateFinalDisplay(status Status) []string {
	return []string{
		"",
		"Conversion finished",
		strings.Repeat("=", 40),
		fmt.Sprintf("Processed: %d of %d objects", status.ProcessedObjects, status.FoundObjects),
		fmt.Sprintf("  Converted: %d", status.ConvertedObjects),
		fmt.Sprintf("  Failed: %d", status.FailedObjects),
		fmt.Sprintf("  Skipped: %d", status.SkippedObjects),
		fmt.Sprintf("  Restore rejected: %d", status.DroppedObjects),
		fmt.Sprintf("  Timed out: %d", status.TimedOutObjects),
		fmt.Sprintf("Total time: %s", FormatDuration(status.LastUpdateTime.Sub(status.StartTime))),
		"",
	}
}

func generateProgressBar(percent float64, width int) string {
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	filled := int(percent * float64(width) / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	return fmt.Sprintf("[%s] %.1f%%", bar, percent)
}

// IsTerminalSupported reports whether stdout is an interactive terminal
func IsTerminalSupported() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}
