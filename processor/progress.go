package processor

import (
	"time"

	"imagevariants/logging"
	"imagevariants/utils"
)

// ProgressTracker accumulates per-source results over a run
type ProgressTracker struct {
	stats     RunStats
	startTime time.Time
}

// NewProgressTracker starts tracking a run over the given number of sources
func NewProgressTracker(codec string, sources int) *ProgressTracker {
	return &ProgressTracker{
		stats:     RunStats{Codec: codec, Sources: sources},
		startTime: time.Now(),
	}
}

// Record adds one successful source's result
func (p *ProgressTracker) Record(result ProcessImageResult) {
	if !result.Success {
		return
	}
	p.stats.Processed++
	p.stats.Generated += result.Generated
	p.stats.Bytes += result.Bytes
}

// Stats returns the totals so far
func (p *ProgressTracker) Stats() RunStats {
	s := p.stats
	s.Duration = time.Since(p.startTime)
	return s
}

// PrintStartupInfo logs what the run is about to do
func PrintStartupInfo(stats RunStats, perSource int) {
	logging.DebugLog("Using codec %s for %d sources (%d derivatives each)", stats.Codec, stats.Sources, perSource)
}

// PrintCompletionStats logs the final summary line
func PrintCompletionStats(stats RunStats) {
	logging.DebugLog("Run finished in %v: %d sources, %d files, %s written",
		stats.Duration.Round(time.Millisecond), stats.Processed, stats.Generated, utils.FormatBytes(stats.Bytes))

	logging.LogInfo("")
	logging.LogInfo("✓ Processing complete: %d files generated from %d source images", stats.Generated, stats.Sources)
}
