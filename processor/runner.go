package processor

import (
	"errors"
	"fmt"

	"imagevariants/config"
	"imagevariants/database"
	"imagevariants/imageprocessor"
	"imagevariants/logging"
	"imagevariants/scanner"
)

// Run discovers every source under cfg.SourceDir and generates its
// derivatives one source at a time. The first error stops the run.
func Run(cfg *config.Config, codec imageprocessor.Codec) (RunStats, error) {
	stats := RunStats{Codec: codec.Name()}

	logging.LogInfo("Starting image processing...")
	logging.LogInfo("")

	sources, err := scanner.FindSourceImages(cfg.SourceDir)
	if err != nil {
		return stats, err
	}
	stats.Sources = len(sources)

	logging.LogInfo("Found %d source images", len(sources))
	logging.LogInfo("")

	if len(sources) == 0 {
		logging.LogInfo("No images to process")
		return stats, nil
	}

	collisions := scanner.FindOutputCollisions(sources, cfg.SizeNames(), cfg.Extensions())
	for _, c := range collisions {
		logging.LogWarning("%s is written by more than one source, last one wins: %v", c.Output, c.Sources)
	}
	stats.Collisions = len(collisions)

	gen := NewGenerator(codec, cfg)

	var manifest *database.Manifest
	if cfg.ManifestPath != "" {
		manifest, err = database.OpenManifest(cfg.ManifestPath, codec.Name(), cfg.SourceDir)
		if err != nil {
			return stats, fmt.Errorf("cannot open run manifest %s: %w", cfg.ManifestPath, err)
		}
		defer manifest.Close()
		gen.SetRecorder(manifest)
	}

	tracker := NewProgressTracker(codec.Name(), len(sources))
	tracker.stats.Collisions = stats.Collisions
	PrintStartupInfo(tracker.Stats(), gen.PerSource())

	for _, src := range sources {
		result := gen.ProcessImage(src)
		tracker.Record(result)
		if !result.Success {
			stats = tracker.Stats()
			return stats, errors.Join(result.Error, finishManifest(manifest, stats, database.StatusFailed))
		}
	}

	stats = tracker.Stats()
	if err := finishManifest(manifest, stats, database.StatusCompleted); err != nil {
		return stats, err
	}

	PrintCompletionStats(stats)
	return stats, nil
}

func finishManifest(m *database.Manifest, stats RunStats, status string) error {
	if m == nil {
		return nil
	}
	return m.Finish(stats.Sources, stats.Generated, status)
}
