package processor

import (
	"fmt"
	"time"

	"imagevariants/types"
)

// Recorder receives every derivative as it is written
type Recorder interface {
	RecordDerivative(info types.DerivativeInfo) error
}

// SourceError carries the source image whose processing failed
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("error processing %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ProcessImageResult holds the result of processing one source image
type ProcessImageResult struct {
	Path        string
	Success     bool
	Error       error
	Generated   int
	Bytes       int64
	Derivatives []types.DerivativeInfo
}

// RunStats summarizes a whole run
type RunStats struct {
	Codec      string
	Sources    int
	Processed  int
	Generated  int
	Bytes      int64
	Collisions int
	Duration   time.Duration
}
