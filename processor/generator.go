package processor

import (
	"fmt"
	"os"

	"imagevariants/config"
	"imagevariants/imageprocessor"
	"imagevariants/logging"
	"imagevariants/types"
	"imagevariants/utils"
)

// Generator writes every size/format derivative for one source at a time
type Generator struct {
	codec    imageprocessor.Codec
	sizes    []types.SizeProfile
	formats  []types.FormatProfile
	recorder Recorder
}

// NewGenerator creates a generator using the profiles from cfg
func NewGenerator(codec imageprocessor.Codec, cfg *config.Config) *Generator {
	return &Generator{
		codec:   codec,
		sizes:   cfg.Sizes,
		formats: cfg.Formats,
	}
}

// SetRecorder attaches a recorder that is told about each derivative.
// A recorder error fails the source like any write error.
func (g *Generator) SetRecorder(r Recorder) {
	g.recorder = r
}

// PerSource is the number of derivatives written for each source
func (g *Generator) PerSource() int {
	return len(g.sizes) * len(g.formats)
}

// Generate writes all derivatives of sourcePath and returns how many were
// written. Errors are returned as *SourceError.
func (g *Generator) Generate(sourcePath string) (int, error) {
	result := g.ProcessImage(sourcePath)
	if !result.Success {
		return 0, result.Error
	}
	return result.Generated, nil
}

// ProcessImage is Generate with the full per-source result
func (g *Generator) ProcessImage(sourcePath string) ProcessImageResult {
	result := ProcessImageResult{Path: sourcePath}

	if err := g.processImage(sourcePath, &result); err != nil {
		result.Error = &SourceError{Path: sourcePath, Err: err}
		logging.LogImageProcessed(sourcePath, false, err.Error())
		return result
	}

	result.Success = true
	logging.LogImageProcessed(sourcePath, true, "")
	return result
}

func (g *Generator) processImage(sourcePath string, result *ProcessImageResult) error {
	native, err := g.codec.Probe(sourcePath)
	if err != nil {
		return fmt.Errorf("cannot read metadata: %w", err)
	}
	if native.Width <= 0 || native.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", imageprocessor.ErrDecode, native.Width, native.Height)
	}

	logging.LogInfo("Processing: %s", sourcePath)
	logging.LogInfo("  Source dimensions: %dx%d", native.Width, native.Height)

	src, err := g.codec.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	for _, size := range g.sizes {
		actualWidth := utils.ClampWidth(size.Width, native.Width)

		for _, format := range g.formats {
			dst := utils.DerivativePath(sourcePath, size.Name, format.Ext)

			dims, err := src.WriteVariant(dst, size.Width, format)
			if err != nil {
				return fmt.Errorf("%s %s: %w", size.Name, format.Label, err)
			}

			info := types.DerivativeInfo{
				SourcePath: sourcePath,
				Path:       dst,
				Size:       size.Name,
				Format:     format.Name,
				Width:      dims.Width,
				Height:     dims.Height,
			}
			if fi, err := os.Stat(dst); err == nil {
				info.Bytes = fi.Size()
			} else {
				return fmt.Errorf("%s %s: output missing after write: %w", size.Name, format.Label, err)
			}

			logging.WithFields(map[string]interface{}{
				"path":   dst,
				"size":   size.Name,
				"format": format.Name,
				"width":  dims.Width,
				"height": dims.Height,
				"bytes":  info.Bytes,
			}, "  ✓ Generated %s %s (%dpx)", size.Name, format.Label, actualWidth)

			if g.recorder != nil {
				if err := g.recorder.RecordDerivative(info); err != nil {
					return fmt.Errorf("cannot record %s: %w", dst, err)
				}
			}

			result.Generated++
			result.Bytes += info.Bytes
			result.Derivatives = append(result.Derivatives, info)
		}
	}

	logging.LogInfo("  Total: %d files generated", result.Generated)
	logging.LogInfo("")
	return nil
}
