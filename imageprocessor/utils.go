package imageprocessor

import (
	"fmt"
	"os"
	"path/filepath"
)

// Utility functions shared by the codecs

// WriteOutput writes encoded bytes to dst through a temporary file in the
// same directory, so a failed write never leaves a truncated derivative.
func WriteOutput(dst string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty output for %s", ErrEncode, dst)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create output for %s: %w", dst, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cannot write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot write %s: %w", dst, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot write %s: %w", dst, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cannot write %s: %w", dst, err)
	}
	return nil
}
