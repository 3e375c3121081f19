package utils

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"imagevariants/types"
)

// SplitExt splits a file name into its stem and extension. A leading dot
// does not start an extension, so ".jpg" has no extension.
func SplitExt(name string) (stem, ext string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// DerivativePath returns <dir>/<basename>-<sizeName><ext> for a source image.
// ext includes the leading dot.
func DerivativePath(sourcePath, sizeName, ext string) string {
	dir := filepath.Dir(sourcePath)
	stem, _ := SplitExt(filepath.Base(sourcePath))
	return filepath.Join(dir, stem+"-"+sizeName+ext)
}

// ClampWidth returns the width a derivative is generated at: the target
// width, or the native width when the target would upscale.
func ClampWidth(target, native int) int {
	if target > native {
		return native
	}
	return target
}

// ScaledHeight returns the height that preserves the source aspect ratio at
// the given width, rounded to the nearest pixel and never below 1.
func ScaledHeight(width int, native types.Dimensions) int {
	if native.Width <= 0 {
		return 0
	}
	h := int(math.Round(float64(width) * float64(native.Height) / float64(native.Width)))
	if h < 1 {
		h = 1
	}
	return h
}

// FormatBytes renders a byte count for log output
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
