package scanner

import (
	"strings"

	"imagevariants/utils"
)

// sourceExtensions are the extensions a source image may have (lowercase).
var sourceExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// derivativeMarkers mark a basename as an already generated derivative.
var derivativeMarkers = []string{"-thumbnail", "-small", "-medium", "-large"}

// IsSupportedExtension checks if an extension (any case) can be a source
func IsSupportedExtension(ext string) bool {
	return sourceExtensions[strings.ToLower(ext)]
}

// IsDerivativeName checks if an extension-stripped basename carries one of
// the size markers
func IsDerivativeName(stem string) bool {
	for _, marker := range derivativeMarkers {
		if strings.Contains(stem, marker) {
			return true
		}
	}
	return false
}

// IsSourceImage checks a file name against the source image rules
func IsSourceImage(name string) bool {
	stem, ext := utils.SplitExt(name)
	return IsSupportedExtension(ext) && !IsDerivativeName(stem)
}
