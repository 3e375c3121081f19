package imageprocessor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FormatType names an image encoding
type FormatType string

const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatWEBP    FormatType = "webp"
)

// byExtension maps lowercase file extensions to formats. PNG is only ever a
// source, WebP only ever an output.
var byExtension = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".webp": FormatWEBP,
}

// canonicalExtension is the extension each format is written with
var canonicalExtension = map[FormatType]string{
	FormatJPEG: ".jpg",
	FormatPNG:  ".png",
	FormatWEBP: ".webp",
}

// GetFileFormat infers the format of path from its extension, in any case
func GetFileFormat(path string) FormatType {
	if ft, ok := byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return ft
	}
	return FormatUnknown
}

// ParseOutputFormat maps a format profile name to a format the codecs can
// encode
func ParseOutputFormat(name string) (FormatType, error) {
	ft := FormatType(strings.ToLower(name))
	if ft != FormatWEBP && ft != FormatJPEG {
		return FormatUnknown, fmt.Errorf("unsupported output format %q", name)
	}
	return ft, nil
}

// FormatToExtension returns the extension format is written with, or "" for
// FormatUnknown
func FormatToExtension(format FormatType) string {
	return canonicalExtension[format]
}
