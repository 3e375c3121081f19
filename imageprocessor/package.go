// Package imageprocessor is the codec boundary: metadata queries on source
// images and resize/encode of derivatives.
package imageprocessor

import (
	"errors"

	"imagevariants/types"
)

// Sentinel errors wrapped by codecs so callers can classify failures.
var (
	ErrDecode      = errors.New("decode failed")
	ErrEncode      = errors.New("encode failed")
	ErrUnavailable = errors.New("codec unavailable")
)

// Codec is implemented by every image backend
type Codec interface {
	// Name identifies the backend in logs and the run manifest
	Name() string

	// Available returns nil if the backend can decode sources and encode
	// every output format
	Available() error

	// Probe returns the native pixel dimensions of a source image
	Probe(path string) (types.Dimensions, error)

	// Open decodes a source image for variant generation
	Open(path string) (Source, error)
}

// Source is a decoded image that variants are written from
type Source interface {
	Dimensions() types.Dimensions

	// WriteVariant resizes to width (never beyond the native width), keeps
	// the aspect ratio, encodes with the format's quality and writes dst.
	// It returns the dimensions actually written.
	WriteVariant(dst string, width int, format types.FormatProfile) (types.Dimensions, error)

	Close() error
}
