package imageprocessor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"imagevariants/types"
	"imagevariants/utils"
)

// NativeCodec decodes with the Go image packages, resizes with imaging and
// encodes WebP through libwebp bindings. It needs no system libraries.
type NativeCodec struct {
	meta MetadataReader
}

// NewNativeCodec creates the fallback codec. meta may be nil, in which case
// image headers are decoded directly.
func NewNativeCodec(meta MetadataReader) *NativeCodec {
	if meta == nil {
		meta = DecodeConfigReader{}
	}
	return &NativeCodec{meta: meta}
}

// Name implements Codec
func (c *NativeCodec) Name() string { return "native" }

// Available implements Codec
func (c *NativeCodec) Available() error { return nil }

// Probe implements Codec
func (c *NativeCodec) Probe(path string) (types.Dimensions, error) {
	return c.meta.ReadDimensions(path)
}

// Open implements Codec
func (c *NativeCodec) Open(path string) (Source, error) {
	if GetFileFormat(path) == FormatUnknown {
		return nil, fmt.Errorf("%w: %s: unsupported source format", ErrDecode, path)
	}

	// EXIF orientation is left alone so decoded and probed sizes agree.
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s: empty image", ErrDecode, path)
	}
	return &nativeSource{path: path, img: img}, nil
}

type nativeSource struct {
	path string
	img  image.Image
}

func (s *nativeSource) Dimensions() types.Dimensions {
	b := s.img.Bounds()
	return types.Dimensions{Width: b.Dx(), Height: b.Dy()}
}

func (s *nativeSource) WriteVariant(dst string, width int, format types.FormatProfile) (types.Dimensions, error) {
	native := s.Dimensions()
	w := utils.ClampWidth(width, native.Width)
	h := utils.ScaledHeight(w, native)

	var resized image.Image = s.img
	if w != native.Width {
		resized = imaging.Resize(s.img, w, h, imaging.Lanczos)
	}

	ft, err := ParseOutputFormat(format.Name)
	if err != nil {
		return types.Dimensions{}, err
	}

	var buf bytes.Buffer
	switch ft {
	case FormatWEBP:
		err = webp.Encode(&buf, resized, &webp.Options{Quality: float32(format.Quality)})
	case FormatJPEG:
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(format.Quality))
	}
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("%w: %s as %s: %v", ErrEncode, s.path, format.Name, err)
	}

	if err := WriteOutput(dst, buf.Bytes()); err != nil {
		return types.Dimensions{}, err
	}

	rb := resized.Bounds()
	return types.Dimensions{Width: rb.Dx(), Height: rb.Dy()}, nil
}

func (s *nativeSource) Close() error {
	s.img = nil
	return nil
}
