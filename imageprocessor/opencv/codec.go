// Package opencv provides the OpenCV-backed codec. It is kept apart from
// imageprocessor so that only binaries which select it link against OpenCV.
package opencv

import (
	"fmt"
	"image"
	"runtime/debug"

	"gocv.io/x/gocv"

	"imagevariants/imageprocessor"
	"imagevariants/logging"
	"imagevariants/types"
	"imagevariants/utils"
)

// Codec decodes, resizes and encodes through gocv
type Codec struct {
	meta imageprocessor.MetadataReader
}

// NewCodec creates the OpenCV codec. meta may be nil.
func NewCodec(meta imageprocessor.MetadataReader) *Codec {
	if meta == nil {
		meta = imageprocessor.DecodeConfigReader{}
	}
	return &Codec{meta: meta}
}

// Name implements imageprocessor.Codec
func (c *Codec) Name() string { return "opencv" }

// Available checks that this OpenCV build can encode every output format.
// Builds without libwebp fail the WebP probe.
func (c *Codec) Available() error {
	probe := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer probe.Close()

	for _, ft := range []imageprocessor.FormatType{imageprocessor.FormatWEBP, imageprocessor.FormatJPEG} {
		ext := imageprocessor.FormatToExtension(ft)
		buf, err := gocv.IMEncode(gocv.FileExt(ext), probe)
		if err != nil {
			return fmt.Errorf("%w: opencv cannot encode %s: %v", imageprocessor.ErrUnavailable, ext, err)
		}
		n := buf.Len()
		buf.Close()
		if n == 0 {
			return fmt.Errorf("%w: opencv produced no %s output", imageprocessor.ErrUnavailable, ext)
		}
	}
	return nil
}

// Probe implements imageprocessor.Codec
func (c *Codec) Probe(path string) (types.Dimensions, error) {
	return c.meta.ReadDimensions(path)
}

// Open implements imageprocessor.Codec
func (c *Codec) Open(path string) (src imageprocessor.Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s", r, path, string(debug.Stack()))
			src = nil
			err = fmt.Errorf("%w: %s: panic: %v", imageprocessor.ErrDecode, path, r)
		}
	}()

	if imageprocessor.GetFileFormat(path) == imageprocessor.FormatUnknown {
		return nil, fmt.Errorf("%w: %s: unsupported source format", imageprocessor.ErrDecode, path)
	}

	// IMReadUnchanged keeps alpha for WebP and does not apply EXIF
	// orientation, matching what the metadata query reports.
	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: failed to load image: %s", imageprocessor.ErrDecode, path)
	}

	// 16-bit and two-channel images cannot be encoded as-is; reload as
	// 8-bit BGR.
	if !isEncodableType(mat.Type()) {
		logging.DebugLog("Reloading %s as 8-bit colour (type %v)", path, mat.Type())
		mat.Close()
		mat = gocv.IMRead(path, gocv.IMReadColor|gocv.IMReadIgnoreOrientation)
		if mat.Empty() {
			mat.Close()
			return nil, fmt.Errorf("%w: failed to load image as colour: %s", imageprocessor.ErrDecode, path)
		}
	}

	return &source{path: path, mat: mat}, nil
}

func isEncodableType(t gocv.MatType) bool {
	switch t {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return true
	default:
		return false
	}
}

type source struct {
	path string
	mat  gocv.Mat
}

func (s *source) Dimensions() types.Dimensions {
	return types.Dimensions{Width: s.mat.Cols(), Height: s.mat.Rows()}
}

func (s *source) WriteVariant(dst string, width int, format types.FormatProfile) (types.Dimensions, error) {
	ft, err := imageprocessor.ParseOutputFormat(format.Name)
	if err != nil {
		return types.Dimensions{}, err
	}

	native := s.Dimensions()
	w := utils.ClampWidth(width, native.Width)
	h := utils.ScaledHeight(w, native)

	img := s.mat
	if w != native.Width {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(s.mat, &resized, image.Point{X: w, Y: h}, 0, 0, gocv.InterpolationArea)
		img = resized
	}

	var params []int
	switch ft {
	case imageprocessor.FormatWEBP:
		params = []int{int(gocv.IMWriteWebpQuality), format.Quality}
	case imageprocessor.FormatJPEG:
		params = []int{int(gocv.IMWriteJpegQuality), format.Quality}
		if img.Channels() == 4 {
			bgr := gocv.NewMat()
			defer bgr.Close()
			gocv.CvtColor(img, &bgr, gocv.ColorBGRAToBGR)
			img = bgr
		}
	}

	buf, err := gocv.IMEncodeWithParams(gocv.FileExt(imageprocessor.FormatToExtension(ft)), img, params)
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("%w: %s as %s: %v", imageprocessor.ErrEncode, s.path, format.Name, err)
	}
	defer buf.Close()

	if err := imageprocessor.WriteOutput(dst, buf.GetBytes()); err != nil {
		return types.Dimensions{}, err
	}
	return types.Dimensions{Width: img.Cols(), Height: img.Rows()}, nil
}

func (s *source) Close() error {
	return s.mat.Close()
}
