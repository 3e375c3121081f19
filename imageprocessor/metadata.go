package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"

	"github.com/barasher/go-exiftool"
	_ "golang.org/x/image/webp"

	"imagevariants/logging"
	"imagevariants/types"
)

// MetadataReader answers the native width/height query for an image file
type MetadataReader interface {
	ReadDimensions(path string) (types.Dimensions, error)
}

// DecodeConfigReader reads dimensions from the image header only
type DecodeConfigReader struct{}

// ReadDimensions decodes the header of a JPEG, PNG or WebP file
func (DecodeConfigReader) ReadDimensions(path string) (types.Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Dimensions{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return types.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// ExiftoolReader queries a long-running exiftool process
type ExiftoolReader struct {
	et *exiftool.Exiftool
}

// NewExiftoolReader starts exiftool in stay-open mode
func NewExiftoolReader() (*ExiftoolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExiftoolReader{et: et}, nil
}

// ReadDimensions returns the ImageWidth/ImageHeight tags
func (r *ExiftoolReader) ReadDimensions(path string) (types.Dimensions, error) {
	fms := r.et.ExtractMetadata(path)
	if len(fms) == 0 {
		return types.Dimensions{}, fmt.Errorf("exiftool returned no metadata for %s", path)
	}
	fm := fms[0]
	if fm.Err != nil {
		return types.Dimensions{}, fmt.Errorf("exiftool %s: %w", path, fm.Err)
	}

	w, err := fm.GetInt("ImageWidth")
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("exiftool %s: ImageWidth: %w", path, err)
	}
	h, err := fm.GetInt("ImageHeight")
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("exiftool %s: ImageHeight: %w", path, err)
	}
	if w <= 0 || h <= 0 {
		return types.Dimensions{}, fmt.Errorf("exiftool %s: invalid size %dx%d", path, w, h)
	}
	return types.Dimensions{Width: int(w), Height: int(h)}, nil
}

// Close stops the exiftool process
func (r *ExiftoolReader) Close() error {
	return r.et.Close()
}

// MetadataChain tries each reader in order and returns the first answer
type MetadataChain struct {
	readers []MetadataReader
	closers []func() error
}

// NewMetadataChain builds a chain from explicit readers
func NewMetadataChain(readers ...MetadataReader) *MetadataChain {
	return &MetadataChain{readers: readers}
}

// NewMetadataReader returns exiftool followed by the header decoder when the
// exiftool binary is on PATH, and the header decoder alone otherwise
func NewMetadataReader() *MetadataChain {
	chain := &MetadataChain{}

	if checkExiftoolCommandAvailable() {
		if r, err := NewExiftoolReader(); err == nil {
			chain.readers = append(chain.readers, r)
			chain.closers = append(chain.closers, r.Close)
			logging.DebugLog("Using exiftool for metadata queries")
		} else {
			logging.DebugLog("exiftool present but unusable: %v", err)
		}
	}

	chain.readers = append(chain.readers, DecodeConfigReader{})
	return chain
}

// ReadDimensions returns the first successful answer. If every reader fails
// the errors are joined.
func (c *MetadataChain) ReadDimensions(path string) (types.Dimensions, error) {
	var errs []error
	for _, r := range c.readers {
		d, err := r.ReadDimensions(path)
		if err == nil {
			return d, nil
		}
		logging.DebugLog("Metadata reader %T failed for %s: %v", r, path, err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return types.Dimensions{}, fmt.Errorf("no metadata readers configured")
	}
	return types.Dimensions{}, errors.Join(errs...)
}

// Close releases any external processes held by the chain
func (c *MetadataChain) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// checkExiftoolCommandAvailable checks if exiftool command is available
func checkExiftoolCommandAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}
