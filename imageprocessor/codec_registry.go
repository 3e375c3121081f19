package imageprocessor

import (
	"errors"
	"fmt"

	"imagevariants/logging"
)

// CodecRegistry holds candidate codecs in order of preference
type CodecRegistry struct {
	codecs []Codec
}

// NewCodecRegistry creates a registry with the given codecs, most preferred
// first
func NewCodecRegistry(codecs ...Codec) *CodecRegistry {
	r := &CodecRegistry{}
	for _, c := range codecs {
		r.RegisterCodec(c)
	}
	return r
}

// RegisterCodec appends a codec at the lowest preference
func (r *CodecRegistry) RegisterCodec(c Codec) {
	if c == nil {
		return
	}
	r.codecs = append(r.codecs, c)
}

// Names returns the registered codec names in preference order
func (r *CodecRegistry) Names() []string {
	names := make([]string, 0, len(r.codecs))
	for _, c := range r.codecs {
		names = append(names, c.Name())
	}
	return names
}

// Select returns the first available codec
func (r *CodecRegistry) Select() (Codec, error) {
	var errs []error
	for _, c := range r.codecs {
		err := c.Available()
		if err == nil {
			logging.DebugLog("Selected codec %s", c.Name())
			return c, nil
		}
		logging.DebugLog("Codec %s unavailable: %v", c.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no codecs registered", ErrUnavailable)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(errs...))
}
