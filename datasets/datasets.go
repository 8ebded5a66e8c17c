package datasets

import (
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"

	"github.com/Noofbiz/satBowl/ndarray"
)

// This file provides the contract shared by the raster datasets and the
// strategy interface each variant implements.
//
// Every dataset is a Loader wrapping one SampleSource:
//
// LabeledImageSource
//   - Pre-paired (image, label) values already in memory
//   - Selects a subset/order of bands, optional joint transform
//
// ChangeDetectionSource
//   - Parallel before/after/label path lists
//   - Random crop retried until the change label is not empty (bounded)
//   - Before and after images concatenated along the channel axis
//
// SingleImageSource
//   - Parallel image/label path lists, label stored as a .npy array
//
// Files are only read when an example is requested. Examples carry flat
// buffers plus shapes, already cast to float32 (images) and int64 (labels),
// and convert to gomlx tensors with Example.Tensors.
//
// The datasets implement this interface in order to interact with GoMLX
// training loops and batching utilities.
type Dataset interface {
	Len() int
	Example(i int) (*Example, error)
	Batch(indices []int) ([]*Example, error)
	Shuffle(seed int64)

	// To implement gomlx's train.Dataset interface
	Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error)
}

// SampleSource is the per-variant loading strategy behind a Loader. Load is
// called with an index already checked against Len and with a generator owned
// by the caller, so implementations must not keep mutable state.
type SampleSource interface {
	Len() int
	Load(i int, rng *rand.Rand) (*Example, error)
}

var (
	// ErrIndexOutOfRange is returned for indices outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrConfig is returned when a dataset is built with inconsistent inputs.
	ErrConfig = errors.New("invalid dataset configuration")
)

// Metadata keys filled in by the sources. They only serve provenance.
const (
	MetaPathImage1   = "pathim1"
	MetaPathImage2   = "pathim2"
	MetaPathImage    = "pathimage"
	MetaPathLabel    = "pathlabel"
	MetaCropAttempts = "crop_attempts"
)

// Example is one sample, already cast: float32 image, int64 class indices.
type Example struct {
	Image      []float32
	ImageShape []int

	Label      []int64
	LabelShape []int

	// Metadata exposes the source paths of the sample. Never used in
	// computation.
	Metadata map[string]string

	// CropAttempts is the number of crops drawn for a change-detection
	// triplet. Zero for the other sources.
	CropAttempts int
}

// newExample casts image and label into an Example.
func newExample(image, label *ndarray.Array, meta map[string]string) (*Example, error) {
	if image == nil || label == nil {
		return nil, errors.Wrap(ndarray.ErrShape, "transform dropped the image or the label")
	}
	return &Example{
		Image:      append([]float32(nil), image.Data...),
		ImageShape: append([]int(nil), image.Shape...),
		Label:      label.Int64(),
		LabelShape: append([]int(nil), label.Shape...),
		Metadata:   meta,
	}, nil
}

// Tensors converts the example to gomlx tensors.
func (e *Example) Tensors() (image, label *tensors.Tensor) {
	image = tensors.FromFlatDataAndDimensions(e.Image, e.ImageShape...)
	label = tensors.FromFlatDataAndDimensions(e.Label, e.LabelShape...)
	return image, label
}
