package datasets

import (
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"

	"github.com/Noofbiz/satBowl/ndarray"
)

// BatchFlat stores a batch of examples in flat contiguous buffers.
type BatchFlat struct {
	Images     []float32
	Labels     []int64
	BatchSize  int
	ImageShape []int // shape of one image
	LabelShape []int // shape of one label
}

// MakeBatchFlat stacks examples into contiguous buffers. Every example must
// have the same image shape and the same label shape.
func MakeBatchFlat(examples []*Example) (*BatchFlat, error) {
	if len(examples) == 0 {
		return &BatchFlat{}, nil
	}

	first := examples[0]
	imageSize, labelSize := len(first.Image), len(first.Label)
	flatImages := make([]float32, 0, len(examples)*imageSize)
	flatLabels := make([]int64, 0, len(examples)*labelSize)

	for i, ex := range examples {
		if !slices.Equal(ex.ImageShape, first.ImageShape) {
			return nil, errors.Wrapf(ndarray.ErrShape, "inconsistent image shapes: example 0 has %v, example %d has %v",
				first.ImageShape, i, ex.ImageShape)
		}
		if !slices.Equal(ex.LabelShape, first.LabelShape) {
			return nil, errors.Wrapf(ndarray.ErrShape, "inconsistent label shapes: example 0 has %v, example %d has %v",
				first.LabelShape, i, ex.LabelShape)
		}
		flatImages = append(flatImages, ex.Image...)
		flatLabels = append(flatLabels, ex.Label...)
	}

	return &BatchFlat{
		Images:     flatImages,
		Labels:     flatLabels,
		BatchSize:  len(examples),
		ImageShape: slices.Clone(first.ImageShape),
		LabelShape: slices.Clone(first.LabelShape),
	}, nil
}

// ToGomlxTensors converts the batch to gomlx tensors shaped
// [batch, image dims...] and [batch, label dims...].
func (b *BatchFlat) ToGomlxTensors() (images *tensors.Tensor, labels *tensors.Tensor) {
	imageDims := append([]int{b.BatchSize}, b.ImageShape...)
	labelDims := append([]int{b.BatchSize}, b.LabelShape...)
	images = tensors.FromFlatDataAndDimensions(b.Images, imageDims...)
	labels = tensors.FromFlatDataAndDimensions(b.Labels, labelDims...)
	return images, labels
}
