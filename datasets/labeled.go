package datasets

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/Noofbiz/satBowl/augment"
	"github.com/Noofbiz/satBowl/ndarray"
	"github.com/Noofbiz/satBowl/raster"
)

// LabeledImage pairs an in-memory satellite image with its label, either
// (height, width) or (classes, height, width).
type LabeledImage struct {
	Image *raster.Image
	Label *ndarray.Array
}

// LabeledImageSource serves pre-paired labeled images.
type LabeledImageSource struct {
	Images []LabeledImage

	// Bands lists the bands to keep, in order. Indices may repeat and
	// negative indices count from the last band. Nil keeps every band.
	Bands []int

	// Transform, if set, receives the image channel-last and must return it
	// channel-first.
	Transform augment.Transform
}

// NewLabeledImageDataset creates a dataset over already loaded labeled
// images.
func NewLabeledImageDataset(images []LabeledImage, bands []int, transform augment.Transform, cfg Config) (*Loader, error) {
	if cfg.Name == "" {
		cfg.Name = "LabeledImageDataset"
	}
	return NewLoader(&LabeledImageSource{Images: images, Bands: bands, Transform: transform}, cfg)
}

// Validate implements validator.
func (s *LabeledImageSource) Validate() error {
	for i, li := range s.Images {
		if li.Image == nil || li.Image.Array == nil || li.Label == nil {
			return errors.Wrapf(ErrConfig, "labeled image %d is missing its image or label", i)
		}
	}
	return nil
}

// Len returns the number of labeled images.
func (s *LabeledImageSource) Len() int { return len(s.Images) }

// Load implements SampleSource.
func (s *LabeledImageSource) Load(i int, rng *rand.Rand) (*Example, error) {
	li := s.Images[i]
	img, err := li.Image.Array.Take(s.Bands)
	if err != nil {
		return nil, errors.Wrapf(err, "selecting bands %v of example %d", s.Bands, i)
	}
	img = img.Squeeze()
	mask := li.Label

	if s.Transform != nil {
		hwc, err := img.ChannelsLast()
		if err != nil {
			return nil, err
		}
		out, err := s.Transform.Apply(augment.Sample{Image: hwc, Mask: mask}, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "transforming example %d", i)
		}
		img, mask = out.Image, out.Mask
	}

	var meta map[string]string
	if li.Image.Path != "" {
		meta = map[string]string{MetaPathImage: li.Image.Path}
	}
	return newExample(img, mask, meta)
}
