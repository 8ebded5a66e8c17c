package datasets

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/Noofbiz/satBowl/augment"
	"github.com/Noofbiz/satBowl/ndarray"
	"github.com/Noofbiz/satBowl/raster"
)

// SingleImageSource serves (raster image, label array) pairs read from disk.
type SingleImageSource struct {
	ImagePaths []string
	LabelPaths []string

	// Transform, if set, receives Image and Mask (the label) jointly.
	Transform augment.Transform

	// Bands read from each raster. Defaults to DefaultRasterBands when zero.
	Bands int

	// LoadImage and LoadLabel default to reading rasters with raster.FromRaster
	// and .npy files with raster.LoadArray.
	LoadImage func(path string, nBands int) (*ndarray.Array, error)
	LoadLabel func(path string) (*ndarray.Array, error)
}

// NewSingleImageDataset creates a dataset over parallel lists of raster
// images and .npy label arrays.
func NewSingleImageDataset(imagePaths, labelPaths []string, transform augment.Transform, cfg Config) (*Loader, error) {
	cfg, err := cfg.withDefaults("SingleImageDataset")
	if err != nil {
		return nil, err
	}
	source := &SingleImageSource{
		ImagePaths: imagePaths,
		LabelPaths: labelPaths,
		Transform:  transform,
		Bands:      cfg.RasterBands,
	}
	return NewLoader(source, cfg)
}

// loadSatelliteImage reads a raster without any deployment or date metadata.
func loadSatelliteImage(path string, nBands int) (*ndarray.Array, error) {
	img, err := raster.FromRaster(path, "", time.Time{}, nBands)
	if err != nil {
		return nil, err
	}
	return img.Array, nil
}

// Validate implements validator.
func (s *SingleImageSource) Validate() error {
	if len(s.ImagePaths) != len(s.LabelPaths) {
		return errors.Wrapf(ErrConfig, "path lists have different lengths: %d images, %d labels",
			len(s.ImagePaths), len(s.LabelPaths))
	}
	if s.Bands < 0 {
		return errors.Wrapf(ErrConfig, "negative band count %d", s.Bands)
	}
	return nil
}

// Len returns the number of pairs.
func (s *SingleImageSource) Len() int { return len(s.ImagePaths) }

// Load implements SampleSource.
func (s *SingleImageSource) Load(i int, rng *rand.Rand) (*Example, error) {
	pathImage, pathLabel := s.ImagePaths[i], s.LabelPaths[i]

	loadImage, loadLabel := s.LoadImage, s.LoadLabel
	if loadImage == nil {
		loadImage = loadSatelliteImage
	}
	if loadLabel == nil {
		loadLabel = raster.LoadArray
	}
	bands := s.Bands
	if bands == 0 {
		bands = DefaultRasterBands
	}

	img, err := loadImage(pathImage, bands)
	if err != nil {
		return nil, err
	}
	label, err := loadLabel(pathLabel)
	if err != nil {
		return nil, err
	}

	if s.Transform != nil {
		out, err := s.Transform.Apply(augment.Sample{Image: img, Mask: label}, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "transforming example %d", i)
		}
		img, label = out.Image, out.Mask
	}

	meta := map[string]string{
		MetaPathImage: pathImage,
		MetaPathLabel: pathLabel,
	}
	return newExample(img, label, meta)
}
