package datasets

import (
	"math/rand"
	"strconv"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/satBowl/augment"
	"github.com/Noofbiz/satBowl/ndarray"
	"github.com/Noofbiz/satBowl/raster"
)

// TripletLoader reads a before/after/label triplet from its three paths.
type TripletLoader func(pathImage1, pathImage2, pathLabel string) (*raster.Triplet, error)

// ChangeDetectionSource serves change-detection triplets: the before and
// after images stacked on the channel axis, and a binary change label.
type ChangeDetectionSource struct {
	Image1Paths []string
	Image2Paths []string
	LabelPaths  []string

	// Transform, if set, receives Image, Image2 and Mask jointly, images
	// channel-last, and must return the images channel-first.
	Transform augment.Transform

	// CropSize and MaxAttempts default to DefaultCropSize and
	// DefaultMaxCropAttempts when zero.
	CropSize    int
	MaxAttempts int

	// LoadTriplet defaults to raster.LoadTriplet.
	LoadTriplet TripletLoader
}

// NewChangeDetectionDataset creates a dataset over parallel lists of before
// images, after images and change labels.
func NewChangeDetectionDataset(image1Paths, image2Paths, labelPaths []string, transform augment.Transform, cfg Config) (*Loader, error) {
	cfg, err := cfg.withDefaults("ChangeDetectionDataset")
	if err != nil {
		return nil, err
	}
	source := &ChangeDetectionSource{
		Image1Paths: image1Paths,
		Image2Paths: image2Paths,
		LabelPaths:  labelPaths,
		Transform:   transform,
		CropSize:    cfg.CropSize,
		MaxAttempts: cfg.MaxCropAttempts,
		LoadTriplet: raster.LoadTriplet,
	}
	return NewLoader(source, cfg)
}

// Validate implements validator.
func (s *ChangeDetectionSource) Validate() error {
	if len(s.Image1Paths) != len(s.Image2Paths) || len(s.Image1Paths) != len(s.LabelPaths) {
		return errors.Wrapf(ErrConfig, "path lists have different lengths: %d before, %d after, %d labels",
			len(s.Image1Paths), len(s.Image2Paths), len(s.LabelPaths))
	}
	if s.CropSize < 0 || s.MaxAttempts < 0 {
		return errors.Wrapf(ErrConfig, "crop size %d and max attempts %d must not be negative", s.CropSize, s.MaxAttempts)
	}
	return nil
}

// Len returns the number of triplets.
func (s *ChangeDetectionSource) Len() int { return len(s.Image1Paths) }

func (s *ChangeDetectionSource) cropSize() int {
	if s.CropSize == 0 {
		return DefaultCropSize
	}
	return s.CropSize
}

func (s *ChangeDetectionSource) maxAttempts() int {
	if s.MaxAttempts == 0 {
		return DefaultMaxCropAttempts
	}
	return s.MaxAttempts
}

// Load implements SampleSource.
//
// Triplets are reloaded and cropped until the binarized label holds at least
// one change, at most maxAttempts times. The last crop is used even if its
// label is empty. Load errors are returned at once, they are never retried.
func (s *ChangeDetectionSource) Load(i int, rng *rand.Rand) (*Example, error) {
	p1, p2, pl := s.Image1Paths[i], s.Image2Paths[i], s.LabelPaths[i]
	load := s.LoadTriplet
	if load == nil {
		load = raster.LoadTriplet
	}

	var (
		triplet *raster.Triplet
		label   *ndarray.Array
		err     error
	)
	attempts := 0
	for attempts < s.maxAttempts() {
		attempts++
		triplet, err = load(p1, p2, pl)
		if err != nil {
			return nil, errors.Wrapf(err, "loading triplet %d", i)
		}
		if err = triplet.RandomCrop(s.cropSize(), rng); err != nil {
			return nil, errors.Wrapf(err, "cropping triplet %d", i)
		}
		label = triplet.Label.Binarize()
		if !label.AllZero() {
			break
		}
	}
	if label.AllZero() {
		klog.V(1).Infof("triplet %d (%s): no change found in %d crops, keeping an empty label", i, pl, attempts)
	}

	img1, img2 := triplet.Image1, triplet.Image2
	if s.Transform != nil {
		out, err := s.Transform.Apply(augment.Sample{Image: img1, Image2: img2, Mask: label}, rng)
		if err != nil {
			return nil, errors.Wrapf(err, "transforming triplet %d", i)
		}
		img1, img2, label = out.Image, out.Image2, out.Mask
		if img1 == nil || img2 == nil {
			return nil, errors.Wrapf(ndarray.ErrShape, "transform dropped an image of triplet %d", i)
		}
	} else {
		if img1, err = img1.ChannelsFirst(); err != nil {
			return nil, err
		}
		if img2, err = img2.ChannelsFirst(); err != nil {
			return nil, err
		}
	}

	stacked, err := ndarray.Concat(img1, img2)
	if err != nil {
		return nil, errors.Wrapf(err, "stacking triplet %d", i)
	}
	meta := map[string]string{
		MetaPathImage1:   p1,
		MetaPathImage2:   p2,
		MetaPathLabel:    pl,
		MetaCropAttempts: strconv.Itoa(attempts),
	}
	ex, err := newExample(stacked.Squeeze(), label, meta)
	if err != nil {
		return nil, err
	}
	ex.CropAttempts = attempts
	return ex, nil
}
