package raster

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/Noofbiz/satBowl/ndarray"
)

// Triplet groups a before image, an after image and the change label between
// them. Images are (height, width, channels); the label is (height, width).
type Triplet struct {
	Image1 *ndarray.Array
	Image2 *ndarray.Array
	Label  *ndarray.Array
}

// LoadTriplet reads a co-registered before/after/label triplet. Images keep
// their first three bands, the label its first band.
func LoadTriplet(pathImage1, pathImage2, pathLabel string) (*Triplet, error) {
	img1, err := loadChannelsLast(pathImage1, 3)
	if err != nil {
		return nil, err
	}
	img2, err := loadChannelsLast(pathImage2, 3)
	if err != nil {
		return nil, err
	}
	label, err := LoadRaster(pathLabel, 1)
	if err != nil {
		return nil, err
	}
	label, err = label.Reshape(label.Shape[1], label.Shape[2])
	if err != nil {
		return nil, err
	}
	t := &Triplet{Image1: img1, Image2: img2, Label: label}
	if err := t.check(); err != nil {
		return nil, errors.Wrapf(err, "triplet (%s, %s, %s)", pathImage1, pathImage2, pathLabel)
	}
	return t, nil
}

func loadChannelsLast(path string, nBands int) (*ndarray.Array, error) {
	arr, err := LoadRaster(path, nBands)
	if err != nil {
		return nil, err
	}
	return arr.ChannelsLast()
}

// check verifies the three arrays share their spatial extent.
func (t *Triplet) check() error {
	if t.Image1.Rank() < 2 || t.Image2.Rank() < 2 || t.Label.Rank() < 2 {
		return errors.Wrapf(ndarray.ErrShape, "triplet arrays need two spatial axes: %v %v %v",
			t.Image1.Shape, t.Image2.Shape, t.Label.Shape)
	}
	h, w := t.Label.Shape[0], t.Label.Shape[1]
	for _, img := range []*ndarray.Array{t.Image1, t.Image2} {
		if img.Shape[0] != h || img.Shape[1] != w {
			return errors.Wrapf(ndarray.ErrShape, "image of shape %v is not aligned with label of shape %v",
				img.Shape, t.Label.Shape)
		}
	}
	return nil
}

// RandomCrop replaces the three arrays with the same randomly placed
// size x size window. A side shorter than size is kept whole.
func (t *Triplet) RandomCrop(size int, rng *rand.Rand) error {
	if err := t.check(); err != nil {
		return err
	}
	h, w := t.Label.Shape[0], t.Label.Shape[1]
	ch, cw := min(size, h), min(size, w)
	y, x := 0, 0
	if h > ch {
		y = rng.Intn(h - ch + 1)
	}
	if w > cw {
		x = rng.Intn(w - cw + 1)
	}

	img1, err := t.Image1.Crop(0, y, x, ch, cw)
	if err != nil {
		return err
	}
	img2, err := t.Image2.Crop(0, y, x, ch, cw)
	if err != nil {
		return err
	}
	label, err := t.Label.Crop(0, y, x, ch, cw)
	if err != nil {
		return err
	}
	t.Image1, t.Image2, t.Label = img1, img2, label
	return nil
}
