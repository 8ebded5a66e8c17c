// Package augment defines the joint transform calling convention used by the
// datasets, and a few transforms that follow it.
//
// A transform receives every co-registered array of a sample at once (image,
// optional second image, mask) and must apply the same geometric change to
// all of them. Images arrive channel-last, (height, width, channels), or as
// plain (height, width) arrays. Masks are (height, width).
package augment

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/Noofbiz/satBowl/ndarray"
)

// Sample holds the arrays a transform works on. Image2 and Mask are optional.
type Sample struct {
	Image  *ndarray.Array
	Image2 *ndarray.Array
	Mask   *ndarray.Array
}

// Transform transforms a sample. Randomness must come from rng only.
type Transform interface {
	Apply(s Sample, rng *rand.Rand) (Sample, error)
}

// TransformFunc adapts a plain function to Transform.
type TransformFunc func(s Sample, rng *rand.Rand) (Sample, error)

// Apply implements Transform.
func (f TransformFunc) Apply(s Sample, rng *rand.Rand) (Sample, error) { return f(s, rng) }

// Compose chains transforms, feeding each one the output of the previous.
func Compose(transforms ...Transform) Transform {
	return TransformFunc(func(s Sample, rng *rand.Rand) (Sample, error) {
		var err error
		for i, t := range transforms {
			s, err = t.Apply(s, rng)
			if err != nil {
				return s, errors.Wrapf(err, "transform #%d", i)
			}
		}
		return s, nil
	})
}

// mapAll applies fn to every non-nil array of s.
func mapAll(s Sample, fn func(*ndarray.Array) (*ndarray.Array, error)) (Sample, error) {
	var out Sample
	var err error
	for _, pair := range [...]struct{ src, dst **ndarray.Array }{
		{&s.Image, &out.Image},
		{&s.Image2, &out.Image2},
		{&s.Mask, &out.Mask},
	} {
		if *pair.src == nil {
			continue
		}
		if *pair.dst, err = fn(*pair.src); err != nil {
			return s, err
		}
	}
	return out, nil
}

// mapImages applies fn to Image and Image2, leaving Mask untouched.
func mapImages(s Sample, fn func(*ndarray.Array) (*ndarray.Array, error)) (Sample, error) {
	mask := s.Mask
	s.Mask = nil
	out, err := mapAll(s, fn)
	out.Mask = mask
	return out, err
}

// HorizontalFlip mirrors the sample left-right with probability p.
func HorizontalFlip(p float64) Transform {
	return TransformFunc(func(s Sample, rng *rand.Rand) (Sample, error) {
		if rng.Float64() >= p {
			return s, nil
		}
		return mapAll(s, func(a *ndarray.Array) (*ndarray.Array, error) { return a.Flip(1) })
	})
}

// VerticalFlip mirrors the sample top-bottom with probability p.
func VerticalFlip(p float64) Transform {
	return TransformFunc(func(s Sample, rng *rand.Rand) (Sample, error) {
		if rng.Float64() >= p {
			return s, nil
		}
		return mapAll(s, func(a *ndarray.Array) (*ndarray.Array, error) { return a.Flip(0) })
	})
}

// RandomRotate90 rotates the sample by a random multiple of 90 degrees with
// probability p.
func RandomRotate90(p float64) Transform {
	return TransformFunc(func(s Sample, rng *rand.Rand) (Sample, error) {
		if rng.Float64() >= p {
			return s, nil
		}
		turns := rng.Intn(4)
		return mapAll(s, func(a *ndarray.Array) (*ndarray.Array, error) { return rot90(a, turns) })
	})
}

// rot90 rotates the two leading axes counter-clockwise, turns times.
func rot90(a *ndarray.Array, turns int) (*ndarray.Array, error) {
	perm := make([]int, a.Rank())
	for i := range perm {
		perm[i] = i
	}
	if len(perm) < 2 {
		return nil, errors.Wrapf(ndarray.ErrShape, "cannot rotate array of shape %v", a.Shape)
	}
	perm[0], perm[1] = 1, 0

	var err error
	for range turns {
		if a, err = a.Transpose(perm...); err != nil {
			return nil, err
		}
		if a, err = a.Flip(0); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Normalize scales every channel of the images as (v - mean[c]) / std[c].
// Rank-2 images use channel 0. Masks are left alone.
func Normalize(mean, std []float32) Transform {
	return TransformFunc(func(s Sample, _ *rand.Rand) (Sample, error) {
		return mapImages(s, func(a *ndarray.Array) (*ndarray.Array, error) {
			channels := 1
			if a.Rank() == 3 {
				channels = a.Shape[2]
			}
			if channels > len(mean) || channels > len(std) {
				return nil, errors.Wrapf(ndarray.ErrShape, "normalize configured for %d channels, image has %d",
					min(len(mean), len(std)), channels)
			}
			out := a.Clone()
			for i, v := range out.Data {
				c := i % channels
				out.Data[i] = (v - mean[c]) / std[c]
			}
			return out, nil
		})
	})
}

// ToChannelFirst converts rank-3 images from (h,w,c) to (c,h,w). It is the
// last step of a pipeline handed to the datasets, which expect channel-first
// images back.
func ToChannelFirst() Transform {
	return TransformFunc(func(s Sample, _ *rand.Rand) (Sample, error) {
		return mapImages(s, func(a *ndarray.Array) (*ndarray.Array, error) { return a.ChannelsFirst() })
	})
}
