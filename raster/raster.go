// Package raster decodes image rasters and serialized label arrays from disk
// into ndarray.Array values.
package raster

import (
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/Noofbiz/satBowl/ndarray"
)

// Image is a decoded satellite image and the little provenance we keep about
// it. Dep and Date are optional and left zero when unknown.
type Image struct {
	// Array holds the pixels in (bands, height, width) layout.
	Array *ndarray.Array

	Path string
	Dep  string
	Date time.Time
}

// Bands returns the number of bands of the image.
func (img *Image) Bands() int { return img.Array.Shape[0] }

// FromRaster reads the first nBands bands of the raster at path.
func FromRaster(path, dep string, date time.Time, nBands int) (*Image, error) {
	arr, err := LoadRaster(path, nBands)
	if err != nil {
		return nil, err
	}
	return &Image{Array: arr, Path: path, Dep: dep, Date: date}, nil
}

// LoadRaster decodes the image file at path and returns its first nBands bands
// as a (bands, height, width) array. Any format registered with image.Decode
// by imaging can be read (png, jpeg, gif, tiff, bmp).
//
// Gray images have a single band. Colour images expose R, G, B and A in that
// order. 16-bit images keep their 16-bit values.
func LoadRaster(path string, nBands int) (*ndarray.Array, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "while reading raster %s", path)
	}
	arr, err := bandsFromImage(img, nBands)
	if err != nil {
		return nil, errors.Wrapf(err, "raster %s", path)
	}
	return arr, nil
}

// bandsFromImage copies pixel values out of img. Concrete image types are read
// straight from their Pix buffers; anything else is normalized to NRGBA.
// Pix[0] is the pixel at Bounds().Min, also for sub-images, so offsets are
// relative to it.
func bandsFromImage(img image.Image, nBands int) (*ndarray.Array, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var (
		pix           []uint8
		stride        int
		channels      int
		bytesPerValue int
	)
	switch typedImg := img.(type) {
	case *image.Gray:
		pix, stride, channels, bytesPerValue = typedImg.Pix, typedImg.Stride, 1, 1
	case *image.Gray16:
		pix, stride, channels, bytesPerValue = typedImg.Pix, typedImg.Stride, 1, 2
	case *image.NRGBA:
		pix, stride, channels, bytesPerValue = typedImg.Pix, typedImg.Stride, 4, 1
	case *image.NRGBA64:
		pix, stride, channels, bytesPerValue = typedImg.Pix, typedImg.Stride, 4, 2
	case *image.RGBA64:
		pix, stride, channels, bytesPerValue = typedImg.Pix, typedImg.Stride, 4, 2
	default:
		nrgba := imaging.Clone(img)
		pix, stride, channels, bytesPerValue = nrgba.Pix, nrgba.Stride, 4, 1
	}

	if nBands <= 0 || nBands > channels {
		return nil, errors.Wrapf(ndarray.ErrShape, "requested %d bands from an image with %d", nBands, channels)
	}

	out := ndarray.Zeros(nBands, h, w)
	plane := h * w
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		for x := 0; x < w; x++ {
			px := row[x*channels*bytesPerValue:]
			for c := 0; c < nBands; c++ {
				var v float32
				if bytesPerValue == 2 {
					v = float32(uint16(px[2*c])<<8 | uint16(px[2*c+1]))
				} else {
					v = float32(px[c])
				}
				out.Data[c*plane+y*w+x] = v
			}
		}
	}
	return out, nil
}
