package raster

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio/npy"

	"github.com/Noofbiz/satBowl/ndarray"
)

// LoadArray deserializes the numpy .npy file at path. Only C-ordered arrays of
// bool, (u)int8, (u)int16, int32, int64, float32 and float64 are supported.
func LoadArray(path string) (*ndarray.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "while reading array %s", path)
	}
	defer f.Close()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid npy header in %s", path)
	}
	descr := r.Header.Descr
	if descr.Fortran {
		return nil, errors.Errorf("array %s is stored in Fortran order", path)
	}

	n := 1
	for _, d := range descr.Shape {
		n *= d
	}
	data, err := readNumbers(r, descr.Type, n)
	if err != nil {
		return nil, errors.Wrapf(err, "while decoding array %s", path)
	}
	arr, err := ndarray.New(data, descr.Shape...)
	if err != nil {
		return nil, errors.Wrapf(err, "array %s", path)
	}
	return arr, nil
}

// readNumbers reads the payload with the Go type matching the npy dtype
// string and widens it to float32. n is the element count from the header.
func readNumbers(r *npy.Reader, dtype string, n int) ([]float32, error) {
	if len(dtype) < 2 {
		return nil, errors.Errorf("unknown dtype %q", dtype)
	}
	if dtype[0] == '>' {
		return nil, errors.Errorf("big-endian dtype %q is not supported", dtype)
	}
	switch dtype[1:] {
	case "b1":
		v := make([]bool, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		out := make([]float32, len(v))
		for i, b := range v {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	case "u1":
		v := make([]uint8, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i1":
		v := make([]int8, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "u2":
		v := make([]uint16, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i2":
		v := make([]int16, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i4":
		v := make([]int32, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "i8":
		v := make([]int64, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "f4":
		v := make([]float32, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return v, nil
	case "f8":
		v := make([]float64, n)
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	}
	return nil, errors.Errorf("unsupported dtype %q", dtype)
}

type number interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~int32 | ~int64 | ~float64
}

func widen[T number](v []T) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
