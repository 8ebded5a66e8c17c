// Package ndarray is the small dense array type shared by the raster loaders,
// the augmentations and the datasets.
//
// Arrays store float32 values in a flat row-major buffer together with their
// shape. Indexing, slicing, transposition and concatenation run on
// gorgonia.org/tensor dense tensors backed by that buffer. Conversion to gomlx
// tensors happens at the edge, in the datasets package, once a sample has been
// assembled.
package ndarray

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrShape is returned (wrapped) whenever an operation receives an index, a
// rank or a shape it cannot work with.
var ErrShape = errors.New("shape mismatch")

// Array is a dense row-major float32 array.
type Array struct {
	Data  []float32
	Shape []int
}

// New wraps data with the given shape. The length of data must match the
// product of the dimensions.
func New(data []float32, shape ...int) (*Array, error) {
	if n := numElements(shape); n != len(data) {
		return nil, errors.Wrapf(ErrShape, "%d values do not fit shape %v (%d elements)", len(data), shape, n)
	}
	return &Array{Data: data, Shape: append([]int(nil), shape...)}, nil
}

// Zeros returns a zero-filled array of the given shape.
func Zeros(shape ...int) *Array {
	return &Array{
		Data:  make([]float32, numElements(shape)),
		Shape: append([]int(nil), shape...),
	}
}

// Full returns an array of the given shape with every element set to v.
func Full(v float32, shape ...int) *Array {
	a := Zeros(shape...)
	for i := range a.Data {
		a.Data[i] = v
	}
	return a
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.Shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.Data) }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{
		Data:  append([]float32(nil), a.Data...),
		Shape: append([]int(nil), a.Shape...),
	}
}

// At returns the element at the given multi-index.
func (a *Array) At(idx ...int) float32 {
	off, stride := 0, 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		off += idx[i] * stride
		stride *= a.Shape[i]
	}
	return a.Data[off]
}

// dense wraps the buffer of a in a gorgonia tensor. The buffer is shared.
func (a *Array) dense() *tensor.Dense {
	return tensor.New(tensor.WithShape(a.Shape...), tensor.WithBacking(a.Data))
}

// fromTensor copies the values of t into a new array of the given shape.
// Slicing in gorgonia drops axes of size one, so the shape is always the one
// the caller computed.
func fromTensor(t tensor.Tensor, shape []int) (*Array, error) {
	n := numElements(shape)
	out := &Array{Data: make([]float32, n), Shape: append([]int(nil), shape...)}
	switch v := t.Data().(type) {
	case []float32:
		if len(v) < n {
			return nil, errors.Wrapf(ErrShape, "tensor holds %d values, shape %v needs %d", len(v), shape, n)
		}
		copy(out.Data, v[:n])
	case float32:
		if n != 1 {
			return nil, errors.Wrapf(ErrShape, "scalar tensor cannot fill shape %v", shape)
		}
		out.Data[0] = v
	default:
		return nil, errors.Errorf("unexpected tensor data of type %T", v)
	}
	return out, nil
}

// axisRange returns the gorgonia slice selecting [start, end) along axis and
// everything along the axes before it.
func axisRange(axis, start, end int) []tensor.Slice {
	slices := make([]tensor.Slice, axis+1)
	slices[axis] = tensor.S(start, end)
	return slices
}

// gather picks the given indices along axis, in order.
func (a *Array) gather(axis int, indices []int) (*Array, error) {
	shape := append([]int(nil), a.Shape...)
	shape[axis] = len(indices)
	if len(indices) == 0 || a.Size() == 0 {
		return Zeros(shape...), nil
	}

	src := a.dense()
	pieceShape := append([]int(nil), a.Shape...)
	pieceShape[axis] = 1
	pieces := make([]*tensor.Dense, len(indices))
	for i, idx := range indices {
		view, err := src.Slice(axisRange(axis, idx, idx+1)...)
		if err != nil {
			return nil, errors.Wrapf(err, "slicing index %d of axis %d", idx, axis)
		}
		piece, err := fromTensor(view.Materialize(), pieceShape)
		if err != nil {
			return nil, err
		}
		pieces[i] = piece.dense()
	}
	if len(pieces) == 1 {
		return fromTensor(pieces[0], shape)
	}
	joined, err := pieces[0].Concat(axis, pieces[1:]...)
	if err != nil {
		return nil, errors.Wrapf(err, "joining %d slices of axis %d", len(pieces), axis)
	}
	return fromTensor(joined, shape)
}

// Take selects the given indices along axis 0, in order. Indices may repeat
// and need not be contiguous. Negative indices count from the end. A nil slice
// selects every index.
func (a *Array) Take(indices []int) (*Array, error) {
	if a.Rank() == 0 {
		return nil, errors.Wrap(ErrShape, "cannot take from a scalar")
	}
	if indices == nil {
		return a.Clone(), nil
	}
	n := a.Shape[0]
	resolved := make([]int, len(indices))
	for i, idx := range indices {
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n {
			return nil, errors.Wrapf(ErrShape, "index %d out of bounds for axis 0 with size %d", indices[i], n)
		}
		resolved[i] = idx
	}
	return a.gather(0, resolved)
}

// Squeeze drops every axis of size 1. The data is shared with a.
func (a *Array) Squeeze() *Array {
	shape := make([]int, 0, len(a.Shape))
	for _, d := range a.Shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	return &Array{Data: a.Data, Shape: shape}
}

// Reshape returns a view of a with a new shape holding the same number of
// elements.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if numElements(shape) != len(a.Data) {
		return nil, errors.Wrapf(ErrShape, "cannot reshape %v into %v", a.Shape, shape)
	}
	return &Array{Data: a.Data, Shape: append([]int(nil), shape...)}, nil
}

// Transpose permutes the axes of a. perm[i] is the source axis that becomes
// axis i of the result, as in numpy.transpose.
func (a *Array) Transpose(perm ...int) (*Array, error) {
	if len(perm) != a.Rank() {
		return nil, errors.Wrapf(ErrShape, "axes %v don't match array of rank %d", perm, a.Rank())
	}
	seen := make([]bool, len(perm))
	identity := true
	for i, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return nil, errors.Wrapf(ErrShape, "invalid permutation %v", perm)
		}
		seen[p] = true
		identity = identity && p == i
	}
	shape := make([]int, len(perm))
	for i, p := range perm {
		shape[i] = a.Shape[p]
	}
	// gorgonia refuses identity permutations.
	if identity || a.Size() == 0 {
		out := a.Clone()
		out.Shape = shape
		return out, nil
	}

	t := a.Clone().dense()
	if err := t.T(perm...); err != nil {
		return nil, errors.Wrapf(err, "transposing %v with %v", a.Shape, perm)
	}
	if err := t.Transpose(); err != nil {
		return nil, errors.Wrapf(err, "transposing %v with %v", a.Shape, perm)
	}
	return fromTensor(t, shape)
}

// ChannelsLast converts a (c,h,w) array to (h,w,c). Rank-2 arrays are
// returned unchanged.
func (a *Array) ChannelsLast() (*Array, error) {
	switch a.Rank() {
	case 2:
		return a, nil
	case 3:
		return a.Transpose(1, 2, 0)
	}
	return nil, errors.Wrapf(ErrShape, "expected a rank 2 or 3 image, got shape %v", a.Shape)
}

// ChannelsFirst converts a (h,w,c) array to (c,h,w). Rank-2 arrays are
// returned unchanged.
func (a *Array) ChannelsFirst() (*Array, error) {
	switch a.Rank() {
	case 2:
		return a, nil
	case 3:
		return a.Transpose(2, 0, 1)
	}
	return nil, errors.Wrapf(ErrShape, "expected a rank 2 or 3 image, got shape %v", a.Shape)
}

// Concat joins arrays along axis 0. Rank-2 inputs are treated as a single
// channel, so a (h,w) array concatenates with a (c,h,w) one.
func Concat(arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, errors.Wrap(ErrShape, "nothing to concatenate")
	}
	var inner []int
	total := 0
	parts := make([]*tensor.Dense, len(arrays))
	for i, a := range arrays {
		tail, lead := a.Shape, 1
		if a.Rank() == 3 {
			tail, lead = a.Shape[1:], a.Shape[0]
		} else if a.Rank() != 2 {
			return nil, errors.Wrapf(ErrShape, "cannot concatenate array %d of shape %v", i, a.Shape)
		}
		if inner == nil {
			inner = tail
		} else if !equalInts(inner, tail) {
			return nil, errors.Wrapf(ErrShape, "array %d has spatial shape %v, expected %v", i, tail, inner)
		}
		total += lead
		parts[i] = tensor.New(tensor.WithShape(lead, tail[0], tail[1]), tensor.WithBacking(a.Data))
	}
	shape := append([]int{total}, inner...)
	if len(parts) == 1 || numElements(shape) == 0 {
		out := Zeros(shape...)
		copy(out.Data, arrays[0].Data)
		return out, nil
	}
	joined, err := parts[0].Concat(0, parts[1:]...)
	if err != nil {
		return nil, errors.Wrapf(err, "concatenating %d arrays", len(arrays))
	}
	return fromTensor(joined, shape)
}

// Crop cuts the window [y, y+h) x [x, x+w) out of the two consecutive axes
// starting at axis.
func (a *Array) Crop(axis, y, x, h, w int) (*Array, error) {
	if axis < 0 || axis+1 >= a.Rank() {
		return nil, errors.Wrapf(ErrShape, "no spatial axes at %d for shape %v", axis, a.Shape)
	}
	H, W := a.Shape[axis], a.Shape[axis+1]
	if y < 0 || x < 0 || h < 0 || w < 0 || y+h > H || x+w > W {
		return nil, errors.Wrapf(ErrShape, "crop window (%d,%d)+(%d,%d) outside %dx%d", y, x, h, w, H, W)
	}
	shape := append([]int(nil), a.Shape...)
	shape[axis], shape[axis+1] = h, w
	if numElements(shape) == 0 {
		return Zeros(shape...), nil
	}

	slices := make([]tensor.Slice, axis+2)
	slices[axis] = tensor.S(y, y+h)
	slices[axis+1] = tensor.S(x, x+w)
	view, err := a.dense().Slice(slices...)
	if err != nil {
		return nil, errors.Wrapf(err, "cropping %v", a.Shape)
	}
	return fromTensor(view.Materialize(), shape)
}

// Flip reverses the given axis.
func (a *Array) Flip(axis int) (*Array, error) {
	if axis < 0 || axis >= a.Rank() {
		return nil, errors.Wrapf(ErrShape, "axis %d out of range for shape %v", axis, a.Shape)
	}
	n := a.Shape[axis]
	reversed := make([]int, n)
	for i := range reversed {
		reversed[i] = n - 1 - i
	}
	return a.gather(axis, reversed)
}

// Binarize returns a copy where every nonzero element becomes 1.
func (a *Array) Binarize() *Array {
	out := a.Clone()
	for i, v := range out.Data {
		if v != 0 {
			out.Data[i] = 1
		}
	}
	return out
}

// AllZero reports whether every element is zero. Empty arrays are all zero.
func (a *Array) AllZero() bool {
	for _, v := range a.Data {
		if v != 0 {
			return false
		}
	}
	return true
}

// CountNonZero returns the number of nonzero elements.
func (a *Array) CountNonZero() int {
	n := 0
	for _, v := range a.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Int64 casts the values to int64, truncating toward zero.
func (a *Array) Int64() []int64 {
	out := make([]int64, len(a.Data))
	for i, v := range a.Data {
		out[i] = int64(v)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SameShape reports whether a and b have identical shapes.
func SameShape(a, b *Array) bool {
	return equalInts(a.Shape, b.Shape)
}
