// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dims implements the shape/stride/offset descriptor (C3) that
// every Tensor view is built from: reshape, select, and transpose all
// return new Dims values without touching the backing buffer, and the
// density/monotonicity predicates here are what let the Tensor and math
// dispatch layers decide whether a view is safe to hand to an accelerated
// backend or needs a compacting copy first.
//
// Dims values are immutable and cheap to copy: every operation returns a
// new value rather than mutating the receiver.
package dims

import "github.com/born-ml/core/coreerr"

// Dims is a shape+strides+offset descriptor over an element-typed buffer.
// shape[0] is the slowest-varying (leftmost) dimension; strides are
// expressed in elements, not bytes.
type Dims struct {
	shape   []int
	strides []int
	offset  int
}

// New returns the dense, zero-offset Dims for shape, with natural
// row-major strides.
func New(shape []int) Dims {
	return Dims{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		offset:  0,
	}
}

// FromStrides builds a Dims from explicit shape, strides and offset. Callers
// that construct views by hand (sub-buffering, reinterpret) use this; it
// performs no validation beyond requiring matching lengths.
func FromStrides(shape, strides []int, offset int) Dims {
	if len(shape) != len(strides) {
		panic("dims: shape and strides length mismatch")
	}
	return Dims{
		shape:   append([]int(nil), shape...),
		strides: append([]int(nil), strides...),
		offset:  offset,
	}
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	if len(shape) == 0 {
		return strides
	}
	strides[len(shape)-1] = 1
	for i := len(shape) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * shape[i+1]
	}
	return strides
}

// Shape returns the dimension sizes.
func (d Dims) Shape() []int { return append([]int(nil), d.shape...) }

// Strides returns the per-axis strides, in elements.
func (d Dims) Strides() []int { return append([]int(nil), d.strides...) }

// Offset returns the element offset into the backing buffer.
func (d Dims) Offset() int { return d.offset }

// NumDims returns the rank.
func (d Dims) NumDims() int { return len(d.shape) }

// NumElements returns the product of shape, 1 for a 0-D (scalar) shape.
func (d Dims) NumElements() int {
	n := 1
	for _, s := range d.shape {
		n *= s
	}
	return n
}

// MaxLinearIndex returns the largest linear index any valid multi-index can
// produce, i.e. offset + sum((shape[i]-1)*strides[i]). Used by Tensor to
// validate a buffer is large enough to back these Dims.
func (d Dims) MaxLinearIndex() int {
	idx := d.offset
	for i, s := range d.shape {
		if s > 0 {
			idx += (s - 1) * d.strides[i]
		}
	}
	return idx
}

// ElementOffset converts pos, a row-major logical element position in
// [0, NumElements()), into the buffer offset that position reads/writes
// through this descriptor's shape, strides and offset. Callers walking a
// tensor in logical order (ToArray, stageToHost) use this instead of
// assuming Offset()+pos is contiguous, which only holds for Simple Dims.
func (d Dims) ElementOffset(pos int) int {
	idx := d.offset
	for axis := len(d.shape) - 1; axis >= 0; axis-- {
		size := d.shape[axis]
		if size == 0 {
			continue
		}
		coord := pos % size
		pos /= size
		idx += coord * d.strides[axis]
	}
	return idx
}

// Dense reports whether strides equal the natural row-major strides for shape.
func (d Dims) Dense() bool {
	natural := rowMajorStrides(d.shape)
	for i := range natural {
		if natural[i] != d.strides[i] {
			return false
		}
	}
	return true
}

// AccessIncreasing reports whether, after removing size-1 axes, the
// remaining strides are strictly decreasing (no transposed axis).
func (d Dims) AccessIncreasing() bool {
	prev := -1
	for i, s := range d.shape {
		if s == 1 {
			continue
		}
		if prev != -1 && d.strides[i] >= prev {
			return false
		}
		prev = d.strides[i]
	}
	return true
}

// Simple reports Dense && AccessIncreasing && Offset() == 0.
func (d Dims) Simple() bool {
	return d.Dense() && d.AccessIncreasing() && d.offset == 0
}

// Reshape returns new Dims with shape newShape and natural row-major
// strides, preserving offset. Fails with coreerr.ShapeError unless d is
// dense and access-increasing and the element counts match.
func (d Dims) Reshape(newShape []int) (Dims, error) {
	if !d.Dense() || !d.AccessIncreasing() {
		return Dims{}, coreerr.NewShapeError("reshape requires dense, access-increasing dimensions")
	}
	want := 1
	for _, s := range newShape {
		want *= s
	}
	if want != d.NumElements() {
		return Dims{}, coreerr.NewShapeError("reshape changes element count")
	}
	return Dims{
		shape:   append([]int(nil), newShape...),
		strides: rowMajorStrides(newShape),
		offset:  d.offset,
	}, nil
}

// Transpose returns new Dims with shape and strides permuted by perm, a
// permutation of [0, NumDims()).
func (d Dims) Transpose(perm []int) (Dims, error) {
	n := d.NumDims()
	if len(perm) != n {
		return Dims{}, coreerr.NewShapeError("transpose permutation length mismatch")
	}
	seen := make([]bool, n)
	newShape := make([]int, n)
	newStrides := make([]int, n)
	for i, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return Dims{}, coreerr.NewShapeError("transpose permutation is not a valid permutation")
		}
		seen[p] = true
		newShape[i] = d.shape[p]
		newStrides[i] = d.strides[p]
	}
	return Dims{shape: newShape, strides: newStrides, offset: d.offset}, nil
}

// SelectorKind discriminates the three legal selector forms.
type SelectorKind int

const (
	// SelIndex drops the axis, folding the chosen coordinate into offset.
	SelIndex SelectorKind = iota
	// SelRange reduces the axis to [Lo, Hi) and adjusts offset by Lo*stride.
	SelRange
	// SelAll leaves the axis unchanged.
	SelAll
)

// Selector is one axis's selection in a Select call.
type Selector struct {
	Kind  SelectorKind
	Index int
	Lo    int
	Hi    int
}

// Index selects a single coordinate on an axis, dropping it from the result shape.
func Index(i int) Selector { return Selector{Kind: SelIndex, Index: i} }

// Range selects the contiguous, increasing range [lo, hi) on an axis.
func Range(lo, hi int) Selector { return Selector{Kind: SelRange, Lo: lo, Hi: hi} }

// All leaves an axis unchanged.
func All() Selector { return Selector{Kind: SelAll} }

// Select applies one selector per axis and returns the resulting view.
// Out-of-range indices or a non-increasing range fail with
// coreerr.SelectError.
func (d Dims) Select(selectors ...Selector) (Dims, error) {
	if len(selectors) != d.NumDims() {
		return Dims{}, coreerr.NewSelectError("one selector required per axis")
	}

	newShape := make([]int, 0, d.NumDims())
	newStrides := make([]int, 0, d.NumDims())
	offset := d.offset

	for axis, sel := range selectors {
		size := d.shape[axis]
		stride := d.strides[axis]

		switch sel.Kind {
		case SelIndex:
			if sel.Index < 0 || sel.Index >= size {
				return Dims{}, coreerr.NewSelectError("index selector out of range")
			}
			offset += sel.Index * stride
		case SelRange:
			if sel.Lo < 0 || sel.Hi > size || sel.Lo >= sel.Hi {
				return Dims{}, coreerr.NewSelectError("range selector must be increasing and in bounds")
			}
			offset += sel.Lo * stride
			newShape = append(newShape, sel.Hi-sel.Lo)
			newStrides = append(newStrides, stride)
		case SelAll:
			newShape = append(newShape, size)
			newStrides = append(newStrides, stride)
		default:
			return Dims{}, coreerr.NewSelectError("unknown selector kind")
		}
	}

	return Dims{shape: newShape, strides: newStrides, offset: offset}, nil
}

// As2DShape collapses shape into [product_of_leading_axes, last_axis],
// requiring d to be dense so the collapsed strides stay natural row-major.
func (d Dims) As2DShape() (Dims, error) {
	if d.NumDims() == 0 {
		return Dims{}, coreerr.NewShapeError("as_2d requires at least one dimension")
	}
	if !d.Dense() {
		return Dims{}, coreerr.NewShapeError("as_2d requires dense dimensions")
	}
	leading := 1
	for _, s := range d.shape[:len(d.shape)-1] {
		leading *= s
	}
	last := d.shape[len(d.shape)-1]
	return Dims{
		shape:   []int{leading, last},
		strides: rowMajorStrides([]int{leading, last}),
		offset:  d.offset,
	}, nil
}

// AsBatchShape collapses shape into [first_axis, product_of_trailing_axes].
func (d Dims) AsBatchShape() (Dims, error) {
	if d.NumDims() == 0 {
		return Dims{}, coreerr.NewShapeError("as_batch requires at least one dimension")
	}
	if !d.Dense() {
		return Dims{}, coreerr.NewShapeError("as_batch requires dense dimensions")
	}
	first := d.shape[0]
	trailing := 1
	for _, s := range d.shape[1:] {
		trailing *= s
	}
	return Dims{
		shape:   []int{first, trailing},
		strides: rowMajorStrides([]int{first, trailing}),
		offset:  d.offset,
	}, nil
}

// ColumnStride returns the stride of the slower-varying (row) axis of a
// 2-D descriptor — the BLAS leading dimension.
func (d Dims) ColumnStride() (int, error) {
	if d.NumDims() != 2 {
		return 0, coreerr.NewShapeError("column_stride requires a 2-D descriptor")
	}
	return d.strides[0], nil
}

// ElementStride returns the stride of the fastest-varying (column) axis of
// a 2-D descriptor; gemm requires this to be 1.
func (d Dims) ElementStride() (int, error) {
	if d.NumDims() != 2 {
		return 0, coreerr.NewShapeError("element_stride requires a 2-D descriptor")
	}
	return d.strides[len(d.strides)-1], nil
}

// Commensurate reports whether shapes a and b are commensurate per the
// core's broadcasting policy: equal rank, and for every axis
// max(a[i],b[i]) % min(a[i],b[i]) == 0. It also returns the elementwise
// maximum shape, valid only when ok is true.
func Commensurate(a, b []int) (result []int, ok bool) {
	if len(a) != len(b) {
		return nil, false
	}
	result = make([]int, len(a))
	for i := range a {
		hi, lo := a[i], b[i]
		if lo > hi {
			hi, lo = lo, hi
		}
		if lo == 0 || hi%lo != 0 {
			return nil, false
		}
		result[i] = hi
	}
	return result, true
}
