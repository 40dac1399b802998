// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor implements the Tensor view layer (C5): a Dims descriptor
// bound to an opaque driver.Buffer. Views (reshape, select, transpose,
// reinterpret) share the backing buffer; only clone_to_device/clone_to_host
// copy bytes.
//
// Unlike the teacher's Tensor[T, B], which fixes its element type and
// backend at compile time via generics, a Tensor here is a single runtime
// type: its element type is a dtype.Kind carried alongside the buffer, and
// its backend is whatever driver.Driver allocated the buffer. The spec
// picks backends by name at runtime through the driver registry (C6's
// dispatch table is likewise keyed per-stream at runtime), so a compile-time
// generic parameter has nothing to bind to here; a concrete struct paired
// with a Kind is the direct idiomatic translation of the teacher's
// ref-counted RawTensor once the backend is no longer known at compile
// time.
package tensor

import (
	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
)

// Tensor pairs a Dims descriptor with the buffer it views.
type Tensor struct {
	dims dims.Dims
	buf  driver.Buffer
	dt   dtype.Kind
}

// Bind binds dims d over buf as a dt-typed tensor. It fails with
// coreerr.ShapeError if buf's datatype does not match dt, or if d's
// maximum linear index does not fit within buf.
func Bind(buf driver.Buffer, d dims.Dims, dt dtype.Kind) (*Tensor, error) {
	if buf.Datatype() != dt {
		return nil, coreerr.NewShapeError("buffer datatype does not match tensor datatype")
	}
	if d.MaxLinearIndex() >= buf.Length() {
		return nil, coreerr.NewShapeError("dimensions exceed buffer length")
	}
	return &Tensor{dims: d, buf: buf, dt: dt}, nil
}

// Dims returns the tensor's dimension descriptor.
func (t *Tensor) Dims() dims.Dims { return t.dims }

// Buffer returns the tensor's backing buffer.
func (t *Tensor) Buffer() driver.Buffer { return t.buf }

// Datatype returns the tensor's element type.
func (t *Tensor) Datatype() dtype.Kind { return t.dt }

// Shape is shorthand for Dims().Shape().
func (t *Tensor) Shape() []int { return t.dims.Shape() }

// Dense delegates to the C3 density predicate.
func (t *Tensor) Dense() bool { return t.dims.Dense() }

// Simple delegates to the C3 simple predicate.
func (t *Tensor) Simple() bool { return t.dims.Simple() }

// view constructs a sibling Tensor over the same buffer with new Dims.
func (t *Tensor) view(d dims.Dims) *Tensor {
	return &Tensor{dims: d, buf: t.buf, dt: t.dt}
}

// Reshape returns a view with newShape, requiring dense, access-increasing
// dimensions (C3's Reshape).
func (t *Tensor) Reshape(newShape []int) (*Tensor, error) {
	d, err := t.dims.Reshape(newShape)
	if err != nil {
		return nil, err
	}
	return t.view(d), nil
}

// Transpose returns a view with axes permuted by perm.
func (t *Tensor) Transpose(perm []int) (*Tensor, error) {
	d, err := t.dims.Transpose(perm)
	if err != nil {
		return nil, err
	}
	return t.view(d), nil
}

// Select applies one dims.Selector per axis and returns the resulting view.
func (t *Tensor) Select(selectors ...dims.Selector) (*Tensor, error) {
	d, err := t.dims.Select(selectors...)
	if err != nil {
		return nil, err
	}
	return t.view(d), nil
}

// AsVector collapses the tensor into a single dense axis; it requires dense
// dimensions, matching Reshape's requirement for the 1-D case.
func (t *Tensor) AsVector() (*Tensor, error) {
	return t.Reshape([]int{t.dims.NumElements()})
}

// As2D collapses into [product_of_leading_axes, last_axis].
func (t *Tensor) As2D() (*Tensor, error) {
	d, err := t.dims.As2DShape()
	if err != nil {
		return nil, err
	}
	return t.view(d), nil
}

// AsBatch collapses into [first_axis, product_of_trailing_axes].
func (t *Tensor) AsBatch() (*Tensor, error) {
	d, err := t.dims.AsBatchShape()
	if err != nil {
		return nil, err
	}
	return t.view(d), nil
}

// Rows selects the contiguous row range [lo, hi) of a 2-D tensor.
func (t *Tensor) Rows(lo, hi int) (*Tensor, error) {
	if t.dims.NumDims() != 2 {
		return nil, coreerr.NewShapeError("rows requires a 2-D tensor")
	}
	return t.Select(dims.Range(lo, hi), dims.All())
}

// Columns selects the contiguous column range [lo, hi) of a 2-D tensor.
func (t *Tensor) Columns(lo, hi int) (*Tensor, error) {
	if t.dims.NumDims() != 2 {
		return nil, coreerr.NewShapeError("columns requires a 2-D tensor")
	}
	return t.Select(dims.All(), dims.Range(lo, hi))
}

// Reinterpret returns a view over the same buffer with caller-asserted new
// dimensions; no bounds relation to the prior Dims is checked beyond fitting
// within the buffer.
func Reinterpret(t *Tensor, newDims dims.Dims) (*Tensor, error) {
	if newDims.MaxLinearIndex() >= t.buf.Length() {
		return nil, coreerr.NewShapeError("reinterpret dimensions exceed buffer length")
	}
	return &Tensor{dims: newDims, buf: t.buf, dt: t.dt}, nil
}

// Alias reports whether a and b refer to the same backing store with
// intersecting index sets, per spec §4.5: a cheap bounding-box check on
// [offset, max_linear_index] rules out buffers whose backing differs or
// whose ranges cannot possibly overlap, then an exact linear-offset
// intersection (walking the smaller tensor's elements into a set and
// probing the larger one) decides real partial overlaps such as two
// column ranges of the same row-major matrix, which a bounding box alone
// cannot distinguish from a true overlap.
func Alias(a, b *Tensor) bool {
	if !driver.PartialAliases(a.buf, b.buf) {
		return false
	}
	aLo, aHi := a.dims.Offset(), a.dims.MaxLinearIndex()+1
	bLo, bHi := b.dims.Offset(), b.dims.MaxLinearIndex()+1
	if aHi <= bLo || bHi <= aLo {
		return false
	}

	small, large := a, b
	if b.dims.NumElements() < a.dims.NumElements() {
		small, large = b, a
	}
	n := small.dims.NumElements()
	offsets := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		offsets[small.dims.ElementOffset(i)] = struct{}{}
	}
	for i, m := 0, large.dims.NumElements(); i < m; i++ {
		if _, ok := offsets[large.dims.ElementOffset(i)]; ok {
			return true
		}
	}
	return false
}
