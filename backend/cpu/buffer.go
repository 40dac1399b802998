// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"unsafe"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
)

// buffer is the reference backend's only buffer type: a native Go byte
// slice, host-addressable by construction. Device buffers and host staging
// buffers are the same concrete type here because the CPU has no separate
// address space to stage across — backend/cpu's Device.AcceptableHostBuffer
// always returns true for this reason.
//
// A sub-buffer shares its parent's backing slice (backing points at the
// same underlying array); releasing logic lives in the resource scope that
// tracked the allocation, not here. This mirrors the teacher's
// tensorBuffer, minus reference counting: ownership is the scope's job now
// (package scope), not the buffer's.
type buffer struct {
	backing []byte // the full allocation; off/length index into it
	off     int    // element offset within backing
	length  int    // element count of this view
	dt      dtype.Kind
	dev     driver.Device
}

func newBuffer(dev driver.Device, n int, dt dtype.Kind) *buffer {
	return &buffer{
		backing: make([]byte, n*dt.ByteWidth()),
		length:  n,
		dt:      dt,
		dev:     dev,
	}
}

func (b *buffer) Datatype() dtype.Kind { return b.dt }
func (b *buffer) Length() int          { return b.length }
func (b *buffer) Device() driver.Device { return b.dev }

func (b *buffer) SubBuffer(off, length int) (driver.Buffer, error) {
	if off < 0 || length < 0 || off+length > b.length {
		return nil, coreerr.NewShapeError("sub_buffer: range out of bounds")
	}
	return &buffer{backing: b.backing, off: b.off + off, length: length, dt: b.dt, dev: b.dev}, nil
}

// BackingID identifies the shared allocation, per driver.Buffer's doc
// comment: uintptr(unsafe.Pointer(&backingArray[0])).
func (b *buffer) BackingID() uintptr {
	if len(b.backing) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b.backing[0]))
}

func (b *buffer) BackingOffset() int { return b.off }

func (b *buffer) Bytes() []byte {
	width := b.dt.ByteWidth()
	start := b.off * width
	end := start + b.length*width
	return b.backing[start:end]
}

// floats32 returns this buffer's elements as a typed float32 view, valid
// only when Datatype() == dtype.F32. Kernels use this instead of
// dtype.Float64/PutFloat64 element-at-a-time conversion on the hot f32/f64
// paths, the same unsafe.Slice idiom the teacher's RawTensor.AsFloat32
// uses for the same reason: per-element canonical-form round-tripping
// would cost a function call and a float64<->float32 conversion on every
// element of every elementwise op.
func (b *buffer) floats32() []float32 {
	bs := b.Bytes()
	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(bs))), len(bs)/4)
}

func (b *buffer) floats64() []float64 {
	bs := b.Bytes()
	return unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(bs))), len(bs)/8)
}
