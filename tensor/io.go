// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"reflect"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/ctx"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
)

// NewOptions configures New; zero-valued fields fall back to the ambient
// context (package ctx). A missing datatype or device then fails with
// coreerr.NoContextError; a missing stream falls back to the device's
// default stream.
type NewOptions struct {
	Datatype  dtype.Kind
	HasDtype  bool
	HasInit   bool
	InitValue float64
	Stream    driver.Stream
	Device    driver.Device
}

func resolveDeviceStream(optDev driver.Device, optStream driver.Stream) (driver.Device, driver.Stream, error) {
	dev := optDev
	if dev == nil {
		d, err := ctx.CurrentDevice()
		if err != nil {
			return nil, nil, err
		}
		dev = d
	}
	stream := optStream
	if stream == nil {
		if s, err := ctx.CurrentStream(); err == nil {
			stream = s
		} else {
			stream = dev.DefaultStream()
		}
	}
	return dev, stream, nil
}

func resolveDatatype(hasDT bool, dt dtype.Kind) (dtype.Kind, error) {
	if hasDT {
		return dt, nil
	}
	return ctx.CurrentDatatype()
}

// New allocates a device buffer of element count ∏shape and wraps it in a
// dense Tensor. Default datatype and device come from the ambient context
// when opts leaves them unset. If opts.HasInit, every element is
// broadcast-assigned opts.InitValue after allocation.
func New(shape []int, opts NewOptions) (*Tensor, error) {
	dt, err := resolveDatatype(opts.HasDtype, opts.Datatype)
	if err != nil {
		return nil, err
	}
	dev, stream, err := resolveDeviceStream(opts.Device, opts.Stream)
	if err != nil {
		return nil, err
	}

	d := dims.New(shape)
	n := d.NumElements()

	buf, err := dev.AllocateDeviceBuffer(n, dt, driver.BufferOptions{Usage: driver.Reusable})
	if err != nil {
		return nil, coreerr.NewDeviceError(dev.Driver().Name(), err)
	}
	t, err := Bind(buf, d, dt)
	if err != nil {
		return nil, err
	}

	if opts.HasInit {
		if err := fillConstant(stream, dev, t, opts.InitValue); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func fillConstant(stream driver.Stream, dev driver.Device, t *Tensor, value float64) error {
	host, err := dev.Driver().AllocateHostBuffer(t.dims.NumElements(), t.dt, driver.OneTime)
	if err != nil {
		return coreerr.NewDeviceError(dev.Driver().Name(), err)
	}
	for i := 0; i < t.dims.NumElements(); i++ {
		if err := dtype.PutFloat64(t.dt, host.Bytes(), i, value, true); err != nil {
			return err
		}
	}
	return stream.CopyHostToDevice(host, 0, t.buf, t.dims.Offset(), t.dims.NumElements())
}

// ToTensorOptions configures ToTensor.
type ToTensorOptions struct {
	Datatype  dtype.Kind
	HasDtype  bool
	Shape     []int
	Unchecked bool
	Stream    driver.Stream
	Device    driver.Device
	Sync      bool
}

// ToTensor flattens a nested Go sequence (slices of slices, bottoming out
// in a numeric element type) into a host staging buffer and uploads it to
// the current device on the current stream. The inferred shape is the
// sequence's nesting depth and lengths unless opts.Shape overrides it.
func ToTensor(data any, opts ToTensorOptions) (*Tensor, error) {
	flat, inferredShape, _, err := flatten(reflect.ValueOf(data))
	if err != nil {
		return nil, err
	}

	shape := opts.Shape
	if shape == nil {
		shape = inferredShape
	}
	dt, err := resolveDatatype(opts.HasDtype, opts.Datatype)
	if err != nil {
		return nil, err
	}
	dev, stream, err := resolveDeviceStream(opts.Device, opts.Stream)
	if err != nil {
		return nil, err
	}

	d := dims.New(shape)
	if d.NumElements() != len(flat) {
		return nil, coreerr.NewShapeError("to_tensor: shape does not match element count")
	}

	host, err := dev.Driver().AllocateHostBuffer(len(flat), dt, driver.OneTime)
	if err != nil {
		return nil, coreerr.NewDeviceError(dev.Driver().Name(), err)
	}
	for i, v := range flat {
		if err := dtype.PutFloat64(dt, host.Bytes(), i, v, opts.Unchecked); err != nil {
			return nil, err
		}
	}

	buf, err := dev.AllocateDeviceBuffer(len(flat), dt, driver.BufferOptions{Usage: driver.Reusable})
	if err != nil {
		return nil, coreerr.NewDeviceError(dev.Driver().Name(), err)
	}
	if err := stream.CopyHostToDevice(host, 0, buf, 0, len(flat)); err != nil {
		return nil, err
	}
	if opts.Sync {
		if err := stream.SyncWithHost(); err != nil {
			return nil, err
		}
	}
	return Bind(buf, d, dt)
}

// flatten walks a nested slice/array structure, returning its elements in
// row-major order as float64 (the canonical round-trip type per C2), the
// shape implied by nesting, and the Go kind it bottomed out at.
func flatten(v reflect.Value) ([]float64, []int, reflect.Kind, error) {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		f, ok := asFloat64(v)
		if !ok {
			return nil, nil, v.Kind(), coreerr.NewShapeError("to_tensor: unsupported element type")
		}
		return []float64{f}, nil, v.Kind(), nil
	}

	n := v.Len()
	if n == 0 {
		return nil, []int{0}, reflect.Invalid, nil
	}

	first, firstShape, kind, err := flatten(v.Index(0))
	if err != nil {
		return nil, nil, kind, err
	}
	if firstShape == nil {
		// leaf level: this axis bottoms out directly in scalars.
		out := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			f, ok := asFloat64(v.Index(i))
			if !ok {
				return nil, nil, kind, coreerr.NewShapeError("to_tensor: unsupported element type")
			}
			out = append(out, f)
		}
		return out, []int{n}, kind, nil
	}

	out := make([]float64, 0, n*len(first))
	out = append(out, first...)
	for i := 1; i < n; i++ {
		elem, shape, _, err := flatten(v.Index(i))
		if err != nil {
			return nil, nil, kind, err
		}
		if len(shape) != len(firstShape) {
			return nil, nil, kind, coreerr.NewShapeError("to_tensor: ragged nested sequence")
		}
		for a := range shape {
			if shape[a] != firstShape[a] {
				return nil, nil, kind, coreerr.NewShapeError("to_tensor: ragged nested sequence")
			}
		}
		out = append(out, elem...)
	}
	return out, append([]int{n}, firstShape...), kind, nil
}

func asFloat64(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}

// CloneOptions configures CloneToDevice and CloneToHost.
type CloneOptions struct {
	Stream driver.Stream
	Device driver.Device
	Force  bool
	Sync   bool
}

// CloneToDevice stages t's contents through a host buffer and uploads them
// to the current device. It requires t to be access-increasing unless
// opts.Force, in which case a compact copy of t is made first.
func CloneToDevice(t *Tensor, opts CloneOptions) (*Tensor, error) {
	if !t.dims.AccessIncreasing() && !opts.Force {
		return nil, coreerr.NewShapeError("clone_to_device requires access-increasing dimensions unless force")
	}
	dev, stream, err := resolveDeviceStream(opts.Device, opts.Stream)
	if err != nil {
		return nil, err
	}

	n := t.dims.NumElements()
	host, err := dev.Driver().AllocateHostBuffer(n, t.dt, driver.OneTime)
	if err != nil {
		return nil, coreerr.NewDeviceError(dev.Driver().Name(), err)
	}
	if err := stageToHost(host, t, n); err != nil {
		return nil, err
	}

	buf, err := dev.AllocateDeviceBuffer(n, t.dt, driver.BufferOptions{Usage: driver.Reusable})
	if err != nil {
		return nil, coreerr.NewDeviceError(dev.Driver().Name(), err)
	}
	if err := stream.CopyHostToDevice(host, 0, buf, 0, n); err != nil {
		return nil, err
	}
	if opts.Sync {
		if err := stream.SyncWithHost(); err != nil {
			return nil, err
		}
	}
	return Bind(buf, dims.New(t.dims.Shape()), t.dt)
}

// CloneToHost stages t's contents from the device into a fresh dense host
// tensor. opts.Sync defaults true in spirit; callers pass Sync: true
// explicitly since Go has no default-field-value syntax.
func CloneToHost(t *Tensor, opts CloneOptions) (*Tensor, error) {
	dev, stream, err := resolveDeviceStream(opts.Device, opts.Stream)
	if err != nil {
		return nil, err
	}
	n := t.dims.NumElements()
	host, err := dev.Driver().AllocateHostBuffer(n, t.dt, driver.OneTime)
	if err != nil {
		return nil, coreerr.NewDeviceError(dev.Driver().Name(), err)
	}
	if err := stageToHost(host, t, n); err != nil {
		return nil, err
	}
	if opts.Sync {
		if err := stream.SyncWithHost(); err != nil {
			return nil, err
		}
	}
	return Bind(host, dims.New(t.dims.Shape()), t.dt)
}

// stageToHost copies t's n elements into dst in row-major order. If t's
// buffer is already host-addressable (the common case: the reference CPU
// backend's device buffers are host buffers), this is a direct typed copy.
// Otherwise it stages through t's own device's default stream first.
func stageToHost(dst driver.HostBuffer, t *Tensor, n int) error {
	if src, ok := t.buf.(driver.HostBuffer); ok {
		for i := 0; i < n; i++ {
			v := dtype.Float64(t.dt, src.Bytes(), t.dims.ElementOffset(i))
			if err := dtype.PutFloat64(t.dt, dst.Bytes(), i, v, true); err != nil {
				return err
			}
		}
		return nil
	}

	dev := t.buf.Device()
	if dev == nil {
		return coreerr.NewShapeError("stage_to_host: buffer is neither host-addressable nor device-owned")
	}
	// A bulk CopyDeviceToHost reads n contiguous elements starting at
	// t.dims.Offset(); that only recovers row-major order when t's strides
	// are the natural ones for its shape. A merely access-increasing (but
	// non-dense) view — e.g. a non-trivial Select — would read the wrong
	// elements here, since the backend has no way to stage a strided device
	// buffer without being host-addressable.
	if t.dims.Dense() {
		return dev.DefaultStream().CopyDeviceToHost(t.buf, t.dims.Offset(), dst, 0, n)
	}
	return coreerr.NewShapeError("stage_to_host: non-dense device buffer requires clone_to_device(force=true)")
}

// ToArray copies a host-addressable tensor's elements into a flat []float64
// in row-major order, the egress counterpart of ToTensor's ingress. Callers
// needing a typed Go slice narrow the result themselves via dtype.PutFloat64
// or simple casts.
func ToArray(t *Tensor) ([]float64, error) {
	host, ok := t.buf.(driver.HostBuffer)
	if !ok {
		return nil, coreerr.NewShapeError("to_array requires a host-addressable tensor; clone_to_host first")
	}
	n := t.dims.NumElements()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = dtype.Float64(t.dt, host.Bytes(), t.dims.ElementOffset(i))
	}
	return out, nil
}

// ToNestedSequence is ToArray's nested counterpart: it reshapes the same
// flat, row-major egress into slices nested to match t.Shape(), so
// to_nested_sequence(t) round-trips against the data a caller originally
// handed to ToTensor. A 0-D tensor (empty shape) returns its single
// element unwrapped, as a bare float64.
func ToNestedSequence(t *Tensor) (any, error) {
	flat, err := ToArray(t)
	if err != nil {
		return nil, err
	}
	nested, _ := nest(flat, t.dims.Shape())
	return nested, nil
}

// nest consumes flat in row-major order, wrapping it in []any per shape, and
// returns the unconsumed remainder so outer calls can advance past what an
// inner recursive call already used.
func nest(flat []float64, shape []int) (any, []float64) {
	if len(shape) == 0 {
		return flat[0], flat[1:]
	}
	if len(shape) == 1 {
		out := make([]any, shape[0])
		for i := range out {
			out[i] = flat[i]
		}
		return out, flat[shape[0]:]
	}
	out := make([]any, shape[0])
	rest := flat
	for i := range out {
		var elem any
		elem, rest = nest(rest, shape[1:])
		out[i] = elem
	}
	return out, rest
}
