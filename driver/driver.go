// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package driver defines the capability contracts every compute backend
// satisfies (C4): Driver enumerates devices and allocates host staging
// memory, Device owns device memory and spawns Streams, Stream is a
// serialized execution queue, and Buffer is an opaque handle to a region of
// host or device memory.
//
// There is no inheritance hierarchy here, only capability sets: a backend
// is a value that implements all four interfaces for its own concrete
// buffer/stream types (see backend/cpu for the reference implementation).
// This mirrors the teacher repo's webgpu backend, which bundles an
// instance/adapter/device/queue into a single *Backend rather than an
// interface hierarchy — we split the same concerns into four small
// interfaces so non-CPU backends can satisfy them without depending on any
// one backend's internals.
package driver

import "github.com/born-ml/core/dtype"

// Usage hints how a buffer will be used, letting a backend pick a pooled
// vs. one-shot allocation strategy.
type Usage int

// Buffer usage hints.
const (
	OneTime Usage = iota
	Reusable
)

// MemoryInfo reports a device's memory budget in bytes.
type MemoryInfo struct {
	Free  uint64
	Total uint64
}

// BufferOptions configures a device buffer allocation.
type BufferOptions struct {
	Usage Usage
}

// Driver is a backend registry entry: it names itself, enumerates the
// devices it can drive, and allocates host staging buffers.
type Driver interface {
	// Name returns the driver's registered name.
	Name() string

	// EnumerateDevices lists the devices this driver can drive.
	EnumerateDevices() []Device

	// AllocateHostBuffer allocates a host-addressable staging buffer of n
	// elements of type dt. Host buffers support the typed-access surface
	// of package dtype so index math in package dims can read/write them
	// directly.
	AllocateHostBuffer(n int, dt dtype.Kind, usage Usage) (HostBuffer, error)
}

// Device owns memory and may spawn Streams.
type Device interface {
	// Driver returns the driver that owns this device.
	Driver() Driver

	// MemoryInfo reports free/total device memory in bytes.
	MemoryInfo() MemoryInfo

	// SupportsCreateStream reports whether CreateStream is usable; a
	// backend with only a default stream returns false.
	SupportsCreateStream() bool

	// DefaultStream returns the device's always-available stream.
	DefaultStream() Stream

	// CreateStream creates an additional stream. Only valid when
	// SupportsCreateStream() is true.
	CreateStream() (Stream, error)

	// AllocateDeviceBuffer allocates a device buffer of n elements of type dt.
	AllocateDeviceBuffer(n int, dt dtype.Kind, opts BufferOptions) (Buffer, error)

	// AcceptableDeviceBuffer reports whether buf, which may have been
	// allocated by a different device, can be used directly by this one
	// without staging.
	AcceptableDeviceBuffer(buf Buffer) bool

	// AcceptableHostBuffer reports whether a host buffer happens to be
	// directly addressable by this device, letting callers skip staging.
	AcceptableHostBuffer(buf HostBuffer) bool
}

// Stream is a serialized execution queue on a Device. Operations enqueued
// on one stream observe a happens-before relation in enqueue order; across
// streams there is no ordering except through SyncWithStream or
// SyncWithHost.
type Stream interface {
	// Device returns the device this stream executes on.
	Device() Device

	CopyHostToDevice(host HostBuffer, hostOff int, dev Buffer, devOff int, n int) error
	CopyDeviceToHost(dev Buffer, devOff int, host HostBuffer, hostOff int, n int) error
	CopyDeviceToDevice(src Buffer, srcOff int, dst Buffer, dstOff int, n int) error

	// SyncWithHost blocks the caller until this stream's queue drains.
	SyncWithHost() error

	// SyncWithStream makes the receiver await an event inserted into
	// src's queue. Both streams must belong to the same driver or this
	// fails with coreerr.CrossDriverError.
	SyncWithStream(src Stream) error
}

// Buffer is an opaque handle to a region of host or device memory. Two
// buffers alias iff they share a backing store and index range; a
// sub-buffer shares its parent's backing store without copying.
type Buffer interface {
	Datatype() dtype.Kind
	Length() int
	Device() Device // may be nil for host buffers

	// SubBuffer returns a view sharing the same backing store over
	// [off, off+length).
	SubBuffer(off, length int) (Buffer, error)

	// BackingID identifies the underlying allocation for Aliases/PartialAliases;
	// two sub-buffers of the same allocation report the same BackingID.
	// Backends typically return uintptr(unsafe.Pointer(&backingArray[0])).
	BackingID() uintptr
	// BackingOffset is this buffer's element offset within BackingID's allocation.
	BackingOffset() int
}

// HostBuffer is a Buffer directly addressable by the host: the typed-access
// surface package dtype and package dims build index math on.
type HostBuffer interface {
	Buffer
	// Bytes returns the raw backing storage, starting at this buffer's offset.
	Bytes() []byte
}

// Aliases reports whether a and b refer to the same backing store over the
// identical range.
func Aliases(a, b Buffer) bool {
	return a.BackingID() == b.BackingID() &&
		a.BackingOffset() == b.BackingOffset() &&
		a.Length() == b.Length()
}

// PartialAliases reports whether a and b refer to the same backing store
// with overlapping ranges.
func PartialAliases(a, b Buffer) bool {
	if a.BackingID() != b.BackingID() {
		return false
	}
	aLo, aHi := a.BackingOffset(), a.BackingOffset()+a.Length()
	bLo, bHi := b.BackingOffset(), b.BackingOffset()+b.Length()
	return aLo < bHi && bLo < aHi
}
