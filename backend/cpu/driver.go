// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu implements the reference CPU backend (C8): a driver with a
// single device and a single default stream, backed entirely by native Go
// byte slices. It satisfies all four driver capability interfaces and
// registers itself under the name "cpu" via an init() function, the same
// database/sql-style self-registration the driver registry (package
// driver's Register/Open) is built around.
//
// Every buffer this backend allocates is host-addressable (there is no
// separate device address space on a CPU), so AcceptableHostBuffer returns
// true for all of them and tensor.stageToHost takes the direct HostBuffer
// path (an element walk, no stream copy) for every tensor this backend
// produces. CloneToDevice still fills a host staging buffer and then copies
// it into a newly allocated device buffer.
//
// Math kernels live in table.go and its op-family siblings (unary.go,
// binary.go, select.go, reduce.go, gemm.go, rand.go); NewTable wires a
// *mathops.Table and Open registers it against the device's default
// stream before returning, so any stream obtained through this driver is
// immediately dispatchable.
package cpu

import (
	"errors"

	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/mathops"
)

var errNotCPUBuffer = errors.New("cpu: buffer was not allocated by this backend")
var errNoExtraStreams = errors.New("cpu: this device supports only its default stream")

func init() {
	driver.Register("cpu", Open)
}

// cpuDriver is the Driver capability: it owns no state beyond its device
// list and its kernel options, since the reference backend has exactly one
// device.
type cpuDriver struct {
	devices []driver.Device
	opts    Options
}

// Open constructs a fresh cpu driver with default Options and registers the
// device's default stream's math table. It is the factory the driver
// registry calls on every driver.Open("cpu"), so each call yields an
// independent driver with its own device and stream; callers wanting non-default Options (worker count, gemm block size) use
// New directly instead of going through the registry.
func Open() (driver.Driver, error) {
	return New()
}

// New constructs a cpu driver the way Open does, but accepts Options.
// driver.Open("cpu") always uses defaults; construct with New and hold
// onto the returned driver.Driver when a caller needs non-default
// Options.
func New(opts ...Option) (driver.Driver, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	drv := &cpuDriver{opts: o}
	dev := &device{drv: drv}
	dev.stream = &stream{dev: dev}
	drv.devices = []driver.Device{dev}

	mathops.RegisterStream(dev.stream, NewTable())
	return drv, nil
}

func (d *cpuDriver) Name() string { return "cpu" }

func (d *cpuDriver) EnumerateDevices() []driver.Device {
	return append([]driver.Device(nil), d.devices...)
}

func (d *cpuDriver) AllocateHostBuffer(n int, dt dtype.Kind, usage driver.Usage) (driver.HostBuffer, error) {
	dev := d.devices[0].(*device)
	return newBuffer(dev, n, dt), nil
}
