// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"runtime"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
)

// device is the reference backend's sole Device: it reports the host's
// free memory as a best-effort figure (runtime.MemStats, the only memory
// accounting a pure-Go process has without cgo) and never supports a second
// stream — SupportsCreateStream reports false, matching spec §4.4's
// CreateStream being backend-optional.
type device struct {
	drv    *cpuDriver
	stream *stream
}

func (d *device) Driver() driver.Driver { return d.drv }

func (d *device) MemoryInfo() driver.MemoryInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return driver.MemoryInfo{Free: m.Sys - m.HeapInuse, Total: m.Sys}
}

func (d *device) SupportsCreateStream() bool { return false }

func (d *device) DefaultStream() driver.Stream { return d.stream }

func (d *device) CreateStream() (driver.Stream, error) {
	return nil, coreerr.NewDeviceError("cpu", errNoExtraStreams)
}

func (d *device) AllocateDeviceBuffer(n int, dt dtype.Kind, opts driver.BufferOptions) (driver.Buffer, error) {
	return newBuffer(d, n, dt), nil
}

// AcceptableDeviceBuffer reports whether buf was allocated by this same
// device; the reference backend has no buffer-pooling or cross-device
// compatibility to speak of, so this is exact identity rather than a
// compatibility heuristic.
func (d *device) AcceptableDeviceBuffer(buf driver.Buffer) bool {
	b, ok := buf.(*buffer)
	return ok && b.dev == d
}

// AcceptableHostBuffer is true for every buffer this backend produces: host
// or device, it is the same Go byte slice and is already directly
// addressable. Buffers of any other type are rejected.
func (d *device) AcceptableHostBuffer(buf driver.HostBuffer) bool {
	_, ok := buf.(*buffer)
	return ok
}
