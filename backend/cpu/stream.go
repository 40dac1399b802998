// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
)

// stream is the reference backend's execution queue. There is no actual
// asynchrony: every enqueue runs synchronously on the calling goroutine, so
// SyncWithHost and SyncWithStream are no-ops beyond the CrossDriverError
// check. This is deliberate — the spec's ordering guarantees only need to
// hold, not need to be exercised by real concurrency, for a reference
// backend (see package doc comment).
type stream struct {
	dev *device
}

func (s *stream) Device() driver.Device { return s.dev }

func (s *stream) CopyHostToDevice(host driver.HostBuffer, hostOff int, dev driver.Buffer, devOff, n int) error {
	return copyTyped(host, hostOff, dev, devOff, n)
}

func (s *stream) CopyDeviceToHost(dev driver.Buffer, devOff int, host driver.HostBuffer, hostOff, n int) error {
	return copyTyped(dev, devOff, host, hostOff, n)
}

func (s *stream) CopyDeviceToDevice(src driver.Buffer, srcOff int, dst driver.Buffer, dstOff, n int) error {
	return copyTyped(src, srcOff, dst, dstOff, n)
}

func (s *stream) SyncWithHost() error { return nil }

func (s *stream) SyncWithStream(src driver.Stream) error {
	other, ok := src.(*stream)
	if !ok {
		return coreerr.NewCrossDriverError("sync_with_stream: source stream belongs to a different driver")
	}
	if other.dev.drv != s.dev.drv {
		return coreerr.NewCrossDriverError("sync_with_stream: streams belong to different cpu drivers")
	}
	return nil
}

// copyTyped performs the typed elementwise copy backing every Stream copy
// method: both src and dst are *buffer here (the reference backend never
// stages through any other buffer type), so this is just dtype.Copy over
// their raw bytes at the given element offsets.
func copyTyped(src driver.Buffer, srcOff int, dst driver.Buffer, dstOff int, n int) error {
	sb, ok := src.(*buffer)
	if !ok {
		return coreerr.NewDeviceError("cpu", errNotCPUBuffer)
	}
	db, ok := dst.(*buffer)
	if !ok {
		return coreerr.NewDeviceError("cpu", errNotCPUBuffer)
	}
	if srcOff+n > sb.length || dstOff+n > db.length {
		return coreerr.NewShapeError("copy: range exceeds buffer length")
	}
	return dtypeCopy(sb, srcOff, db, dstOff, n)
}
