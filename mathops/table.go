// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mathops

import (
	"sync"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/tensor"
)

// Table is a backend's per-stream implementation of the C6 kernels.
// Dispatch functions in this package validate shapes and aliasing, then
// forward to the matching Table field; a Table never needs to repeat that
// validation itself.
//
// Every field operates entirely in terms of package tensor and package
// driver, never a concrete backend type, so package driver can stay free of
// any dependency on mathops or tensor: a backend registers its Table against its own
// Stream value with RegisterStream instead of a Stream field pointing back
// at a Table.
type Table struct {
	Unary  func(stream driver.Stream, op UnaryOp, dest, x *tensor.Tensor, alpha float64) error
	Binary func(stream driver.Stream, op BinaryOp, dest, x, y *tensor.Tensor, alpha, beta float64) error
	Select func(stream driver.Stream, dest, cond, onTrue, onFalse *tensor.Tensor, alpha, beta, gamma float64) error
	Reduce func(stream driver.Stream, op ReduceOp, dest, input *tensor.Tensor, alpha float64) error
	Gemm   func(stream driver.Stream, c *tensor.Tensor, transA, transB bool, alpha float64, a, b *tensor.Tensor, beta float64) error
	Rand   func(stream driver.Stream, dest *tensor.Tensor, dist Dist, p0, p1 float64) error
}

var (
	registryMu sync.Mutex
	registry   = map[driver.Stream]*Table{}
)

// RegisterStream installs table as the kernel implementation for stream.
// Backends call this once per stream they create (including each device's
// default stream).
func RegisterStream(stream driver.Stream, table *Table) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[stream] = table
}

// UnregisterStream removes stream's table, for backends that tear down
// streams before their device.
func UnregisterStream(stream driver.Stream) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, stream)
}

// TableFor returns the registered Table for stream, or a CrossDriverError
// if no backend registered one — dispatch can only route an operation to a
// stream that identified itself via RegisterStream.
func TableFor(stream driver.Stream) (*Table, error) {
	registryMu.Lock()
	table, ok := registry[stream]
	registryMu.Unlock()
	if !ok {
		return nil, coreerr.NewCrossDriverError("stream has no registered math dispatch table")
	}
	return table, nil
}
