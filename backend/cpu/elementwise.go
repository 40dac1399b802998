// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"sync"

	"github.com/born-ml/core/ctx"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/internal/parallel"
	"github.com/born-ml/core/tensor"
)

// destCoords decomposes pos, a row-major linear position over shape, into
// per-axis coordinates. Mirrors dims.Dims.ElementOffset's own decomposition
// loop, exposed here because binary/select kernels need the coordinate
// vector itself (to remap into each differently-shaped operand), not just
// one Dims's resulting offset.
func destCoords(pos int, shape []int) []int {
	coords := make([]int, len(shape))
	for axis := len(shape) - 1; axis >= 0; axis-- {
		size := shape[axis]
		if size == 0 {
			continue
		}
		coords[axis] = pos % size
		pos /= size
	}
	return coords
}

// operandOffset maps destCoords into d's buffer offset. Per spec §4.3's
// commensurate broadcasting policy, d's axis size always divides the
// destination's (checked by mathops.checkCommensurate before any kernel
// runs), so coord % d.Shape()[axis] is exactly the "modular indexing over
// the smaller operand" the spec requires — for a non-broadcast axis
// (equal size) this is a no-op (coord % size == coord).
func operandOffset(coords []int, d dims.Dims) int {
	strides := d.Strides()
	shape := d.Shape()
	off := d.Offset()
	for i, c := range coords {
		off += (c % shape[i]) * strides[i]
	}
	return off
}

// kernelConfig resolves the parallel.Config a kernel should fan out with,
// reading the Options the stream's owning driver was constructed with
// (see WithWorkers). Streams not backed by this package's *device
// (never happens in practice, since mathops only ever hands a registered
// stream back to the table that registered it) fall back to
// parallel.DefaultConfig.
func kernelConfig(stream driver.Stream) parallel.Config {
	if dev, ok := stream.Device().(*device); ok {
		return dev.drv.opts.parallelConfig()
	}
	return parallel.DefaultConfig()
}

// parallelIndexed runs f(destLinearIndex) for every element of destShape,
// over parallel.For's worker pool (sized per cfg), and returns the first
// error any call reported (errors from other in-flight calls are
// discarded, matching the dispatch-boundary policy in spec §7:
// shape/alias/select/domain errors are supposed to be caught before any
// backend call begins, so a kernel producing one mid-run means the data
// itself was out of the declared domain — the caller gets to know that
// occurred, not a full accounting of which elements).
func parallelIndexed(cfg parallel.Config, destShape []int, f func(pos int) error) error {
	n := 1
	for _, s := range destShape {
		n *= s
	}
	var (
		mu       sync.Mutex
		firstErr error
	)
	parallel.For(n, func(pos int) {
		if err := f(pos); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}, cfg)
	return firstErr
}

// currentUnchecked reports whether narrowing domain checks should be
// skipped, per the ambient context's unchecked flag (spec §4.7's {...,
// unchecked} context field), defaulting to checked (false) when no
// context has set it, same as package ctx's own default.
func currentUnchecked() bool {
	return ctx.Unchecked()
}

func asBuffer(t *tensor.Tensor) *buffer {
	return t.Buffer().(*buffer)
}
