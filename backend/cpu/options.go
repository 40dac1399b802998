// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"runtime"

	"github.com/born-ml/core/internal/parallel"
)

// Options configures a cpu driver instance: how many goroutines its
// elementwise/reduce/gemm kernels fan out across, and the block size the
// naive integer gemm path tiles by. The teacher configures its webgpu
// backend with imperative setters (SetLazyMode, SetMaxBatchSize) on a
// mutable struct; functional options are the more common idiomatic-Go
// variant of the same "configure before first use" shape, and keep New's
// signature symmetrical with driver.Open's single-string factory call.
type Options struct {
	workers       int
	gemmBlockSize int
}

// Option configures Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		workers:       runtime.NumCPU(),
		gemmBlockSize: 64,
	}
}

// WithWorkers sets the number of goroutines elementwise, select, reduce and
// the generic gemm fallback fan out across. n <= 1 disables parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.workers = n }
}

// WithGemmBlockSize sets the tile size gemmGeneric's integer fallback loop
// blocks by. It has no effect on the BLAS-backed f32/f64 paths.
func WithGemmBlockSize(n int) Option {
	return func(o *Options) { o.gemmBlockSize = n }
}

func (o Options) parallelConfig() parallel.Config {
	return parallel.Config{
		Enabled:      o.workers > 1,
		NumWorkers:   o.workers,
		MinChunkSize: 64,
	}
}
