// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import "github.com/born-ml/core/mathops"

// NewTable builds the reference backend's mathops.Table. Every stream this
// driver creates registers the same Table value with mathops.RegisterStream
// (see Open); the kernels themselves are stateless with respect to which
// stream called them, since the reference backend has no real per-stream
// execution context beyond the calling goroutine.
func NewTable() *mathops.Table {
	return &mathops.Table{
		Unary:  applyUnary,
		Binary: applyBinary,
		Select: applySelect,
		Reduce: applyReduce,
		Gemm:   applyGemm,
		Rand:   applyRand,
	}
}
