// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mathops

import (
	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/tensor"
)

// Gemm dispatches C = alpha*opA(A)*opB(B) + beta*C on stream, where opA/opB
// are no-op or transpose depending on the access-increasing orientation of
// A and B. This is spec §4.6's "single non-obvious algorithm": before
// calling the backend, canonicalize A and B so each presents
// access-increasing dimensions, flipping the corresponding transpose flag
// whenever an operand was handed in transposed (non-increasing) rather
// than materializing a transposed copy. The teacher's MatMul instead calls
// Transpose eagerly and copies (internal/backend/cpu/matmul.go), which is
// exactly what this canonicalization step is built to avoid: accelerated
// backends need the canonical BLAS-style signature, not a pre-transposed
// tensor.
func Gemm(stream driver.Stream, c *tensor.Tensor, transA, transB bool, alpha float64, a, b *tensor.Tensor, beta float64) error {
	if tensor.Alias(c, a) || tensor.Alias(c, b) {
		return coreerr.NewAliasError("gemm: destination may not alias either operand")
	}

	canonA, flippedA, err := canonicalize2D(a, "a")
	if err != nil {
		return err
	}
	canonB, flippedB, err := canonicalize2D(b, "b")
	if err != nil {
		return err
	}
	canonC, flippedC, err := canonicalize2D(c, "c")
	if err != nil {
		return err
	}
	if flippedC {
		return coreerr.NewShapeError("gemm: destination must already have access-increasing dimensions")
	}

	effTransA := transA != flippedA
	effTransB := transB != flippedB

	aRows, aCols := opShape(canonA, effTransA)
	bRows, bCols := opShape(canonB, effTransB)
	cRows, cCols := canonC.Shape()[0], canonC.Shape()[1]

	if aCols != bRows {
		return coreerr.NewShapeError("gemm: cols(opA(A)) must equal rows(opB(B))")
	}
	if aRows != cRows {
		return coreerr.NewShapeError("gemm: rows(opA(A)) must equal rows(C)")
	}
	if bCols != cCols {
		return coreerr.NewShapeError("gemm: cols(opB(B)) must equal cols(C)")
	}

	if err := requireUnitElementStride(canonA, "a"); err != nil {
		return err
	}
	if err := requireUnitElementStride(canonB, "b"); err != nil {
		return err
	}
	if err := requireUnitElementStride(canonC, "c"); err != nil {
		return err
	}

	table, err := TableFor(stream)
	if err != nil {
		return err
	}
	return table.Gemm(stream, canonC, effTransA, effTransB, alpha, canonA, canonB, beta)
}

func requireUnitElementStride(t *tensor.Tensor, name string) error {
	es, err := t.Dims().ElementStride()
	if err != nil {
		return err
	}
	if es != 1 {
		return coreerr.NewShapeError("gemm: operand " + name + " requires element_stride = 1")
	}
	return nil
}

// canonicalize2D returns t unchanged if it is already access-increasing, or
// its transpose otherwise, and reports which case applied so the caller can
// flip its transpose flag rather than physically transposing the operand.
func canonicalize2D(t *tensor.Tensor, name string) (canon *tensor.Tensor, flipped bool, err error) {
	if t.Dims().NumDims() != 2 {
		return nil, false, coreerr.NewShapeError("gemm: operand " + name + " must be 2-D")
	}
	if t.Dims().AccessIncreasing() {
		return t, false, nil
	}
	transposed, err := t.Transpose([]int{1, 0})
	if err != nil {
		return nil, false, err
	}
	if !transposed.Dims().AccessIncreasing() {
		return nil, false, coreerr.NewShapeError("gemm: operand " + name + " is neither access-increasing nor its transpose")
	}
	return transposed, true, nil
}

func opShape(t *tensor.Tensor, transposed bool) (rows, cols int) {
	shape := t.Shape()
	if transposed {
		return shape[1], shape[0]
	}
	return shape[0], shape[1]
}
