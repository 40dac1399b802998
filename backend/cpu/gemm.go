// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"sync"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/internal/parallel"
	"github.com/born-ml/core/tensor"
)

// applyGemm computes c = alpha*opA(a)*opB(b) + beta*c. By the time
// mathops.Gemm calls this, a/b/c are already canonicalized: 2-D,
// access-increasing, element_stride == 1 (see mathops/gemm.go). The f32
// and f64 paths hand off to gonum's blas64/blas32 Gemm, the direct
// replacement for the teacher's naive triple loop
// (internal/backend/cpu/matmul.go carries a
// "// TODO: Integrate with gonum/blas for better performance" comment at
// exactly this call site). Every other datatype falls back to a naive
// loop over the canonical float64 form, since BLAS has no integer gemm.
func applyGemm(stream driver.Stream, c *tensor.Tensor, transA, transB bool, alpha float64, a, b *tensor.Tensor, beta float64) error {
	if a.Datatype() == dtype.F64 && b.Datatype() == dtype.F64 && c.Datatype() == dtype.F64 {
		gemmFloat64(c, transA, transB, alpha, a, b, beta)
		return nil
	}
	if a.Datatype() == dtype.F32 && b.Datatype() == dtype.F32 && c.Datatype() == dtype.F32 {
		gemmFloat32(c, transA, transB, float32(alpha), a, b, float32(beta))
		return nil
	}
	return gemmGeneric(stream, c, transA, transB, alpha, a, b, beta)
}

func blasTrans(transposed bool) blas.Transpose {
	if transposed {
		return blas.Trans
	}
	return blas.NoTrans
}

func generalFloat64(t *tensor.Tensor) blas64.General {
	d := t.Dims()
	cs, _ := d.ColumnStride()
	buf := asBuffer(t)
	return blas64.General{
		Rows:   d.Shape()[0],
		Cols:   d.Shape()[1],
		Stride: cs,
		Data:   buf.floats64()[d.Offset():],
	}
}

func generalFloat32(t *tensor.Tensor) blas32.General {
	d := t.Dims()
	cs, _ := d.ColumnStride()
	buf := asBuffer(t)
	return blas32.General{
		Rows:   d.Shape()[0],
		Cols:   d.Shape()[1],
		Stride: cs,
		Data:   buf.floats32()[d.Offset():],
	}
}

func gemmFloat64(c *tensor.Tensor, transA, transB bool, alpha float64, a, b *tensor.Tensor, beta float64) {
	blas64.Gemm(blasTrans(transA), blasTrans(transB), alpha, generalFloat64(a), generalFloat64(b), beta, generalFloat64(c))
}

func gemmFloat32(c *tensor.Tensor, transA, transB bool, alpha float32, a, b *tensor.Tensor, beta float32) {
	blas32.Gemm(blasTrans(transA), blasTrans(transB), alpha, generalFloat32(a), generalFloat32(b), beta, generalFloat32(c))
}

// gemmGeneric is the reference loop for any datatype BLAS does not cover
// (the integer kinds). It reads through the canonical float64 form and
// writes back through it, narrowing per dtype's usual rules. Rows are
// tiled by the driver's gemmBlockSize (Options.WithGemmBlockSize) and the
// tiles fan out over parallel.For, the shape a classic blocked matmul
// takes when BLAS itself is not available for the dtype.
func gemmGeneric(stream driver.Stream, c *tensor.Tensor, transA, transB bool, alpha float64, a, b *tensor.Tensor, beta float64) error {
	cDims, aDims, bDims := c.Dims(), a.Dims(), b.Dims()
	m, n := cDims.Shape()[0], cDims.Shape()[1]
	k := aDims.Shape()[1]
	if transA {
		k = aDims.Shape()[0]
	}
	unchecked := currentUnchecked()
	cb, ab, bb := asBuffer(c), asBuffer(a), asBuffer(b)
	cDT, aDT, bDT := c.Datatype(), a.Datatype(), b.Datatype()

	blockSize := gemmBlockSizeFor(stream)
	numBlocks := (m + blockSize - 1) / blockSize

	var (
		mu       sync.Mutex
		firstErr error
	)
	parallel.For(numBlocks, func(blk int) {
		rowStart := blk * blockSize
		rowEnd := min(rowStart+blockSize, m)
		for i := rowStart; i < rowEnd; i++ {
			for j := 0; j < n; j++ {
				sum := 0.0
				for p := 0; p < k; p++ {
					sum += alpha * elemAt(aDims, ab, aDT, transA, i, p) * elemAt(bDims, bb, bDT, transB, p, j)
				}
				ci := cDims.Offset() + i*cDims.Strides()[0] + j*cDims.Strides()[1]
				prev := beta * dtype.Float64(cDT, cb.Bytes(), ci)
				if err := dtype.PutFloat64(cDT, cb.Bytes(), ci, sum+prev, unchecked); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
			}
		}
	}, kernelConfig(stream))
	return firstErr
}

func gemmBlockSizeFor(stream driver.Stream) int {
	if dev, ok := stream.Device().(*device); ok && dev.drv.opts.gemmBlockSize > 0 {
		return dev.drv.opts.gemmBlockSize
	}
	return 64
}

// elemAt reads opA(A)[i,j] (or opB(B)[i,j]) from d's physical storage,
// swapping the logical coordinate pair when transposed is set.
func elemAt(d dims.Dims, buf *buffer, dt dtype.Kind, transposed bool, i, j int) float64 {
	if transposed {
		i, j = j, i
	}
	strides := d.Strides()
	idx := d.Offset() + i*strides[0] + j*strides[1]
	return dtype.Float64(dt, buf.Bytes(), idx)
}
