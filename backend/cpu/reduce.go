// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"math"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/mathops"
	"github.com/born-ml/core/tensor"
)

// applyReduce computes dest = reduce(alpha*input) along input's last axis,
// per spec §4.6; dest's shape is input's shape with the last axis dropped
// (mathops.Reduce already checked this before calling here).
func applyReduce(stream driver.Stream, op mathops.ReduceOp, dest, input *tensor.Tensor, alpha float64) error {
	inDims := input.Dims()
	inShape := inDims.Shape()
	axis := len(inShape) - 1
	axisSize := inShape[axis]
	destShape := dest.Dims().Shape()

	db, ib := asBuffer(dest), asBuffer(input)
	dDT, iDT := dest.Datatype(), input.Datatype()
	destDims := dest.Dims()
	unchecked := currentUnchecked()

	return parallelIndexed(kernelConfig(stream), destShape, func(pos int) error {
		coords := destCoords(pos, destShape)
		base := inputOffset(coords, inDims)

		acc, err := reduceAxis(op, ib, iDT, base, inDims.Strides()[axis], axisSize, alpha)
		if err != nil {
			return err
		}
		di := destDims.ElementOffset(pos)
		return dtype.PutFloat64(dDT, db.Bytes(), di, acc, unchecked)
	})
}

// inputOffset computes the buffer offset for the leading coords (every
// axis but the reduced one) of a Dims descriptor one rank larger than
// coords; the reduced axis's own contribution is added separately by the
// caller via axisStride*k.
func inputOffset(coords []int, d dims.Dims) int {
	strides := d.Strides()
	off := d.Offset()
	for i, c := range coords {
		off += c * strides[i]
	}
	return off
}

func reduceAxis(op mathops.ReduceOp, buf *buffer, dt dtype.Kind, base, axisStride, axisSize int, alpha float64) (float64, error) {
	switch op {
	case mathops.ReduceMax:
		best := math.Inf(-1)
		for k := 0; k < axisSize; k++ {
			v := alpha * dtype.Float64(dt, buf.Bytes(), base+k*axisStride)
			if v > best {
				best = v
			}
		}
		return best, nil
	case mathops.ReduceMin:
		best := math.Inf(1)
		for k := 0; k < axisSize; k++ {
			v := alpha * dtype.Float64(dt, buf.Bytes(), base+k*axisStride)
			if v < best {
				best = v
			}
		}
		return best, nil
	case mathops.ReduceSum:
		sum := 0.0
		for k := 0; k < axisSize; k++ {
			sum += alpha * dtype.Float64(dt, buf.Bytes(), base+k*axisStride)
		}
		return sum, nil
	case mathops.ReduceMean:
		sum := 0.0
		for k := 0; k < axisSize; k++ {
			sum += alpha * dtype.Float64(dt, buf.Bytes(), base+k*axisStride)
		}
		return sum / float64(axisSize), nil
	case mathops.ReduceMagnitudeSquared:
		sum := 0.0
		for k := 0; k < axisSize; k++ {
			v := alpha * dtype.Float64(dt, buf.Bytes(), base+k*axisStride)
			sum += v * v
		}
		return sum, nil
	case mathops.ReduceMagnitude:
		sum := 0.0
		for k := 0; k < axisSize; k++ {
			v := alpha * dtype.Float64(dt, buf.Bytes(), base+k*axisStride)
			sum += v * v
		}
		return math.Sqrt(sum), nil
	default:
		return 0, coreerr.NewShapeError("reduce: unknown op " + op.String())
	}
}
