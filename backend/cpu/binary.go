// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/mathops"
	"github.com/born-ml/core/tensor"
)

// applyBinary computes dest = (alpha*x) op (beta*y). Bitwise ops truncate
// the scaled operands toward zero to int64 first (bit_and/bit_xor have no meaningful
// fractional interpretation); every other op stays in the float64
// canonical form the whole way, matching the teacher's widen-then-narrow
// style in internal/backend/cpu/ops_int.go's comparison helpers.
func applyBinary(stream driver.Stream, op mathops.BinaryOp, dest, x, y *tensor.Tensor, alpha, beta float64) error {
	destDims, xDims, yDims := dest.Dims(), x.Dims(), y.Dims()
	shape := destDims.Shape()
	unchecked := currentUnchecked()
	db, xb, yb := asBuffer(dest), asBuffer(x), asBuffer(y)
	dDT, xDT, yDT := dest.Datatype(), x.Datatype(), y.Datatype()

	cfg := kernelConfig(stream)
	if op == mathops.BitAnd || op == mathops.BitXor {
		return parallelIndexed(cfg, shape, func(pos int) error {
			coords := destCoords(pos, shape)
			xi, yi, di := operandOffset(coords, xDims), operandOffset(coords, yDims), destDims.ElementOffset(pos)
			xv := int64(alpha * float64(dtype.Int64(xDT, xb.Bytes(), xi)))
			yv := int64(beta * float64(dtype.Int64(yDT, yb.Bytes(), yi)))
			var result int64
			if op == mathops.BitAnd {
				result = xv & yv
			} else {
				result = xv ^ yv
			}
			return dtype.PutInt64(dDT, db.Bytes(), di, result, unchecked)
		})
	}

	combine, err := binaryFunc(op)
	if err != nil {
		return err
	}
	return parallelIndexed(cfg, shape, func(pos int) error {
		coords := destCoords(pos, shape)
		xi, yi, di := operandOffset(coords, xDims), operandOffset(coords, yDims), destDims.ElementOffset(pos)
		xv := alpha * dtype.Float64(xDT, xb.Bytes(), xi)
		yv := beta * dtype.Float64(yDT, yb.Bytes(), yi)
		return dtype.PutFloat64(dDT, db.Bytes(), di, combine(xv, yv), unchecked)
	})
}

func binaryFunc(op mathops.BinaryOp) (func(x, y float64) float64, error) {
	switch op {
	case mathops.Add:
		return func(x, y float64) float64 { return x + y }, nil
	case mathops.Sub:
		return func(x, y float64) float64 { return x - y }, nil
	case mathops.Mul:
		return func(x, y float64) float64 { return x * y }, nil
	case mathops.Div:
		return func(x, y float64) float64 { return x / y }, nil
	case mathops.Max:
		return func(x, y float64) float64 {
			if x >= y {
				return x
			}
			return y
		}, nil
	case mathops.Min:
		return func(x, y float64) float64 {
			if x <= y {
				return x
			}
			return y
		}, nil
	case mathops.Eq:
		return boolFloat(func(x, y float64) bool { return x == y }), nil
	case mathops.Gt:
		return boolFloat(func(x, y float64) bool { return x > y }), nil
	case mathops.Ge:
		return boolFloat(func(x, y float64) bool { return x >= y }), nil
	case mathops.Lt:
		return boolFloat(func(x, y float64) bool { return x < y }), nil
	case mathops.Le:
		return boolFloat(func(x, y float64) bool { return x <= y }), nil
	default:
		return nil, coreerr.NewShapeError("binary: unknown op " + op.String())
	}
}

func boolFloat(pred func(x, y float64) bool) func(x, y float64) float64 {
	return func(x, y float64) float64 {
		if pred(x, y) {
			return 1
		}
		return 0
	}
}
