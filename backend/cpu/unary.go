// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/mathops"
	"github.com/born-ml/core/tensor"
)

// applyUnary computes dest = f(alpha*x), dispatching on dest's datatype:
// f32 destinations go through github.com/chewxy/math32 so the whole
// pipeline stays in float32 (no float64 round-trip per element, the
// teacher's math.go always widens to float64 and narrows back); every
// other destination kind goes through dtype's float64 canonical form,
// since math32 only serves the f32 path.
func applyUnary(stream driver.Stream, op mathops.UnaryOp, dest, x *tensor.Tensor, alpha float64) error {
	destDims := dest.Dims()
	xDims := x.Dims()
	shape := destDims.Shape()
	unchecked := currentUnchecked()
	db, xb := asBuffer(dest), asBuffer(x)

	if dest.Datatype() == dtype.F32 && x.Datatype() == dtype.F32 {
		f, err := unaryFloat32Func(op)
		if err != nil {
			return err
		}
		dst, src := db.floats32(), xb.floats32()
		af := float32(alpha)
		return parallelIndexed(kernelConfig(stream), shape, func(pos int) error {
			coords := destCoords(pos, shape)
			xi := operandOffset(coords, xDims)
			di := destDims.ElementOffset(pos)
			dst[di] = f(af * src[xi])
			return nil
		})
	}

	fn, err := unaryFloat64Func(op)
	if err != nil {
		return err
	}
	return parallelIndexed(kernelConfig(stream), shape, func(pos int) error {
		coords := destCoords(pos, shape)
		xi := operandOffset(coords, xDims)
		di := destDims.ElementOffset(pos)
		v := fn(alpha * dtype.Float64(x.Datatype(), xb.Bytes(), xi))
		return dtype.PutFloat64(dest.Datatype(), db.Bytes(), di, v, unchecked)
	})
}

func unaryFloat32Func(op mathops.UnaryOp) (func(float32) float32, error) {
	switch op {
	case mathops.Floor:
		return math32.Floor, nil
	case mathops.Ceil:
		return math32.Ceil, nil
	case mathops.Round:
		return math32.Round, nil
	case mathops.Negate:
		return func(v float32) float32 { return -v }, nil
	case mathops.Tanh:
		return math32.Tanh, nil
	case mathops.Logistic:
		return func(v float32) float32 { return 1 / (1 + math32.Exp(-v)) }, nil
	case mathops.Exp:
		return math32.Exp, nil
	case mathops.Sqrt:
		return math32.Sqrt, nil
	case mathops.Noop:
		return func(v float32) float32 { return v }, nil
	default:
		return nil, coreerr.NewShapeError("unary: unknown op " + op.String())
	}
}

func unaryFloat64Func(op mathops.UnaryOp) (func(float64) float64, error) {
	switch op {
	case mathops.Floor:
		return math.Floor, nil
	case mathops.Ceil:
		return math.Ceil, nil
	case mathops.Round:
		return math.Round, nil
	case mathops.Negate:
		return func(v float64) float64 { return -v }, nil
	case mathops.Tanh:
		return math.Tanh, nil
	case mathops.Logistic:
		return func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }, nil
	case mathops.Exp:
		return math.Exp, nil
	case mathops.Sqrt:
		return math.Sqrt, nil
	case mathops.Noop:
		return func(v float64) float64 { return v }, nil
	default:
		return nil, coreerr.NewShapeError("unary: unknown op " + op.String())
	}
}
