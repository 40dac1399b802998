// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package mathops

import (
	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/dims"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/tensor"
)

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkCommensurate verifies every operand shape is either equal to or
// commensurate-broadcastable with destShape, failing with
// coreerr.ShapeError otherwise.
func checkCommensurate(destShape []int, operands ...[]int) error {
	for _, shape := range operands {
		if sameShape(shape, destShape) {
			continue
		}
		combined, ok := dims.Commensurate(destShape, shape)
		if !ok || !sameShape(combined, destShape) {
			return coreerr.NewShapeError("operand shape is not commensurate with destination shape")
		}
	}
	return nil
}

// Unary dispatches dest = f(alpha*x) on stream, after checking dest and x
// are commensurate.
func Unary(stream driver.Stream, op UnaryOp, dest, x *tensor.Tensor, alpha float64) error {
	if err := checkCommensurate(dest.Shape(), x.Shape()); err != nil {
		return err
	}
	table, err := TableFor(stream)
	if err != nil {
		return err
	}
	return table.Unary(stream, op, dest, x, alpha)
}

// Binary dispatches dest = (alpha*x) op (beta*y) on stream, after checking
// dest, x and y are pairwise commensurate.
func Binary(stream driver.Stream, op BinaryOp, dest, x, y *tensor.Tensor, alpha, beta float64) error {
	if err := checkCommensurate(dest.Shape(), x.Shape(), y.Shape()); err != nil {
		return err
	}
	table, err := TableFor(stream)
	if err != nil {
		return err
	}
	return table.Binary(stream, op, dest, x, y, alpha, beta)
}

// Select dispatches dest = (alpha*cond) >= 0 ? (beta*onTrue) : (gamma*onFalse)
// on stream.
func Select(stream driver.Stream, dest, cond, onTrue, onFalse *tensor.Tensor, alpha, beta, gamma float64) error {
	if err := checkCommensurate(dest.Shape(), cond.Shape(), onTrue.Shape(), onFalse.Shape()); err != nil {
		return err
	}
	table, err := TableFor(stream)
	if err != nil {
		return err
	}
	return table.Select(stream, dest, cond, onTrue, onFalse, alpha, beta, gamma)
}

// Reduce dispatches dest = reduce(alpha*input) along input's last axis.
// dest's shape must equal input's shape with the last axis dropped.
func Reduce(stream driver.Stream, op ReduceOp, dest, input *tensor.Tensor, alpha float64) error {
	inShape := input.Shape()
	if len(inShape) == 0 {
		return coreerr.NewShapeError("reduce requires at least one dimension")
	}
	wantShape := append([]int(nil), inShape[:len(inShape)-1]...)
	if !sameShape(dest.Shape(), wantShape) {
		return coreerr.NewShapeError("reduce destination shape must drop input's last axis")
	}
	table, err := TableFor(stream)
	if err != nil {
		return err
	}
	return table.Reduce(stream, op, dest, input, alpha)
}

// Rand dispatches dest = samples(dist) on stream. dist's parameters are
// (mean, variance) for Gaussian or [min, max) for Flat. Per spec §4.6,
// rand is f32-only.
func Rand(stream driver.Stream, dest *tensor.Tensor, dist Dist, p0, p1 float64) error {
	if dest.Datatype() != dtype.F32 {
		return coreerr.NewDomainError("rand requires an f32 destination datatype")
	}
	table, err := TableFor(stream)
	if err != nil {
		return err
	}
	return table.Rand(stream, dest, dist, p0, p1)
}
