// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
	"github.com/born-ml/core/tensor"
)

// applySelect computes dest = (alpha*cond) >= 0 ? (beta*onTrue) : (gamma*onFalse).
func applySelect(stream driver.Stream, dest, cond, onTrue, onFalse *tensor.Tensor, alpha, beta, gamma float64) error {
	destDims := dest.Dims()
	condDims, trueDims, falseDims := cond.Dims(), onTrue.Dims(), onFalse.Dims()
	shape := destDims.Shape()
	unchecked := currentUnchecked()
	db, cb, tb, fb := asBuffer(dest), asBuffer(cond), asBuffer(onTrue), asBuffer(onFalse)
	dDT, cDT, tDT, fDT := dest.Datatype(), cond.Datatype(), onTrue.Datatype(), onFalse.Datatype()

	return parallelIndexed(kernelConfig(stream), shape, func(pos int) error {
		coords := destCoords(pos, shape)
		ci := operandOffset(coords, condDims)
		di := destDims.ElementOffset(pos)

		cv := alpha * dtype.Float64(cDT, cb.Bytes(), ci)
		if cv >= 0 {
			ti := operandOffset(coords, trueDims)
			v := beta * dtype.Float64(tDT, tb.Bytes(), ti)
			return dtype.PutFloat64(dDT, db.Bytes(), di, v, unchecked)
		}
		fi := operandOffset(coords, falseDims)
		v := gamma * dtype.Float64(fDT, fb.Bytes(), fi)
		return dtype.PutFloat64(dDT, db.Bytes(), di, v, unchecked)
	})
}
