// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"math"
	"time"

	rng "github.com/leesper/go_rng"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/mathops"
	"github.com/born-ml/core/tensor"
)

// gaussianSource and uniformSource are process-wide, like the teacher's
// backend state: go_rng generators carry their own PRNG state and are not
// safe to reconstruct per call (each constructor reseeds from its
// argument), so the reference backend seeds one of each at package init
// instead of per draw.
var (
	gaussianSource = rng.NewGaussianGenerator(time.Now().UnixNano())
	uniformSource  = rng.NewUniformGenerator(time.Now().UnixNano())
)

// applyRand fills dest with samples from dist. dist's parameters are
// (mean, variance) for Gaussian (go_rng.Gaussian takes mean, std-dev, so
// variance is square-rooted first) or [p0, p1) for Flat.
func applyRand(stream driver.Stream, dest *tensor.Tensor, dist mathops.Dist, p0, p1 float64) error {
	destDims := dest.Dims()
	db := asBuffer(dest)
	dst := db.floats32()

	switch dist {
	case mathops.Gaussian:
		stddev := math.Sqrt(math.Max(p1, 0))
		for pos, n := 0, destDims.NumElements(); pos < n; pos++ {
			dst[destDims.ElementOffset(pos)] = float32(gaussianSource.Gaussian(p0, stddev))
		}
	case mathops.Flat:
		for pos, n := 0, destDims.NumElements(); pos < n; pos++ {
			dst[destDims.ElementOffset(pos)] = float32(uniformSource.Float64Range(p0, p1))
		}
	default:
		return coreerr.NewDomainError("rand: unknown distribution " + dist.String())
	}
	return nil
}
