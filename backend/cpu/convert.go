// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import "github.com/born-ml/core/dtype"

// dtypeCopy performs the typed elementwise conversion-copy package dtype
// exposes as Copy, unchecked: host<->device transfer on this backend is a
// same-process memcpy-equivalent, and any domain validation already ran
// when the source tensor's elements were first written.
func dtypeCopy(src *buffer, srcOff int, dst *buffer, dstOff int, n int) error {
	return dtype.Copy(src.dt, src.Bytes(), srcOff, dst.dt, dst.Bytes(), dstOff, n, true)
}
