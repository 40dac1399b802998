// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dtype implements the compute core's element type registry (C2):
// byte width, canonical-form conversion, and the typed copy primitive the
// Dimensions (dims) and Tensor (tensor) layers build their index math on.
//
// Every element type round-trips through one of two canonical forms: a
// signed 64-bit integer for the integer kinds, a 64-bit float for the
// float kinds. Narrowing conversions round toward zero; integer overflow
// wraps modulo 2^width unless the caller asks for checked conversion, in
// which case an out-of-range value fails with coreerr.DomainError.
package dtype

import (
	"math"
	"strconv"
	"unsafe"

	"github.com/born-ml/core/coreerr"
)

// Kind enumerates the element types the core understands.
type Kind int

// Supported element types.
const (
	I8 Kind = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
)

// String returns a human-readable type name.
func (k Kind) String() string {
	switch k {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}

// ByteWidth returns the in-memory size of one element.
func (k Kind) ByteWidth() int {
	switch k {
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	default:
		panic("dtype: unknown kind " + k.String())
	}
}

// IsInteger reports whether k is one of the signed or unsigned integer kinds.
func (k Kind) IsInteger() bool {
	switch k {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether k is a floating-point kind.
func (k Kind) IsFloat() bool {
	return k == F32 || k == F64
}

// intRange returns the representable [min, max] for an integer kind, as
// float64 so it can be compared against arbitrary canonical values.
func intRange(k Kind) (lo, hi float64) {
	switch k {
	case I8:
		return -128, 127
	case I16:
		return -32768, 32767
	case I32:
		return math.MinInt32, math.MaxInt32
	case I64:
		return math.MinInt64, math.MaxInt64
	case U8:
		return 0, 255
	case U16:
		return 0, 65535
	case U32:
		return 0, math.MaxUint32
	case U64:
		return 0, math.MaxUint64
	default:
		panic("dtype: intRange on non-integer kind " + k.String())
	}
}

// atInt64 reads the element at idx (element index, not byte offset) as an
// int64 canonical value. Panics if k is not an integer kind.
func atInt64(k Kind, buf []byte, idx int) int64 {
	base := idx * k.ByteWidth()
	switch k {
	case I8:
		return int64(int8(buf[base]))
	case I16:
		return int64(*(*int16)(unsafe.Pointer(&buf[base])))
	case I32:
		return int64(*(*int32)(unsafe.Pointer(&buf[base])))
	case I64:
		return *(*int64)(unsafe.Pointer(&buf[base]))
	case U8:
		return int64(buf[base])
	case U16:
		return int64(*(*uint16)(unsafe.Pointer(&buf[base])))
	case U32:
		return int64(*(*uint32)(unsafe.Pointer(&buf[base])))
	case U64:
		return int64(*(*uint64)(unsafe.Pointer(&buf[base])))
	default:
		panic("dtype: atInt64 on non-integer kind " + k.String())
	}
}

// atFloat64 reads the element at idx as a float64 canonical value. Panics
// if k is not a float kind.
func atFloat64(k Kind, buf []byte, idx int) float64 {
	base := idx * k.ByteWidth()
	switch k {
	case F32:
		return float64(*(*float32)(unsafe.Pointer(&buf[base])))
	case F64:
		return *(*float64)(unsafe.Pointer(&buf[base]))
	default:
		panic("dtype: atFloat64 on non-float kind " + k.String())
	}
}

// putInt64 writes v into the integer element at idx, wrapping modulo 2^width
// unless unchecked is false and v is out of range, in which case it returns
// a coreerr.DomainError.
func putInt64(k Kind, buf []byte, idx int, v int64, unchecked bool) error {
	if !unchecked {
		lo, hi := intRange(k)
		fv := float64(v)
		if fv < lo || fv > hi {
			return coreerr.NewDomainError(k.String() + ": value " + strconv.FormatInt(v, 10) + " out of range")
		}
	}
	base := idx * k.ByteWidth()
	switch k {
	case I8, U8:
		buf[base] = byte(v)
	case I16, U16:
		*(*uint16)(unsafe.Pointer(&buf[base])) = uint16(v)
	case I32, U32:
		*(*uint32)(unsafe.Pointer(&buf[base])) = uint32(v)
	case I64, U64:
		*(*uint64)(unsafe.Pointer(&buf[base])) = uint64(v)
	default:
		panic("dtype: putInt64 on non-integer kind " + k.String())
	}
	return nil
}

// putFloat64 writes v into the float element at idx. When unchecked is
// false, a finite source value that becomes +-Inf after narrowing to
// float32 fails with coreerr.DomainError.
func putFloat64(k Kind, buf []byte, idx int, v float64, unchecked bool) error {
	base := idx * k.ByteWidth()
	switch k {
	case F32:
		f := float32(v)
		if !unchecked && math.IsInf(float64(f), 0) && !math.IsInf(v, 0) {
			return coreerr.NewDomainError("f32: value out of range")
		}
		*(*float32)(unsafe.Pointer(&buf[base])) = f
	case F64:
		*(*float64)(unsafe.Pointer(&buf[base])) = v
	default:
		panic("dtype: putFloat64 on non-float kind " + k.String())
	}
	return nil
}

// Copy performs a typed elementwise copy of n elements from src (kind
// srcDT, starting at element offset srcOff) into dst (kind dstDT, starting
// at element offset dstOff), applying the conversion rules in the package
// doc comment. unchecked=true skips domain checks on narrowing conversions.
func Copy(srcDT Kind, src []byte, srcOff int, dstDT Kind, dst []byte, dstOff int, n int, unchecked bool) error {
	for i := 0; i < n; i++ {
		si, di := srcOff+i, dstOff+i

		if srcDT == dstDT {
			copy(dst[di*dstDT.ByteWidth():(di+1)*dstDT.ByteWidth()],
				src[si*srcDT.ByteWidth():(si+1)*srcDT.ByteWidth()])
			continue
		}

		switch {
		case srcDT.IsInteger() && dstDT.IsInteger():
			if err := putInt64(dstDT, dst, di, atInt64(srcDT, src, si), unchecked); err != nil {
				return err
			}
		case srcDT.IsInteger() && dstDT.IsFloat():
			if err := putFloat64(dstDT, dst, di, float64(atInt64(srcDT, src, si)), unchecked); err != nil {
				return err
			}
		case srcDT.IsFloat() && dstDT.IsInteger():
			// Round toward zero, per package doc comment.
			if err := putInt64(dstDT, dst, di, int64(atFloat64(srcDT, src, si)), unchecked); err != nil {
				return err
			}
		case srcDT.IsFloat() && dstDT.IsFloat():
			if err := putFloat64(dstDT, dst, di, atFloat64(srcDT, src, si), unchecked); err != nil {
				return err
			}
		}
	}
	return nil
}

// Int64 reads the element at idx as an int64 canonical value, converting
// from a float kind by truncating toward zero.
func Int64(k Kind, buf []byte, idx int) int64 {
	if k.IsFloat() {
		return int64(atFloat64(k, buf, idx))
	}
	return atInt64(k, buf, idx)
}

// Float64 reads the element at idx as a float64 canonical value, widening
// from an integer kind.
func Float64(k Kind, buf []byte, idx int) float64 {
	if k.IsFloat() {
		return atFloat64(k, buf, idx)
	}
	return float64(atInt64(k, buf, idx))
}

// PutInt64 writes an int64 canonical value into the element at idx.
func PutInt64(k Kind, buf []byte, idx int, v int64, unchecked bool) error {
	if k.IsFloat() {
		return putFloat64(k, buf, idx, float64(v), unchecked)
	}
	return putInt64(k, buf, idx, v, unchecked)
}

// PutFloat64 writes a float64 canonical value into the element at idx,
// rounding toward zero when k is an integer kind.
func PutFloat64(k Kind, buf []byte, idx int, v float64, unchecked bool) error {
	if k.IsFloat() {
		return putFloat64(k, buf, idx, v, unchecked)
	}
	return putInt64(k, buf, idx, int64(v), unchecked)
}
