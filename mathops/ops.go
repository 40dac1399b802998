// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mathops implements the math dispatch layer (C6): a per-stream
// table of typed elementwise, reduction, gemm and random-sampling kernels,
// plus the shape/alias validation and gemm transpose-flag canonicalization
// that runs at the dispatch boundary before any backend is called.
//
// The teacher's closest analogue is internal/backend/cpu's per-dtype
// switch-and-loop kernels (math.go, matmul.go, reduce.go): one Go function
// per operation, type-switching on tensor.DataType. This package keeps that
// shape but inverts who holds the switch: instead of one backend file
// implementing every op, each backend registers a Table of function values
// for the stream it drives (see backend/cpu for the reference table), and
// dispatch here is backend-agnostic — it only validates shapes/aliases and
// forwards to whichever table the destination's stream registered.
package mathops

// UnaryOp names a dest = f(alpha*x) kernel.
type UnaryOp int

// Unary operations (spec §4.6).
const (
	Floor UnaryOp = iota
	Ceil
	Round
	Negate
	Tanh
	Logistic
	Exp
	Sqrt
	Noop
)

func (op UnaryOp) String() string {
	switch op {
	case Floor:
		return "floor"
	case Ceil:
		return "ceil"
	case Round:
		return "round"
	case Negate:
		return "negate"
	case Tanh:
		return "tanh"
	case Logistic:
		return "logistic"
	case Exp:
		return "exp"
	case Sqrt:
		return "sqrt"
	case Noop:
		return "noop"
	default:
		return "unknown unary op"
	}
}

// BinaryOp names a dest = (alpha*x) op (beta*y) kernel.
type BinaryOp int

// Binary operations (spec §4.6).
const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Max
	Min
	BitAnd
	BitXor
	Eq
	Gt
	Ge
	Lt
	Le
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Max:
		return "max"
	case Min:
		return "min"
	case BitAnd:
		return "bit_and"
	case BitXor:
		return "bit_xor"
	case Eq:
		return "eq"
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Lt:
		return "<"
	case Le:
		return "<="
	default:
		return "unknown binary op"
	}
}

// ReduceOp names a dest = reduce(alpha*input) kernel along the last axis.
type ReduceOp int

// Reduction operations (spec §4.6).
const (
	ReduceMax ReduceOp = iota
	ReduceMin
	ReduceSum
	ReduceMean
	ReduceMagnitudeSquared
	ReduceMagnitude
)

func (op ReduceOp) String() string {
	switch op {
	case ReduceMax:
		return "max"
	case ReduceMin:
		return "min"
	case ReduceSum:
		return "sum"
	case ReduceMean:
		return "mean"
	case ReduceMagnitudeSquared:
		return "magnitude^2"
	case ReduceMagnitude:
		return "magnitude"
	default:
		return "unknown reduce op"
	}
}

// Dist names a random sampling distribution, f32-only per spec §4.6.
type Dist int

// Supported distributions.
const (
	Gaussian Dist = iota
	Flat
)

func (d Dist) String() string {
	switch d {
	case Gaussian:
		return "Gaussian"
	case Flat:
		return "Flat"
	default:
		return "unknown distribution"
	}
}
