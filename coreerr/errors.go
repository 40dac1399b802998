// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package coreerr defines the error kinds the compute core can return.
//
// Every kind is a distinct type so callers can discriminate with errors.As
// instead of matching on message text. Kinds that wrap a backend- or
// caller-supplied cause keep it reachable via Unwrap/Cause so
// github.com/pkg/errors-style stack traces survive through the core.
package coreerr

import (
	"strconv"

	"github.com/pkg/errors"
)

// ShapeError reports a shape or stride incompatibility: a failed reshape,
// a gemm dimension mismatch, an incommensurate broadcast.
type ShapeError struct {
	Msg   string
	Wrapped error
}

func (e *ShapeError) Error() string { return "shape: " + e.Msg }
func (e *ShapeError) Unwrap() error { return e.Wrapped }

// NewShapeError builds a ShapeError with no cause; use WrapShapeError to
// wrap one.
func NewShapeError(msg string) error { return &ShapeError{Msg: msg} }

// WrapShapeError wraps cause in a ShapeError, preserving its stack via pkg/errors.
func WrapShapeError(cause error, msg string) error {
	return &ShapeError{Msg: msg, Wrapped: errors.Wrap(cause, msg)}
}

// AliasError reports disallowed aliasing between operation arguments.
type AliasError struct {
	Msg string
}

func (e *AliasError) Error() string { return "alias: " + e.Msg }

// NewAliasError builds an AliasError.
func NewAliasError(msg string) error { return &AliasError{Msg: msg} }

// SelectError reports a non-monotonic or non-contiguous select index set.
type SelectError struct {
	Msg string
}

func (e *SelectError) Error() string { return "select: " + e.Msg }

// NewSelectError builds a SelectError.
func NewSelectError(msg string) error { return &SelectError{Msg: msg} }

// DomainError reports a numeric conversion outside the destination type's
// range, raised only when the caller did not opt into unchecked conversion.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string { return "domain: " + e.Msg }

// NewDomainError builds a DomainError.
func NewDomainError(msg string) error { return &DomainError{Msg: msg} }

// DeviceError carries a backend-raised failure (OOM, kernel fault) as-is;
// the core never retries or reinterprets it.
type DeviceError struct {
	Backend string
	Wrapped error
}

func (e *DeviceError) Error() string {
	if e.Backend == "" {
		return "device: " + e.Wrapped.Error()
	}
	return "device(" + e.Backend + "): " + e.Wrapped.Error()
}
func (e *DeviceError) Unwrap() error { return e.Wrapped }

// NewDeviceError wraps a backend-raised error, tagging it with the backend name.
func NewDeviceError(backend string, cause error) error {
	return &DeviceError{Backend: backend, Wrapped: errors.WithStack(cause)}
}

// CrossDriverError reports an operation that spans two drivers, such as
// syncing streams that belong to different backends.
type CrossDriverError struct {
	Msg string
}

func (e *CrossDriverError) Error() string { return "cross-driver: " + e.Msg }

// NewCrossDriverError builds a CrossDriverError.
func NewCrossDriverError(msg string) error { return &CrossDriverError{Msg: msg} }

// NoContextError reports a required ambient context field with no value,
// reached after falling off the outermost context frame.
type NoContextError struct {
	Field string
}

func (e *NoContextError) Error() string { return "no context: missing " + e.Field }

// NewNoContextError builds a NoContextError for the named field.
func NewNoContextError(field string) error { return &NoContextError{Field: field} }

// UnknownDriverError reports a registry miss for a driver name.
type UnknownDriverError struct {
	Name string
}

func (e *UnknownDriverError) Error() string { return "unknown driver: " + e.Name }

// NewUnknownDriverError builds an UnknownDriverError for the given name.
func NewUnknownDriverError(name string) error { return &UnknownDriverError{Name: name} }

// ResourceError aggregates failures encountered while releasing a scope.
// The first failure is reported as Primary; the rest are kept for
// inspection but never mask it.
type ResourceError struct {
	Primary error
	Others  []error
}

func (e *ResourceError) Error() string {
	if len(e.Others) == 0 {
		return "resource release failed: " + e.Primary.Error()
	}
	return "resource release failed: " + e.Primary.Error() + " (+ " +
		strconv.Itoa(len(e.Others)) + " more)"
}
func (e *ResourceError) Unwrap() error { return e.Primary }
func (e *ResourceError) Cause() error  { return e.Primary }

// NewResourceError aggregates a slice of release failures. Returns nil if
// the slice is empty. The first error becomes Primary.
func NewResourceError(failures []error) error {
	if len(failures) == 0 {
		return nil
	}
	return &ResourceError{Primary: errors.WithStack(failures[0]), Others: failures[1:]}
}
