// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package scope implements the nestable resource scope (C1): a stack of
// release callbacks that runs in reverse-registration order on exit,
// normal or failure.
//
// The teacher repo has no such abstraction — every backend and buffer
// there exposes a manual Release() the caller must remember to invoke
// (see internal/backend/webgpu/backend.go's Release(), which tears down
// the buffer pool, pipelines, shaders, queue, device, adapter and instance
// by hand in dependency order). Scope generalizes that same reverse-order
// teardown into a structural guarantee: track a resource once, and it is
// released exactly once when its scope exits, in the same reverse order a
// careful author would unwind it by hand.
package scope

import "github.com/born-ml/core/coreerr"

// Scope is an ordered stack of release callbacks, optionally nested under
// a parent scope.
type Scope struct {
	parent   *Scope
	releases []func() error
}

// New creates a scope nested under parent. parent may be nil for a
// top-level scope.
func New(parent *Scope) *Scope {
	return &Scope{parent: parent}
}

// Track registers release to run when the scope exits and returns resource
// unchanged, so callers can write `buf := scope.Track(s, buf, buf.Release)`.
func Track[T any](s *Scope, resource T, release func() error) T {
	s.releases = append(s.releases, release)
	return resource
}

// Detach removes the last n tracked release callbacks and returns them, for
// transfer to an outer scope. It works by count only: it does not look up a
// callback by the resource it releases, and it returns nil without
// detaching anything when n is not in [1, number tracked]. Most callers track directly on the outer scope instead;
// Detach exists for the rarer case where ownership is decided after the
// fact.
func (s *Scope) Detach(n int) []func() error {
	if n <= 0 || n > len(s.releases) {
		return nil
	}
	start := len(s.releases) - n
	detached := append([]func() error(nil), s.releases[start:]...)
	s.releases = s.releases[:start]
	return detached
}

// Close releases every tracked resource in reverse order, even if one
// fails. It returns nil if every release succeeded, otherwise a
// coreerr.ResourceError aggregating every failure with the first kept as
// Primary.
func (s *Scope) Close() error {
	var failures []error
	for i := len(s.releases) - 1; i >= 0; i-- {
		if err := s.releases[i](); err != nil {
			failures = append(failures, err)
		}
	}
	s.releases = nil
	return coreerr.NewResourceError(failures)
}

// With pushes a new scope nested under parent, runs body, and closes the
// scope on every exit path (normal return, error return, or panic),
// re-panicking after the close attempt so resources are never leaked by an
// in-flight panic.
func With(parent *Scope, body func(s *Scope) error) (err error) {
	s := New(parent)
	defer func() {
		closeErr := s.Close()
		if r := recover(); r != nil {
			panic(r)
		}
		if err == nil {
			err = closeErr
		}
	}()
	return body(s)
}
