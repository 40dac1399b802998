// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ctx implements the ambient context (C7): a scoped
// {driver, device, stream, datatype, unchecked} carried dynamically through
// a call tree, not a global singleton.
//
// The teacher repo never needs this — every tensor operation there takes
// its backend as an explicit generic type parameter, so there is nothing
// ambient to thread. Context is new structure, grounded directly on spec
// §4.7's requirement that child goroutines "inherit explicitly, never
// ambiently": it is a per-goroutine stack of frames, keyed by the calling
// goroutine's id as parsed from the runtime.Stack header, the way
// goroutine-local storage is conventionally faked in Go (no sync.Map of *int, no global mutable singleton beyond the
// driver registry package driver already owns). A goroutine that never
// calls WithContext sees an empty stack and every lookup reports
// coreerr.NoContextError; spawning a worker goroutine does not copy the
// parent's frames into it, matching the inherit-explicitly requirement.
package ctx

import (
	"runtime"
	"sync"

	"github.com/born-ml/core/coreerr"
	"github.com/born-ml/core/driver"
	"github.com/born-ml/core/dtype"
)

// Options sets zero or more context fields; fields left at their zero value
// are inherited from the enclosing context.
type Options struct {
	Driver    driver.Driver
	Device    driver.Device
	Stream    driver.Stream
	Datatype  dtype.Kind
	HasDtype  bool
	Unchecked bool
	// SetUnchecked distinguishes an explicit Unchecked:false override from
	// "not specified, inherit" since Unchecked's zero value is also false.
	SetUnchecked bool
}

type frame struct {
	driver    driver.Driver
	device    driver.Device
	stream    driver.Stream
	datatype  dtype.Kind
	hasDtype  bool
	unchecked bool
}

var (
	stacksMu sync.Mutex
	stacks   = map[string][]frame{}
)

// goroutineID extracts the numeric goroutine id from runtime.Stack's
// header line ("goroutine 37 [running]:..."), the conventional way Go
// code fakes goroutine-local storage absent a language-level facility.
func goroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	// skip "goroutine "
	const prefix = "goroutine "
	if len(b) < len(prefix) {
		return string(b)
	}
	b = b[len(prefix):]
	end := 0
	for end < len(b) && b[end] != ' ' {
		end++
	}
	return string(b[:end])
}

func currentStack() []frame {
	id := goroutineID()
	stacksMu.Lock()
	defer stacksMu.Unlock()
	return stacks[id]
}

func pushFrame(f frame) (id string) {
	id = goroutineID()
	stacksMu.Lock()
	stacks[id] = append(stacks[id], f)
	stacksMu.Unlock()
	return id
}

func popFrame(id string) {
	stacksMu.Lock()
	defer stacksMu.Unlock()
	s := stacks[id]
	if len(s) == 0 {
		return
	}
	s = s[:len(s)-1]
	if len(s) == 0 {
		delete(stacks, id)
	} else {
		stacks[id] = s
	}
}

// WithContext pushes a frame merging opts over the calling goroutine's
// current context, runs body, and pops the frame on every exit path.
// Fields left zero in opts are inherited; the merged frame, not opts
// alone, is what lookups see for the dynamic extent of body.
func WithContext(opts Options, body func() error) error {
	parent := currentStack()
	f := frame{}
	if len(parent) > 0 {
		f = parent[len(parent)-1]
	}
	if opts.Driver != nil {
		f.driver = opts.Driver
	}
	if opts.Device != nil {
		f.device = opts.Device
	}
	if opts.Stream != nil {
		f.stream = opts.Stream
	}
	if opts.HasDtype {
		f.datatype = opts.Datatype
		f.hasDtype = true
	}
	if opts.SetUnchecked {
		f.unchecked = opts.Unchecked
	}

	id := pushFrame(f)
	defer popFrame(id)
	return body()
}

// CurrentDriver returns the innermost context's driver, or
// coreerr.NoContextError if no enclosing WithContext set one.
func CurrentDriver() (driver.Driver, error) {
	s := currentStack()
	if len(s) == 0 || s[len(s)-1].driver == nil {
		return nil, coreerr.NewNoContextError("driver")
	}
	return s[len(s)-1].driver, nil
}

// CurrentDevice returns the innermost context's device, or
// coreerr.NoContextError if none is set.
func CurrentDevice() (driver.Device, error) {
	s := currentStack()
	if len(s) == 0 || s[len(s)-1].device == nil {
		return nil, coreerr.NewNoContextError("device")
	}
	return s[len(s)-1].device, nil
}

// CurrentStream returns the innermost context's stream, or
// coreerr.NoContextError if none is set.
func CurrentStream() (driver.Stream, error) {
	s := currentStack()
	if len(s) == 0 || s[len(s)-1].stream == nil {
		return nil, coreerr.NewNoContextError("stream")
	}
	return s[len(s)-1].stream, nil
}

// CurrentDatatype returns the innermost context's default datatype, or
// coreerr.NoContextError if none is set.
func CurrentDatatype() (dtype.Kind, error) {
	s := currentStack()
	if len(s) == 0 || !s[len(s)-1].hasDtype {
		return 0, coreerr.NewNoContextError("datatype")
	}
	return s[len(s)-1].datatype, nil
}

// Unchecked reports the innermost context's unchecked flag, defaulting to
// false (checked conversions) when no context is active — there is no
// NoContextError for this field since it always has a safe default.
func Unchecked() bool {
	s := currentStack()
	if len(s) == 0 {
		return false
	}
	return s[len(s)-1].unchecked
}

// Depth reports how many frames are active on the calling goroutine,
// chiefly useful in tests that assert WithContext pops cleanly.
func Depth() int {
	return len(currentStack())
}
