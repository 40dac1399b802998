// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package driver

import (
	"sync"

	"github.com/born-ml/core/coreerr"
)

// registry is the core's only process-wide mutable state (spec §6): a
// map from driver name to a factory, populated by backend init() the way
// database/sql drivers register themselves.
var (
	registryMu sync.Mutex
	registry   = map[string]func() (Driver, error){}
)

// Register installs a driver factory under name. Re-registering the same
// name replaces the previous factory; the registry is initialized lazily
// and never torn down.
func Register(name string, factory func() (Driver, error)) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Open returns the registered driver for name, or coreerr.UnknownDriverError
// if nothing is registered under it.
func Open(name string) (Driver, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()

	if !ok {
		return nil, coreerr.NewUnknownDriverError(name)
	}
	return factory()
}

// Registered lists the currently registered driver names.
func Registered() []string {
	registryMu.Lock()
	defer registryMu.Unlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
