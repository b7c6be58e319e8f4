// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package registry manages named capability bundles. A bundle groups the
// external detectors and maskers for one domain (say, a company's internal
// identifiers) behind a name; construction is deferred until first use so
// registering a heavy bundle costs nothing when a scan never needs it.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"piiscrub/pkg/detector"
)

// Bundle is one named set of capabilities.
type Bundle struct {
	Detectors []detector.Detector
	Maskers   map[detector.Type]detector.Masker
}

// Loader builds a bundle on first use.
type Loader func() (*Bundle, error)

// Registry maps names to lazily-built bundles. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	loaders map[string]Loader
	cache   map[string]*Bundle
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		loaders: make(map[string]Loader),
		cache:   make(map[string]*Bundle),
	}
}

// Register adds a named loader. Re-registering a name is refused; replacing
// a live bundle underneath cached users would be unobservable and wrong.
func (r *Registry) Register(name string, loader Loader) error {
	if name == "" {
		return fmt.Errorf("registry: empty bundle name")
	}
	if loader == nil {
		return fmt.Errorf("registry: nil loader for bundle %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[name]; exists {
		return fmt.Errorf("registry: bundle %q already registered", name)
	}
	r.loaders[name] = loader
	return nil
}

// Load returns the named bundle, building it on first call. A successful
// build is cached; a failed build is retried on the next Load.
func (r *Registry) Load(name string) (*Bundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.cache[name]; ok {
		return b, nil
	}
	loader, ok := r.loaders[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown bundle %q", name)
	}
	b, err := loader()
	if err != nil {
		return nil, fmt.Errorf("registry: loading bundle %q: %w", name, err)
	}
	if b == nil {
		return nil, fmt.Errorf("registry: loader for bundle %q returned nil", name)
	}
	r.cache[name] = b
	return b, nil
}

// Loaded reports whether the named bundle has been built.
func (r *Registry) Loaded(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cache[name]
	return ok
}

// Names lists registered bundle names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.loaders))
	for n := range r.loaders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
