// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package formatters renders scan results for output. Formatters register in
// a registry so the CLI resolves them by name.
package formatters

import (
	"piiscrub/pkg/pipeline"
)

// Options control rendering.
type Options struct {
	Verbose bool
	NoColor bool
	// ShowValues prints the matched text itself. Off by default; the values
	// are the very thing being redacted.
	ShowValues bool
}

// Formatter renders one scan result.
type Formatter interface {
	Format(res *pipeline.Result, options Options) (string, error)
	Name() string
	Description() string
	FileExtension() string
}

// Registry holds formatters by name.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry returns a registry preloaded with the built-in formatters.
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[string]Formatter)}
	r.Register(NewTextFormatter())
	r.Register(NewJSONFormatter())
	return r
}

// Register adds a formatter, replacing any existing one with the same name.
func (r *Registry) Register(f Formatter) {
	r.formatters[f.Name()] = f
}

// Get retrieves a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	f, ok := r.formatters[name]
	return f, ok
}

// List returns registered formatter names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formatters))
	for n := range r.formatters {
		names = append(names, n)
	}
	return names
}
