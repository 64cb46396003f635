// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package filter implements allow/deny lists over prober names.
package filter

import (
	"github.com/siderolabs/gen/xslices"
)

// Mode of the filter.
type Mode int

// Filter modes.
const (
	// Include skips every prober which is not listed.
	Include Mode = iota
	// Exclude skips every listed prober.
	Exclude
)

// Filter is an immutable set of prober names with a mode.
//
// Nil filter never skips anything.
type Filter struct {
	names map[string]struct{}
	mode  Mode
}

// New creates a new filter, repeated names are ignored.
func New(mode Mode, names ...string) *Filter {
	return &Filter{
		mode:  mode,
		names: xslices.ToSet(names),
	}
}

// ShouldSkip returns true if the prober with the specified name should not be run.
//
// Names which don't match any prober are not an error, they simply never match.
func (f *Filter) ShouldSkip(name string) bool {
	if f == nil {
		return false
	}

	_, listed := f.names[name]

	if f.mode == Include {
		return !listed
	}

	return listed
}

// Mode returns the filter mode.
func (f *Filter) Mode() Mode {
	return f.mode
}
