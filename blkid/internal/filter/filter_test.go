// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siderolabs/go-blockprobe/blkid/internal/filter"
)

func TestShouldSkip(t *testing.T) {
	for _, test := range []struct { //nolint:govet
		name   string
		filter *filter.Filter

		skipped    []string
		notSkipped []string
	}{
		{
			name: "nil",

			notSkipped: []string{"ext4", "xfs", "unknown"},
		},
		{
			name:   "include",
			filter: filter.New(filter.Include, "ext4", "xfs"),

			skipped:    []string{"vfat", "gpt", ""},
			notSkipped: []string{"ext4", "xfs"},
		},
		{
			name:   "exclude",
			filter: filter.New(filter.Exclude, "ext4", "xfs"),

			skipped:    []string{"ext4", "xfs"},
			notSkipped: []string{"vfat", "gpt"},
		},
		{
			name:   "duplicates",
			filter: filter.New(filter.Exclude, "ext4", "ext4", "ext4"),

			skipped:    []string{"ext4"},
			notSkipped: []string{"xfs"},
		},
		{
			name:   "empty include",
			filter: filter.New(filter.Include),

			skipped: []string{"ext4", "xfs"},
		},
		{
			name:   "empty exclude",
			filter: filter.New(filter.Exclude),

			notSkipped: []string{"ext4", "xfs"},
		},
		{
			name:   "unknown names",
			filter: filter.New(filter.Exclude, "no-such-fs"),

			notSkipped: []string{"ext4"},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			for _, name := range test.skipped {
				assert.True(t, test.filter.ShouldSkip(name), name)
			}

			for _, name := range test.notSkipped {
				assert.False(t, test.filter.ShouldSkip(name), name)
			}
		})
	}
}

func TestMode(t *testing.T) {
	assert.Equal(t, filter.Include, filter.New(filter.Include).Mode())
	assert.Equal(t, filter.Exclude, filter.New(filter.Exclude, "a").Mode())
}
