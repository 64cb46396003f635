// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package squashfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/squashfs"
	"github.com/siderolabs/go-blockprobe/blkid/internal/imagetest"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
)

func TestProbe(t *testing.T) {
	t.Parallel()

	for _, test := range []struct { //nolint:govet
		name string
		opts imagetest.SquashfsOptions

		expectedV4 string
		expectedV3 string
	}{
		{
			name: "4.0",
			opts: imagetest.SquashfsOptions{Major: 4, Minor: 0, BlockSize: 131072, BytesUsed: 524288},

			expectedV4: "4.0",
		},
		{
			name: "3.1 little endian",
			opts: imagetest.SquashfsOptions{Major: 3, Minor: 1},

			expectedV3: "3.1",
		},
		{
			name: "3.0 big endian",
			opts: imagetest.SquashfsOptions{Major: 3, Minor: 0, BigEndian: true},

			expectedV3: "3.0",
		},
		{
			name: "zero version",
			opts: imagetest.SquashfsOptions{},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			buf := imagetest.New(imagetest.MiB)
			imagetest.WriteSquashfs(buf, test.opts)

			for _, check := range []struct {
				prober   probe.Prober
				expected string
			}{
				{&squashfs.Probe{}, test.expectedV4},
				{&squashfs.Probe3{}, test.expectedV3},
			} {
				res, err := imagetest.Probe(check.prober, buf)
				require.NoError(t, err)

				if check.expected == "" {
					assert.Nil(t, res, check.prober.Name())

					continue
				}

				require.NotNil(t, res, check.prober.Name())
				assert.Equal(t, check.expected, res.Version)
			}
		})
	}
}

func TestProbeSizes(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(imagetest.MiB)
	imagetest.WriteSquashfs(buf, imagetest.SquashfsOptions{Major: 4, BlockSize: 131072, BytesUsed: 524288})

	res, err := imagetest.Probe(&squashfs.Probe{}, buf)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.EqualValues(t, 131072, res.BlockSize)
	assert.EqualValues(t, 524288, res.ProbedSize)

	imagetest.WriteSquashfs(buf, imagetest.SquashfsOptions{Major: 3, Minor: 1, BigEndian: true})

	res, err = imagetest.Probe(&squashfs.Probe3{}, buf)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.EqualValues(t, 1024, res.FilesystemBlockSize)
}
