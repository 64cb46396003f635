// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package dos_test

import (
	"testing"

	"github.com/siderolabs/gen/xslices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-blockprobe/blkid/internal/imagetest"
	"github.com/siderolabs/go-blockprobe/blkid/internal/partitions/dos"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
)

func indexes(res *probe.Result) []uint {
	return xslices.Map(res.Parts, func(p probe.Partition) uint { return p.Index })
}

func TestProbePrimary(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(8 * imagetest.MiB)
	imagetest.WriteDOS(buf, imagetest.DOSOptions{
		DiskID: 0xdeadbeef,
		Primary: []imagetest.DOSPartition{
			{Start: 2048, Size: 2048, Type: 0x0c, Bootable: true},
			{Start: 4096, Size: 8192, Type: 0x83},
		},
	})

	res, err := imagetest.Probe(&dos.Probe{}, buf)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Empty(t, res.Warnings)
	require.NotNil(t, res.UUID)
	assert.Equal(t, "deadbeef", *res.UUID)

	require.Len(t, res.Parts, 2)
	assert.Equal(t, []uint{1, 2}, indexes(res))

	boot := res.Parts[0]
	assert.Equal(t, "0xc", boot.Type)
	assert.EqualValues(t, 0x80, boot.Flags)
	require.NotNil(t, boot.UUID)
	assert.Equal(t, "deadbeef-01", *boot.UUID)
	assert.EqualValues(t, 2048*512, boot.Offset)
	assert.EqualValues(t, 2048*512, boot.Size)

	linux := res.Parts[1]
	assert.Equal(t, "0x83", linux.Type)
	assert.Zero(t, linux.Flags)
	assert.EqualValues(t, 4096*512, linux.Offset)
}

func TestProbeExtended(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(8 * imagetest.MiB)
	imagetest.WriteDOS(buf, imagetest.DOSOptions{
		Primary: []imagetest.DOSPartition{
			{Start: 2048, Size: 2048, Type: 0x83},
			{Start: 4095, Size: 8193, Type: 0x05},
		},
		Logical: []imagetest.DOSPartition{
			{Start: 4096, Size: 1024, Type: 0x83},
			{Start: 6144, Size: 1024, Type: 0x82},
			{Start: 8192, Size: 2048, Type: 0x83},
		},
	})

	res, err := imagetest.Probe(&dos.Probe{}, buf)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Empty(t, res.Warnings)
	assert.Nil(t, res.UUID)

	assert.Equal(t, []uint{1, 2, 5, 6, 7}, indexes(res))
	assert.Equal(t,
		[]uint64{2048 * 512, 4095 * 512, 4096 * 512, 6144 * 512, 8192 * 512},
		xslices.Map(res.Parts, func(p probe.Partition) uint64 { return p.Offset }),
	)

	assert.Equal(t, "0x82", res.Parts[3].Type)
	assert.Nil(t, res.Parts[3].UUID)
}

func TestProbeExtendedLoop(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(8 * imagetest.MiB)
	imagetest.WriteDOS(buf, imagetest.DOSOptions{
		Primary: []imagetest.DOSPartition{
			{Start: 4095, Size: 4097, Type: 0x0f},
		},
		Logical: []imagetest.DOSPartition{
			{Start: 4096, Size: 1024, Type: 0x83},
			{Start: 6144, Size: 1024, Type: 0x83},
		},
	})

	// the second EBR links back to the first one
	ebr := buf[6143*512 : 6144*512]
	ebr[0x1be+16+4] = 0x05
	ebr[0x1be+16+8], ebr[0x1be+16+9], ebr[0x1be+16+10], ebr[0x1be+16+11] = 0, 0, 0, 0
	ebr[0x1be+16+12] = 1

	res, err := imagetest.Probe(&dos.Probe{}, buf)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, []uint{1, 5, 6}, indexes(res))
	assert.Equal(t, []string{"DOS extended partition chain loops at sector 4095"}, res.Warnings)
}

func TestProbeWarnings(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(imagetest.MiB)
	imagetest.WriteDOS(buf, imagetest.DOSOptions{
		Primary: []imagetest.DOSPartition{
			{Start: 64, Size: 64, Type: 0x83},
			{Start: 1024, Size: 4096, Type: 0x83},
			{Start: 128, Size: 64, Type: 0x05},
		},
	})

	res, err := imagetest.Probe(&dos.Probe{}, buf)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, []uint{1, 3}, indexes(res))
	assert.Equal(t, []string{
		"DOS partition 2 at sector 1024 overflows the device",
		"DOS EBR at sector 128 has no signature",
	}, res.Warnings)
}

func TestProbeRejected(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name  string
		image func() []byte
	}{
		{
			name: "no signature",
			image: func() []byte {
				return imagetest.New(imagetest.MiB)
			},
		},
		{
			name: "protective MBR",
			image: func() []byte {
				buf := imagetest.New(imagetest.MiB)
				imagetest.WriteGPT(buf, imagetest.GPTOptions{})

				return buf
			},
		},
		{
			name: "FAT boot sector",
			image: func() []byte {
				buf := imagetest.New(imagetest.MiB)
				imagetest.WriteVFAT(buf, imagetest.VFATOptions{Type: imagetest.FAT16})

				return buf
			},
		},
		{
			name: "invalid boot indicator",
			image: func() []byte {
				buf := imagetest.New(imagetest.MiB)
				imagetest.WriteDOS(buf, imagetest.DOSOptions{
					Primary: []imagetest.DOSPartition{{Start: 64, Size: 64, Type: 0x83}},
				})

				buf[0x1be] = 0x12

				return buf
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			res, err := imagetest.Probe(&dos.Probe{}, test.image())
			require.NoError(t, err)
			assert.Nil(t, res)
		})
	}
}
