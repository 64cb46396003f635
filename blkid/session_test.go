// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/siderolabs/gen/xslices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/siderolabs/go-blockprobe/blkid"
	"github.com/siderolabs/go-blockprobe/blkid/internal/chain"
	"github.com/siderolabs/go-blockprobe/blkid/internal/imagetest"
	"github.com/siderolabs/go-blockprobe/image"
)

var (
	fsUUID    = uuid.MustParse("5a1d6c4e-4b0b-43a4-9b3e-2f0a7f4c8e11")
	diskGUID  = uuid.MustParse("ddda0816-8b53-47bf-a813-9ebb1f73aaa2")
	linuxType = uuid.MustParse("0fc63daf-8483-4772-8e79-3d69d8477de4")
)

func ext4Image(size int) []byte {
	buf := imagetest.New(size)
	imagetest.WriteExt(buf, imagetest.ExtOptions{Label: "EPHEMERAL", UUID: fsUUID}.WithFeatures(imagetest.Ext4Features))

	return buf
}

func newSession(t *testing.T, buf []byte, opts ...blkid.ProbeOption) *blkid.Session {
	t.Helper()

	s := blkid.NewSession(append([]blkid.ProbeOption{blkid.WithLogger(zaptest.NewLogger(t))}, opts...)...)

	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	require.NoError(t, s.Attach(image.NewMemory(buf)))

	return s
}

func lookup(t *testing.T, s *blkid.Session, key string) string {
	t.Helper()

	value, err := s.Lookup(key)
	require.NoError(t, err, key)

	return value
}

func TestSignatures(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name  string
		write func([]byte)

		expectedType  string
		expectedUsage string
	}{
		{
			name: "ext2",
			write: func(buf []byte) {
				imagetest.WriteExt(buf, imagetest.Ext2Features)
			},
			expectedType:  "ext2",
			expectedUsage: "filesystem",
		},
		{
			name: "ext3",
			write: func(buf []byte) {
				imagetest.WriteExt(buf, imagetest.Ext3Features)
			},
			expectedType:  "ext3",
			expectedUsage: "filesystem",
		},
		{
			name: "ext4",
			write: func(buf []byte) {
				imagetest.WriteExt(buf, imagetest.Ext4Features)
			},
			expectedType:  "ext4",
			expectedUsage: "filesystem",
		},
		{
			name: "jbd",
			write: func(buf []byte) {
				imagetest.WriteExt(buf, imagetest.JBDFeatures)
			},
			expectedType:  "jbd",
			expectedUsage: "other",
		},
		{
			name: "xfs",
			write: func(buf []byte) {
				imagetest.WriteXFS(buf, imagetest.XFSOptions{V5: true})
			},
			expectedType:  "xfs",
			expectedUsage: "filesystem",
		},
		{
			name: "vfat",
			write: func(buf []byte) {
				imagetest.WriteVFAT(buf, imagetest.VFATOptions{Type: imagetest.FAT16})
			},
			expectedType:  "vfat",
			expectedUsage: "filesystem",
		},
		{
			name: "swap",
			write: func(buf []byte) {
				imagetest.WriteSwap(buf, imagetest.SwapOptions{LastPage: 1023})
			},
			expectedType:  "swap",
			expectedUsage: "other",
		},
		{
			name: "lvm2",
			write: func(buf []byte) {
				imagetest.WriteLVM2(buf, imagetest.LVM2Options{PVUUID: "Qm9vdGZzMDEyMzQ1Njc4OWFiY2RlZmdo", Sector: 1})
			},
			expectedType:  "LVM2_member",
			expectedUsage: "raid",
		},
		{
			name: "luks",
			write: func(buf []byte) {
				imagetest.WriteLUKS(buf, imagetest.LUKSOptions{Version: 2, UUID: fsUUID.String()})
			},
			expectedType:  "crypto_LUKS",
			expectedUsage: "crypto",
		},
		{
			name: "iso9660",
			write: func(buf []byte) {
				imagetest.WriteISO9660(buf, imagetest.ISO9660Options{VolumeID: "CDROM"})
			},
			expectedType:  "iso9660",
			expectedUsage: "filesystem",
		},
		{
			name: "squashfs",
			write: func(buf []byte) {
				imagetest.WriteSquashfs(buf, imagetest.SquashfsOptions{Major: 4, BlockSize: 131072, BytesUsed: 4096})
			},
			expectedType:  "squashfs",
			expectedUsage: "filesystem",
		},
		{
			name: "squashfs3",
			write: func(buf []byte) {
				imagetest.WriteSquashfs(buf, imagetest.SquashfsOptions{Major: 3, Minor: 1, BigEndian: true})
			},
			expectedType:  "squashfs3",
			expectedUsage: "filesystem",
		},
		{
			name: "btrfs",
			write: func(buf []byte) {
				imagetest.WriteBtrfs(buf, imagetest.BtrfsOptions{UUID: fsUUID, TotalBytes: 4 * imagetest.MiB})
			},
			expectedType:  "btrfs",
			expectedUsage: "filesystem",
		},
		{
			name: "zfs",
			write: func(buf []byte) {
				imagetest.WriteZFS(buf, imagetest.ZFSOptions{PoolName: "tank", PoolGUID: 1, GUID: 2, Version: 5000, Uberblocks: 4})
			},
			expectedType:  "zfs_member",
			expectedUsage: "filesystem",
		},
		{
			name: "bluestore",
			write: func(buf []byte) {
				imagetest.WriteBluestore(buf, fsUUID)
			},
			expectedType:  "ceph_bluestore",
			expectedUsage: "other",
		},
		{
			name:          "talosmeta",
			write:         imagetest.WriteTalosMeta,
			expectedType:  "talosmeta",
			expectedUsage: "other",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			buf := imagetest.New(4 * imagetest.MiB)
			test.write(buf)

			s := newSession(t, buf)
			require.NoError(t, s.Run())

			detector, err := s.Detector(blkid.Superblocks)
			require.NoError(t, err)
			assert.Equal(t, test.expectedType, detector)

			assert.Equal(t, test.expectedType, lookup(t, s, blkid.KeyType))
			assert.Equal(t, test.expectedUsage, lookup(t, s, blkid.KeyUsage))

			// no other detector claims the image
			others := xslices.Filter(chain.Superblocks().Names(), func(name string) bool { return name != test.expectedType })

			require.NoError(t, s.SetFilter(blkid.Superblocks, blkid.FilterInclude, others...))
			require.NoError(t, s.Run())

			_, err = s.Detector(blkid.Superblocks)
			require.ErrorIs(t, err, blkid.ErrNotFound)
		})
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	s := newSession(t, ext4Image(4*imagetest.MiB))
	require.NoError(t, s.Run())

	values, err := s.Values()
	require.NoError(t, err)

	assert.Equal(t, []blkid.Value{
		{Key: blkid.KeyType, Value: "ext4"},
		{Key: blkid.KeyLabel, Value: "EPHEMERAL"},
		{Key: blkid.KeyLabelRaw, Value: "EPHEMERAL"},
		{Key: blkid.KeyUUID, Value: fsUUID.String()},
		{Key: blkid.KeyUUIDRaw, Value: string(fsUUID[:])},
		{Key: blkid.KeyUsage, Value: "filesystem"},
		{Key: blkid.KeyVersion, Value: "1.0"},
		{Key: blkid.KeySBMagic, Value: "\x53\xef"},
		{Key: blkid.KeySBMagicOffset, Value: "1080"},
		{Key: blkid.KeyFSSize, Value: "4194304"},
	}, values)

	// keys are a subset of the vocabulary, in the vocabulary order
	keys := xslices.Map(values, func(v blkid.Value) string { return v.Key })
	assert.Subset(t, blkid.SuperblockKeys, keys)

	_, err = s.Lookup(blkid.KeyMount)
	require.ErrorIs(t, err, blkid.ErrNotPresent)

	_, err = s.Lookup(blkid.KeyPTType)
	require.ErrorIs(t, err, blkid.ErrNotPresent)
}

func TestSuperblockFlags(t *testing.T) {
	t.Parallel()

	s := newSession(t, ext4Image(4*imagetest.MiB))
	require.NoError(t, s.SetSuperblockFlags(blkid.SuperblockType|blkid.SuperblockUUID))
	require.NoError(t, s.Run())

	values, err := s.Values()
	require.NoError(t, err)

	assert.Equal(t, []blkid.Value{
		{Key: blkid.KeyType, Value: "ext4"},
		{Key: blkid.KeyUUID, Value: fsUUID.String()},
	}, values)
}

func TestFirstMatchWins(t *testing.T) {
	t.Parallel()

	// ext4 and btrfs superblocks don't overlap
	buf := ext4Image(4 * imagetest.MiB)
	imagetest.WriteBtrfs(buf, imagetest.BtrfsOptions{UUID: diskGUID, TotalBytes: 4 * imagetest.MiB})

	s := newSession(t, buf)

	require.NoError(t, s.Run())
	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))

	require.NoError(t, s.SetFilter(blkid.Superblocks, blkid.FilterExclude, "ext4"))
	require.NoError(t, s.Run())
	assert.Equal(t, "btrfs", lookup(t, s, blkid.KeyType))
	assert.Equal(t, diskGUID.String(), lookup(t, s, blkid.KeyUUID))

	require.NoError(t, s.SetFilter(blkid.Superblocks, blkid.FilterInclude, "xfs", "swap"))
	require.NoError(t, s.Run())

	_, err := s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotFound)

	_, err = s.Lookup(blkid.KeyType)
	require.ErrorIs(t, err, blkid.ErrNotPresent)

	require.NoError(t, s.ClearFilter(blkid.Superblocks))
	require.NoError(t, s.Run())
	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))
}

func TestFilterExcludeOnly(t *testing.T) {
	t.Parallel()

	s := newSession(t, ext4Image(4*imagetest.MiB))

	require.NoError(t, s.SetFilter(blkid.Superblocks, blkid.FilterExclude, "ext4", "ext4", "nosuchfs"))
	require.NoError(t, s.Run())

	_, err := s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotFound)

	require.NoError(t, s.ClearFilter(blkid.Superblocks))
	require.NoError(t, s.Run())
	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))
}

func TestBadChecksum(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(4 * imagetest.MiB)
	imagetest.WriteExt(buf, imagetest.ExtOptions{UUID: fsUUID, BadChecksum: true}.WithFeatures(imagetest.Ext4Features))

	s := newSession(t, buf)

	require.NoError(t, s.Run())
	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))
	assert.Equal(t, "1", lookup(t, s, blkid.KeySBBadCSum))

	require.NoError(t, s.SetSuperblockFlags(blkid.SuperblockDefault&^blkid.SuperblockBadChecksum))
	require.NoError(t, s.Run())

	_, err := s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotFound)

	_, err = s.Lookup(blkid.KeySBBadCSum)
	require.ErrorIs(t, err, blkid.ErrNotPresent)
}

func TestBadChecksumFallthrough(t *testing.T) {
	t.Parallel()

	// rejected ext4 superblock lets the next detector win
	buf := imagetest.New(4 * imagetest.MiB)
	imagetest.WriteExt(buf, imagetest.ExtOptions{BadChecksum: true}.WithFeatures(imagetest.Ext4Features))
	imagetest.WriteBtrfs(buf, imagetest.BtrfsOptions{UUID: fsUUID, TotalBytes: 4 * imagetest.MiB})

	s := newSession(t, buf)
	require.NoError(t, s.SetSuperblockFlags(blkid.SuperblockDefault&^blkid.SuperblockBadChecksum))
	require.NoError(t, s.Run())

	assert.Equal(t, "btrfs", lookup(t, s, blkid.KeyType))
}

func TestGPT(t *testing.T) {
	t.Parallel()

	const numPartitions = 5

	parts := make([]imagetest.GPTPartition, numPartitions)

	for i := range parts {
		parts[i] = imagetest.GPTPartition{
			Type:     linuxType,
			UUID:     uuid.New(),
			Name:     "part",
			FirstLBA: uint64(2048 + i*1024),
			LastLBA:  uint64(2048 + i*1024 + 1023),
		}
	}

	buf := imagetest.New(8 * imagetest.MiB)
	imagetest.WriteGPT(buf, imagetest.GPTOptions{DiskGUID: diskGUID, Partitions: parts})

	s := newSession(t, buf)
	require.NoError(t, s.EnableCategory(blkid.Partitions, true))
	require.NoError(t, s.Run())

	detector, err := s.Detector(blkid.Partitions)
	require.NoError(t, err)
	assert.Equal(t, "gpt", detector)

	assert.Equal(t, "gpt", lookup(t, s, blkid.KeyPTType))
	assert.Equal(t, diskGUID.String(), lookup(t, s, blkid.KeyPTUUID))

	entries, err := s.PartitionEntries()
	require.NoError(t, err)
	require.Len(t, entries, numPartitions)

	for i, entry := range entries {
		assert.Equal(t, "gpt", entry.Scheme)
		assert.EqualValues(t, i+1, entry.Number)
		assert.Equal(t, parts[i].UUID.String(), entry.UUID)
		assert.Equal(t, linuxType.String(), entry.Type)
		assert.Equal(t, "part", entry.Name)
		assert.EqualValues(t, (2048+i*1024)*512, entry.Offset)
		assert.EqualValues(t, 1024*512, entry.Size)
	}

	warnings, err := s.Warnings()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// the protective MBR is not a superblock
	_, err = s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotFound)
}

func TestGPTBackup(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(4 * imagetest.MiB)
	imagetest.WriteGPT(buf, imagetest.GPTOptions{
		DiskGUID:       diskGUID,
		CorruptPrimary: true,
		Partitions: []imagetest.GPTPartition{
			{Type: linuxType, UUID: fsUUID, FirstLBA: 2048, LastLBA: 4095},
		},
	})

	s := newSession(t, buf)
	require.NoError(t, s.EnableCategory(blkid.Partitions, true))
	require.NoError(t, s.Run())

	entries, err := s.PartitionEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Name)

	warnings, err := s.Warnings()
	require.NoError(t, err)
	assert.Equal(t, []string{"primary GPT header is corrupted, using backup header"}, warnings)
}

func TestDOS(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(8 * imagetest.MiB)
	imagetest.WriteDOS(buf, imagetest.DOSOptions{
		DiskID: 0x0badcafe,
		Primary: []imagetest.DOSPartition{
			{Start: 2048, Size: 2047, Type: 0x83, Bootable: true},
			{Start: 4095, Size: 8193, Type: 0x05},
		},
		Logical: []imagetest.DOSPartition{
			{Start: 4096, Size: 2047, Type: 0x83},
			{Start: 6144, Size: 2047, Type: 0x82},
			{Start: 8192, Size: 4096, Type: 0x83},
		},
	})

	s := newSession(t, buf)
	require.NoError(t, s.EnableCategory(blkid.Partitions, true))
	require.NoError(t, s.EnableCategory(blkid.Superblocks, false))
	require.NoError(t, s.Run())

	assert.Equal(t, "dos", lookup(t, s, blkid.KeyPTType))
	assert.Equal(t, "0badcafe", lookup(t, s, blkid.KeyPTUUID))

	entries, err := s.PartitionEntries()
	require.NoError(t, err)

	assert.Equal(t, []uint{1, 2, 5, 6, 7}, xslices.Map(entries, func(e blkid.PartitionEntry) uint { return e.Number }))
	assert.Equal(t, "0x82", entries[3].Type)
	assert.Equal(t, "0badcafe-06", entries[3].UUID)
	assert.EqualValues(t, 0x80, entries[0].Flags)

	// superblocks were not probed
	_, err = s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotScanned)
}

func TestPartitionFilter(t *testing.T) {
	t.Parallel()

	buf := imagetest.New(4 * imagetest.MiB)
	imagetest.WriteGPT(buf, imagetest.GPTOptions{DiskGUID: diskGUID})

	s := newSession(t, buf)
	require.NoError(t, s.EnableCategory(blkid.Partitions, true))
	require.NoError(t, s.SetFilter(blkid.Partitions, blkid.FilterExclude, "gpt"))
	require.NoError(t, s.Run())

	// the protective MBR is rejected by the dos detector
	_, err := s.Detector(blkid.Partitions)
	require.ErrorIs(t, err, blkid.ErrNotFound)

	entries, err := s.PartitionEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDisabledCategoryKeepsResults(t *testing.T) {
	t.Parallel()

	s := newSession(t, ext4Image(4*imagetest.MiB))

	require.NoError(t, s.Run())

	require.NoError(t, s.EnableCategory(blkid.Superblocks, false))
	require.NoError(t, s.EnableCategory(blkid.Partitions, true))
	require.NoError(t, s.Run())

	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))

	_, err := s.Detector(blkid.Partitions)
	require.ErrorIs(t, err, blkid.ErrNotFound)
}

func TestGeometry(t *testing.T) {
	t.Parallel()

	s := blkid.NewSession(blkid.WithLogger(zaptest.NewLogger(t)))

	_, err := s.Geometry()
	require.ErrorIs(t, err, blkid.ErrNotAttached)

	require.NoError(t, s.Attach(image.NewMemory(imagetest.New(4*imagetest.MiB), image.WithSectorSize(4096))))

	geometry, err := s.Geometry()
	require.NoError(t, err)

	assert.Equal(t, blkid.Geometry{
		DeviceSize: 4 * imagetest.MiB,
		ProbedSize: 4 * imagetest.MiB,
		SectorSize: 4096,
		IOSize:     4096,
	}, geometry)

	require.NoError(t, s.Close())

	_, err = s.Geometry()
	require.ErrorIs(t, err, blkid.ErrClosed)
}

func TestWindow(t *testing.T) {
	t.Parallel()

	// ext4 filesystem in the middle of the device
	buf := imagetest.New(4 * imagetest.MiB)
	copy(buf[imagetest.MiB:], ext4Image(2*imagetest.MiB))

	s := newSession(t, buf, blkid.WithWindow(imagetest.MiB, 2*imagetest.MiB))
	require.NoError(t, s.Run())

	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))
	assert.Equal(t, "2097152", lookup(t, s, blkid.KeyFSSize))

	geometry, err := s.Geometry()
	require.NoError(t, err)
	assert.EqualValues(t, 4*imagetest.MiB, geometry.DeviceSize)
	assert.EqualValues(t, 2*imagetest.MiB, geometry.ProbedSize)

	// the same device without the window
	s = newSession(t, buf)
	require.NoError(t, s.Run())

	_, err = s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotFound)
}

func TestWindowTruncatesSuperblock(t *testing.T) {
	t.Parallel()

	// superblock crosses the end of the window
	s := newSession(t, ext4Image(4*imagetest.MiB), blkid.WithWindow(0, 0x600))
	require.NoError(t, s.Run())

	_, err := s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotFound)
}

func TestWindowOutOfBounds(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name         string
		offset, size uint64
	}{
		{name: "offset", offset: 4 * imagetest.MiB},
		{name: "size", offset: imagetest.MiB, size: 3*imagetest.MiB + 1},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			s := blkid.NewSession(blkid.WithWindow(test.offset, test.size))

			dev := image.NewMemory(imagetest.New(4 * imagetest.MiB))

			err := s.Attach(dev)

			var devErr *blkid.DeviceError

			require.ErrorAs(t, err, &devErr)

			// the device is closed on failed attach
			_, err = dev.ReadAt(make([]byte, 1), 0)
			require.ErrorIs(t, err, os.ErrClosed)
		})
	}
}

var errInjected = errors.New("injected failure")

type faultyDevice struct {
	*image.Memory

	fail bool
}

func (d *faultyDevice) ReadAt(p []byte, off int64) (int, error) {
	if d.fail {
		return 0, errInjected
	}

	return d.Memory.ReadAt(p, off)
}

func TestIOError(t *testing.T) {
	t.Parallel()

	dev := &faultyDevice{Memory: image.NewMemory(ext4Image(4 * imagetest.MiB))}

	s := blkid.NewSession(blkid.WithLogger(zaptest.NewLogger(t)), blkid.WithWindow(imagetest.MiB, 0))
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	require.NoError(t, s.Attach(dev))
	require.NoError(t, s.Run())

	dev.fail = true

	err := s.Run()
	require.Error(t, err)
	require.ErrorIs(t, err, errInjected)

	var ioErr *blkid.IOError

	require.ErrorAs(t, err, &ioErr)
	assert.EqualValues(t, imagetest.MiB, ioErr.Offset)
	assert.EqualValues(t, 0x10048, ioErr.Length)

	// results of the previous run are intact
	_, err = s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrNotFound)

	dev.fail = false

	require.NoError(t, s.SetFilter(blkid.Superblocks, blkid.FilterInclude, "ext4"))
	require.NoError(t, s.Run())
}

func TestIOErrorKeepsResults(t *testing.T) {
	t.Parallel()

	dev := &faultyDevice{Memory: image.NewMemory(ext4Image(4 * imagetest.MiB))}

	s := blkid.NewSession()
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	require.NoError(t, s.Attach(dev))
	require.NoError(t, s.EnableCategory(blkid.Partitions, true))
	require.NoError(t, s.Run())

	dev.fail = true

	require.Error(t, s.Run())

	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))
	assert.Equal(t, fsUUID.String(), lookup(t, s, blkid.KeyUUID))
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	s := blkid.NewSession()

	require.ErrorIs(t, s.Run(), blkid.ErrNotAttached)

	_, err := s.Lookup(blkid.KeyType)
	require.ErrorIs(t, err, blkid.ErrNotScanned)

	_, err = s.Values()
	require.ErrorIs(t, err, blkid.ErrNotScanned)

	require.Error(t, s.EnableCategory(blkid.Category(42), true))
	require.Error(t, s.SetFilter(blkid.Category(-1), blkid.FilterInclude))

	require.NoError(t, s.Attach(image.NewMemory(ext4Image(imagetest.MiB))))
	require.ErrorIs(t, s.Attach(image.NewMemory(ext4Image(imagetest.MiB))), blkid.ErrAlreadyAttached)

	_, err = s.Lookup(blkid.KeyType)
	require.ErrorIs(t, err, blkid.ErrNotScanned)

	require.NoError(t, s.EnableCategory(blkid.Superblocks, false))
	require.ErrorIs(t, s.Run(), blkid.ErrNoCategory)

	require.NoError(t, s.EnableCategory(blkid.Superblocks, true))
	require.NoError(t, s.Run())

	entries, err := s.PartitionEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Run(), blkid.ErrClosed)
	require.ErrorIs(t, s.Attach(image.NewMemory(ext4Image(imagetest.MiB))), blkid.ErrClosed)
	require.ErrorIs(t, s.SetFilter(blkid.Superblocks, blkid.FilterInclude, "ext4"), blkid.ErrClosed)
	require.ErrorIs(t, s.ClearFilter(blkid.Superblocks), blkid.ErrClosed)
	require.ErrorIs(t, s.EnableCategory(blkid.Partitions, true), blkid.ErrClosed)
	require.ErrorIs(t, s.SetSuperblockFlags(blkid.SuperblockDefault), blkid.ErrClosed)

	_, err = s.Lookup(blkid.KeyType)
	require.ErrorIs(t, err, blkid.ErrClosed)

	_, err = s.Values()
	require.ErrorIs(t, err, blkid.ErrClosed)

	_, err = s.Warnings()
	require.ErrorIs(t, err, blkid.ErrClosed)

	_, err = s.Detector(blkid.Superblocks)
	require.ErrorIs(t, err, blkid.ErrClosed)

	_, err = s.PartitionEntries()
	require.ErrorIs(t, err, blkid.ErrClosed)
}

func TestEmptyDevice(t *testing.T) {
	t.Parallel()

	s := blkid.NewSession()

	var devErr *blkid.DeviceError

	require.ErrorAs(t, s.Attach(image.NewMemory(nil)), &devErr)

	// failed attach leaves the session usable
	require.NoError(t, s.Attach(image.NewMemory(ext4Image(imagetest.MiB))))
	require.NoError(t, s.Run())
	require.NoError(t, s.Close())
}

func TestAttachPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "image.raw")
	require.NoError(t, os.WriteFile(path, ext4Image(4*imagetest.MiB), 0o644))

	s := blkid.NewSession(blkid.WithLogger(zaptest.NewLogger(t)), blkid.WithSectorSize(4096))
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	require.NoError(t, s.AttachPath(path))
	assert.Equal(t, path, s.Path())

	geometry, err := s.Geometry()
	require.NoError(t, err)
	assert.EqualValues(t, 4096, geometry.SectorSize)
	assert.EqualValues(t, 4*imagetest.MiB, geometry.DeviceSize)

	require.NoError(t, s.Run())
	assert.Equal(t, "ext4", lookup(t, s, blkid.KeyType))
	assert.Equal(t, "EPHEMERAL", lookup(t, s, blkid.KeyLabel))

	require.NoError(t, s.Close())
	assert.Empty(t, s.Path())
}

func TestAttachPathErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var devErr *blkid.DeviceError

	err := blkid.NewSession().AttachPath(filepath.Join(dir, "missing"))
	require.ErrorAs(t, err, &devErr)
	require.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	err = blkid.NewSession().AttachPath(empty)
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, empty, devErr.Path)

	err = blkid.NewSession().AttachPath(dir)
	require.ErrorAs(t, err, &devErr)
}

func TestPartitionEntryValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []blkid.Value{
		{Key: blkid.KeyPartEntryScheme, Value: "gpt"},
		{Key: blkid.KeyPartEntryName, Value: "EFI"},
		{Key: blkid.KeyPartEntryUUID, Value: fsUUID.String()},
		{Key: blkid.KeyPartEntryType, Value: linuxType.String()},
		{Key: blkid.KeyPartEntryFlags, Value: "0x4"},
		{Key: blkid.KeyPartEntryNumber, Value: "1"},
		{Key: blkid.KeyPartEntryOffset, Value: "2048"},
	}, blkid.PartitionEntry{
		Scheme: "gpt",
		Number: 1,
		Offset: 2048 * 512,
		Size:   2048 * 512,
		Type:   linuxType.String(),
		UUID:   fsUUID.String(),
		Name:   "EFI",
		Flags:  4,
	}.Values())

	assert.Equal(t, []blkid.Value{
		{Key: blkid.KeyPartEntryScheme, Value: "dos"},
		{Key: blkid.KeyPartEntryType, Value: "0x83"},
		{Key: blkid.KeyPartEntryFlags, Value: "0x0"},
		{Key: blkid.KeyPartEntryNumber, Value: "5"},
		{Key: blkid.KeyPartEntryOffset, Value: "4096"},
	}, blkid.PartitionEntry{
		Scheme: "dos",
		Number: 5,
		Offset: 4096 * 512,
		Type:   "0x83",
	}.Values())
}

func TestCategoryString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "superblocks", blkid.Superblocks.String())
	assert.Equal(t, "partitions", blkid.Partitions.String())
	assert.Equal(t, "Category(7)", blkid.Category(7).String())
}
