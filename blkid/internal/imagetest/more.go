// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package imagetest

import (
	"encoding/binary"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
)

// ISO9660Options describes ISO9660 volume descriptors.
type ISO9660Options struct {
	VolumeID      string
	SystemID      string
	PublisherID   string
	ApplicationID string
	BootSystemID  string
	JolietLabel   string

	// Created and Modified are "YYYYMMDDHHMMSSCC" dates.
	Created  string
	Modified string

	SpaceSize uint32
}

// WriteISO9660 writes the volume descriptor set at 32KiB.
func WriteISO9660(buf []byte, opts ISO9660Options) {
	const (
		start = 0x8000
		size  = 2048
	)

	offset := start

	next := func(vdType byte) []byte {
		vd := buf[offset : offset+size]
		offset += size

		clear(vd)

		vd[0] = vdType
		copy(vd[1:6], "CD001")
		vd[6] = 1

		return vd
	}

	if opts.BootSystemID != "" {
		boot := next(0)
		copy(boot[7:39], opts.BootSystemID)
	}

	spaceSize := opts.SpaceSize
	if spaceSize == 0 {
		spaceSize = uint32(len(buf) / size)
	}

	pvd := next(1)
	padded(pvd[8:40], opts.SystemID, ' ')
	padded(pvd[40:72], opts.VolumeID, ' ')
	le.PutUint32(pvd[80:], spaceSize)
	be.PutUint32(pvd[84:], spaceSize)
	le.PutUint16(pvd[128:], size)
	be.PutUint16(pvd[130:], size)
	padded(pvd[318:446], opts.PublisherID, ' ')
	padded(pvd[574:702], opts.ApplicationID, ' ')
	padded(pvd[813:829], opts.Created, '0')
	padded(pvd[830:846], opts.Modified, '0')

	if opts.JolietLabel != "" {
		joliet := next(2)
		copy(joliet[88:], "%/E")

		label, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(opts.JolietLabel))
		if err != nil {
			panic(err)
		}

		// the field is padded with UCS-2 spaces
		for i := 40; i < 72; i += 2 {
			joliet[i], joliet[i+1] = 0, ' '
		}

		copy(joliet[40:72], label)
	}

	next(0xff)
}

// SquashfsOptions describes a squashfs superblock.
type SquashfsOptions struct {
	Major, Minor uint16
	BlockSize    uint32
	BytesUsed    uint64
	BigEndian    bool
}

// WriteSquashfs writes a squashfs superblock.
func WriteSquashfs(buf []byte, opts SquashfsOptions) {
	sb := buf[:96]
	clear(sb)

	var order binary.ByteOrder = le

	if opts.BigEndian {
		order = be

		copy(sb, "sqsh")
	} else {
		copy(sb, "hsqs")
	}

	order.PutUint32(sb[12:], opts.BlockSize)
	order.PutUint16(sb[28:], opts.Major)
	order.PutUint16(sb[30:], opts.Minor)

	if opts.Major >= 4 {
		order.PutUint64(sb[40:], opts.BytesUsed)
	}
}

// BtrfsOptions describes a btrfs superblock.
type BtrfsOptions struct {
	Label   string
	UUID    uuid.UUID
	DevUUID uuid.UUID

	TotalBytes uint64

	BadChecksum bool
}

// WriteBtrfs writes the primary btrfs superblock.
func WriteBtrfs(buf []byte, opts BtrfsOptions) {
	sb := buf[0x10000 : 0x10000+4096]
	clear(sb)

	copy(sb[0x20:0x30], opts.UUID[:])
	le.PutUint64(sb[0x30:], 0x10000)
	copy(sb[0x40:], "_BHRfS_M")
	le.PutUint64(sb[0x70:], opts.TotalBytes)
	le.PutUint32(sb[0x90:], 4096)
	le.PutUint32(sb[0x94:], 16384)
	copy(sb[0x10b:0x11b], opts.DevUUID[:])
	copy(sb[0x11b:0x12b], opts.UUID[:])
	copy(sb[0x12b:0x12b+256], opts.Label)

	csum := ^utils.CRC32c(sb[0x20:])
	if opts.BadChecksum {
		csum++
	}

	le.PutUint32(sb[0:], csum)
}

// ZFSOptions describes a ZFS vdev label.
type ZFSOptions struct {
	PoolName string
	PoolGUID uint64
	GUID     uint64
	Version  uint64

	// Uberblocks is the number of valid uberblocks to write.
	Uberblocks int
}

// WriteZFS writes the first vdev label: the config nvlist and the uberblock ring.
func WriteZFS(buf []byte, opts ZFSOptions) {
	label := buf[:256*KiB]
	clear(label)

	nvlist := label[16*KiB : 128*KiB]
	nvlist[0] = 1 // XDR
	nvlist[1] = 1 // little-endian host
	be.PutUint32(nvlist[4:], 0)
	be.PutUint32(nvlist[8:], 1)

	off := 12

	pair := func(name string, dataType uint32, value []byte) {
		nameLen := (len(name) + 3) &^ 3
		size := 12 + nameLen + 8 + len(value)

		be.PutUint32(nvlist[off:], uint32(size))
		be.PutUint32(nvlist[off+4:], uint32(size))
		be.PutUint32(nvlist[off+8:], uint32(len(name)))
		copy(nvlist[off+12:], name)
		be.PutUint32(nvlist[off+12+nameLen:], dataType)
		be.PutUint32(nvlist[off+16+nameLen:], 1)
		copy(nvlist[off+20+nameLen:], value)

		off += size
	}

	u64 := func(v uint64) []byte { return be.AppendUint64(nil, v) }
	str := func(s string) []byte {
		v := be.AppendUint32(nil, uint32(len(s)))
		v = append(v, s...)

		return append(v, make([]byte, (4-len(s)%4)%4)...)
	}

	pair("version", 8, u64(opts.Version))
	pair("name", 9, str(opts.PoolName))
	pair("state", 8, u64(0))
	pair("pool_guid", 8, u64(opts.PoolGUID))
	pair("guid", 8, u64(opts.GUID))

	for i := range opts.Uberblocks {
		ub := label[128*KiB+i*KiB:]

		le.PutUint64(ub[0:], 0x00bab10c)
		le.PutUint64(ub[8:], opts.Version)
		le.PutUint64(ub[16:], uint64(i+1))
		le.PutUint64(ub[24:], opts.PoolGUID+opts.GUID)
	}
}

// WriteBluestore writes a Ceph bluestore label.
func WriteBluestore(buf []byte, osdUUID uuid.UUID) {
	clear(buf[:4096])

	copy(buf, "bluestore block device\n"+osdUUID.String()+"\n")
}

// WriteTalosMeta writes an empty Talos META partition, two copies of 256KiB.
func WriteTalosMeta(buf []byte) {
	const length = 256 * KiB

	for _, offset := range []int{0, length} {
		clear(buf[offset : offset+length])

		be.PutUint32(buf[offset:], 0x5a4b3c2d)
		be.PutUint32(buf[offset+length-4:], 0xa5b4c3d2)
	}
}
