// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package imagetest builds crafted in-memory images for the probing tests.
//
// Builders write just enough of the on-disk structures for the probers to accept them.
package imagetest

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
)

var (
	le = binary.LittleEndian
	be = binary.BigEndian
)

// Sizes of the common images.
const (
	KiB = 1024
	MiB = 1024 * KiB
)

// New allocates a zeroed image.
func New(size int) []byte {
	return make([]byte, size)
}

// padded copies s into dst filling the rest with pad.
func padded(dst []byte, s string, pad byte) {
	n := copy(dst, s)

	for i := n; i < len(dst); i++ {
		dst[i] = pad
	}
}

// ExtOptions describes an extfs superblock.
type ExtOptions struct {
	Label       string
	LastMounted string
	UUID        uuid.UUID
	JournalUUID uuid.UUID

	Compat   uint32
	Incompat uint32
	ROCompat uint32

	BlocksCount   uint64
	LogBlockSize  uint32
	MinorRevLevel uint16

	// BadChecksum corrupts the metadata checksum, if enabled.
	BadChecksum bool
}

// Feature sets of the extfs flavors.
var (
	Ext2Features = ExtOptions{Incompat: 0x0002, ROCompat: 0x0003}
	Ext3Features = ExtOptions{Compat: 0x0004, Incompat: 0x0002, ROCompat: 0x0003}
	Ext4Features = ExtOptions{Compat: 0x0004, Incompat: 0x0002 | 0x0040 | 0x0080 | 0x0200, ROCompat: 0x0003 | 0x0008 | 0x0400}
	JBDFeatures  = ExtOptions{Incompat: 0x0008}
)

// WithFeatures returns a copy of the options with the feature set of other.
func (o ExtOptions) WithFeatures(other ExtOptions) ExtOptions {
	o.Compat, o.Incompat, o.ROCompat = other.Compat, other.Incompat, other.ROCompat

	return o
}

// WriteExt writes an extfs superblock.
func WriteExt(buf []byte, opts ExtOptions) {
	sb := buf[0x400 : 0x400+1024]
	clear(sb)

	if opts.BlocksCount == 0 {
		opts.BlocksCount = uint64(len(buf)) / (1024 << opts.LogBlockSize)
	}

	le.PutUint32(sb[0x00:], 1024)
	le.PutUint32(sb[0x04:], uint32(opts.BlocksCount))
	le.PutUint32(sb[0x18:], opts.LogBlockSize)
	sb[0x38], sb[0x39] = 0x53, 0xef
	le.PutUint16(sb[0x3e:], opts.MinorRevLevel)
	le.PutUint32(sb[0x4c:], 1)
	le.PutUint32(sb[0x5c:], opts.Compat)
	le.PutUint32(sb[0x60:], opts.Incompat)
	le.PutUint32(sb[0x64:], opts.ROCompat)
	copy(sb[0x68:0x78], opts.UUID[:])
	copy(sb[0x78:0x88], opts.Label)
	copy(sb[0x88:0xc8], opts.LastMounted)
	copy(sb[0xd0:0xe0], opts.JournalUUID[:])
	le.PutUint32(sb[0x150:], uint32(opts.BlocksCount>>32))

	if opts.ROCompat&0x0400 != 0 {
		csum := utils.CRC32c(sb[:1020])

		if opts.BadChecksum {
			csum++
		}

		le.PutUint32(sb[0x3fc:], csum)
	}
}

// XFSOptions describes an XFS superblock.
type XFSOptions struct {
	Label string
	UUID  uuid.UUID

	DataBlocks uint64

	V5          bool
	BadChecksum bool
}

// WriteXFS writes an XFS superblock with 4KiB blocks and 512-byte sectors.
func WriteXFS(buf []byte, opts XFSOptions) {
	sb := buf[:512]
	clear(sb)

	if opts.DataBlocks == 0 {
		opts.DataBlocks = uint64(len(buf)) / 4096
	}

	copy(sb[0:], "XFSB")
	be.PutUint32(sb[4:], 4096)
	be.PutUint64(sb[8:], opts.DataBlocks)
	copy(sb[32:48], opts.UUID[:])
	be.PutUint32(sb[80:], 1)  // rextsize
	be.PutUint32(sb[84:], 16) // agblocks
	be.PutUint32(sb[88:], 4)  // agcount

	version := uint16(0xb4a4)
	if opts.V5 {
		version = 0xb4a5
	}

	be.PutUint16(sb[100:], version)
	be.PutUint16(sb[102:], 512)
	be.PutUint16(sb[104:], 512)
	be.PutUint16(sb[106:], 8)
	copy(sb[108:120], opts.Label)
	sb[120] = 12 // blocklog
	sb[121] = 9  // sectlog
	sb[122] = 9  // inodelog
	sb[123] = 3  // inopblog
	sb[127] = 25 // imax_pct

	if opts.V5 {
		crc := ^utils.CRC32c(sb)

		if opts.BadChecksum {
			crc++
		}

		le.PutUint32(sb[224:], crc)
	}
}

// FATType is a FAT flavor.
type FATType int

// FAT flavors.
const (
	FAT12 FATType = iota
	FAT16
	FAT32
)

// VFATOptions describes a FAT boot sector.
type VFATOptions struct {
	Label        string
	RootDirLabel string
	Serial       uint32
	Type         FATType
}

// WriteVFAT writes a FAT boot sector covering the whole buffer, with one sector per cluster.
func WriteVFAT(buf []byte, opts VFATOptions) {
	bs := buf[:512]
	clear(bs)

	totalSectors := uint32(len(buf) / 512)

	copy(bs[0:], []byte{0xeb, 0x3c, 0x90})
	copy(bs[3:], "MSDOS5.0")
	le.PutUint16(bs[0x0b:], 512)
	bs[0x0d] = 1
	bs[0x10] = 2
	bs[0x15] = 0xf8

	var reserved, fatLength uint32

	switch opts.Type {
	case FAT12, FAT16:
		reserved = 1

		entryBits := uint32(12)
		if opts.Type == FAT16 {
			entryBits = 16
		}

		fatLength = ((totalSectors+2)*entryBits/8 + 511) / 512

		le.PutUint16(bs[0x11:], 512)
		le.PutUint16(bs[0x16:], uint16(fatLength))
		bs[0x26] = 0x29
		le.PutUint32(bs[0x27:], opts.Serial)
		padded(bs[0x2b:0x36], opts.Label, ' ')

		if opts.Type == FAT16 {
			copy(bs[0x36:], "FAT16   ")
		} else {
			copy(bs[0x36:], "FAT12   ")
		}
	case FAT32:
		reserved = 32
		fatLength = ((totalSectors+2)*4 + 511) / 512

		le.PutUint32(bs[0x24:], fatLength)
		le.PutUint32(bs[0x2c:], 2) // root cluster
		le.PutUint16(bs[0x30:], 1) // fsinfo sector
		bs[0x42] = 0x29
		le.PutUint32(bs[0x43:], opts.Serial)
		padded(bs[0x47:0x52], opts.Label, ' ')
		copy(bs[0x52:], "FAT32   ")
	}

	le.PutUint16(bs[0x0e:], uint16(reserved))

	if totalSectors < 0x10000 && opts.Type != FAT32 {
		le.PutUint16(bs[0x13:], uint16(totalSectors))
	} else {
		le.PutUint32(bs[0x20:], totalSectors)
	}

	bs[510], bs[511] = 0x55, 0xaa

	if opts.RootDirLabel != "" && opts.Type != FAT32 {
		root := (reserved + 2*fatLength) * 512
		entry := buf[root : root+32]

		padded(entry[:11], opts.RootDirLabel, ' ')
		entry[11] = 0x08
	}
}

// SwapOptions describes a Linux swap header.
type SwapOptions struct {
	Label string
	UUID  uuid.UUID

	PageSize uint32
	LastPage uint32

	BigEndian bool
	V0        bool
}

// WriteSwap writes a swap signature and header.
func WriteSwap(buf []byte, opts SwapOptions) {
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = 4096
	}

	clear(buf[:pageSize])

	if opts.V0 {
		copy(buf[pageSize-10:], "SWAP-SPACE")

		return
	}

	copy(buf[pageSize-10:], "SWAPSPACE2")

	var order binary.ByteOrder = le
	if opts.BigEndian {
		order = be
	}

	hdr := buf[1024 : 1024+44]
	order.PutUint32(hdr[0:], 1)
	order.PutUint32(hdr[4:], opts.LastPage)
	copy(hdr[12:28], opts.UUID[:])
	copy(hdr[28:44], opts.Label)
}

// LVM2Options describes an LVM2 PV label.
type LVM2Options struct {
	// PVUUID is the 32 characters PV UUID without dashes.
	PVUUID string
	// Sector of the label, 0 or 1.
	Sector int

	BadChecksum bool
}

// WriteLVM2 writes an LVM2 PV label.
func WriteLVM2(buf []byte, opts LVM2Options) {
	label := buf[opts.Sector*512 : opts.Sector*512+512]
	clear(label)

	copy(label[0:], "LABELONE")
	le.PutUint64(label[8:], uint64(opts.Sector))
	le.PutUint32(label[20:], 32)
	copy(label[24:], "LVM2 001")
	copy(label[32:64], opts.PVUUID)

	crc := utils.LVM2CRC(label[20:])
	if opts.BadChecksum {
		crc++
	}

	le.PutUint32(label[16:], crc)
}

// LUKSOptions describes a LUKS header.
type LUKSOptions struct {
	UUID    string
	Label   string
	Version uint16
}

// WriteLUKS writes a LUKS1 or LUKS2 binary header.
func WriteLUKS(buf []byte, opts LUKSOptions) {
	hdr := buf[:512]
	clear(hdr)

	copy(hdr[0:], "LUKS\xba\xbe")
	be.PutUint16(hdr[6:], opts.Version)

	if opts.Version == 2 {
		be.PutUint64(hdr[8:], 16384)
		copy(hdr[24:72], opts.Label)
		copy(hdr[72:], "sha256")
	} else {
		copy(hdr[8:], "aes")
		copy(hdr[40:], "xts-plain64")
		copy(hdr[72:], "sha256")
	}

	copy(hdr[168:208], opts.UUID)
}
