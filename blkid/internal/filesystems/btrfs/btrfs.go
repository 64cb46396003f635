// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package btrfs probes Btrfs filesystems.
package btrfs

import (
	"encoding/binary"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// Btrfs superblock constants.
//
//nolint:revive,stylecheck
const (
	SUPERBLOCK_OFFSET = 0x10000
	SUPERBLOCK_SIZE   = 4096

	BTRFS_CSUM_SIZE       = 32
	BTRFS_CSUM_TYPE_CRC32 = 0
	BTRFS_LABEL_SIZE      = 256
)

var btrfsMagic = magic.Magic{
	Offset: SUPERBLOCK_OFFSET + 0x40,
	Value:  []byte("_BHRfS_M"),
}

// SuperBlock is a btrfs superblock, all fields are little-endian.
type SuperBlock []byte

// Checksum returns the first four bytes of the checksum field.
func (s SuperBlock) Checksum() uint32 { return binary.LittleEndian.Uint32(s[0x00:]) }

// FSID returns the raw filesystem UUID.
func (s SuperBlock) FSID() []byte { return s[0x20:0x30] }

// BytesNr returns the physical address of this superblock.
func (s SuperBlock) BytesNr() uint64 { return binary.LittleEndian.Uint64(s[0x30:]) }

// TotalBytes returns the size of the filesystem.
func (s SuperBlock) TotalBytes() uint64 { return binary.LittleEndian.Uint64(s[0x70:]) }

// SectorSize returns the sector size.
func (s SuperBlock) SectorSize() uint32 { return binary.LittleEndian.Uint32(s[0x90:]) }

// NodeSize returns the tree node size.
func (s SuperBlock) NodeSize() uint32 { return binary.LittleEndian.Uint32(s[0x94:]) }

// CSumType returns the checksum algorithm.
func (s SuperBlock) CSumType() uint16 { return binary.LittleEndian.Uint16(s[0xc4:]) }

// DevUUID returns the raw UUID of the device in the dev_item.
func (s SuperBlock) DevUUID() []byte { return s[0x10b:0x11b] }

// Label returns the raw filesystem label.
func (s SuperBlock) Label() []byte { return s[0x12b : 0x12b+BTRFS_LABEL_SIZE] }

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&btrfsMagic}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "btrfs"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageFilesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	buf, err := ioutil.ReadSection(r, SUPERBLOCK_OFFSET, SUPERBLOCK_SIZE)
	if err != nil {
		return nil, err
	}

	sb := SuperBlock(buf)

	if sb.BytesNr() != SUPERBLOCK_OFFSET || !utils.IsPowerOf2(sb.SectorSize()) {
		return nil, nil //nolint:nilnil
	}

	res := &probe.Result{
		UUID:     utils.UUID(sb.FSID()),
		UUIDRaw:  sb.FSID(),
		UUIDSub:  utils.UUID(sb.DevUUID()),
		Label:    utils.Label(sb.Label()),
		LabelRaw: sb.Label(),

		BlockSize:           sb.SectorSize(),
		FilesystemBlockSize: sb.SectorSize(),
		ProbedSize:          sb.TotalBytes(),
	}

	// other checksum algorithms are not verified
	if sb.CSumType() == BTRFS_CSUM_TYPE_CRC32 {
		res.BadChecksum = ^utils.CRC32c(buf[BTRFS_CSUM_SIZE:]) != sb.Checksum()
	}

	return res, nil
}
