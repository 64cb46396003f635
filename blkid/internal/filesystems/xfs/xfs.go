// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package xfs probes XFS filesystems.
package xfs

import (
	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
)

var xfsMagic = magic.Magic{
	Offset: 0,
	Value:  []byte("XFSB"),
}

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&xfsMagic}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "xfs"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageFilesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	buf := make([]byte, SUPERBLOCK_SIZE)

	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, err
	}

	sb := SuperBlock(buf)
	if !sb.Valid() {
		return nil, nil //nolint:nilnil
	}

	res := &probe.Result{
		UUID:     utils.UUID(sb.UUID()),
		UUIDRaw:  sb.UUID(),
		Label:    utils.Label(sb.FName()),
		LabelRaw: sb.FName(),

		BlockSize:           uint32(sb.SectSize()),
		FilesystemBlockSize: sb.BlockSizeBytes(),
		ProbedSize:          sb.FilesystemSize(),
	}

	if sb.Version() == XFS_SB_VERSION_5 {
		// v5 superblocks are checksummed over the whole sector with the crc field zeroed
		sector := make([]byte, sb.SectSize())

		if _, err := r.ReadAt(sector, 0); err != nil {
			return nil, err
		}

		crc := sb.CRC()

		clear(sector[XFS_SB_CRC_OFFSET : XFS_SB_CRC_OFFSET+4])

		res.BadChecksum = ^utils.CRC32c(sector) != crc
	}

	return res, nil
}
