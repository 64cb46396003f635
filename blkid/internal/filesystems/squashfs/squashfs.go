// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package squashfs probes Squash filesystems.
package squashfs

import (
	"encoding/binary"
	"fmt"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// SUPERBLOCK_SIZE is the size of the squashfs 4.x superblock.
//
//nolint:revive,stylecheck
const SUPERBLOCK_SIZE = 96

var squashfsMagic1 = magic.Magic{ // big endian
	Offset:    0,
	Value:     []byte("sqsh"),
	ByteOrder: binary.BigEndian,
}

var squashfsMagic2 = magic.Magic{ // little endian
	Offset:    0,
	Value:     []byte("hsqs"),
	ByteOrder: binary.LittleEndian,
}

// SuperBlock is a squashfs superblock.
//
// The version fields are at the same offsets in all squashfs versions.
type SuperBlock struct {
	buf   []byte
	order binary.ByteOrder
}

// BlockSize returns the data block size, 4.x only.
func (s SuperBlock) BlockSize() uint32 { return s.order.Uint32(s.buf[12:]) }

// VersionMajor returns the major version.
func (s SuperBlock) VersionMajor() uint16 { return s.order.Uint16(s.buf[28:]) }

// VersionMinor returns the minor version.
func (s SuperBlock) VersionMinor() uint16 { return s.order.Uint16(s.buf[30:]) }

// BytesUsed returns the size of the filesystem, 4.x only.
func (s SuperBlock) BytesUsed() uint64 { return s.order.Uint64(s.buf[40:]) }

func readSuperBlock(r probe.Reader, m magic.Magic) (SuperBlock, error) {
	buf, err := ioutil.ReadSection(r, 0, SUPERBLOCK_SIZE)
	if err != nil {
		return SuperBlock{}, err
	}

	return SuperBlock{buf: buf, order: m.Order(binary.LittleEndian)}, nil
}

// Probe for the squashfs 4.x filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{
		&squashfsMagic2,
	}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "squashfs"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageFilesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, m magic.Magic) (*probe.Result, error) {
	sb, err := readSuperBlock(r, m)
	if err != nil {
		return nil, err
	}

	if sb.VersionMajor() < 4 {
		return nil, nil //nolint:nilnil
	}

	return &probe.Result{
		Version: fmt.Sprintf("%d.%d", sb.VersionMajor(), sb.VersionMinor()),

		BlockSize:           sb.BlockSize(),
		FilesystemBlockSize: sb.BlockSize(),
		ProbedSize:          sb.BytesUsed(),
	}, nil
}

// Probe3 for the legacy squashfs filesystems (before 4.0), which could be of either byte order.
type Probe3 struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe3) Magic() []*magic.Magic {
	return []*magic.Magic{
		&squashfsMagic1,
		&squashfsMagic2,
	}
}

// Name returns the name of the filesystem.
func (p *Probe3) Name() string {
	return "squashfs3"
}

// Usage returns the usage of the filesystem.
func (p *Probe3) Usage() probe.Usage {
	return probe.UsageFilesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe3) Probe(r probe.Reader, m magic.Magic) (*probe.Result, error) {
	sb, err := readSuperBlock(r, m)
	if err != nil {
		return nil, err
	}

	if sb.VersionMajor() == 0 || sb.VersionMajor() >= 4 {
		return nil, nil //nolint:nilnil
	}

	return &probe.Result{
		Version:             fmt.Sprintf("%d.%d", sb.VersionMajor(), sb.VersionMinor()),
		FilesystemBlockSize: 1024,
	}, nil
}
