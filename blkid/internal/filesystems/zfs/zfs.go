// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package zfs probes ZFS filesystems.
package zfs

import (
	"encoding/binary"
	"strconv"

	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// https://github.com/util-linux/util-linux/blob/c0207d354ee47fb56acfa64b03b5b559bb301280/libblkid/src/superblocks/zfs.c
const (
	zfsUberblockCount = 128
	zfsUberblockSize  = 1024
	zfsUberblockHdr   = 40
	zfsVdevLabelSize  = 1024 * 256
	zfsNVListOffset   = 1024 * 16
	zfsNVListSize     = 1024 * 112
	zfsStartOffset    = 1024 * 128
	zfsMinUberblocks  = 4 // Number of uberblocks to be found
)

const (
	zfsMagic     = uint64(0x00bab10c)
	zfsMagicSwap = uint64(0x0cb1ba00) // endian-swapped
)

// nullMagic matches always.
var nullMagic = magic.Magic{}

// Uberblock is a ZFS uberblock header.
type Uberblock struct {
	buf   []byte
	order binary.ByteOrder
}

// Version returns ub_version.
func (ub Uberblock) Version() uint64 { return ub.order.Uint64(ub.buf[8:]) }

// GUIDSum returns ub_guid_sum.
func (ub Uberblock) GUIDSum() uint64 { return ub.order.Uint64(ub.buf[24:]) }

func parseUberblock(buf []byte) (Uberblock, bool) {
	switch binary.LittleEndian.Uint64(buf) {
	case zfsMagic:
		return Uberblock{buf: buf, order: binary.LittleEndian}, true
	case zfsMagicSwap:
		return Uberblock{buf: buf, order: binary.BigEndian}, true
	default:
		return Uberblock{}, false
	}
}

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&nullMagic}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "zfs_member"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageFilesystem
}

// LabelOffsets returns offsets of the four vdev labels for the device of the specified size.
func LabelOffsets(size uint64) []uint64 {
	if size < 2*zfsVdevLabelSize {
		return nil
	}

	// trailing labels are aligned to the label size
	aligned := size - size%zfsVdevLabelSize

	return []uint64{
		0,
		zfsVdevLabelSize,
		aligned - 2*zfsVdevLabelSize,
		aligned - zfsVdevLabelSize,
	}
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	var (
		first       *Uberblock
		labelOffset uint64
	)

	found := 0

	for _, offset := range LabelOffsets(r.GetSize()) {
		ring, err := ioutil.ReadSection(r, int64(offset+zfsStartOffset), zfsUberblockCount*zfsUberblockSize)
		if err != nil {
			return nil, err
		}

		for i := range zfsUberblockCount {
			ubOffset := i * zfsUberblockSize

			ub, ok := parseUberblock(ring[ubOffset : ubOffset+zfsUberblockHdr])
			if !ok {
				continue
			}

			if first == nil {
				first = &ub
				labelOffset = offset
			}

			found++
		}

		if found >= zfsMinUberblocks {
			break
		}
	}

	if found < zfsMinUberblocks {
		// Not enough uberblocks
		return nil, nil //nolint:nilnil
	}

	res := &probe.Result{
		Version: strconv.FormatUint(first.Version(), 10),
	}

	nvlist, err := ioutil.ReadSection(r, int64(labelOffset+zfsNVListOffset), zfsNVListSize)
	if err != nil {
		return nil, err
	}

	pairs := ParseNVList(nvlist)

	if name, ok := pairs["name"].(string); ok && name != "" {
		res.Label = pointer.To(name)
	}

	if poolGUID, ok := pairs["pool_guid"].(uint64); ok {
		res.UUID = pointer.To(strconv.FormatUint(poolGUID, 10))
	}

	if guid, ok := pairs["guid"].(uint64); ok {
		res.UUIDSub = pointer.To(strconv.FormatUint(guid, 10))
	}

	return res, nil
}
