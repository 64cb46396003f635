// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package dos probes DOS (MBR) partition tables.
package dos

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/vfat"
	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// MBR layout constants.
//
//nolint:revive,stylecheck
const (
	MBR_SIZE             = 512
	MBR_DISK_ID_OFFSET   = 0x1b8
	MBR_PT_OFFSET        = 0x1be
	MBR_ENTRY_SIZE       = 16
	MBR_PRIMARY_ENTRIES  = 4
	MBR_SIGNATURE_OFFSET = 0x1fe

	MBR_EXTENDED_PARTITION     = 0x05
	MBR_WIN98_EXTENDED         = 0x0f
	MBR_LINUX_EXTENDED         = 0x85
	MBR_GPT_PROTECTIVE         = 0xee
	MBR_BOOTABLE_FLAG          = 0x80
	MBR_MAX_LOGICAL_PARTITIONS = 100
	MBR_FIRST_LOGICAL_NUMBER   = 5
)

var mbrMagic = magic.Magic{
	Offset: MBR_SIGNATURE_OFFSET,
	Value:  []byte{0x55, 0xaa},
}

// Entry is a single MBR/EBR partition record.
type Entry []byte

// BootInd returns the boot indicator.
func (e Entry) BootInd() uint8 { return e[0] }

// SysInd returns the partition type.
func (e Entry) SysInd() uint8 { return e[4] }

// StartSect returns the first sector of the partition relative to the table.
func (e Entry) StartSect() uint32 { return binary.LittleEndian.Uint32(e[8:]) }

// NrSects returns the number of sectors in the partition.
func (e Entry) NrSects() uint32 { return binary.LittleEndian.Uint32(e[12:]) }

// IsExtended returns true if the entry is an extended partition container.
func (e Entry) IsExtended() bool {
	switch e.SysInd() {
	case MBR_EXTENDED_PARTITION, MBR_WIN98_EXTENDED, MBR_LINUX_EXTENDED:
		return true
	default:
		return false
	}
}

func entries(sector []byte, n int) []Entry {
	result := make([]Entry, n)

	for i := range result {
		off := MBR_PT_OFFSET + i*MBR_ENTRY_SIZE
		result[i] = Entry(sector[off : off+MBR_ENTRY_SIZE])
	}

	return result
}

// Probe for the partition table.
type Probe struct{}

// Magic returns the magic value for the partition table.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&mbrMagic}
}

// Name returns the name of the partition table.
func (p *Probe) Name() string {
	return "dos"
}

// Usage returns the usage of the partition table.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageOther
}

// Probe runs the further inspection and returns the result if successful.
//
//nolint:gocyclo,cyclop
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	mbr, err := ioutil.ReadSection(r, 0, MBR_SIZE)
	if err != nil {
		return nil, err
	}

	// a partitionless FAT volume carries the same signature
	if vfat.IsBootSector(mbr) {
		return nil, nil //nolint:nilnil
	}

	primary := entries(mbr, MBR_PRIMARY_ENTRIES)

	for _, entry := range primary {
		if entry.BootInd() != 0 && entry.BootInd() != MBR_BOOTABLE_FLAG {
			return nil, nil //nolint:nilnil
		}

		// protective MBR, the disk is GPT
		if entry.SysInd() == MBR_GPT_PROTECTIVE {
			return nil, nil //nolint:nilnil
		}
	}

	sectorSize := uint64(r.GetSectorSize())
	diskSectors := r.GetSize() / sectorSize
	diskID := binary.LittleEndian.Uint32(mbr[MBR_DISK_ID_OFFSET:])

	result := &probe.Result{
		BlockSize: uint32(sectorSize),
	}

	if diskID != 0 {
		result.UUID = pointer.To(fmt.Sprintf("%08x", diskID))
	}

	addPartition := func(entry Entry, index uint, start uint64) bool {
		size := uint64(entry.NrSects())

		if start+size > diskSectors {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("DOS partition %d at sector %d overflows the device", index, start))

			return false
		}

		part := probe.Partition{
			Type:   fmt.Sprintf("0x%x", entry.SysInd()),
			Index:  index,
			Flags:  uint64(entry.BootInd()),
			Offset: start * sectorSize,
			Size:   size * sectorSize,
		}

		if diskID != 0 {
			part.UUID = pointer.To(fmt.Sprintf("%08x-%02x", diskID, index))
		}

		result.Parts = append(result.Parts, part)

		return true
	}

	var extended []uint64

	for i, entry := range primary {
		if entry.NrSects() == 0 {
			continue
		}

		start := uint64(entry.StartSect())

		if addPartition(entry, uint(i+1), start) && entry.IsExtended() {
			extended = append(extended, start)
		}
	}

	logicalIndex := uint(MBR_FIRST_LOGICAL_NUMBER)

	for _, start := range extended {
		if err := p.walkExtended(r, start, sectorSize, &logicalIndex, result, addPartition); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// walkExtended follows the EBR chain of the extended partition starting at the specified sector.
func (p *Probe) walkExtended(
	r probe.Reader, extStart, sectorSize uint64, logicalIndex *uint, result *probe.Result,
	addPartition func(Entry, uint, uint64) bool,
) error {
	visited := map[uint64]struct{}{}
	current := extStart

	for range MBR_MAX_LOGICAL_PARTITIONS {
		if _, seen := visited[current]; seen {
			result.Warnings = append(result.Warnings, fmt.Sprintf("DOS extended partition chain loops at sector %d", current))

			return nil
		}

		visited[current] = struct{}{}

		ebr, err := ioutil.ReadSection(r, int64(current*sectorSize), MBR_SIZE)
		if err != nil {
			if errors.Is(err, probe.ErrOutOfBounds) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("DOS EBR at sector %d is outside of the device", current))

				return nil
			}

			return err
		}

		if ebr[MBR_SIGNATURE_OFFSET] != 0x55 || ebr[MBR_SIGNATURE_OFFSET+1] != 0xaa {
			result.Warnings = append(result.Warnings, fmt.Sprintf("DOS EBR at sector %d has no signature", current))

			return nil
		}

		var next uint64

		// only the first two records are used in an EBR
		for _, entry := range entries(ebr, 2) {
			if entry.NrSects() == 0 {
				continue
			}

			if entry.IsExtended() {
				// links are relative to the start of the extended partition
				if next == 0 {
					next = extStart + uint64(entry.StartSect())
				}

				continue
			}

			// data partitions are relative to the EBR
			if addPartition(entry, *logicalIndex, current+uint64(entry.StartSect())) {
				*logicalIndex++
			}
		}

		if next == 0 {
			// terminator EBR
			return nil
		}

		current = next
	}

	result.Warnings = append(result.Warnings,
		fmt.Sprintf("DOS extended partition has more than %d logical partitions", MBR_MAX_LOGICAL_PARTITIONS))

	return nil
}
