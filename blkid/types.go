// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

import (
	"fmt"
	"strconv"

	"github.com/siderolabs/go-blockprobe/blkid/internal/filter"
)

// Category of signatures.
type Category int

// Categories.
const (
	Superblocks Category = iota
	Partitions

	numCategories
)

func (c Category) String() string {
	switch c {
	case Superblocks:
		return "superblocks"
	case Partitions:
		return "partitions"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

func (c Category) valid() bool {
	return c >= 0 && c < numCategories
}

// FilterMode defines how the filter names are applied.
type FilterMode int

// Filter modes.
const (
	// FilterInclude probes only the listed detectors.
	FilterInclude FilterMode = iota
	// FilterExclude probes everything except the listed detectors.
	FilterExclude
)

func (m FilterMode) mode() filter.Mode {
	if m == FilterInclude {
		return filter.Include
	}

	return filter.Exclude
}

// Value is a single probing result.
type Value struct {
	Key   string
	Value string
}

// Geometry of the attached device.
type Geometry struct {
	// DeviceSize is the overall size of the device (in bytes).
	DeviceSize uint64
	// ProbedSize is the size of the probed window (in bytes).
	ProbedSize uint64
	// SectorSize of the device (in bytes).
	SectorSize uint
	// IOSize is the optimal I/O size for the device (in bytes).
	IOSize uint
}

// PartitionEntry is a single partition of the detected partition table.
type PartitionEntry struct { //nolint:govet
	// Scheme is the partition table type, e.g. "gpt".
	Scheme string
	// Number is the 1-based number of the partition.
	Number uint

	// Offset and Size are in bytes.
	Offset uint64
	Size   uint64

	// Type is a type GUID for GPT, hex type code for DOS.
	Type string
	UUID string
	Name string

	Flags uint64
}

// Values renders the partition entry as PART_ENTRY_* values.
//
// PART_ENTRY_OFFSET is reported in 512-byte sectors.
func (e PartitionEntry) Values() []Value {
	values := []Value{
		{Key: KeyPartEntryScheme, Value: e.Scheme},
	}

	if e.Name != "" {
		values = append(values, Value{Key: KeyPartEntryName, Value: e.Name})
	}

	if e.UUID != "" {
		values = append(values, Value{Key: KeyPartEntryUUID, Value: e.UUID})
	}

	return append(values,
		Value{Key: KeyPartEntryType, Value: e.Type},
		Value{Key: KeyPartEntryFlags, Value: fmt.Sprintf("0x%x", e.Flags)},
		Value{Key: KeyPartEntryNumber, Value: strconv.FormatUint(uint64(e.Number), 10)},
		Value{Key: KeyPartEntryOffset, Value: strconv.FormatUint(e.Offset/512, 10)},
	)
}
