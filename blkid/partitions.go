// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

import (
	"go.uber.org/zap"

	"github.com/siderolabs/go-blockprobe/blkid/internal/chain"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filter"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
)

// wholeDisk describes the disk the probed partition belongs to.
type wholeDisk struct {
	dev Device

	// devNo is "major:minor" of the disk.
	devNo string
	// offset of the probed partition on the disk (in bytes).
	offset uint64
}

func probePartitionTable(logger *zap.Logger, w *probe.Window, ioSize uint, f *filter.Filter) (*snapshot, error) {
	m, err := matchChain(logger, chain.Partitions(), f, w, ioSize, nil)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{}

	if m == nil {
		return snap, nil
	}

	snap.detector = m.Prober.Name()
	snap.add(KeyPTType, snap.detector)

	if m.result.UUID != nil {
		snap.add(KeyPTUUID, *m.result.UUID)
	}

	for _, part := range m.result.Parts {
		entry := PartitionEntry{
			Scheme: snap.detector,
			Number: part.Index,
			Offset: part.Offset,
			Size:   part.Size,
			Type:   part.Type,
			Flags:  part.Flags,
		}

		if part.UUID != nil {
			entry.UUID = *part.UUID
		}

		if part.Name != nil {
			entry.Name = *part.Name
		}

		snap.entries = append(snap.entries, entry)
	}

	for _, warning := range m.result.Warnings {
		logger.Warn("partition table warning", zap.String("table", snap.detector), zap.String("warning", warning))
	}

	snap.warnings = m.result.Warnings

	return snap, nil
}

// probePartitions probes the partition table of the device, and if the device is a partition itself,
// finds its entry in the partition table of the whole disk.
func probePartitions(logger *zap.Logger, w *probe.Window, ioSize uint, f *filter.Filter, disk *wholeDisk) (*snapshot, error) {
	snap, err := probePartitionTable(logger, w, ioSize, f)
	if err != nil {
		return nil, err
	}

	if disk == nil {
		return snap, nil
	}

	diskSize, err := disk.dev.GetSize()
	if err != nil {
		return nil, &IOError{Err: err}
	}

	diskWindow := probe.NewWindow(disk.dev, 0, diskSize, disk.dev.GetSectorSize())

	parent, err := probePartitionTable(logger.With(zap.String("disk", disk.devNo)), diskWindow, ioSize, nil)
	if err != nil {
		return nil, err
	}

	for _, entry := range parent.entries {
		if entry.Offset != disk.offset {
			continue
		}

		for _, v := range entry.Values() {
			if _, exists := snap.lookup(v.Key); !exists {
				snap.values = append(snap.values, v)
			}
		}

		snap.add(KeyPartEntryDisk, disk.devNo)

		break
	}

	return snap, nil
}
