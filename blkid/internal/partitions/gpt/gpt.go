// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gpt probes GPT partition tables.
package gpt

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"
	"golang.org/x/text/encoding/unicode"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blockprobe/internal/gptstructs"
	"github.com/siderolabs/go-blockprobe/internal/gptutil"
)

// nullMagic matches always.
var nullMagic = magic.Magic{}

// Probe for the partition table.
type Probe struct{}

// Magic returns the magic value for the partition table.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&nullMagic}
}

// Name returns the name of the partition table.
func (p *Probe) Name() string {
	return "gpt"
}

// Usage returns the usage of the partition table.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageOther
}

const primaryLBA = 1

// Probe runs the further inspection and returns the result if successful.
//
//nolint:gocyclo,cyclop
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	lastLBA, ok := gptutil.LastLBA(r)
	if !ok || lastLBA <= primaryLBA {
		return nil, nil //nolint:nilnil
	}

	result := &probe.Result{}

	// try reading primary header
	hdr, entries, err := gptstructs.ReadHeader(r, primaryLBA, lastLBA)
	if err != nil {
		return nil, err
	}

	if hdr == nil {
		// try reading backup header
		hdr, entries, err = gptstructs.ReadHeader(r, lastLBA, lastLBA)
		if err != nil {
			return nil, err
		}

		if hdr != nil {
			result.Warnings = append(result.Warnings, "primary GPT header is corrupted, using backup header")
		}
	}

	if hdr == nil {
		// no header, skip
		return nil, nil //nolint:nilnil
	}

	sectorSize := uint64(r.GetSectorSize())
	firstUsableLBA := hdr.FirstUsableLBA()
	lastUsableLBA := hdr.LastUsableLBA()

	result.UUID = guidString(hdr.DiskGUID())
	result.BlockSize = uint32(sectorSize)
	result.ProbedSize = sectorSize * (lastUsableLBA - firstUsableLBA + 1)

	zeroGUID := make([]byte, 16)
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	for i, entry := range entries {
		partIdx := uint(i + 1)

		// skip zero GUIDs
		if bytes.Equal(entry.PartitionTypeGUID(), zeroGUID) {
			continue
		}

		if entry.EndingLBA() < entry.StartingLBA() ||
			entry.StartingLBA() < firstUsableLBA || entry.EndingLBA() > lastUsableLBA {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("GPT entry %d is outside of the usable range [%d, %d]", partIdx, firstUsableLBA, lastUsableLBA))

			continue
		}

		part := probe.Partition{
			UUID: guidString(entry.UniquePartitionGUID()),
			Type: *guidString(entry.PartitionTypeGUID()),

			Index: partIdx,
			Flags: entry.Attributes(),

			Offset: entry.StartingLBA() * sectorSize,
			Size:   (entry.EndingLBA() - entry.StartingLBA() + 1) * sectorSize,
		}

		name, err := utf16.NewDecoder().Bytes(entry.PartitionName())
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("GPT entry %d has invalid name: %s", partIdx, err))
		} else if name = utils.CString(name); len(name) > 0 {
			part.Name = pointer.To(string(name))
		}

		result.Parts = append(result.Parts, part)
	}

	return result, nil
}

func guidString(guid []byte) *string {
	if utils.IsZero(guid) {
		return nil
	}

	u, err := uuid.FromBytes(gptutil.GUIDToUUID(guid))
	if err != nil {
		return nil
	}

	return pointer.To(u.String())
}
