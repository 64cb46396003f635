// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package lvm2 probes LVM2 PVs.
package lvm2

import (
	"encoding/binary"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// LVM2 label constants.
//
//nolint:revive,stylecheck
const (
	LABEL_SIZE       = 512
	LABEL_ID         = "LABELONE"
	LABEL_TYPE       = "LVM2 001"
	LABEL_TYPE_OFF   = 0x18
	LABEL_CRC_START  = 20
	PV_UUID_LEN      = 32
	SECTOR_SHIFT_512 = 9
)

var (
	lvmMagic1 = magic.Magic{
		Offset: 0x018,
		Value:  []byte(LABEL_TYPE),
	}

	lvmMagic2 = magic.Magic{
		Offset: 0x218,
		Value:  []byte(LABEL_TYPE),
	}
)

// LabelHeader is the LVM2 label sector.
type LabelHeader []byte

// ID returns the label id.
func (h LabelHeader) ID() string { return string(h[0:8]) }

// Sector returns the sector number the label claims to be at.
func (h LabelHeader) Sector() uint64 { return binary.LittleEndian.Uint64(h[8:16]) }

// CRC returns the label checksum.
func (h LabelHeader) CRC() uint32 { return binary.LittleEndian.Uint32(h[16:20]) }

// Offset returns the offset of the PV header in the label sector.
func (h LabelHeader) Offset() uint32 { return binary.LittleEndian.Uint32(h[20:24]) }

// Type returns the label type.
func (h LabelHeader) Type() string { return string(h[24:32]) }

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{
		&lvmMagic1,
		&lvmMagic2,
	}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "LVM2_member"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageRaid
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, m magic.Magic) (*probe.Result, error) {
	labelOffset := int64(m.Offset - LABEL_TYPE_OFF)

	buf, err := ioutil.ReadSection(r, labelOffset, LABEL_SIZE)
	if err != nil {
		return nil, err
	}

	hdr := LabelHeader(buf)

	if hdr.ID() != LABEL_ID || hdr.Type() != LABEL_TYPE {
		return nil, nil //nolint:nilnil
	}

	if hdr.Sector() != uint64(labelOffset>>SECTOR_SHIFT_512) {
		return nil, nil //nolint:nilnil
	}

	pvOffset := int(hdr.Offset())
	if pvOffset < 32 || pvOffset+PV_UUID_LEN > LABEL_SIZE {
		return nil, nil //nolint:nilnil
	}

	// LVM2 UUIDs aren't 16 bytes, they are 32 characters rendered in 6-4-4-4-4-4-6 groups
	pvUUID := string(buf[pvOffset : pvOffset+PV_UUID_LEN])
	pvUUID = pvUUID[:6] + "-" + pvUUID[6:10] + "-" + pvUUID[10:14] +
		"-" + pvUUID[14:18] + "-" + pvUUID[18:22] +
		"-" + pvUUID[22:26] + "-" + pvUUID[26:]

	return &probe.Result{
		UUID:        &pvUUID,
		UUIDRaw:     buf[pvOffset : pvOffset+PV_UUID_LEN],
		Version:     LABEL_TYPE,
		BadChecksum: utils.LVM2CRC(buf[LABEL_CRC_START:]) != hdr.CRC(),
	}, nil
}
