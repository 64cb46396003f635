// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package iso9660 probes ISO9660 filesystems.
package iso9660

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/siderolabs/go-pointer"
	"golang.org/x/text/encoding/unicode"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

const (
	superblockOffset = 0x8000
)

var isoMagic = magic.Magic{
	Offset: superblockOffset + 1,
	Value:  []byte("CD001"),
}

const (
	vdMax           = 16
	vdEnd           = 0xff
	vdBootRecord    = 0
	vdPrimary       = 1
	vdSupplementary = 2

	sectorSize = 2048
)

// VolumeDescriptor is an ISO9660 volume descriptor.
type VolumeDescriptor []byte

// Type returns the descriptor type.
func (vd VolumeDescriptor) Type() uint8 { return vd[0] }

// ID returns the standard identifier, "CD001".
func (vd VolumeDescriptor) ID() []byte { return vd[1:6] }

// BootSystemID returns the boot system identifier of the boot record.
func (vd VolumeDescriptor) BootSystemID() []byte { return vd[7:39] }

// SystemID returns the system identifier.
func (vd VolumeDescriptor) SystemID() []byte { return vd[8:40] }

// VolumeID returns the volume identifier.
func (vd VolumeDescriptor) VolumeID() []byte { return vd[40:72] }

// SpaceSize returns the number of logical blocks in the volume (little-endian half of both-endian field).
func (vd VolumeDescriptor) SpaceSize() uint32 { return binary.LittleEndian.Uint32(vd[80:84]) }

// EscapeSequences returns the escape sequences of the supplementary descriptor.
func (vd VolumeDescriptor) EscapeSequences() []byte { return vd[88:120] }

// LogicalBlockSize returns the logical block size (little-endian half of both-endian field).
func (vd VolumeDescriptor) LogicalBlockSize() uint16 { return binary.LittleEndian.Uint16(vd[128:130]) }

// PublisherID returns the publisher identifier.
func (vd VolumeDescriptor) PublisherID() []byte { return vd[318:446] }

// ApplicationID returns the application identifier.
func (vd VolumeDescriptor) ApplicationID() []byte { return vd[574:702] }

// Created returns the volume creation date.
func (vd VolumeDescriptor) Created() []byte { return vd[813:830] }

// Modified returns the volume modification date.
func (vd VolumeDescriptor) Modified() []byte { return vd[830:847] }

// Joliet returns true if the supplementary descriptor carries a Joliet escape sequence.
func (vd VolumeDescriptor) Joliet() bool {
	esc := vd.EscapeSequences()

	return bytes.Equal(esc[:3], []byte("%/@")) ||
		bytes.Equal(esc[:3], []byte("%/C")) ||
		bytes.Equal(esc[:3], []byte("%/E"))
}

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&isoMagic}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "iso9660"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageFilesystem
}

// Probe runs the further inspection and returns the result if successful.
//
//nolint:gocyclo,cyclop
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	var pvd, joliet, boot VolumeDescriptor

vdLoop:
	for i := range vdMax {
		buf, err := ioutil.ReadSection(r, superblockOffset+sectorSize*int64(i), sectorSize)
		if err != nil {
			if errors.Is(err, probe.ErrOutOfBounds) {
				break
			}

			return nil, err
		}

		vd := VolumeDescriptor(buf)

		if !bytes.Equal(vd.ID(), isoMagic.Value) {
			break
		}

		switch vd.Type() {
		case vdEnd:
			break vdLoop
		case vdBootRecord:
			if boot == nil {
				boot = vd
			}
		case vdPrimary:
			if pvd == nil {
				pvd = vd
			}
		case vdSupplementary:
			if joliet == nil && vd.Joliet() {
				joliet = vd
			}
		}
	}

	if pvd == nil {
		return nil, nil //nolint:nilnil
	}

	logicalBlockSize := pvd.LogicalBlockSize()

	res := &probe.Result{
		BlockSize:           uint32(logicalBlockSize),
		FilesystemBlockSize: uint32(logicalBlockSize),
		ProbedSize:          uint64(pvd.SpaceSize()) * uint64(logicalBlockSize),

		SystemID:      trimmed(pvd.SystemID()),
		PublisherID:   trimmed(pvd.PublisherID()),
		ApplicationID: trimmed(pvd.ApplicationID()),
	}

	if boot != nil {
		res.BootSystemID = trimmed(boot.BootSystemID())
	}

	if joliet != nil {
		res.Version = "Joliet Extension"

		if label, err := decodeUCS2(joliet.VolumeID()); err == nil && label != "" {
			res.Label = pointer.To(label)
		}
	}

	if res.Label == nil {
		res.Label = utils.SpacePaddedLabel(pvd.VolumeID())
	}

	res.LabelRaw = pvd.VolumeID()

	switch {
	case validDate(pvd.Modified()):
		res.UUID = pointer.To(dateUUID(pvd.Modified()))
	case validDate(pvd.Created()):
		res.UUID = pointer.To(dateUUID(pvd.Created()))
	}

	return res, nil
}

func trimmed(b []byte) string {
	return strings.TrimRight(string(utils.CString(b)), " ")
}

func decodeUCS2(b []byte) (string, error) {
	decoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(string(utils.CString(decoded)), " "), nil
}

// validDate returns true if the first 16 characters of an ISO9660 date field are set.
func validDate(date []byte) bool {
	for _, c := range date[:16] {
		if c != '0' && c != 0 {
			return true
		}
	}

	return false
}

// dateUUID formats "YYYYMMDDHHMMSSCC" date as "YYYY-MM-DD-HH-MM-SS-CC".
func dateUUID(date []byte) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s-%s-%s",
		date[0:4], date[4:6], date[6:8], date[8:10], date[10:12], date[12:14], date[14:16])
}
