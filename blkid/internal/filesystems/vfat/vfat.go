// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package vfat probes FAT12/FAT16/FAT32 filesystems.
package vfat

import (
	"bytes"
	"fmt"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

var (
	fatMagic1 = magic.Magic{
		Offset: 0x52,
		Value:  []byte("MSWIN"),
	}

	fatMagic2 = magic.Magic{
		Offset: 0x52,
		Value:  []byte("FAT32   "),
	}

	fatMagic3 = magic.Magic{
		Offset: 0x36,
		Value:  []byte("MSDOS"),
	}

	fatMagic4 = magic.Magic{
		Offset: 0x36,
		Value:  []byte("FAT16   "),
	}

	fatMagic5 = magic.Magic{
		Offset: 0x36,
		Value:  []byte("FAT12   "),
	}

	fatMagic6 = magic.Magic{
		Offset: 0x36,
		Value:  []byte("FAT     "),
	}

	magics = []*magic.Magic{
		&fatMagic1,
		&fatMagic2,
		&fatMagic3,
		&fatMagic4,
		&fatMagic5,
		&fatMagic6,
	}
)

var noName = []byte("NO NAME    ")

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return magics
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "vfat"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageFilesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	buf, err := ioutil.ReadSection(r, 0, BOOTSECTOR_SIZE)
	if err != nil {
		return nil, err
	}

	bs := BootSector(buf)

	if !isValid(bs) {
		return nil, nil //nolint:nilnil
	}

	sectorSize := uint32(bs.SectorSize())

	res := &probe.Result{
		BlockSize:           sectorSize,
		FilesystemBlockSize: uint32(bs.ClusterSize()) * sectorSize,
		ProbedSize:          uint64(bs.SectorCount()) * uint64(sectorSize),
	}

	var (
		label, serial []byte
		bootSign      uint8
	)

	if bs.FATLength() != 0 {
		res.SecType = "msdos"

		if bs.ClusterCount() <= FAT12_MAX {
			res.Version = "FAT12"
		} else {
			res.Version = "FAT16"
		}

		label, err = rootDirLabel(r, bs)
		if err != nil {
			return nil, err
		}

		if label == nil && !bytes.Equal(bs.MSDOSLabel(), noName) {
			label = bs.MSDOSLabel()
		}

		serial, bootSign = bs.MSDOSSerial(), bs.MSDOSBootSign()
	} else {
		res.Version = "FAT32"

		if !bytes.Equal(bs.VFATLabel(), noName) {
			label = bs.VFATLabel()
		}

		serial, bootSign = bs.VFATSerial(), bs.VFATBootSign()
	}

	if label != nil {
		res.Label = utils.SpacePaddedLabel(label)
		res.LabelRaw = label
	}

	if bootSign == 0x28 || bootSign == 0x29 {
		uuid := fmt.Sprintf("%02X%02X-%02X%02X", serial[3], serial[2], serial[1], serial[0])
		res.UUID = &uuid
		res.UUIDRaw = serial
	}

	return res, nil
}

// rootDirLabel looks up the volume label entry in the fixed FAT12/16 root directory.
func rootDirLabel(r probe.Reader, bs BootSector) ([]byte, error) {
	start := (uint64(bs.Reserved()) + uint64(bs.FATs())*uint64(bs.FATSectors())) * uint64(bs.SectorSize())
	length := uint64(bs.DirEntries()) * DIR_ENTRY_SIZE

	if length == 0 || start+length > r.GetSize() {
		return nil, nil
	}

	dir, err := ioutil.ReadSection(r, int64(start), int(length))
	if err != nil {
		return nil, err
	}

	for off := 0; off+DIR_ENTRY_SIZE <= len(dir); off += DIR_ENTRY_SIZE {
		entry := dir[off : off+DIR_ENTRY_SIZE]

		switch {
		case entry[0] == 0:
			return nil, nil
		case entry[0] == DELETED_FLAG:
			continue
		case entry[11]&ATTR_LONG_NAME == ATTR_LONG_NAME:
			continue
		case entry[11]&(ATTR_VOLUME_ID|ATTR_DIR) == ATTR_VOLUME_ID:
			if bytes.Equal(entry[:11], noName) {
				return nil, nil
			}

			return entry[:11], nil
		}
	}

	return nil, nil
}

func isValid(bs BootSector) bool {
	switch {
	case bs.FATs() == 0,
		bs.Reserved() == 0,
		!(bs.Media() >= 0xf8 || bs.Media() == 0xf0),
		!utils.IsPowerOf2(bs.ClusterSize()),
		!utils.IsPowerOf2(bs.SectorSize()),
		bs.SectorSize() < 512 || bs.SectorSize() > 4096:
		return false
	}

	return bs.ClusterCount() <= FAT32_MAX
}

// IsBootSector reports whether the sector looks like a FAT boot sector.
//
// A FAT boot sector also carries 0x55AA at 510, so partition table detection
// uses it to avoid treating a partitionless FAT volume as an MBR.
func IsBootSector(buf []byte) bool {
	if len(buf) < BOOTSECTOR_SIZE {
		return false
	}

	for _, m := range magics {
		if m.Matches(buf) {
			return isValid(BootSector(buf))
		}
	}

	return false
}
