// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package vfat

import "encoding/binary"

// Boot sector constants.
//
//nolint:revive,stylecheck
const (
	BOOTSECTOR_SIZE = 512

	FAT12_MAX = 0xff4
	FAT16_MAX = 0xfff4
	FAT32_MAX = 0x0ffffff6

	DIR_ENTRY_SIZE = 32
	ATTR_VOLUME_ID = 0x08
	ATTR_DIR       = 0x10
	ATTR_LONG_NAME = 0x0f
	DELETED_FLAG   = 0xe5
)

// BootSector is a FAT boot sector, the common BIOS Parameter Block followed
// by either the FAT12/16 or the FAT32 extended fields.
type BootSector []byte

func (b BootSector) u16(off int) uint16 { return binary.LittleEndian.Uint16(b[off:]) }
func (b BootSector) u32(off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }

// SectorSize returns the logical sector size.
func (b BootSector) SectorSize() uint16 { return b.u16(0x0b) }

// ClusterSize returns the number of sectors per cluster.
func (b BootSector) ClusterSize() uint8 { return b[0x0d] }

// Reserved returns the number of reserved sectors.
func (b BootSector) Reserved() uint16 { return b.u16(0x0e) }

// FATs returns the number of FATs.
func (b BootSector) FATs() uint8 { return b[0x10] }

// DirEntries returns the number of root directory entries (FAT12/16).
func (b BootSector) DirEntries() uint16 { return b.u16(0x11) }

// Sectors returns the 16-bit total sector count.
func (b BootSector) Sectors() uint16 { return b.u16(0x13) }

// Media returns the media descriptor.
func (b BootSector) Media() uint8 { return b[0x15] }

// FATLength returns the 16-bit FAT length in sectors, zero on FAT32.
func (b BootSector) FATLength() uint16 { return b.u16(0x16) }

// TotalSectors returns the 32-bit total sector count.
func (b BootSector) TotalSectors() uint32 { return b.u32(0x20) }

// FAT32Length returns the FAT32 FAT length in sectors.
func (b BootSector) FAT32Length() uint32 { return b.u32(0x24) }

// MSDOSBootSign returns the FAT12/16 extended boot signature.
func (b BootSector) MSDOSBootSign() uint8 { return b[0x26] }

// MSDOSSerial returns the FAT12/16 volume serial.
func (b BootSector) MSDOSSerial() []byte { return b[0x27:0x2b] }

// MSDOSLabel returns the FAT12/16 volume label.
func (b BootSector) MSDOSLabel() []byte { return b[0x2b:0x36] }

// VFATBootSign returns the FAT32 extended boot signature.
func (b BootSector) VFATBootSign() uint8 { return b[0x42] }

// VFATSerial returns the FAT32 volume serial.
func (b BootSector) VFATSerial() []byte { return b[0x43:0x47] }

// VFATLabel returns the FAT32 volume label.
func (b BootSector) VFATLabel() []byte { return b[0x47:0x52] }

// SectorCount returns the total number of sectors.
func (b BootSector) SectorCount() uint32 {
	if count := b.Sectors(); count != 0 {
		return uint32(count)
	}

	return b.TotalSectors()
}

// FATSectors returns the size of a single FAT in sectors.
func (b BootSector) FATSectors() uint32 {
	if length := b.FATLength(); length != 0 {
		return uint32(length)
	}

	return b.FAT32Length()
}

// RootDirSectors returns the size of the FAT12/16 root directory in sectors.
func (b BootSector) RootDirSectors() uint32 {
	sectorSize := uint32(b.SectorSize())

	return (uint32(b.DirEntries())*DIR_ENTRY_SIZE + sectorSize - 1) / sectorSize
}

// ClusterCount returns the number of data clusters.
func (b BootSector) ClusterCount() uint32 {
	meta := uint32(b.Reserved()) + uint32(b.FATs())*b.FATSectors() + b.RootDirSectors()
	total := b.SectorCount()

	if total < meta || b.ClusterSize() == 0 {
		return 0
	}

	return (total - meta) / uint32(b.ClusterSize())
}
