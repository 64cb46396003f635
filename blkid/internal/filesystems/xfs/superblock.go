// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package xfs

import "encoding/binary"

// XFS superblock structure constants.
//
//nolint:revive,stylecheck
const (
	SUPERBLOCK_SIZE = 264

	XFS_SB_VERSION_NUMBITS = 0x000f
	XFS_SB_VERSION_5       = 5

	XFS_SB_CRC_OFFSET = 224
)

// SuperBlock is an XFS superblock, all fields are big-endian.
type SuperBlock []byte

func (s SuperBlock) u8(off int) uint8   { return s[off] }
func (s SuperBlock) u16(off int) uint16 { return binary.BigEndian.Uint16(s[off:]) }
func (s SuperBlock) u32(off int) uint32 { return binary.BigEndian.Uint32(s[off:]) }
func (s SuperBlock) u64(off int) uint64 { return binary.BigEndian.Uint64(s[off:]) }

// BlockSizeBytes returns sb_blocksize.
func (s SuperBlock) BlockSizeBytes() uint32 { return s.u32(4) }

// DataBlocks returns sb_dblocks.
func (s SuperBlock) DataBlocks() uint64 { return s.u64(8) }

// UUID returns the raw sb_uuid.
func (s SuperBlock) UUID() []byte { return s[32:48] }

// LogStart returns sb_logstart.
func (s SuperBlock) LogStart() uint64 { return s.u64(48) }

// RTExtSize returns sb_rextsize.
func (s SuperBlock) RTExtSize() uint32 { return s.u32(80) }

// AGCount returns sb_agcount.
func (s SuperBlock) AGCount() uint32 { return s.u32(88) }

// LogBlocks returns sb_logblocks.
func (s SuperBlock) LogBlocks() uint32 { return s.u32(96) }

// VersionNum returns sb_versionnum.
func (s SuperBlock) VersionNum() uint16 { return s.u16(100) }

// SectSize returns sb_sectsize.
func (s SuperBlock) SectSize() uint16 { return s.u16(102) }

// InodeSize returns sb_inodesize.
func (s SuperBlock) InodeSize() uint16 { return s.u16(104) }

// FName returns the raw sb_fname.
func (s SuperBlock) FName() []byte { return s[108:120] }

// BlockLog returns sb_blocklog.
func (s SuperBlock) BlockLog() uint8 { return s.u8(120) }

// SectLog returns sb_sectlog.
func (s SuperBlock) SectLog() uint8 { return s.u8(121) }

// InodeLog returns sb_inodelog.
func (s SuperBlock) InodeLog() uint8 { return s.u8(122) }

// InoPBLog returns sb_inopblog.
func (s SuperBlock) InoPBLog() uint8 { return s.u8(123) }

// IMaxPct returns sb_imax_pct.
func (s SuperBlock) IMaxPct() uint8 { return s.u8(127) }

// CRC returns sb_crc, stored little-endian.
func (s SuperBlock) CRC() uint32 { return binary.LittleEndian.Uint32(s[XFS_SB_CRC_OFFSET:]) }

// Version returns the superblock version.
func (s SuperBlock) Version() uint16 { return s.VersionNum() & XFS_SB_VERSION_NUMBITS }
