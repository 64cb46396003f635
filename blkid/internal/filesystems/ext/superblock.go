// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package ext

import "encoding/binary"

// SUPERBLOCK_SIZE is the size of the on-disk extfs superblock.
//
//nolint:revive,stylecheck
const SUPERBLOCK_SIZE = 1024

// SuperBlock is an extfs superblock.
type SuperBlock []byte

func (s SuperBlock) u16(off int) uint16 { return binary.LittleEndian.Uint16(s[off:]) }
func (s SuperBlock) u32(off int) uint32 { return binary.LittleEndian.Uint32(s[off:]) }

// BlocksCount returns the number of blocks in the filesystem.
func (s SuperBlock) BlocksCount() uint64 {
	count := uint64(s.u32(0x04))

	if s.FeatureIncompat()&EXT4_FEATURE_INCOMPAT_64BIT != 0 {
		count |= uint64(s.u32(0x150)) << 32
	}

	return count
}

// LogBlockSize returns the block size as a power of 2 over 1024.
func (s SuperBlock) LogBlockSize() uint32 { return s.u32(0x18) }

// RevLevel returns the revision level.
func (s SuperBlock) RevLevel() uint32 { return s.u32(0x4c) }

// MinorRevLevel returns the minor revision level.
func (s SuperBlock) MinorRevLevel() uint16 { return s.u16(0x3e) }

// FeatureCompat returns the compatible feature set.
func (s SuperBlock) FeatureCompat() uint32 { return s.u32(0x5c) }

// FeatureIncompat returns the incompatible feature set.
func (s SuperBlock) FeatureIncompat() uint32 { return s.u32(0x60) }

// FeatureROCompat returns the read-only compatible feature set.
func (s SuperBlock) FeatureROCompat() uint32 { return s.u32(0x64) }

// UUID returns the raw filesystem UUID.
func (s SuperBlock) UUID() []byte { return s[0x68:0x78] }

// VolumeName returns the raw volume label.
func (s SuperBlock) VolumeName() []byte { return s[0x78:0x88] }

// LastMounted returns the raw directory where the filesystem was last mounted.
func (s SuperBlock) LastMounted() []byte { return s[0x88:0xc8] }

// JournalUUID returns the raw UUID of the external journal.
func (s SuperBlock) JournalUUID() []byte { return s[0xd0:0xe0] }

// Checksum returns the superblock checksum.
func (s SuperBlock) Checksum() uint32 { return s.u32(0x3fc) }

// BlockSize returns the block size of the filesystem.
func (s SuperBlock) BlockSize() uint32 {
	if s.LogBlockSize() >= 32-10 {
		return 0
	}

	return 1024 << s.LogBlockSize()
}

// FilesystemSize returns the size of the filesystem.
func (s SuperBlock) FilesystemSize() uint64 {
	return s.BlocksCount() * uint64(s.BlockSize())
}
