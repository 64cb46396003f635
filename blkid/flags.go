// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

// SuperblockFlags select which superblock values are reported.
type SuperblockFlags uint

// Superblock flags.
const (
	// SuperblockLabel reports LABEL.
	SuperblockLabel SuperblockFlags = 1 << iota
	// SuperblockLabelRaw reports LABEL_RAW.
	SuperblockLabelRaw
	// SuperblockUUID reports UUID, UUID_SUB, LOGUUID and EXT_JOURNAL.
	SuperblockUUID
	// SuperblockUUIDRaw reports UUID_RAW.
	SuperblockUUIDRaw
	// SuperblockType reports TYPE.
	SuperblockType
	// SuperblockSecType reports SEC_TYPE.
	SuperblockSecType
	// SuperblockUsage reports USAGE.
	SuperblockUsage
	// SuperblockVersion reports VERSION.
	SuperblockVersion
	// SuperblockMagic reports SBMAGIC and SBMAGIC_OFFSET.
	SuperblockMagic
	// SuperblockBadChecksum accepts superblocks with bad checksums and reports SBBADCSUM.
	//
	// If not set, superblocks with bad checksums are rejected.
	SuperblockBadChecksum
	// SuperblockFSInfo reports FSSIZE, MOUNT and the ISO9660 identifiers.
	SuperblockFSInfo

	// SuperblockDefault is the default set of flags.
	SuperblockDefault = SuperblockLabel | SuperblockLabelRaw | SuperblockUUID | SuperblockUUIDRaw |
		SuperblockType | SuperblockSecType | SuperblockUsage | SuperblockVersion |
		SuperblockMagic | SuperblockBadChecksum | SuperblockFSInfo
)

// Has returns true if all the flags in other are set.
func (f SuperblockFlags) Has(other SuperblockFlags) bool {
	return f&other == other
}
