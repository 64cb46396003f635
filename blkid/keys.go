// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

// Superblock keys.
const (
	KeyType          = "TYPE"
	KeySecType       = "SEC_TYPE"
	KeyLabel         = "LABEL"
	KeyLabelRaw      = "LABEL_RAW"
	KeyUUID          = "UUID"
	KeyUUIDSub       = "UUID_SUB"
	KeyLogUUID       = "LOGUUID"
	KeyUUIDRaw       = "UUID_RAW"
	KeyExtJournal    = "EXT_JOURNAL"
	KeyUsage         = "USAGE"
	KeyVersion       = "VERSION"
	KeyMount         = "MOUNT"
	KeySBMagic       = "SBMAGIC"
	KeySBMagicOffset = "SBMAGIC_OFFSET"
	KeyFSSize        = "FSSIZE"
	KeySystemID      = "SYSTEM_ID"
	KeyPublisherID   = "PUBLISHER_ID"
	KeyApplicationID = "APPLICATION_ID"
	KeyBootSystemID  = "BOOT_SYSTEM_ID"
	KeySBBadCSum     = "SBBADCSUM"
)

// Partition keys.
const (
	KeyPTType          = "PTTYPE"
	KeyPTUUID          = "PTUUID"
	KeyPartEntryScheme = "PART_ENTRY_SCHEME"
	KeyPartEntryName   = "PART_ENTRY_NAME"
	KeyPartEntryUUID   = "PART_ENTRY_UUID"
	KeyPartEntryType   = "PART_ENTRY_TYPE"
	KeyPartEntryFlags  = "PART_ENTRY_FLAGS"
	KeyPartEntryNumber = "PART_ENTRY_NUMBER"
	KeyPartEntryOffset = "PART_ENTRY_OFFSET"
	KeyPartEntryDisk   = "PART_ENTRY_DISK"
)

// SuperblockKeys lists superblock keys in the order they are reported.
var SuperblockKeys = []string{
	KeyType,
	KeySecType,
	KeyLabel,
	KeyLabelRaw,
	KeyUUID,
	KeyUUIDSub,
	KeyLogUUID,
	KeyUUIDRaw,
	KeyExtJournal,
	KeyUsage,
	KeyVersion,
	KeyMount,
	KeySBMagic,
	KeySBMagicOffset,
	KeyFSSize,
	KeySystemID,
	KeyPublisherID,
	KeyApplicationID,
	KeyBootSystemID,
	KeySBBadCSum,
}

// PartitionKeys lists partition keys in the order they are reported.
var PartitionKeys = []string{
	KeyPTType,
	KeyPTUUID,
	KeyPartEntryScheme,
	KeyPartEntryName,
	KeyPartEntryUUID,
	KeyPartEntryType,
	KeyPartEntryFlags,
	KeyPartEntryNumber,
	KeyPartEntryOffset,
	KeyPartEntryDisk,
}
