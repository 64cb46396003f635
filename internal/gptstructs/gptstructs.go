// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gptstructs provides encoded definitions for GPT on-disk structures.
package gptstructs

import "encoding/binary"

// On-disk sizes of GPT structures.
//
//nolint:revive,stylecheck
const (
	HEADER_SIZE = 92
	ENTRY_SIZE  = 128
)

// MaxEntriesSize limits the size of the partition entry array.
const MaxEntriesSize = 1024 * 1024

// Header is a GPT header, all fields are little-endian.
type Header []byte

// Signature returns the header signature.
func (h Header) Signature() uint64 { return binary.LittleEndian.Uint64(h[0:]) }

// Revision returns the header revision.
func (h Header) Revision() uint32 { return binary.LittleEndian.Uint32(h[8:]) }

// HeaderSize returns the size of the header in bytes.
func (h Header) HeaderSize() uint32 { return binary.LittleEndian.Uint32(h[12:]) }

// HeaderCRC32 returns the header checksum.
func (h Header) HeaderCRC32() uint32 { return binary.LittleEndian.Uint32(h[16:]) }

// MyLBA returns the LBA of this header.
func (h Header) MyLBA() uint64 { return binary.LittleEndian.Uint64(h[24:]) }

// AlternateLBA returns the LBA of the other header.
func (h Header) AlternateLBA() uint64 { return binary.LittleEndian.Uint64(h[32:]) }

// FirstUsableLBA returns the first LBA usable by partitions.
func (h Header) FirstUsableLBA() uint64 { return binary.LittleEndian.Uint64(h[40:]) }

// LastUsableLBA returns the last LBA usable by partitions.
func (h Header) LastUsableLBA() uint64 { return binary.LittleEndian.Uint64(h[48:]) }

// DiskGUID returns the raw disk GUID.
func (h Header) DiskGUID() []byte { return h[56:72] }

// PartitionEntriesLBA returns the starting LBA of the partition entry array.
func (h Header) PartitionEntriesLBA() uint64 { return binary.LittleEndian.Uint64(h[72:]) }

// NumPartitionEntries returns the number of entries in the partition entry array.
func (h Header) NumPartitionEntries() uint32 { return binary.LittleEndian.Uint32(h[80:]) }

// SizeofPartitionEntry returns the size of a single partition entry.
func (h Header) SizeofPartitionEntry() uint32 { return binary.LittleEndian.Uint32(h[84:]) }

// PartitionEntryArrayCRC32 returns the checksum of the partition entry array.
func (h Header) PartitionEntryArrayCRC32() uint32 { return binary.LittleEndian.Uint32(h[88:]) }

// Entry is a GPT partition entry.
type Entry []byte

// PartitionTypeGUID returns the raw partition type GUID.
func (e Entry) PartitionTypeGUID() []byte { return e[0:16] }

// UniquePartitionGUID returns the raw partition GUID.
func (e Entry) UniquePartitionGUID() []byte { return e[16:32] }

// StartingLBA returns the first LBA of the partition.
func (e Entry) StartingLBA() uint64 { return binary.LittleEndian.Uint64(e[32:]) }

// EndingLBA returns the last LBA of the partition (inclusive).
func (e Entry) EndingLBA() uint64 { return binary.LittleEndian.Uint64(e[40:]) }

// Attributes returns the partition attribute flags.
func (e Entry) Attributes() uint64 { return binary.LittleEndian.Uint64(e[48:]) }

// PartitionName returns the raw UTF-16LE partition name.
func (e Entry) PartitionName() []byte { return e[56:128] }
