// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package imagetest

import (
	"hash/crc32"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/siderolabs/go-blockprobe/internal/gptutil"
)

// GPTPartition describes a GPT partition entry.
type GPTPartition struct {
	Type uuid.UUID
	UUID uuid.UUID
	Name string

	// FirstLBA and LastLBA are inclusive.
	FirstLBA, LastLBA uint64

	Attributes uint64
}

// GPTOptions describes a GPT partition table.
type GPTOptions struct {
	DiskGUID   uuid.UUID
	Partitions []GPTPartition

	SectorSize uint64
	NumEntries uint32

	// CorruptPrimary damages the primary header, the backup one stays intact.
	CorruptPrimary bool
}

// GPT layout of the generated table.
const (
	GPTEntrySize = 128
)

// GPTFirstUsableLBA returns the first usable LBA of the generated table.
func GPTFirstUsableLBA(opts GPTOptions) uint64 {
	return 2 + gptEntriesSectors(opts)
}

func gptEntriesSectors(opts GPTOptions) uint64 {
	return (uint64(opts.NumEntries)*GPTEntrySize + opts.SectorSize - 1) / opts.SectorSize
}

func (opts *GPTOptions) defaults() {
	if opts.SectorSize == 0 {
		opts.SectorSize = 512
	}

	if opts.NumEntries == 0 {
		opts.NumEntries = 128
	}
}

// WriteGPT writes a protective MBR, the primary and the backup GPT headers with partition entries.
func WriteGPT(buf []byte, opts GPTOptions) {
	opts.defaults()

	ss := opts.SectorSize
	lastLBA := uint64(len(buf))/ss - 1
	entriesSectors := gptEntriesSectors(opts)
	firstUsable := 2 + entriesSectors
	lastUsable := lastLBA - entriesSectors - 1

	// protective MBR
	pmbr := buf[:512]
	clear(pmbr)
	pmbr[0x1be+4] = 0xee
	le.PutUint32(pmbr[0x1be+8:], 1)
	le.PutUint32(pmbr[0x1be+12:], uint32(min(lastLBA, 0xffffffff)))
	pmbr[510], pmbr[511] = 0x55, 0xaa

	entries := make([]byte, entriesSectors*ss)
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	for i, part := range opts.Partitions {
		entry := entries[i*GPTEntrySize : (i+1)*GPTEntrySize]

		copy(entry[0:16], gptutil.UUIDToGUID(part.Type[:]))
		copy(entry[16:32], gptutil.UUIDToGUID(part.UUID[:]))
		le.PutUint64(entry[32:], part.FirstLBA)
		le.PutUint64(entry[40:], part.LastLBA)
		le.PutUint64(entry[48:], part.Attributes)

		name, err := utf16.NewEncoder().Bytes([]byte(part.Name))
		if err != nil {
			panic(err)
		}

		copy(entry[56:128], name)
	}

	entriesCRC := crc32.ChecksumIEEE(entries[:uint64(opts.NumEntries)*GPTEntrySize])

	writeHeader := func(myLBA, alternateLBA, entriesLBA uint64) {
		hdr := buf[myLBA*ss : myLBA*ss+ss]
		clear(hdr)

		copy(hdr[0:], "EFI PART")
		le.PutUint32(hdr[8:], 0x00010000)
		le.PutUint32(hdr[12:], 92)
		le.PutUint64(hdr[24:], myLBA)
		le.PutUint64(hdr[32:], alternateLBA)
		le.PutUint64(hdr[40:], firstUsable)
		le.PutUint64(hdr[48:], lastUsable)
		copy(hdr[56:72], gptutil.UUIDToGUID(opts.DiskGUID[:]))
		le.PutUint64(hdr[72:], entriesLBA)
		le.PutUint32(hdr[80:], opts.NumEntries)
		le.PutUint32(hdr[84:], GPTEntrySize)
		le.PutUint32(hdr[88:], entriesCRC)
		le.PutUint32(hdr[16:], crc32.ChecksumIEEE(hdr[:92]))

		copy(buf[entriesLBA*ss:], entries)
	}

	writeHeader(1, lastLBA, 2)
	writeHeader(lastLBA, 1, lastUsable+1)

	if opts.CorruptPrimary {
		buf[ss] ^= 0xff
	}
}

// DOSPartition describes an MBR partition record.
type DOSPartition struct {
	// Start and Size are in 512-byte sectors, Start is absolute.
	Start, Size uint32

	Type     byte
	Bootable bool
}

// DOSOptions describes an MBR partition table.
type DOSOptions struct {
	Primary []DOSPartition

	// Logical partitions are chained through EBRs in the first extended primary partition.
	//
	// Each EBR is placed in the sector preceding the logical partition,
	// the extended partition should start at the first EBR.
	Logical []DOSPartition

	DiskID uint32
}

func putDOSEntry(sector []byte, idx int, part DOSPartition, start uint32) {
	entry := sector[0x1be+idx*16 : 0x1be+(idx+1)*16]

	if part.Bootable {
		entry[0] = 0x80
	}

	entry[4] = part.Type
	le.PutUint32(entry[8:], start)
	le.PutUint32(entry[12:], part.Size)
}

// WriteDOS writes an MBR and the EBR chain.
func WriteDOS(buf []byte, opts DOSOptions) {
	mbr := buf[:512]
	clear(mbr)

	le.PutUint32(mbr[0x1b8:], opts.DiskID)

	var extStart uint32

	for i, part := range opts.Primary {
		putDOSEntry(mbr, i, part, part.Start)

		if extStart == 0 && (part.Type == 0x05 || part.Type == 0x0f || part.Type == 0x85) {
			extStart = part.Start
		}
	}

	mbr[510], mbr[511] = 0x55, 0xaa

	for i, part := range opts.Logical {
		ebrSector := part.Start - 1
		ebr := buf[ebrSector*512 : ebrSector*512+512]
		clear(ebr)

		putDOSEntry(ebr, 0, part, 1)

		if i+1 < len(opts.Logical) {
			next := opts.Logical[i+1]

			putDOSEntry(ebr, 1, DOSPartition{Type: 0x05, Size: next.Size + 1}, next.Start-1-extStart)
		}

		ebr[510], ebr[511] = 0x55, 0xaa
	}
}
