// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gptstructs

import (
	"hash/crc32"
	"io"
	"slices"

	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// HeaderSignature is the signature of the GPT header.
const HeaderSignature = 0x5452415020494645 // "EFI PART"

// CalculateChecksum calculates the checksum of the header.
func (h Header) CalculateChecksum() uint32 {
	size := h.HeaderSize()
	if size < HEADER_SIZE || int(size) > len(h) {
		size = HEADER_SIZE
	}

	b := slices.Clone(h[:size])

	b[16] = 0
	b[17] = 0
	b[18] = 0
	b[19] = 0

	return crc32.ChecksumIEEE(b)
}

// HeaderReader is an interface for reading GPT headers.
type HeaderReader interface {
	io.ReaderAt
	GetSectorSize() uint
}

// ReadHeader reads the GPT header and partition entries.
//
// It does sanity checks on the header and partition entries, and returns nil header
// if anything doesn't match.
//
//nolint:gocyclo,cyclop
func ReadHeader(r HeaderReader, lba, lastLBA uint64) (Header, []Entry, error) {
	sectorSize := r.GetSectorSize()

	buf, err := ioutil.ReadSection(r, int64(lba)*int64(sectorSize), int(sectorSize))
	if err != nil {
		return nil, nil, err
	}

	hdr := Header(buf)

	// verify the header signature
	if hdr.Signature() != HeaderSignature {
		return nil, nil, nil
	}

	// sanity check the header size
	headerSize := hdr.HeaderSize()
	if headerSize < HEADER_SIZE || uint(headerSize) > sectorSize {
		return nil, nil, nil
	}

	// verify the header checksum
	if hdr.HeaderCRC32() != hdr.CalculateChecksum() {
		return nil, nil, nil
	}

	// verify LBA
	if hdr.MyLBA() != lba {
		return nil, nil, nil
	}

	firstUsableLBA := hdr.FirstUsableLBA()
	lastUsableLBA := hdr.LastUsableLBA()

	// verify the usable LBA range
	if lastUsableLBA < firstUsableLBA || firstUsableLBA > lastLBA || lastUsableLBA > lastLBA {
		return nil, nil, nil
	}

	// header should be outside the usable range
	if firstUsableLBA < lba && lba < lastUsableLBA {
		return nil, nil, nil
	}

	entrySize := uint64(hdr.SizeofPartitionEntry())
	numEntries := uint64(hdr.NumPartitionEntries())

	if entrySize < ENTRY_SIZE || entrySize%8 != 0 {
		return nil, nil, nil
	}

	if numEntries == 0 || numEntries*entrySize > MaxEntriesSize {
		return nil, nil, nil
	}

	// read partition entries, verify checksum
	entriesBuffer, err := ioutil.ReadSection(r, int64(hdr.PartitionEntriesLBA())*int64(sectorSize), int(numEntries*entrySize))
	if err != nil {
		return nil, nil, err
	}

	if crc32.ChecksumIEEE(entriesBuffer) != hdr.PartitionEntryArrayCRC32() {
		return nil, nil, nil
	}

	entries := make([]Entry, numEntries)
	for i := range entries {
		entries[i] = Entry(entriesBuffer[uint64(i)*entrySize : uint64(i)*entrySize+ENTRY_SIZE])
	}

	return hdr, entries, nil
}
