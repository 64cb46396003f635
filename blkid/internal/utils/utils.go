// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package utils provides utility functions.
package utils

import (
	"bytes"
	"hash/crc32"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"
)

var castagnoliTable = sync.OnceValue(func() *crc32.Table {
	return crc32.MakeTable(crc32.Castagnoli)
})

// CRC32c returns values compatible with Linux crc32c function.
func CRC32c(buf []byte) uint32 {
	return ^crc32.Update(0, castagnoliTable(), buf)
}

// lvm2CRCInitial is the seed LVM2 uses for label checksums.
const lvm2CRCInitial = 0xf597a6cf

// LVM2CRC returns the checksum LVM2 stores in the PV label header.
//
// LVM2 runs a plain reflected CRC32 starting from its own seed without the final inversion.
func LVM2CRC(buf []byte) uint32 {
	return ^crc32.Update(^uint32(lvm2CRCInitial), crc32.IEEETable, buf)
}

// IsPowerOf2 returns true if num is a power of 2.
func IsPowerOf2[T uint8 | uint16 | uint32 | uint64](num T) bool {
	return (num != 0 && ((num & (num - 1)) == 0))
}

// CString returns the contents of a NUL-padded fixed-width field.
func CString(b []byte) []byte {
	if idx := bytes.IndexByte(b, 0); idx != -1 {
		return b[:idx]
	}

	return b
}

// Label returns the label stored in a NUL-padded field, nil if the label is empty.
func Label(b []byte) *string {
	lbl := CString(b)
	if len(lbl) == 0 {
		return nil
	}

	return pointer.To(string(lbl))
}

// SpacePaddedLabel returns the label stored in a space-padded field, nil if the label is empty.
func SpacePaddedLabel(b []byte) *string {
	lbl := strings.TrimRight(string(CString(b)), " ")
	if lbl == "" {
		return nil
	}

	return pointer.To(lbl)
}

// IsZero returns true if all bytes are zero.
func IsZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}

	return true
}

// UUID renders 16 raw bytes as a UUID, nil if the bytes are all zero.
func UUID(b []byte) *string {
	if IsZero(b) {
		return nil
	}

	u, err := uuid.FromBytes(b)
	if err != nil {
		return nil
	}

	return pointer.To(u.String())
}
