// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gptutil implements helper functions for GPT tables.
package gptutil

// DiskSizer is implemented by the probed devices and windows.
type DiskSizer interface {
	GetSectorSize() uint
	GetSize() uint64
}

// LastLBA returns the last logical block address of the device.
//
// It returns false if the device is smaller than a single sector.
func LastLBA(r DiskSizer) (uint64, bool) {
	sectorSize := uint64(r.GetSectorSize())
	size := r.GetSize()

	if sectorSize == 0 || sectorSize > size {
		return 0, false
	}

	return size/sectorSize - 1, true
}

// swapMixedEndian swaps the first three fields of the GUID, it is its own inverse.
func swapMixedEndian(b []byte) []byte {
	out := make([]byte, 16)

	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:16])

	return out
}

// GUIDToUUID converts an on-disk GPT GUID to the RFC 4122 byte order.
func GUIDToUUID(g []byte) []byte {
	return swapMixedEndian(g)
}

// UUIDToGUID converts RFC 4122 UUID bytes to the on-disk GPT GUID.
func UUIDToGUID(u []byte) []byte {
	return swapMixedEndian(u)
}
