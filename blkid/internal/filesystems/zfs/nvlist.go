// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package zfs

import "encoding/binary"

// XDR-encoded nvlist constants.
const (
	nvsEncodingXDR = 1

	nvHeaderSize = 4 + 4 + 4 // nvs_header + nvl_version + nvl_nvflag

	dataTypeUint64 = 8
	dataTypeString = 9
)

func xdrAlign(n uint32) uint32 {
	return (n + 3) &^ 3
}

// ParseNVList decodes top-level uint64 and string pairs of the XDR-encoded vdev label nvlist.
//
// Pairs of other types are skipped, decoding stops on the first malformed pair.
func ParseNVList(buf []byte) map[string]any {
	pairs := map[string]any{}

	if len(buf) < nvHeaderSize || buf[0] != nvsEncodingXDR {
		return pairs
	}

	be := binary.BigEndian

	for off := uint32(nvHeaderSize); uint64(off)+8 <= uint64(len(buf)); {
		encodedSize := be.Uint32(buf[off:])
		if encodedSize == 0 || uint64(off)+uint64(encodedSize) > uint64(len(buf)) {
			break
		}

		pair := buf[off : off+encodedSize]
		off += encodedSize

		// encoded size, decoded size, name length
		if len(pair) < 12 {
			break
		}

		nameLen := be.Uint32(pair[8:])
		pos := 12 + uint64(xdrAlign(nameLen))

		if pos+8 > uint64(len(pair)) {
			break
		}

		name := string(pair[12 : 12+uint64(nameLen)])
		dataType := be.Uint32(pair[pos:])
		pos += 8 // type, number of elements

		switch dataType {
		case dataTypeUint64:
			if pos+8 > uint64(len(pair)) {
				return pairs
			}

			pairs[name] = be.Uint64(pair[pos:])
		case dataTypeString:
			if pos+4 > uint64(len(pair)) {
				return pairs
			}

			strLen := uint64(be.Uint32(pair[pos:]))
			if pos+4+strLen > uint64(len(pair)) {
				return pairs
			}

			pairs[name] = string(pair[pos+4 : pos+4+strLen])
		}
	}

	return pairs
}
