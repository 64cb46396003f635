// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package magic implements the magic number detection for files and block devices.
package magic

import (
	"bytes"
	"encoding/binary"
)

// Magic defines a filesystem/volume manager/etc magic value.
//
// Magic with empty Value matches any buffer, the prober is expected to do the detection itself.
type Magic struct {
	// ByteOrder of the on-disk structure identified by this magic.
	//
	// Nil if the structure has a fixed byte order.
	ByteOrder binary.ByteOrder

	// Value to search for.
	Value []byte

	// Offset in the file where the magic value is located.
	Offset int
}

// Matches returns true if the magic value is found at the specified offset in the buffer.
func (magic *Magic) Matches(buf []byte) bool {
	if len(buf) < magic.Offset+len(magic.Value) {
		return false
	}

	return bytes.Equal(buf[magic.Offset:magic.Offset+len(magic.Value)], magic.Value)
}

// BlockSize returns the size of the buffer that needs to be read from the disk to detect the magic value.
func (magic *Magic) BlockSize() int {
	return magic.Offset + len(magic.Value)
}

// Order returns the byte order of the structure, defaulting to the specified one.
func (magic *Magic) Order(def binary.ByteOrder) binary.ByteOrder {
	if magic.ByteOrder == nil {
		return def
	}

	return magic.ByteOrder
}
