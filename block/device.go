// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package block provides read-only access to blockdevices.
package block

import "os"

// Device wraps blockdevice operations.
type Device struct {
	f *os.File

	devNo     uint64
	ownedFile bool
}

// NewFromFile returns a new Device from the specified file.
//
// The file is not owned by the Device, so Close doesn't close it.
func NewFromFile(f *os.File) *Device {
	return &Device{f: f}
}

// NewFromOwnedFile returns a new Device which takes ownership of the specified file.
//
// Close closes the file.
func NewFromOwnedFile(f *os.File) *Device {
	return &Device{f: f, ownedFile: true}
}

// DefaultBlockSize is the default block size in bytes.
const DefaultBlockSize = 512

// File returns the underlying file.
func (d *Device) File() *os.File {
	return d.f
}

// ReadAt implements io.ReaderAt.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

// Close the device.
//
// The underlying file is closed only if it was opened by the Device.
func (d *Device) Close() error {
	if !d.ownedFile {
		return nil
	}

	return d.f.Close()
}

// PartitionInfo describes the position of a partition on the whole disk.
type PartitionInfo struct {
	// Number is the kernel partition number (1-based).
	Number uint
	// Start is the partition start offset in bytes.
	Start uint64
}
