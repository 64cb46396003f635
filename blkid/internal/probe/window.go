// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package probe

import (
	"errors"
	"fmt"
	"io"
)

// ErrOutOfBounds is returned when the read range is outside of the probed window.
var ErrOutOfBounds = errors.New("read is out of the probed range")

// ReadError describes a failed read.
type ReadError struct {
	Err    error
	Offset uint64
	Length uint64
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read of %d bytes at offset %d failed: %s", e.Length, e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Window is a bounded read-only view into the byte source.
//
// All offsets are relative to the start of the window.
type Window struct {
	r io.ReaderAt

	offset     uint64
	size       uint64
	sectorSize uint
}

// NewWindow creates a new Window of size bytes starting at offset.
func NewWindow(r io.ReaderAt, offset, size uint64, sectorSize uint) *Window {
	return &Window{
		r:          r,
		offset:     offset,
		size:       size,
		sectorSize: sectorSize,
	}
}

// ReadAt implements io.ReaderAt.
//
// Unlike io.SectionReader, reads crossing the end of the window fail without reading anything.
func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	length := uint64(len(p))

	if off < 0 || uint64(off) > w.size || length > w.size-uint64(off) {
		return 0, &ReadError{Offset: uint64(off), Length: length, Err: ErrOutOfBounds}
	}

	n, err := w.r.ReadAt(p, int64(w.offset)+off)
	if err != nil {
		if errors.Is(err, io.EOF) && n == len(p) {
			return n, nil
		}

		return n, &ReadError{Offset: uint64(off), Length: length, Err: err}
	}

	return n, nil
}

// GetSize returns the size of the window.
func (w *Window) GetSize() uint64 {
	return w.size
}

// GetSectorSize returns the sector size of the underlying device.
func (w *Window) GetSectorSize() uint {
	return w.sectorSize
}

// Offset returns the offset of the window on the underlying device.
func (w *Window) Offset() uint64 {
	return w.offset
}
