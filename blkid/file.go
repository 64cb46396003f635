// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

import (
	"fmt"
	"os"

	"github.com/siderolabs/go-blockprobe/block"
)

// fileDevice is a regular file (an image?) being probed.
type fileDevice struct {
	f *os.File

	size       uint64
	sectorSize uint
}

func (d *fileDevice) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

func (d *fileDevice) Close() error {
	return d.f.Close()
}

func (d *fileDevice) GetSize() (uint64, error) {
	return d.size, nil
}

func (d *fileDevice) GetSectorSize() uint {
	return d.sectorSize
}

func (d *fileDevice) GetIOSize() (uint, error) {
	return block.DefaultBlockSize, nil
}

// attachRegular attaches a regular file, so use different settings.
func (s *Session) attachRegular(f *os.File, st os.FileInfo) error {
	sectorSize := s.options.SectorSize
	if sectorSize == 0 {
		sectorSize = block.DefaultBlockSize
	}

	dev := &fileDevice{
		f:          f,
		size:       uint64(st.Size()),
		sectorSize: sectorSize,
	}

	return s.attach(dev, f.Name(), Geometry{
		DeviceSize: dev.size,
		SectorSize: sectorSize,
		IOSize:     block.DefaultBlockSize,
	})
}

// AttachPath opens the file at the path and attaches the session to it.
func (s *Session) AttachPath(path string) error {
	if err := s.checkAttach(); err != nil {
		return err
	}

	f, err := openForProbe(path)
	if err != nil {
		return &DeviceError{Path: path, Err: err}
	}

	return s.AttachFile(f)
}

func statError(f *os.File, err error) error {
	f.Close() //nolint:errcheck

	return &DeviceError{Path: f.Name(), Err: fmt.Errorf("failed to stat: %w", err)}
}
