// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build linux

package blkid

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/siderolabs/go-blockprobe/block"
)

func openForProbe(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDONLY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
}

// AttachFile attaches the session to the file, which is either a block device or a regular file.
//
// The session takes ownership of the file.
//
//nolint:cyclop
func (s *Session) AttachFile(f *os.File) error {
	if err := s.checkAttach(); err != nil {
		f.Close() //nolint:errcheck

		return err
	}

	unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM) //nolint:errcheck // best-effort: we don't care if this fails

	st, err := f.Stat()
	if err != nil {
		return statError(f, err)
	}

	sysStat := st.Sys().(*syscall.Stat_t) //nolint:errcheck,forcetypeassert // we know it's a syscall.Stat_t

	switch sysStat.Mode & unix.S_IFMT {
	case unix.S_IFBLK:
		// block device, initialize full support
		return s.attachBlockDevice(block.NewFromOwnedFile(f))
	case unix.S_IFREG:
		return s.attachRegular(f, st)
	default:
		f.Close() //nolint:errcheck

		return &DeviceError{Path: f.Name(), Err: fmt.Errorf("unsupported file type: %s", st.Mode().Type())}
	}
}

func (s *Session) attachBlockDevice(dev *block.Device) error {
	path := dev.File().Name()

	deviceError := func(msg string, err error) error {
		dev.Close() //nolint:errcheck

		return &DeviceError{Path: path, Err: fmt.Errorf("%s: %w", msg, err)}
	}

	size, err := dev.GetSize()
	if err != nil {
		return deviceError("failed to get block device size", err)
	}

	ioSize, err := dev.GetIOSize()
	if err != nil {
		return deviceError("failed to get block device I/O size", err)
	}

	wholeDisk, err := dev.IsWholeDisk()
	if err != nil {
		return deviceError("failed to check if block device is whole disk", err)
	}

	if err = s.attach(dev, path, Geometry{
		DeviceSize: size,
		SectorSize: dev.GetSectorSize(),
		IOSize:     ioSize,
	}); err != nil {
		return err
	}

	if private, err := dev.IsPrivateDeviceMapper(); private && err == nil {
		// don't probe device-mapper devices
		s.skipReason = "private device-mapper device"
	}

	if wholeDisk && dev.IsCD() && dev.IsCDNoMedia() {
		// don't probe CD-ROM devices without media
		s.skipReason = "CD-ROM device without media"
	}

	s.lock = func() (func(), error) {
		return lockWholeDisk(dev)
	}

	if !wholeDisk {
		s.attachWholeDisk(dev)
	}

	return nil
}

// attachWholeDisk finds the disk the partition belongs to, so that the partition entry can be reported.
func (s *Session) attachWholeDisk(dev *block.Device) {
	info, err := dev.GetPartitionInfo()
	if err != nil {
		s.logger.Debug("failed to get partition info", zap.Error(err))

		return
	}

	if info == nil {
		return
	}

	disk, err := dev.GetWholeDisk()
	if err != nil {
		s.logger.Debug("failed to open whole disk", zap.Error(err))

		return
	}

	devNo, err := disk.GetDevNo()
	if err != nil {
		disk.Close() //nolint:errcheck

		s.logger.Debug("failed to get whole disk device number", zap.Error(err))

		return
	}

	s.disk = &wholeDisk{
		dev:    disk,
		devNo:  block.DevNoString(devNo),
		offset: info.Start,
	}
}

// lockWholeDisk locks the whole disk device in shared mode (if probing a partition, we lock the whole disk).
func lockWholeDisk(dev *block.Device) (func(), error) {
	wholeDisk, err := dev.GetWholeDisk()
	if err != nil {
		return nil, fmt.Errorf("failed to get whole disk: %w", err)
	}

	if err = wholeDisk.TryLock(false); err != nil {
		wholeDisk.Close() //nolint:errcheck

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrFailedLock
		}

		return nil, fmt.Errorf("failed to lock whole disk: %w", err)
	}

	return func() {
		wholeDisk.Unlock() //nolint:errcheck
		wholeDisk.Close()  //nolint:errcheck
	}, nil
}
