// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package block

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linux/cdrom.h
const (
	CDROM_DRIVE_STATUS   = 0x5326 //nolint:revive,stylecheck
	CDROM_GET_CAPABILITY = 0x5331 //nolint:revive,stylecheck

	CDS_NO_DISC   = 1 //nolint:revive,stylecheck
	CDS_TRAY_OPEN = 2 //nolint:revive,stylecheck
)

// NewFromPath opens the blockdevice at the path for reading.
//
// The returned Device owns the file.
func NewFromPath(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}

	return NewFromOwnedFile(f), nil
}

// clone returns a Device sharing the file, closing the clone keeps the file open.
func (d *Device) clone() *Device {
	c := NewFromFile(d.f)
	c.devNo = d.devNo

	return c
}

func (d *Device) ioctl(req uintptr, arg unsafe.Pointer) (uintptr, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return 0, errno
	}

	return r, nil
}

// GetSize returns blockdevice size in bytes.
func (d *Device) GetSize() (uint64, error) {
	var size uint64

	if _, err := d.ioctl(unix.BLKGETSIZE64, unsafe.Pointer(&size)); err != nil {
		return 0, fmt.Errorf("BLKGETSIZE64: %w", err)
	}

	return size, nil
}

// GetIOSize returns blockdevice optimal I/O size in bytes.
//
// The first sane value of optimal, minimal and block size is used.
func (d *Device) GetIOSize() (uint, error) {
	for _, req := range []uintptr{unix.BLKIOOPT, unix.BLKIOMIN, unix.BLKBSZGET} {
		var size uint

		if _, err := d.ioctl(req, unsafe.Pointer(&size)); err == nil && isPowerOf2(size) {
			return size, nil
		}
	}

	return DefaultBlockSize, nil
}

// GetSectorSize returns blockdevice logical sector size in bytes.
func (d *Device) GetSectorSize() uint {
	var size uint

	if _, err := d.ioctl(unix.BLKSSZGET, unsafe.Pointer(&size)); err != nil || size == 0 {
		return DefaultBlockSize
	}

	return size
}

// IsCD returns true if the blockdevice is a CD-ROM drive.
func (d *Device) IsCD() bool {
	_, err := d.ioctl(CDROM_GET_CAPABILITY, nil)

	return err == nil
}

// IsCDNoMedia returns true if the CD-ROM drive has no disc or its tray is open.
func (d *Device) IsCDNoMedia() bool {
	status, err := d.ioctl(CDROM_DRIVE_STATUS, nil)

	return err == nil && (status == CDS_NO_DISC || status == CDS_TRAY_OPEN)
}

// GetDevNo returns the device number of the blockdevice.
func (d *Device) GetDevNo() (uint64, error) {
	if d.devNo != 0 {
		return d.devNo, nil
	}

	var st unix.Stat_t

	if err := unix.Fstat(int(d.f.Fd()), &st); err != nil {
		return 0, err
	}

	d.devNo = st.Rdev

	return d.devNo, nil
}

// DevNoString returns the device number formatted as "major:minor".
func DevNoString(devNo uint64) string {
	return fmt.Sprintf("%d:%d", unix.Major(devNo), unix.Minor(devNo))
}

// Lock the blockdevice with flock, waiting for the lock.
func (d *Device) Lock(exclusive bool) error {
	return d.flock(lockMode(exclusive))
}

// TryLock locks the blockdevice with flock, failing with EWOULDBLOCK if it's locked by someone else.
func (d *Device) TryLock(exclusive bool) error {
	return d.flock(lockMode(exclusive) | unix.LOCK_NB)
}

// Unlock releases the lock.
func (d *Device) Unlock() error {
	return d.flock(unix.LOCK_UN)
}

func lockMode(exclusive bool) int {
	if exclusive {
		return unix.LOCK_EX
	}

	return unix.LOCK_SH
}

func (d *Device) flock(how int) error {
	for {
		err := unix.Flock(int(d.f.Fd()), how)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
