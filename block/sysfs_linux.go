// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package block

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// kind of the blockdevice relative to the whole disk.
type kind int

const (
	kindWholeDisk kind = iota
	// kindPartition is a kernel partition.
	kindPartition
	// kindMapperPartition is a device-mapper partition (kpartx "part-" UUID).
	kindMapperPartition
)

func (d *Device) sysFsPath() (string, error) {
	devNo, err := d.GetDevNo()
	if err != nil {
		return "", err
	}

	return filepath.Join("/sys/dev/block", DevNoString(devNo)), nil
}

// sysFsAttr reads the sysfs attribute of the blockdevice, missing attributes are empty.
func (d *Device) sysFsAttr(elem ...string) (string, error) {
	sysFsPath, err := d.sysFsPath()
	if err != nil {
		return "", err
	}

	return readSysFsFile(filepath.Join(append([]string{sysFsPath}, elem...)...)), nil
}

func (d *Device) kind() (kind, error) {
	sysFsPath, err := d.sysFsPath()
	if err != nil {
		return kindWholeDisk, err
	}

	if _, err = os.Stat(filepath.Join(sysFsPath, "partition")); err == nil {
		return kindPartition, nil
	}

	if strings.HasPrefix(readSysFsFile(filepath.Join(sysFsPath, "dm", "uuid")), "part-") {
		return kindMapperPartition, nil
	}

	return kindWholeDisk, nil
}

// IsReadOnly returns true if the blockdevice is read-only.
func (d *Device) IsReadOnly() (bool, error) {
	ro, err := d.sysFsAttr("ro")
	if err != nil {
		return false, err
	}

	if ro != "" {
		return ro == "1", nil
	}

	var flags int

	if _, err = d.ioctl(unix.BLKROGET, unsafe.Pointer(&flags)); err != nil {
		return false, fmt.Errorf("BLKROGET: %w", err)
	}

	return flags != 0, nil
}

// IsWholeDisk returns true if the blockdevice is a whole disk (neither a partition nor a partition mapping).
func (d *Device) IsWholeDisk() (bool, error) {
	k, err := d.kind()

	return k == kindWholeDisk, err
}

// GetWholeDisk returns the whole disk for the blockdevice.
//
// If the blockdevice is a whole disk, it returns itself.
// The returned block device should be closed.
func (d *Device) GetWholeDisk() (*Device, error) {
	k, err := d.kind()
	if err != nil {
		return nil, err
	}

	sysFsPath, err := d.sysFsPath()
	if err != nil {
		return nil, err
	}

	switch k {
	case kindPartition:
		// /sys/dev/block/M:m links to .../block/<disk>/<partition>
		target, err := os.Readlink(sysFsPath)
		if err != nil {
			return nil, err
		}

		return NewFromPath(filepath.Join("/dev", filepath.Base(filepath.Dir(target))))
	case kindMapperPartition:
		slaves, err := os.ReadDir(filepath.Join(sysFsPath, "slaves"))
		if err != nil {
			return nil, err
		}

		if len(slaves) == 0 {
			return nil, errors.New("no slaves found")
		}

		return NewFromPath(filepath.Join("/dev", slaves[0].Name()))
	default:
		return d.clone(), nil
	}
}

// IsPrivateDeviceMapper returns true if this is a private device-mapper device.
//
// LVM private devices have UUIDs like "LVM-<uuid>-<name>".
func (d *Device) IsPrivateDeviceMapper() (bool, error) {
	dmUUID, err := d.sysFsAttr("dm", "uuid")
	if err != nil {
		return false, err
	}

	rest, ok := strings.CutPrefix(dmUUID, "LVM-")

	return ok && strings.Contains(rest, "-"), nil
}

// GetPartitionInfo returns the partition number and start offset of the blockdevice.
//
// It returns nil if the blockdevice is not a partition.
func (d *Device) GetPartitionInfo() (*PartitionInfo, error) {
	partition, err := d.sysFsAttr("partition")
	if err != nil {
		return nil, err
	}

	if partition == "" {
		return nil, nil //nolint:nilnil
	}

	number, err := strconv.ParseUint(partition, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to parse partition number %q: %w", partition, err)
	}

	start, err := d.sysFsAttr("start")
	if err != nil {
		return nil, err
	}

	// sysfs always reports the start in 512-byte units
	startSector, err := strconv.ParseUint(start, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse partition start %q: %w", start, err)
	}

	return &PartitionInfo{
		Number: uint(number),
		Start:  startSector * DefaultBlockSize,
	}, nil
}
