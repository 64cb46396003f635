// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package blkid identifies filesystems, volume managers and partition tables on block devices and images.
//
// A Session is attached to a device, configured with the categories of signatures to look for,
// and Run to produce the key/value results which are then queried.
package blkid

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Common errors.
var (
	ErrFailedLock      = errors.New("failed to acquire shared lock while probing blockdevice")
	ErrAlreadyAttached = errors.New("session is already attached to a device")
	ErrNotAttached     = errors.New("session is not attached to a device")
	ErrNoCategory      = errors.New("no probing category is enabled")
	ErrClosed          = errors.New("session is closed")
	ErrNotPresent      = errors.New("value is not present")
	ErrNotFound        = errors.New("nothing was detected")
	ErrNotScanned      = errors.New("device was not scanned yet")
)

// DeviceError is returned when the device can't be opened or sized.
type DeviceError struct {
	Err  error
	Path string
}

func (e *DeviceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("device error: %s", e.Err)
	}

	return fmt.Sprintf("device %q: %s", e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// IOError is returned when reading the device fails while scanning.
//
// Offset is relative to the device start.
type IOError struct {
	Err    error
	Offset uint64
	Length uint64
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read %d bytes at offset %d: %s", e.Length, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Device is a read-only byte source which can be probed.
//
// Device might optionally implement `GetIOSize() (uint, error)` to report the optimal I/O size.
type Device interface {
	io.ReaderAt
	io.Closer

	GetSize() (uint64, error)
	GetSectorSize() uint
}

type ioSizer interface {
	GetIOSize() (uint, error)
}

// ProbeOptions is the options for probing.
type ProbeOptions struct { //nolint:govet
	// Logger to use for logging.
	Logger *zap.Logger
	// SkipLocking blockdevices in shared mode.
	SkipLocking bool
	// SectorSize for regular files, zero means the default.
	SectorSize uint

	// WindowOffset and WindowSize limit probing to the part of the device.
	//
	// Zero WindowSize means till the end of the device.
	WindowOffset uint64
	WindowSize   uint64
}

// ProbeOption is an option for probing.
type ProbeOption func(*ProbeOptions)

// WithLogger sets the logger for the probe.
func WithLogger(logger *zap.Logger) ProbeOption {
	return func(o *ProbeOptions) {
		o.Logger = logger
	}
}

// WithSkipLocking skips locking blockdevices in shared mode.
func WithSkipLocking(skip bool) ProbeOption {
	return func(o *ProbeOptions) {
		o.SkipLocking = skip
	}
}

// WithSectorSize sets the sector size used for regular files (images).
func WithSectorSize(size uint) ProbeOption {
	return func(o *ProbeOptions) {
		o.SectorSize = size
	}
}

// WithWindow limits probing to size bytes starting at offset.
func WithWindow(offset, size uint64) ProbeOption {
	return func(o *ProbeOptions) {
		o.WindowOffset = offset
		o.WindowSize = size
	}
}

func applyProbeOptions(opts ...ProbeOption) ProbeOptions {
	o := ProbeOptions{
		Logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
