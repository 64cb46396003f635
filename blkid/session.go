// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/siderolabs/go-blockprobe/blkid/internal/filter"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/block"
)

// Session is a probing session over a single device.
//
// Session is not safe for concurrent use, independent sessions can be used concurrently.
type Session struct { //nolint:govet
	options ProbeOptions
	logger  *zap.Logger

	dev      Device
	path     string
	geometry Geometry

	// disk is set when the device is a partition of a whole disk.
	disk *wholeDisk
	// lock is called to lock the device for the duration of the scan, if set.
	lock func() (unlock func(), err error)
	// skipReason is set when the device should never be probed.
	skipReason string

	enabled [numCategories]bool
	filters [numCategories]*filter.Filter
	flags   SuperblockFlags

	results [numCategories]*snapshot
	scanned bool
	closed  bool
}

// NewSession creates a new unattached session.
//
// By default only superblocks are probed.
func NewSession(opts ...ProbeOption) *Session {
	options := applyProbeOptions(opts...)

	s := &Session{
		options: options,
		logger:  options.Logger,
		flags:   SuperblockDefault,
	}

	s.enabled[Superblocks] = true

	return s
}

// Attach the session to the device.
//
// The session takes ownership of the device, it is closed with the session,
// or immediately if the attach fails.
func (s *Session) Attach(dev Device) error {
	if err := s.checkAttach(); err != nil {
		return err
	}

	size, err := dev.GetSize()
	if err != nil {
		dev.Close() //nolint:errcheck

		return &DeviceError{Err: fmt.Errorf("failed to get size: %w", err)}
	}

	sectorSize := dev.GetSectorSize()
	if sectorSize == 0 {
		sectorSize = block.DefaultBlockSize
	}

	ioSize := sectorSize

	if sizer, ok := dev.(ioSizer); ok {
		if optimal, err := sizer.GetIOSize(); err == nil && optimal > 0 {
			ioSize = optimal
		}
	}

	return s.attach(dev, "", Geometry{
		DeviceSize: size,
		SectorSize: sectorSize,
		IOSize:     ioSize,
	})
}

func (s *Session) checkAttach() error {
	if s.closed {
		return ErrClosed
	}

	if s.dev != nil {
		return ErrAlreadyAttached
	}

	return nil
}

func (s *Session) attach(dev Device, path string, geometry Geometry) error {
	deviceError := func(err error) error {
		dev.Close() //nolint:errcheck

		return &DeviceError{Path: path, Err: err}
	}

	if geometry.DeviceSize == 0 {
		return deviceError(errors.New("device is empty"))
	}

	probedSize := geometry.DeviceSize - min(s.options.WindowOffset, geometry.DeviceSize)

	if s.options.WindowOffset >= geometry.DeviceSize {
		return deviceError(fmt.Errorf("probing window offset %d is out of the device of size %d", s.options.WindowOffset, geometry.DeviceSize))
	}

	if s.options.WindowSize > 0 {
		if s.options.WindowSize > probedSize {
			return deviceError(fmt.Errorf("probing window is out of bounds: offset %d + size %d > size %d",
				s.options.WindowOffset, s.options.WindowSize, geometry.DeviceSize))
		}

		probedSize = s.options.WindowSize
	}

	geometry.ProbedSize = probedSize

	s.dev = dev
	s.path = path
	s.geometry = geometry

	s.logger.Debug("attached device",
		zap.String("path", path),
		zap.Uint64("size", geometry.DeviceSize),
		zap.Uint64("probed_size", geometry.ProbedSize),
		zap.Uint("sector_size", geometry.SectorSize),
		zap.Uint("io_size", geometry.IOSize),
	)

	return nil
}

// EnableCategory enables or disables probing of the category.
func (s *Session) EnableCategory(category Category, enabled bool) error {
	if err := s.checkConfigure(category); err != nil {
		return err
	}

	s.enabled[category] = enabled

	return nil
}

// SetFilter replaces the filter of the category.
func (s *Session) SetFilter(category Category, mode FilterMode, names ...string) error {
	if err := s.checkConfigure(category); err != nil {
		return err
	}

	s.filters[category] = filter.New(mode.mode(), names...)

	return nil
}

// ClearFilter removes the filter of the category.
func (s *Session) ClearFilter(category Category) error {
	if err := s.checkConfigure(category); err != nil {
		return err
	}

	s.filters[category] = nil

	return nil
}

// SetSuperblockFlags sets the superblock values to report.
func (s *Session) SetSuperblockFlags(flags SuperblockFlags) error {
	if s.closed {
		return ErrClosed
	}

	s.flags = flags

	return nil
}

func (s *Session) checkConfigure(category Category) error {
	if s.closed {
		return ErrClosed
	}

	if !category.valid() {
		return fmt.Errorf("unknown category %s", category)
	}

	return nil
}

// Run probes the device for every enabled category.
//
// Results of the enabled categories are replaced only if probing all of them succeeds,
// on failure the results of the previous run stay intact.
func (s *Session) Run() error {
	if s.closed {
		return ErrClosed
	}

	if s.dev == nil {
		return ErrNotAttached
	}

	if !slices.Contains(s.enabled[:], true) {
		return ErrNoCategory
	}

	next := s.results

	if s.skipReason != "" {
		s.logger.Debug("skipping probe", zap.String("reason", s.skipReason))

		for category, enabled := range s.enabled {
			if enabled {
				next[category] = &snapshot{}
			}
		}

		s.commit(next)

		return nil
	}

	if s.lock != nil && !s.options.SkipLocking {
		unlock, err := s.lock()
		if err != nil {
			return err
		}

		defer unlock()
	}

	window := probe.NewWindow(s.dev, s.options.WindowOffset, s.geometry.ProbedSize, s.geometry.SectorSize)

	for category, enabled := range s.enabled {
		if !enabled {
			continue
		}

		logger := s.logger.With(zap.Stringer("category", Category(category)))

		var (
			snap *snapshot
			err  error
		)

		switch Category(category) {
		case Superblocks:
			snap, err = probeSuperblocks(logger, window, s.geometry.IOSize, s.filters[category], s.flags)
		case Partitions:
			snap, err = probePartitions(logger, window, s.geometry.IOSize, s.filters[category], s.disk)
		}

		if err != nil {
			return fmt.Errorf("failed to probe %s: %w", Category(category), err)
		}

		logger.Debug("probe finished", zap.String("detector", snap.detector), zap.Int("values", len(snap.values)))

		next[category] = snap
	}

	s.commit(next)

	return nil
}

func (s *Session) commit(next [numCategories]*snapshot) {
	s.results = next
	s.scanned = true
}

func (s *Session) checkQuery() error {
	if s.closed {
		return ErrClosed
	}

	if !s.scanned {
		return ErrNotScanned
	}

	return nil
}

// Lookup returns the value of the key from the last run.
func (s *Session) Lookup(key string) (string, error) {
	if err := s.checkQuery(); err != nil {
		return "", err
	}

	for _, snap := range s.results {
		if snap == nil {
			continue
		}

		if value, ok := snap.lookup(key); ok {
			return value, nil
		}
	}

	return "", ErrNotPresent
}

// Values returns all values from the last run, superblock values first.
func (s *Session) Values() ([]Value, error) {
	if err := s.checkQuery(); err != nil {
		return nil, err
	}

	var values []Value

	for _, snap := range s.results {
		if snap != nil {
			values = append(values, snap.values...)
		}
	}

	return values, nil
}

func (s *Session) snapshot(category Category) (*snapshot, error) {
	if err := s.checkQuery(); err != nil {
		return nil, err
	}

	if !category.valid() {
		return nil, fmt.Errorf("unknown category %s", category)
	}

	snap := s.results[category]
	if snap == nil {
		return nil, ErrNotScanned
	}

	return snap, nil
}

// Detector returns the name of the detector which matched in the category.
func (s *Session) Detector(category Category) (string, error) {
	snap, err := s.snapshot(category)
	if err != nil {
		return "", err
	}

	if snap.detector == "" {
		return "", ErrNotFound
	}

	return snap.detector, nil
}

// PartitionEntries returns the entries of the detected partition table.
//
// The list is empty if the partition category was not scanned.
func (s *Session) PartitionEntries() ([]PartitionEntry, error) {
	if err := s.checkQuery(); err != nil {
		return nil, err
	}

	snap := s.results[Partitions]
	if snap == nil {
		return []PartitionEntry{}, nil
	}

	return slices.Clone(snap.entries), nil
}

// Warnings returns the non-fatal problems found during the last run.
func (s *Session) Warnings() ([]string, error) {
	if err := s.checkQuery(); err != nil {
		return nil, err
	}

	var warnings []string

	for _, snap := range s.results {
		if snap != nil {
			warnings = append(warnings, snap.warnings...)
		}
	}

	return warnings, nil
}

// Geometry returns the geometry of the attached device.
func (s *Session) Geometry() (Geometry, error) {
	if s.closed {
		return Geometry{}, ErrClosed
	}

	if s.dev == nil {
		return Geometry{}, ErrNotAttached
	}

	return s.geometry, nil
}

// Path returns the path of the attached device, if known.
//
// It is empty after Close.
func (s *Session) Path() string {
	return s.path
}

// Close releases the device.
//
// Close is idempotent, any other call after Close fails with ErrClosed.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true
	s.results = [numCategories]*snapshot{}
	s.path = ""

	var errs []error

	if s.disk != nil {
		errs = append(errs, s.disk.dev.Close())
	}

	if s.dev != nil {
		errs = append(errs, s.dev.Close())
	}

	return errors.Join(errs...)
}
