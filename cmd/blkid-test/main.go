// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package main implements a tool to probe a block device or an image and dump the results.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siderolabs/go-blockprobe/blkid"
	"github.com/siderolabs/go-blockprobe/image"
)

// superblockFlags omit the raw, magic and filesystem info values.
const superblockFlags = blkid.SuperblockLabel | blkid.SuperblockUUID | blkid.SuperblockType |
	blkid.SuperblockSecType | blkid.SuperblockUsage | blkid.SuperblockVersion | blkid.SuperblockBadChecksum

type options struct {
	debug          bool
	blockDevices   []string
	superblocks    []string
	partitions     []string
	listPartitions bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "blkid-test",
		Short:         "Probe a block device or a disk image for filesystems and partition tables",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(opts.blockDevices) == 0 {
				return errors.New("block device is required")
			}

			logger, err := newLogger(opts.debug)
			if err != nil {
				return err
			}

			defer logger.Sync() //nolint:errcheck

			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), logger, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")
	flags.StringArrayVarP(&opts.blockDevices, "block-device", "b", nil, "block device or image to probe")
	flags.StringArrayVarP(&opts.superblocks, "filter-superblock-type", "s", nil, "superblock type to skip (repeatable)")
	flags.StringArrayVarP(&opts.partitions, "filter-partition-type", "p", nil, "partition table type to skip (repeatable)")
	flags.BoolVar(&opts.listPartitions, "list-partitions", false, "print the entries of the partition table")

	return rootCmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

	return config.Build()
}

func attach(s *blkid.Session, path string) error {
	if !image.IsZstd(path) {
		return s.AttachPath(path)
	}

	img, err := image.OpenZstd(path)
	if err != nil {
		return &blkid.DeviceError{Path: path, Err: err}
	}

	return s.Attach(img)
}

func run(out, errOut io.Writer, logger *zap.Logger, opts options) error {
	path := opts.blockDevices[0]

	s := blkid.NewSession(blkid.WithLogger(logger))
	defer s.Close() //nolint:errcheck

	if err := attach(s, path); err != nil {
		return err
	}

	geometry, err := s.Geometry()
	if err != nil {
		return err
	}

	printValue(out, "block device", path)
	printBytes(out, "device size", geometry.DeviceSize)
	printBytes(out, "size", geometry.ProbedSize)
	printBytes(out, "sector size", uint64(geometry.SectorSize))

	if err = s.SetSuperblockFlags(superblockFlags); err != nil {
		return err
	}

	if len(opts.superblocks) > 0 {
		if err = s.SetFilter(blkid.Superblocks, blkid.FilterExclude, opts.superblocks...); err != nil {
			return err
		}
	}

	if err = s.Run(); err != nil {
		return err
	}

	if err = printKeys(out, s, blkid.SuperblockKeys); err != nil {
		return err
	}

	if err = s.EnableCategory(blkid.Superblocks, false); err != nil {
		return err
	}

	if err = s.EnableCategory(blkid.Partitions, true); err != nil {
		return err
	}

	if len(opts.partitions) > 0 {
		if err = s.SetFilter(blkid.Partitions, blkid.FilterExclude, opts.partitions...); err != nil {
			return err
		}
	}

	if err = s.Run(); err != nil {
		return err
	}

	if err = printKeys(out, s, blkid.PartitionKeys); err != nil {
		return err
	}

	warnings, err := s.Warnings()
	if err != nil {
		return err
	}

	for _, warning := range warnings {
		fmt.Fprintf(errOut, "warning: %s\n", warning)
	}

	if !opts.listPartitions {
		return nil
	}

	entries, err := s.PartitionEntries()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Fprintln(out)

		for _, v := range entry.Values() {
			printValue(out, v.Key, v.Value)
		}

		printBytes(out, "size", entry.Size)
	}

	return nil
}

func printKeys(out io.Writer, s *blkid.Session, keys []string) error {
	for _, key := range keys {
		value, err := s.Lookup(key)
		if err != nil {
			if errors.Is(err, blkid.ErrNotPresent) {
				continue
			}

			return err
		}

		printValue(out, key, value)
	}

	return nil
}

func printValue(out io.Writer, key, value string) {
	// labels are not guaranteed to be text
	if !utf8.ValidString(value) || strings.IndexFunc(value, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
		value = strconv.Quote(value)
	}

	fmt.Fprintf(out, "%-20s: %s\n", key, value)
}

func printBytes(out io.Writer, key string, size uint64) {
	fmt.Fprintf(out, "%-20s: %d bytes\n", key, size)
}
