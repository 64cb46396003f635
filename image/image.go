// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package image provides in-memory byte sources for probing disk images.
package image

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/siderolabs/go-blockprobe/block"
)

// Memory is a read-only in-memory disk image.
type Memory struct {
	r *bytes.Reader

	sectorSize uint
	closed     bool
}

// Option configures the Memory image.
type Option func(*Memory)

// WithSectorSize sets the sector size reported by the image.
func WithSectorSize(size uint) Option {
	return func(m *Memory) {
		m.sectorSize = size
	}
}

// NewMemory creates an image backed by the data.
//
// The data should not be modified while the image is in use.
func NewMemory(data []byte, opts ...Option) *Memory {
	m := &Memory{
		r:          bytes.NewReader(data),
		sectorSize: block.DefaultBlockSize,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ReadAt implements io.ReaderAt.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, os.ErrClosed
	}

	return m.r.ReadAt(p, off)
}

// Close the image, reads fail after Close.
func (m *Memory) Close() error {
	m.closed = true

	return nil
}

// GetSize returns the size of the image in bytes.
func (m *Memory) GetSize() (uint64, error) {
	return uint64(m.r.Size()), nil
}

// GetSectorSize returns the sector size of the image.
func (m *Memory) GetSectorSize() uint {
	return m.sectorSize
}

// GetIOSize returns the optimal I/O size for the image.
func (m *Memory) GetIOSize() (uint, error) {
	return m.sectorSize, nil
}

// DecodeZstd decompresses zstd stream into an in-memory image.
func DecodeZstd(r io.Reader, opts ...Option) (*Memory, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress image: %w", err)
	}

	return NewMemory(data, opts...), nil
}

// OpenZstd reads zstd-compressed image from the path.
func OpenZstd(path string, opts ...Option) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close() //nolint:errcheck

	return DecodeZstd(f, opts...)
}

// IsZstd returns true if the path looks like a zstd-compressed image.
func IsZstd(path string) bool {
	return strings.HasSuffix(path, ".zst")
}
