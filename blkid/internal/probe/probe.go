// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package probe defines common probe interfaces.
package probe

import (
	"io"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
)

// Reader is a context for probing filesystems and volume managers.
type Reader interface {
	io.ReaderAt

	GetSectorSize() uint
	GetSize() uint64
}

// Usage describes what the detected structure is used for.
type Usage int

// Usage values.
const (
	UsageFilesystem Usage = iota + 1
	UsageRaid
	UsageCrypto
	UsageOther
)

func (u Usage) String() string {
	switch u {
	case UsageFilesystem:
		return "filesystem"
	case UsageRaid:
		return "raid"
	case UsageCrypto:
		return "crypto"
	case UsageOther:
		return "other"
	default:
		return ""
	}
}

// Prober is an interface for probing filesystems, volume managers and partition tables.
type Prober interface {
	// Name returns the name of the filesystem or volume manager.
	Name() string
	// Usage returns the usage of the detected structure.
	Usage() Usage
	// Magic returns the magic value for the filesystem or volume manager.
	Magic() []*magic.Magic
	// Probe runs the further inspection and returns the result if successful.
	//
	// Probe returns nil result if the structure doesn't pass validation.
	Probe(Reader, magic.Magic) (*Result, error)
}

// MagicMatch is a prober with the magic value which matched.
type MagicMatch struct {
	Magic  magic.Magic
	Prober Prober
}

// Result is a probe result.
type Result struct { //nolint:govet
	Label    *string
	LabelRaw []byte

	UUID       *string
	UUIDRaw    []byte
	UUIDSub    *string
	LogUUID    *string
	ExtJournal *string

	SecType string
	Version string
	Mount   string

	SystemID      string
	PublisherID   string
	ApplicationID string
	BootSystemID  string

	// BadChecksum is set if the structure was recognized, but the checksum doesn't match.
	BadChecksum bool

	BlockSize           uint32
	FilesystemBlockSize uint32
	ProbedSize          uint64

	Parts    []Partition
	Warnings []string
}

// Partition is a probe sub-result.
type Partition struct {
	UUID *string
	Type string
	Name *string

	Index uint // 1-based index
	Flags uint64

	Offset uint64
	Size   uint64
}
