// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package ext probes extfs filesystems.
//
// A single superblock format is shared by ext2, ext3, ext4 and external journal
// devices, the feature sets tell them apart.
package ext

import (
	"fmt"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
)

const sbOffset = 0x400

// Various extfs constants.
//
//nolint:stylecheck,revive
const (
	EXT3_FEATURE_COMPAT_HAS_JOURNAL = 0x0004

	EXT2_FEATURE_RO_COMPAT_SPARSE_SUPER  = 0x0001
	EXT2_FEATURE_RO_COMPAT_LARGE_FILE    = 0x0002
	EXT2_FEATURE_RO_COMPAT_BTREE_DIR     = 0x0004
	EXT4_FEATURE_RO_COMPAT_METADATA_CSUM = 0x0400

	EXT2_FEATURE_INCOMPAT_FILETYPE    = 0x0002
	EXT3_FEATURE_INCOMPAT_RECOVER     = 0x0004
	EXT3_FEATURE_INCOMPAT_JOURNAL_DEV = 0x0008
	EXT2_FEATURE_INCOMPAT_META_BG     = 0x0010
	EXT4_FEATURE_INCOMPAT_64BIT       = 0x0080

	EXT2_FEATURE_RO_COMPAT_SUPP = EXT2_FEATURE_RO_COMPAT_SPARSE_SUPER | EXT2_FEATURE_RO_COMPAT_LARGE_FILE | EXT2_FEATURE_RO_COMPAT_BTREE_DIR
	EXT2_FEATURE_INCOMPAT_SUPP  = EXT2_FEATURE_INCOMPAT_FILETYPE | EXT2_FEATURE_INCOMPAT_META_BG
	EXT3_FEATURE_RO_COMPAT_SUPP = EXT2_FEATURE_RO_COMPAT_SUPP
	EXT3_FEATURE_INCOMPAT_SUPP  = EXT2_FEATURE_INCOMPAT_FILETYPE | EXT3_FEATURE_INCOMPAT_RECOVER | EXT2_FEATURE_INCOMPAT_META_BG
)

var extfsMagic = magic.Magic{
	Offset: sbOffset + 0x38,
	Value:  []byte("\123\357"),
}

// Variant is a flavor of the extfs superblock.
type Variant int

// Variants in the order they should be probed.
const (
	JBD Variant = iota
	Ext4
	Ext3
	Ext2
)

// Probe for the filesystem.
type Probe struct {
	Variant Variant
}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&extfsMagic}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	switch p.Variant {
	case JBD:
		return "jbd"
	case Ext4:
		return "ext4"
	case Ext3:
		return "ext3"
	case Ext2:
		return "ext2"
	default:
		return ""
	}
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	if p.Variant == JBD {
		return probe.UsageOther
	}

	return probe.UsageFilesystem
}

func (p *Probe) accepts(sb SuperBlock) bool {
	compat, incompat, roCompat := sb.FeatureCompat(), sb.FeatureIncompat(), sb.FeatureROCompat()

	switch p.Variant {
	case JBD:
		return incompat&EXT3_FEATURE_INCOMPAT_JOURNAL_DEV != 0
	case Ext4:
		if incompat&EXT3_FEATURE_INCOMPAT_JOURNAL_DEV != 0 {
			return false
		}

		// ext4 has at least one feature ext3 doesn't understand
		return roCompat&^EXT3_FEATURE_RO_COMPAT_SUPP != 0 || incompat&^EXT3_FEATURE_INCOMPAT_SUPP != 0
	case Ext3:
		if compat&EXT3_FEATURE_COMPAT_HAS_JOURNAL == 0 {
			return false
		}

		return roCompat&^EXT3_FEATURE_RO_COMPAT_SUPP == 0 && incompat&^EXT3_FEATURE_INCOMPAT_SUPP == 0
	case Ext2:
		if compat&EXT3_FEATURE_COMPAT_HAS_JOURNAL != 0 {
			return false
		}

		return roCompat&^EXT2_FEATURE_RO_COMPAT_SUPP == 0 && incompat&^EXT2_FEATURE_INCOMPAT_SUPP == 0
	default:
		return false
	}
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	buf := make([]byte, SUPERBLOCK_SIZE)

	if _, err := r.ReadAt(buf, sbOffset); err != nil {
		return nil, err
	}

	sb := SuperBlock(buf)

	if !p.accepts(sb) {
		return nil, nil //nolint:nilnil
	}

	res := &probe.Result{
		Version: fmt.Sprintf("%d.%d", sb.RevLevel(), sb.MinorRevLevel()),

		BlockSize:           sb.BlockSize(),
		FilesystemBlockSize: sb.BlockSize(),
		ProbedSize:          sb.FilesystemSize(),
	}

	if sb.FeatureROCompat()&EXT4_FEATURE_RO_COMPAT_METADATA_CSUM != 0 {
		res.BadChecksum = utils.CRC32c(buf[:SUPERBLOCK_SIZE-4]) != sb.Checksum()
	}

	res.UUID = utils.UUID(sb.UUID())
	res.UUIDRaw = sb.UUID()
	res.Label = utils.Label(sb.VolumeName())
	res.LabelRaw = sb.VolumeName()

	if p.Variant == JBD {
		// an external journal is identified by its own UUID
		res.LogUUID = res.UUID

		return res, nil
	}

	if p.Variant == Ext3 {
		res.SecType = "ext2"
	}

	res.Mount = string(utils.CString(sb.LastMounted()))

	if sb.FeatureCompat()&EXT3_FEATURE_COMPAT_HAS_JOURNAL != 0 {
		res.ExtJournal = utils.UUID(sb.JournalUUID())
	}

	return res, nil
}
