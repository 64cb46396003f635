// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package chain provides a list of probers for different filesystems and volume managers.
package chain

import (
	"sync"

	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/bluestore"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/btrfs"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/ext"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/iso9660"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/luks"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/lvm2"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/squashfs"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/swap"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/talosmeta"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/vfat"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/xfs"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filesystems/zfs"
	"github.com/siderolabs/go-blockprobe/blkid/internal/partitions/dos"
	"github.com/siderolabs/go-blockprobe/blkid/internal/partitions/gpt"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
)

// Chain is a list of probers.
type Chain []probe.Prober

// MaxMagicSize returns the maximum size of the magic value in the chain.
func (chain Chain) MaxMagicSize() int {
	maxSize := 0

	for _, prober := range chain {
		for _, magic := range prober.Magic() {
			maxSize = max(maxSize, magic.BlockSize())
		}
	}

	return maxSize
}

// MagicMatches returns the probers that match the magic value in the buffer.
//
// Matches are returned in the chain order, a prober might match several times with different magic values.
func (chain Chain) MagicMatches(buf []byte) []probe.MagicMatch {
	var matches []probe.MagicMatch

	for _, prober := range chain {
		for _, magic := range prober.Magic() {
			if magic.Matches(buf) {
				matches = append(matches, probe.MagicMatch{Magic: *magic, Prober: prober})
			}
		}
	}

	return matches
}

// Names returns the names of the probers in the chain order.
func (chain Chain) Names() []string {
	names := make([]string, 0, len(chain))

	for _, prober := range chain {
		names = append(names, prober.Name())
	}

	return names
}

// Superblocks returns a list of probers for the filesystems and volume managers.
//
// The chain is built once, probers are stateless and shared.
var Superblocks = sync.OnceValue(func() Chain {
	return Chain{
		&luks.Probe{},
		&lvm2.Probe{},
		&bluestore.Probe{},
		&talosmeta.Probe{},
		&iso9660.Probe{},
		&xfs.Probe{},
		&ext.Probe{Variant: ext.JBD},
		&ext.Probe{Variant: ext.Ext4},
		&ext.Probe{Variant: ext.Ext3},
		&ext.Probe{Variant: ext.Ext2},
		&btrfs.Probe{},
		&squashfs.Probe{},
		&squashfs.Probe3{},
		&swap.Probe{},
		&vfat.Probe{},
		&zfs.Probe{},
	}
})

// Partitions returns a list of probers for the partition tables.
var Partitions = sync.OnceValue(func() Chain {
	return Chain{
		&gpt.Probe{},
		&dos.Probe{},
	}
})
