// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package talosmeta probes Talos META partition.
package talosmeta

import (
	"encoding/binary"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// Talos ADV layout.
const (
	magic1 uint32 = 0x5a4b3c2d
	magic2 uint32 = 0xa5b4c3d2
	length        = 256 * 1024
)

var metaMagic = magic.Magic{
	Offset: 0,
	Value:  binary.BigEndian.AppendUint32(nil, magic1),
}

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{
		&metaMagic,
	}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "talosmeta"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageOther
}

// validCopy checks the magic values at both ends of the META copy.
func validCopy(r probe.Reader, offset int64) (bool, error) {
	if uint64(offset+length) > r.GetSize() {
		return false, nil
	}

	var head, tail [4]byte

	if err := ioutil.ReadFullAt(r, head[:], offset); err != nil {
		return false, err
	}

	if err := ioutil.ReadFullAt(r, tail[:], offset+length-4); err != nil {
		return false, err
	}

	return binary.BigEndian.Uint32(head[:]) == magic1 && binary.BigEndian.Uint32(tail[:]) == magic2, nil
}

// Probe runs the further inspection and returns the result if successful.
//
// META is a pair of copies, any of them being intact is enough.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	for _, offset := range []int64{0, length} {
		valid, err := validCopy(r, offset)
		if err != nil {
			return nil, err
		}

		if valid {
			return &probe.Result{
				ProbedSize: 2 * length,
			}, nil
		}
	}

	return nil, nil //nolint:nilnil
}
