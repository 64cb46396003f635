// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package swap probes Linux swapspaces.
package swap

import (
	"bytes"
	"encoding/binary"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// Swap header layout, following the 1024 bytes of boot bits.
//
//nolint:revive,stylecheck
const (
	SWAPHEADER_OFFSET = 1024
	SWAPHEADER_SIZE   = 44
)

var v0Magic = []byte("SWAP-SPACE")

var (
	swapMagic1 = magic.Magic{
		Offset: 0xff6,
		Value:  []byte("SWAP-SPACE"),
	}

	swapMagic2 = magic.Magic{
		Offset: 0xff6,
		Value:  []byte("SWAPSPACE2"),
	}

	swapMagic3 = magic.Magic{
		Offset: 0x1ff6,
		Value:  []byte("SWAP-SPACE"),
	}

	swapMagic4 = magic.Magic{
		Offset: 0x1ff6,
		Value:  []byte("SWAPSPACE2"),
	}

	swapMagic5 = magic.Magic{
		Offset: 0x3ff6,
		Value:  []byte("SWAP-SPACE"),
	}

	swapMagic6 = magic.Magic{
		Offset: 0x3ff6,
		Value:  []byte("SWAPSPACE2"),
	}

	swapMagic7 = magic.Magic{
		Offset: 0x7ff6,
		Value:  []byte("SWAP-SPACE"),
	}

	swapMagic8 = magic.Magic{
		Offset: 0x7ff6,
		Value:  []byte("SWAPSPACE2"),
	}

	swapMagic9 = magic.Magic{
		Offset: 0xfff6,
		Value:  []byte("SWAP-SPACE"),
	}

	swapMagic10 = magic.Magic{
		Offset: 0xfff6,
		Value:  []byte("SWAPSPACE2"),
	}
)

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{
		&swapMagic1,
		&swapMagic2,
		&swapMagic3,
		&swapMagic4,
		&swapMagic5,
		&swapMagic6,
		&swapMagic7,
		&swapMagic8,
		&swapMagic9,
		&swapMagic10,
	}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "swap"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageOther
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, m magic.Magic) (*probe.Result, error) {
	// https://github.com/util-linux/util-linux/blob/c0207d354ee47fb56acfa64b03b5b559bb301280/libblkid/src/superblocks/swap.c#L47
	pageSize := uint32(m.BlockSize())

	res := &probe.Result{
		BlockSize:           pageSize,
		FilesystemBlockSize: pageSize,
	}

	if bytes.Equal(m.Value, v0Magic) {
		// swap v0 doesn't support labels or UUIDs
		res.Version = "0"

		return res, nil
	}

	buf, err := ioutil.ReadSection(r, SWAPHEADER_OFFSET, SWAPHEADER_SIZE)
	if err != nil {
		return nil, err
	}

	// the header is in the byte order of the machine which created it
	var order binary.ByteOrder

	switch {
	case binary.LittleEndian.Uint32(buf[0:4]) == 1:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(buf[0:4]) == 1:
		order = binary.BigEndian
	default:
		return nil, nil //nolint:nilnil
	}

	lastPage := order.Uint32(buf[4:8])
	if lastPage == 0 {
		return nil, nil //nolint:nilnil
	}

	res.Version = "1"
	res.ProbedSize = uint64(pageSize) * uint64(lastPage)
	res.UUID = utils.UUID(buf[12:28])
	res.UUIDRaw = buf[12:28]
	res.Label = utils.Label(buf[28:44])
	res.LabelRaw = buf[28:44]

	return res, nil
}
