// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package bluestore probes Ceph bluestore devices.
package bluestore

import (
	"errors"

	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

var blueStoreMagic = magic.Magic{
	Offset: 0,
	Value:  []byte("bluestore block device"),
}

// The label is "bluestore block device\n<osd uuid>\n".
const (
	uuidOffset = 23
	uuidLength = 36
)

// Probe for the bluestore.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&blueStoreMagic}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "ceph_bluestore"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageOther
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	res := &probe.Result{}

	buf, err := ioutil.ReadSection(r, uuidOffset, uuidLength)
	if err != nil {
		if errors.Is(err, probe.ErrOutOfBounds) {
			return res, nil
		}

		return nil, err
	}

	if osdUUID, err := uuid.ParseBytes(buf); err == nil {
		res.UUID = pointer.To(osdUUID.String())
	}

	return res, nil
}
