// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package luks probes LUKS encrypted filesystems.
package luks

import (
	"encoding/binary"
	"strconv"

	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blockprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// LUKS binary header constants, shared by v1 and v2 headers.
//
//nolint:revive,stylecheck
const (
	LUKS_HEADER_SIZE = 512

	LUKS_VERSION_OFF = 6
	LUKS2_LABEL_OFF  = 24
	LUKS2_LABEL_LEN  = 48
	LUKS_UUID_OFF    = 168
	LUKS_UUID_LEN    = 40
)

var luksMagic = magic.Magic{
	Offset: 0,
	Value:  []byte("LUKS\xba\xbe"),
}

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&luksMagic}
}

// Name returns the name of the filesystem.
func (p *Probe) Name() string {
	return "crypto_LUKS"
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.UsageCrypto
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r probe.Reader, _ magic.Magic) (*probe.Result, error) {
	buf, err := ioutil.ReadSection(r, 0, LUKS_HEADER_SIZE)
	if err != nil {
		return nil, err
	}

	version := binary.BigEndian.Uint16(buf[LUKS_VERSION_OFF:])
	if version != 1 && version != 2 {
		return nil, nil //nolint:nilnil
	}

	res := &probe.Result{
		Version: strconv.Itoa(int(version)),
	}

	if version == 2 {
		lbl := buf[LUKS2_LABEL_OFF : LUKS2_LABEL_OFF+LUKS2_LABEL_LEN]

		res.Label = utils.Label(lbl)
		res.LabelRaw = lbl
	}

	if uuidStr := utils.CString(buf[LUKS_UUID_OFF : LUKS_UUID_OFF+LUKS_UUID_LEN]); len(uuidStr) > 0 {
		if parsed, err := uuid.ParseBytes(uuidStr); err == nil {
			res.UUID = pointer.To(parsed.String())
		} else {
			res.UUID = pointer.To(string(uuidStr))
		}

		res.UUIDRaw = uuidStr
	}

	return res, nil
}
