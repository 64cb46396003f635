// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package imagetest

import (
	"bytes"

	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
)

// Reader wraps the image into a probing window with 512-byte sectors.
func Reader(buf []byte) *probe.Window {
	return probe.NewWindow(bytes.NewReader(buf), 0, uint64(len(buf)), 512)
}

// Probe runs the prober with the first of its magic values found in the image.
//
// Nil result is returned if no magic value matches.
func Probe(p probe.Prober, buf []byte) (*probe.Result, error) {
	for _, m := range p.Magic() {
		if m.Matches(buf) {
			return p.Probe(Reader(buf), *m)
		}
	}

	return nil, nil //nolint:nilnil
}
