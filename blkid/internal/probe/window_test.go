// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package probe_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
)

func TestWindow(t *testing.T) {
	data := []byte("0123456789abcdef")

	w := probe.NewWindow(bytes.NewReader(data), 4, 8, 512)

	assert.EqualValues(t, 8, w.GetSize())
	assert.EqualValues(t, 512, w.GetSectorSize())
	assert.EqualValues(t, 4, w.Offset())

	buf := make([]byte, 4)

	n, err := w.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("4567"), buf)

	n, err = w.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("89ab"), buf)

	// reads are idempotent
	n, err = w.ReadAt(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("89ab"), buf)

	for _, off := range []int64{5, 8, 1 << 40, -1} {
		_, err = w.ReadAt(buf, off)
		require.Error(t, err)
		assert.ErrorIs(t, err, probe.ErrOutOfBounds)

		var readErr *probe.ReadError

		require.ErrorAs(t, err, &readErr)
		assert.EqualValues(t, 4, readErr.Length)
	}
}

func TestWindowShortSource(t *testing.T) {
	// window claims more bytes than the source has
	w := probe.NewWindow(bytes.NewReader([]byte("0123")), 0, 16, 512)

	buf := make([]byte, 8)

	_, err := w.ReadAt(buf, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, probe.ErrOutOfBounds)

	// exact read at the end of the source is fine
	n, err := w.ReadAt(buf[:4], 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestUsage(t *testing.T) {
	assert.Equal(t, "filesystem", probe.UsageFilesystem.String())
	assert.Equal(t, "raid", probe.UsageRaid.String())
	assert.Equal(t, "crypto", probe.UsageCrypto.String())
	assert.Equal(t, "other", probe.UsageOther.String())
	assert.Equal(t, "", probe.Usage(0).String())
}
