// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package ioutil_test

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// oneByteReaderAt returns at most one byte per call.
type oneByteReaderAt struct {
	r io.ReaderAt
}

func (o oneByteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}

	return o.r.ReadAt(p, off)
}

func TestReadFullAt(t *testing.T) {
	data := []byte("0123456789")

	buf := make([]byte, 4)
	require.NoError(t, ioutil.ReadFullAt(oneByteReaderAt{bytes.NewReader(data)}, buf, 3))
	assert.Equal(t, []byte("3456"), buf)

	require.NoError(t, ioutil.ReadFullAt(bytes.NewReader(data), buf, 6))
	assert.Equal(t, []byte("6789"), buf)

	assert.ErrorIs(t, ioutil.ReadFullAt(bytes.NewReader(data), buf, 8), io.ErrUnexpectedEOF)
	assert.ErrorIs(t, ioutil.ReadFullAt(errReaderAt{}, buf, 0), iotest.ErrTimeout)
}

func TestReadSection(t *testing.T) {
	buf, err := ioutil.ReadSection(bytes.NewReader([]byte("0123456789")), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("234"), buf)

	_, err = ioutil.ReadSection(bytes.NewReader([]byte("0123456789")), 9, 3)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type errReaderAt struct{}

func (errReaderAt) ReadAt([]byte, int64) (int, error) {
	return 0, iotest.ErrTimeout
}
