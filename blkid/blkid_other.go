// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build !linux

package blkid

import (
	"fmt"
	"os"
)

func openForProbe(path string) (*os.File, error) {
	return os.Open(path)
}

// AttachFile attaches the session to the file.
//
// Only regular files (images) are supported on this platform.
// The session takes ownership of the file.
func (s *Session) AttachFile(f *os.File) error {
	if err := s.checkAttach(); err != nil {
		f.Close() //nolint:errcheck

		return err
	}

	st, err := f.Stat()
	if err != nil {
		return statError(f, err)
	}

	if !st.Mode().IsRegular() {
		f.Close() //nolint:errcheck

		return &DeviceError{Path: f.Name(), Err: fmt.Errorf("unsupported file type: %s", st.Mode().Type())}
	}

	return s.attachRegular(f, st)
}
