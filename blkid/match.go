// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

import (
	"errors"

	"go.uber.org/zap"

	"github.com/siderolabs/go-blockprobe/blkid/internal/chain"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filter"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/internal/ioutil"
)

// snapshot is the result of a single category pass.
type snapshot struct {
	detector string
	values   []Value
	entries  []PartitionEntry
	warnings []string
}

func (s *snapshot) add(key, value string) {
	s.values = append(s.values, Value{Key: key, Value: value})
}

func (s *snapshot) lookup(key string) (string, bool) {
	for _, v := range s.values {
		if v.Key == key {
			return v.Value, true
		}
	}

	return "", false
}

// matched is the accepted prober with its result.
type matched struct {
	probe.MagicMatch

	result *probe.Result
}

// toIOError converts read failures into IOError, with the offset relative to the device.
func toIOError(err error, w *probe.Window) error {
	var readErr *probe.ReadError

	if errors.As(err, &readErr) {
		return &IOError{
			Offset: w.Offset() + readErr.Offset,
			Length: readErr.Length,
			Err:    readErr.Err,
		}
	}

	return &IOError{Offset: w.Offset(), Err: err}
}

// matchChain runs the first-match-wins traversal of the chain.
//
// The accept callback can reject a result which passed the prober's own validation.
// It returns nil if nothing matched.
func matchChain(
	logger *zap.Logger, c chain.Chain, f *filter.Filter, w *probe.Window, ioSize uint,
	accept func(probe.MagicMatch, *probe.Result) bool,
) (*matched, error) {
	// read enough data to cover the maximum magic size
	magicReadSize := max(uint64(c.MaxMagicSize()), uint64(ioSize))
	magicReadSize = min(magicReadSize, w.GetSize())

	buf := make([]byte, magicReadSize)

	if err := ioutil.ReadFullAt(w, buf, 0); err != nil {
		return nil, toIOError(err, w)
	}

	for _, match := range c.MagicMatches(buf) {
		name := match.Prober.Name()
		logger := logger.With(zap.String("prober", name))

		if f.ShouldSkip(name) {
			logger.Debug("prober filtered out")

			continue
		}

		logger.Debug("magic matched", zap.Int("magic_offset", match.Magic.Offset))

		res, err := match.Prober.Probe(w, match.Magic)
		if err != nil {
			if errors.Is(err, probe.ErrOutOfBounds) {
				logger.Debug("prober needs data outside of the probed range", zap.Error(err))

				continue
			}

			return nil, toIOError(err, w)
		}

		if res == nil {
			logger.Debug("prober rejected the device")

			continue
		}

		if accept != nil && !accept(match, res) {
			continue
		}

		return &matched{MagicMatch: match, result: res}, nil
	}

	return nil, nil //nolint:nilnil
}
