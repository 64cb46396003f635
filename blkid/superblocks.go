// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/siderolabs/go-blockprobe/blkid/internal/chain"
	"github.com/siderolabs/go-blockprobe/blkid/internal/filter"
	"github.com/siderolabs/go-blockprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blockprobe/blkid/internal/utils"
)

func probeSuperblocks(logger *zap.Logger, w *probe.Window, ioSize uint, f *filter.Filter, flags SuperblockFlags) (*snapshot, error) {
	m, err := matchChain(logger, chain.Superblocks(), f, w, ioSize, func(match probe.MagicMatch, res *probe.Result) bool {
		if !res.BadChecksum {
			return true
		}

		if !flags.Has(SuperblockBadChecksum) {
			logger.Debug("superblock checksum mismatch, rejecting", zap.String("prober", match.Prober.Name()))

			return false
		}

		logger.Warn("superblock checksum mismatch", zap.String("prober", match.Prober.Name()))

		return true
	})
	if err != nil {
		return nil, err
	}

	snap := &snapshot{}

	if m == nil {
		return snap, nil
	}

	snap.detector = m.Prober.Name()
	res := m.result

	setIf := func(flag SuperblockFlags, key, value string) {
		if flags.Has(flag) && value != "" {
			snap.add(key, value)
		}
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}

		return *s
	}

	labelRaw := utils.CString(res.LabelRaw)
	if res.LabelRaw == nil && res.Label != nil {
		labelRaw = []byte(*res.Label)
	}

	var uuidRaw string

	if res.UUID != nil {
		uuidRaw = string(res.UUIDRaw)
	}

	var magic, magicOffset string

	if len(m.Magic.Value) > 0 {
		magic, magicOffset = string(m.Magic.Value), strconv.Itoa(m.Magic.Offset)
	}

	var fsSize string

	if res.ProbedSize > 0 {
		fsSize = strconv.FormatUint(res.ProbedSize, 10)
	}

	setIf(SuperblockType, KeyType, snap.detector)
	setIf(SuperblockSecType, KeySecType, res.SecType)
	setIf(SuperblockLabel, KeyLabel, deref(res.Label))
	setIf(SuperblockLabelRaw, KeyLabelRaw, string(labelRaw))
	setIf(SuperblockUUID, KeyUUID, deref(res.UUID))
	setIf(SuperblockUUID, KeyUUIDSub, deref(res.UUIDSub))
	setIf(SuperblockUUID, KeyLogUUID, deref(res.LogUUID))
	setIf(SuperblockUUIDRaw, KeyUUIDRaw, uuidRaw)
	setIf(SuperblockUUID, KeyExtJournal, deref(res.ExtJournal))
	setIf(SuperblockUsage, KeyUsage, m.Prober.Usage().String())
	setIf(SuperblockVersion, KeyVersion, res.Version)
	setIf(SuperblockFSInfo, KeyMount, res.Mount)
	setIf(SuperblockMagic, KeySBMagic, magic)
	setIf(SuperblockMagic, KeySBMagicOffset, magicOffset)
	setIf(SuperblockFSInfo, KeyFSSize, fsSize)
	setIf(SuperblockFSInfo, KeySystemID, res.SystemID)
	setIf(SuperblockFSInfo, KeyPublisherID, res.PublisherID)
	setIf(SuperblockFSInfo, KeyApplicationID, res.ApplicationID)
	setIf(SuperblockFSInfo, KeyBootSystemID, res.BootSystemID)

	if res.BadChecksum {
		snap.add(KeySBBadCSum, "1")
	}

	snap.warnings = res.Warnings

	return snap, nil
}
