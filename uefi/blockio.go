// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
)

var EFI_BLOCK_IO_PROTOCOL_GUID = MustParseGUID("964e5b21-6459-11d2-8e39-00a0c969723b")

// blockIO represents an EFI Block I/O Protocol instance.
type blockIO struct {
	Revision    uint64
	Media       uint64
	Reset       uint64
	ReadBlocks  uint64
	WriteBlocks uint64
	FlushBlocks uint64
}

// BlockIOMedia represents an EFI Block I/O Media instance.
type BlockIOMedia struct {
	MediaID          uint32
	RemovableMedia   bool
	MediaPresent     bool
	LogicalPartition bool
	ReadOnly         bool
	WriteCaching     bool
	_                [3]byte
	BlockSize        uint32
	IoAlign          uint32
	_                uint32
	LastBlock        uint64
}

// Size returns the medium size in bytes.
func (m *BlockIOMedia) Size() uint64 {
	return (m.LastBlock + 1) * uint64(m.BlockSize)
}

// GetBlockIOMedia returns the EFI Block I/O Media instance of the argument
// handle, its MediaID is the one expected by security protocol commands
// addressed to the same handle.
func (s *BootServices) GetBlockIOMedia(handle uint64) (m *BlockIOMedia, err error) {
	var addr uint64

	if addr, err = s.HandleProtocol(handle, EFI_BLOCK_IO_PROTOCOL_GUID); err != nil {
		return
	}

	b := &blockIO{}

	if err = decode(b, addr); err != nil {
		return
	}

	if b.Media == 0 {
		return nil, errors.New("invalid media pointer")
	}

	m = &BlockIOMedia{}
	err = decode(m, b.Media)

	return
}
