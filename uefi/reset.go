// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"errors"
	"runtime"
	"unicode/utf16"
)

// EFI Runtime Services offset for ResetSystem
const resetSystem = 0x68

// EFI_RESET_SYSTEM
const (
	EfiResetCold = iota
	EfiResetWarm
	EfiResetShutdown
	EfiResetPlatformSpecific
)

// resetData returns the ResetData argument of ResetSystem(), a null
// terminated UTF-16 reason string.
func resetData(reason string) (buf []byte) {
	if len(reason) == 0 {
		return
	}

	for _, r := range utf16.Encode([]rune(reason)) {
		buf = binary.LittleEndian.AppendUint16(buf, r)
	}

	return append(buf, 0x00, 0x00)
}

// ResetSystem calls EFI_RUNTIME_SERVICES.ResetSystem() with the argument
// reset status, the reason is passed to firmware as ResetData when not
// empty. The call does not return on success.
func (s *RuntimeServices) ResetSystem(resetType int, status error, reason string) (err error) {
	var pinner runtime.Pinner
	var resetStatus uint64
	var st Status

	switch {
	case status == nil:
		resetStatus = EFI_SUCCESS
	case errors.As(status, &st):
		resetStatus = uint64(st)
	default:
		resetStatus = uint64(ErrEfiAborted)
	}

	data := resetData(reason)

	pin(&pinner, data)
	defer pinner.Unpin()

	ret := callService(s.base+resetSystem,
		[]uint64{
			uint64(resetType),
			resetStatus,
			uint64(len(data)),
			ptrval(data),
		},
	)

	return parseStatus(ret)
}
