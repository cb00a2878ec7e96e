// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !tamago

package uefi

import (
	"bytes"
	"errors"
	"unsafe"
)

// read returns a copy of size bytes of memory at the argument address, on
// hosted builds firmware structures are simulated in process memory.
func read(addr uint64, size int) (buf []byte, err error) {
	if addr == 0 {
		return nil, errors.New("invalid address")
	}

	return bytes.Clone(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), size)), nil
}
