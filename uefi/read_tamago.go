// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package uefi

import (
	"errors"

	"github.com/usbarmory/tamago/dma"
)

// read returns a copy of size bytes of firmware memory at the argument
// address.
func read(addr uint64, size int) (buf []byte, err error) {
	if addr == 0 {
		return nil, errors.New("invalid address")
	}

	n := size + (size % align)
	r, err := dma.NewRegion(uint(addr), n, true)

	if err != nil {
		return
	}

	ptr, b := r.Reserve(size, 0)
	defer r.Release(ptr)

	buf = make([]byte, size)
	copy(buf, b)

	return
}
