// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"runtime"
)

// EFI Boot Services offsets
const (
	handleProtocol = 0x098
	locateHandle   = 0x0b0
	locateProtocol = 0x140
)

// EFI_LOCATE_SEARCH_TYPE
const (
	AllHandles = iota
	ByRegisterNotify
	ByProtocol
)

// initial LocateHandle() buffer size, in handles
const defaultHandles = 16

// HandleProtocol calls EFI_BOOT_SERVICES.HandleProtocol().
func (s *BootServices) HandleProtocol(handle uint64, guid GUID) (addr uint64, err error) {
	var pinner runtime.Pinner

	g := &guid
	a := new(uint64)

	pinner.Pin(g)
	pinner.Pin(a)
	defer pinner.Unpin()

	status := callService(s.base+handleProtocol,
		[]uint64{
			handle,
			g.ptrval(),
			ptrval(a),
		},
	)

	return *a, parseStatus(status)
}

// LocateProtocol calls EFI_BOOT_SERVICES.LocateProtocol().
func (s *BootServices) LocateProtocol(guid GUID) (addr uint64, err error) {
	var pinner runtime.Pinner

	g := &guid
	a := new(uint64)

	pinner.Pin(g)
	pinner.Pin(a)
	defer pinner.Unpin()

	status := callService(s.base+locateProtocol,
		[]uint64{
			g.ptrval(),
			0,
			ptrval(a),
		},
	)

	return *a, parseStatus(status)
}

// LocateProtocolString calls EFI_BOOT_SERVICES.LocateProtocol() on a GUID in
// registry string format.
func (s *BootServices) LocateProtocolString(g string) (addr uint64, err error) {
	guid, err := ParseGUID(g)

	if err != nil {
		return
	}

	return s.LocateProtocol(guid)
}

// LocateHandle calls EFI_BOOT_SERVICES.LocateHandle() to return all handles
// supporting the argument protocol.
func (s *BootServices) LocateHandle(guid GUID) (handles []uint64, err error) {
	var pinner runtime.Pinner

	g := &guid
	size := new(uint64)

	pinner.Pin(g)
	pinner.Pin(size)
	defer pinner.Unpin()

	handles = make([]uint64, defaultHandles)

	for {
		*size = uint64(len(handles) * 8)
		pinner.Pin(&handles[0])

		status := callService(s.base+locateHandle,
			[]uint64{
				ByProtocol,
				g.ptrval(),
				0,
				ptrval(size),
				ptrval(handles),
			},
		)

		if n := int((*size + 7) / 8); status == EFI_ERROR|EFI_BUFFER_TOO_SMALL && n > len(handles) {
			handles = make([]uint64, n)
			continue
		}

		if err = parseStatus(status); err != nil {
			return nil, err
		}

		if n := int(*size / 8); n < len(handles) {
			handles = handles[:n]
		}

		return
	}
}
