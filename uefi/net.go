// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"runtime"
)

var EFI_SIMPLE_NETWORK_PROTOCOL_GUID = MustParseGUID("a19832b9-ac25-11d3-9a2d-0090273fc14d")

const EFI_SIMPLE_NETWORK_TRANSMIT_INTERRUPT = 0x02

// EFI Simple Network Protocol offsets
const (
	start      = 0x08
	stop       = 0x10
	initialize = 0x18
	getStatus  = 0x58
	transmit   = 0x60
	receive    = 0x68
)

// maximum number of GetStatus() polls waiting for transmit completion
const transmitPolls = 1 << 20

// SimpleNetwork represents an EFI Simple Network Protocol instance, it is
// used as network interface for the remote storage security console.
type SimpleNetwork struct {
	base uint64
}

// Address returns the EFI Simple Network Protocol pointer.
func (sn *SimpleNetwork) Address() uint64 {
	return sn.base
}

// Start calls EFI_SIMPLE_NETWORK.Start().
func (sn *SimpleNetwork) Start() (err error) {
	return parseStatus(callService(sn.base+start, []uint64{sn.base}))
}

// Stop calls EFI_SIMPLE_NETWORK.Stop().
func (sn *SimpleNetwork) Stop() (err error) {
	return parseStatus(callService(sn.base+stop, []uint64{sn.base}))
}

// Initialize calls EFI_SIMPLE_NETWORK.Initialize() without additional
// receive or transmit buffer space.
func (sn *SimpleNetwork) Initialize() (err error) {
	status := callService(sn.base+initialize,
		[]uint64{
			sn.base,
			0,
			0,
		},
	)

	return parseStatus(status)
}

// GetStatus calls EFI_SIMPLE_NETWORK.GetStatus().
func (sn *SimpleNetwork) GetStatus() (interruptStatus uint32, txBuf uint64, err error) {
	var pinner runtime.Pinner

	is := new(uint32)
	tx := new(uint64)

	pinner.Pin(is)
	pinner.Pin(tx)
	defer pinner.Unpin()

	status := callService(sn.base+getStatus,
		[]uint64{
			sn.base,
			ptrval(is),
			ptrval(tx),
		},
	)

	return *is, *tx, parseStatus(status)
}

// Transmit calls EFI_SIMPLE_NETWORK.Transmit() on a complete media header
// and payload frame, it then waits for EFI_SIMPLE_NETWORK.GetStatus() to
// report transmit completion.
func (sn *SimpleNetwork) Transmit(buf []byte) (err error) {
	var pinner runtime.Pinner
	var interruptStatus uint32

	if len(buf) == 0 {
		return errors.New("empty frame")
	}

	pin(&pinner, buf)
	defer pinner.Unpin()

	status := callService(sn.base+transmit,
		[]uint64{
			sn.base,
			0,
			uint64(len(buf)),
			ptrval(buf),
			0,
			0,
			0,
		},
	)

	if err = parseStatus(status); err != nil {
		return
	}

	for range transmitPolls {
		if interruptStatus, _, err = sn.GetStatus(); err != nil {
			return
		}

		if interruptStatus&EFI_SIMPLE_NETWORK_TRANSMIT_INTERRUPT != 0 {
			return
		}
	}

	return ErrEfiTimeout
}

// Receive calls EFI_SIMPLE_NETWORK.Receive(), a zero length and no error are
// returned when no frame is available.
func (sn *SimpleNetwork) Receive(buf []byte) (n int, err error) {
	var pinner runtime.Pinner

	if len(buf) == 0 {
		return 0, errors.New("empty buffer")
	}

	size := new(uint64)
	*size = uint64(len(buf))

	pinner.Pin(size)
	pin(&pinner, buf)
	defer pinner.Unpin()

	status := callService(sn.base+receive,
		[]uint64{
			sn.base,
			0,
			ptrval(size),
			ptrval(buf),
			0,
			0,
			0,
		},
	)

	if status == EFI_ERROR|EFI_NOT_READY {
		return 0, nil
	}

	if err = parseStatus(status); err != nil {
		return 0, err
	}

	return int(min(*size, uint64(len(buf)))), nil
}

// GetNetwork locates and returns the EFI Simple Network Protocol instance.
func (s *BootServices) GetNetwork() (sn *SimpleNetwork, err error) {
	sn = &SimpleNetwork{}

	if sn.base, err = s.LocateProtocol(EFI_SIMPLE_NETWORK_PROTOCOL_GUID); err != nil {
		return nil, err
	}

	return
}
