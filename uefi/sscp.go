// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"runtime"
	"time"
)

// EFI_STORAGE_SECURITY_COMMAND_PROTOCOL is supported on storage devices
// implementing TRUSTED SEND/RECEIVE (ATA8-ACS) or SECURITY PROTOCOL IN/OUT
// (SPC-4) commands, or their NVMe equivalents.
//
// If the device is part of a RAID set the MediaId parameter may not be
// available and its value is undefined for this protocol, it is passed to
// firmware as given.
var EFI_STORAGE_SECURITY_COMMAND_PROTOCOL_GUID = MustParseGUID("c88b0b6d-0dfc-49a7-9cb4-49074b4c3a78")

// EFI Storage Security Command Protocol offsets
const (
	receiveData = 0x00
	sendData    = 0x08
)

// Security Protocol field values (SPC-5 Table 264)
const (
	SecurityProtocolInformation         = 0x00
	SecurityProtocolTCG1                = 0x01
	SecurityProtocolTCG2                = 0x02
	SecurityProtocolTCG3                = 0x03
	SecurityProtocolTCG4                = 0x04
	SecurityProtocolTCG5                = 0x05
	SecurityProtocolTCG6                = 0x06
	SecurityProtocolCbCS                = 0x07
	SecurityProtocolTapeDataEncryption  = 0x20
	SecurityProtocolDataEncryptionConf  = 0x21
	SecurityProtocolSACreation          = 0x40
	SecurityProtocolIKEv2SCSI           = 0x41
	SecurityProtocolJEDECUFS            = 0xec
	SecurityProtocolSDTrustedFlash      = 0xed
	SecurityProtocolIEEE1667            = 0xee
	SecurityProtocolATADeviceServerPass = 0xef
)

// SecurityCommand represents the parameters of a security protocol command.
type SecurityCommand struct {
	// MediaID is the ID of the medium to send data to or receive data
	// from.
	MediaID uint32
	// Timeout, in 100ns units, for the execution of the command. A value
	// of 0 waits indefinitely.
	Timeout uint64
	// Protocol is the "Security Protocol" parameter of the command.
	Protocol uint8
	// ProtocolSpecific is the "Security Protocol Specific" parameter of
	// the command.
	ProtocolSpecific uint16
}

// Timeout converts a duration to the 100ns units of SecurityCommand.Timeout,
// rounding up so that positive durations never select an indefinite wait.
func Timeout(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}

	t := uint64(d) / 100

	if uint64(d)%100 != 0 {
		t += 1
	}

	return t
}

// SecurityCommander represents a device capable of receiving security
// protocol commands.
type SecurityCommander interface {
	// ReceiveData receives data and/or the result of one or more
	// commands sent by SendData.
	ReceiveData(cmd SecurityCommand, buf []byte) (n int, err error)
	// SendData sends a security protocol command to a device.
	SendData(cmd SecurityCommand, buf []byte) (err error)
}

// StorageSecurityCommand represents an EFI Storage Security Command Protocol
// instance.
type StorageSecurityCommand struct {
	// Handle is the EFI handle the protocol is installed on.
	Handle uint64

	base uint64
}

// Address returns the EFI Storage Security Command Protocol pointer.
func (p *StorageSecurityCommand) Address() uint64 {
	return p.base
}

// ReceiveData calls EFI_STORAGE_SECURITY_COMMAND_PROTOCOL.ReceiveData().
//
// The number of bytes written to the buffer is returned, only buf[:n] holds
// valid data. When the buffer is too small to hold the command output
// ErrEfiBufferTooSmall is returned along with the truncated data length.
//
// Other firmware failures are returned with a zero length:
//
//	ErrEfiUnsupported       the command is not supported by the device
//	ErrEfiDeviceError       the device reported an error
//	ErrEfiNoMedia           no medium is present in the device
//	ErrEfiMediaChanged      MediaID does not match the current medium
//	ErrEfiInvalidParameter  the buffer or parameters are invalid
//	ErrEfiTimeout           the command did not complete within Timeout
func (p *StorageSecurityCommand) ReceiveData(cmd SecurityCommand, buf []byte) (n int, err error) {
	var pinner runtime.Pinner

	if p.base == 0 {
		return 0, errors.New("invalid protocol instance")
	}

	size := new(uint64)

	pinner.Pin(size)
	pin(&pinner, buf)
	defer pinner.Unpin()

	status := callService(p.base+receiveData,
		[]uint64{
			p.base,
			uint64(cmd.MediaID),
			cmd.Timeout,
			uint64(cmd.Protocol),
			uint64(cmd.ProtocolSpecific),
			uint64(len(buf)),
			ptrval(buf),
			ptrval(size),
		},
	)

	// the reported transfer size is not trusted beyond buffer bounds
	if n = len(buf); *size < uint64(n) {
		n = int(*size)
	}

	switch status {
	case EFI_SUCCESS:
		return n, nil
	case EFI_WARN_BUFFER_TOO_SMALL, EFI_ERROR | EFI_BUFFER_TOO_SMALL:
		return n, ErrEfiBufferTooSmall
	default:
		return 0, parseStatus(status)
	}
}

// SendData calls EFI_STORAGE_SECURITY_COMMAND_PROTOCOL.SendData().
//
// Firmware failures are returned as:
//
//	ErrEfiUnsupported       the command is not supported by the device
//	ErrEfiDeviceError       the device reported an error
//	ErrEfiNoMedia           no medium is present in the device
//	ErrEfiMediaChanged      MediaID does not match the current medium
//	ErrEfiInvalidParameter  the buffer or parameters are invalid
//	ErrEfiTimeout           the command did not complete within Timeout
func (p *StorageSecurityCommand) SendData(cmd SecurityCommand, buf []byte) (err error) {
	var pinner runtime.Pinner

	if p.base == 0 {
		return errors.New("invalid protocol instance")
	}

	pin(&pinner, buf)
	defer pinner.Unpin()

	status := callService(p.base+sendData,
		[]uint64{
			p.base,
			uint64(cmd.MediaID),
			cmd.Timeout,
			uint64(cmd.Protocol),
			uint64(cmd.ProtocolSpecific),
			uint64(len(buf)),
			ptrval(buf),
		},
	)

	return parseStatus(status)
}

// GetStorageSecurityCommand returns the EFI Storage Security Command Protocol
// instance installed on the argument handle.
func (s *BootServices) GetStorageSecurityCommand(handle uint64) (p *StorageSecurityCommand, err error) {
	p = &StorageSecurityCommand{
		Handle: handle,
	}

	if p.base, err = s.HandleProtocol(handle, EFI_STORAGE_SECURITY_COMMAND_PROTOCOL_GUID); err != nil {
		return nil, err
	}

	if p.base == 0 {
		return nil, errors.New("invalid protocol instance")
	}

	return
}

// LocateStorageSecurityCommands returns all EFI Storage Security Command
// Protocol instances, in handle database order. An empty list is returned
// when no instance is installed.
func (s *BootServices) LocateStorageSecurityCommands() (p []*StorageSecurityCommand, err error) {
	var handles []uint64

	handles, err = s.LocateHandle(EFI_STORAGE_SECURITY_COMMAND_PROTOCOL_GUID)

	switch {
	case errors.Is(err, ErrEfiNotFound):
		return nil, nil
	case err != nil:
		return
	}

	for _, handle := range handles {
		sc, err := s.GetStorageSecurityCommand(handle)

		if err != nil {
			return nil, err
		}

		p = append(p, sc)
	}

	return
}
