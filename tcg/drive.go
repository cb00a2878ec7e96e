// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package tcg implements a TCG Storage drive interface over the EFI Storage
// Security Command Protocol, allowing TCG Storage Core (Opal, Enterprise,
// Pyrite, Ruby) operations from a UEFI application through the
// go-tcg-storage library.
package tcg

import (
	"errors"
	"fmt"
	"time"

	"github.com/open-source-firmware/go-tcg-storage/pkg/core"
	"github.com/open-source-firmware/go-tcg-storage/pkg/drive"

	"github.com/usbarmory/efi-sed/uefi"
)

// Drive represents a storage device accessed through security protocol
// commands, it implements go-tcg-storage drive.DriveIntf.
type Drive struct {
	// Device is the security protocol command interface.
	Device uefi.SecurityCommander
	// MediaID is the ID of the addressed medium.
	MediaID uint32
	// Timeout is the command execution timeout, 0 waits indefinitely.
	Timeout time.Duration
	// Serial is reported as drive serial number when set.
	Serial []byte
}

// Open returns a TCG Storage drive interface for the argument security
// protocol command interface and medium.
func Open(sc uefi.SecurityCommander, mediaID uint32, timeout time.Duration) (d *Drive, err error) {
	if sc == nil {
		return nil, errors.New("invalid security command interface")
	}

	d = &Drive{
		Device:  sc,
		MediaID: mediaID,
		Timeout: timeout,
	}

	if p, ok := sc.(*uefi.StorageSecurityCommand); ok {
		d.Serial = []byte(fmt.Sprintf("%#x/%d", p.Handle, mediaID))
	}

	return
}

func (d *Drive) command(proto drive.SecurityProtocol, sps uint16) uefi.SecurityCommand {
	return uefi.SecurityCommand{
		MediaID:          d.MediaID,
		Timeout:          uefi.Timeout(d.Timeout),
		Protocol:         uint8(proto),
		ProtocolSpecific: sps,
	}
}

func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, uefi.ErrEfiUnsupported):
		return drive.ErrNotSupported
	default:
		return err
	}
}

// IFRecv receives security protocol data into the full length of the
// argument buffer, bytes past the received data length are cleared.
func (d *Drive) IFRecv(proto drive.SecurityProtocol, sps uint16, data *[]byte) (err error) {
	buf := *data

	n, err := d.Device.ReceiveData(d.command(proto, sps), buf)
	n = max(0, min(n, len(buf)))
	clear(buf[n:])

	switch {
	case errors.Is(err, uefi.ErrEfiBufferTooSmall):
		return fmt.Errorf("truncated security protocol data (%d bytes), %w", n, err)
	default:
		return convertError(err)
	}
}

// IFSend sends security protocol data.
func (d *Drive) IFSend(proto drive.SecurityProtocol, sps uint16, data []byte) error {
	return convertError(d.Device.SendData(d.command(proto, sps), data))
}

// Identify returns the drive identity, as no device identification command
// is available through the security protocol the medium location is reported
// as serial number.
func (d *Drive) Identify() (*drive.Identity, error) {
	serial, _ := d.SerialNumber()

	return &drive.Identity{
		Protocol:     "UEFI",
		SerialNumber: string(serial),
		Model:        "EFI Storage Security Command Protocol",
	}, nil
}

// SerialNumber returns the drive serial number.
func (d *Drive) SerialNumber() ([]byte, error) {
	if len(d.Serial) > 0 {
		return d.Serial, nil
	}

	return []byte(fmt.Sprintf("media%d", d.MediaID)), nil
}

// Close is a no-op as protocol instances are owned by firmware.
func (d *Drive) Close() error {
	return nil
}

// Discover performs a TCG Storage Level 0 Discovery on the argument drive.
func Discover(d drive.DriveIntf) (c *core.Core, err error) {
	id, err := d.Identify()

	if err != nil {
		return
	}

	c = &core.Core{
		DriveIntf: d,
		DiskInfo: core.DiskInfo{
			Identity:        id,
			Level0Discovery: &core.Level0Discovery{},
		},
	}

	if err = c.Discovery0(); err != nil {
		return nil, err
	}

	return
}

// ComID returns the drive ComID and SSC protocol level, along with the ComID
// validity state.
func ComID(c *core.Core) (comID core.ComID, proto core.ProtocolLevel, valid bool, err error) {
	if comID, proto, err = core.FindComID(c.DriveIntf, c.Level0Discovery); err != nil {
		return
	}

	if comID == core.ComIDInvalid {
		return comID, proto, false, errors.New("no ComID available")
	}

	valid, err = core.IsComIDValid(c.DriveIntf, comID)

	return
}
