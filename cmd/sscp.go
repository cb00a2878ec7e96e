// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/hako/durafmt"

	"github.com/usbarmory/efi-sed/shell"
	"github.com/usbarmory/efi-sed/uefi"
)

// Device represents a storage device supporting security protocol commands.
type Device struct {
	// Handle is the EFI handle of the device.
	Handle uint64
	// MediaID is the ID of the current medium.
	MediaID uint32
	// Media is the Block I/O media of the device, nil when unavailable.
	Media *uefi.BlockIOMedia
	// Command is the security protocol command interface.
	Command uefi.SecurityCommander
}

// Devices returns the storage devices supporting security protocol commands,
// it is set by board specific code.
var Devices func() ([]*Device, error)

const sscpArgs = `(\d+) ([[:xdigit:]]{1,2}) ([[:xdigit:]]{1,4})`

func init() {
	shell.Add(shell.Cmd{
		Name: "sscp",
		Help: "list EFI_STORAGE_SECURITY_COMMAND_PROTOCOL instances",
		Fn:   sscpCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "sscp recv",
		Args:    5,
		Pattern: regexp.MustCompile(`^sscp recv ` + sscpArgs + ` (\d+)(?: (\S+))?$`),
		Syntax:  "<n> <hex proto> <hex sps> <size> (timeout)?",
		Help:    "EFI_STORAGE_SECURITY_COMMAND_PROTOCOL.ReceiveData()",
		Fn:      recvCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "sscp send",
		Args:    5,
		Pattern: regexp.MustCompile(`^sscp send ` + sscpArgs + ` ([[:xdigit:]]+)(?: (\S+))?$`),
		Syntax:  "<n> <hex proto> <hex sps> <hex data> (timeout)?",
		Help:    "EFI_STORAGE_SECURITY_COMMAND_PROTOCOL.SendData()",
		Fn:      sendCmd,
	})
}

func device(arg string) (d *Device, err error) {
	var devices []*Device

	if Devices == nil {
		return nil, errors.New("no device locator")
	}

	i, err := strconv.Atoi(arg)

	if err != nil {
		return nil, fmt.Errorf("invalid device index, %v", err)
	}

	if devices, err = Devices(); err != nil {
		return
	}

	if i < 0 || i >= len(devices) {
		return nil, fmt.Errorf("invalid device index %d (%d available)", i, len(devices))
	}

	return devices[i], nil
}

// command parses the device index, security protocol, protocol specific and
// timeout arguments.
func command(arg []string, timeout string) (d *Device, cmd uefi.SecurityCommand, t time.Duration, err error) {
	if d, err = device(arg[0]); err != nil {
		return
	}

	proto, err := strconv.ParseUint(arg[1], 16, 8)

	if err != nil {
		return nil, cmd, 0, fmt.Errorf("invalid security protocol, %v", err)
	}

	sps, err := strconv.ParseUint(arg[2], 16, 16)

	if err != nil {
		return nil, cmd, 0, fmt.Errorf("invalid security protocol specific, %v", err)
	}

	t = DefaultTimeout

	if len(timeout) > 0 {
		if t, err = time.ParseDuration(timeout); err != nil {
			return nil, cmd, 0, fmt.Errorf("invalid timeout, %v", err)
		}
	}

	cmd = uefi.SecurityCommand{
		MediaID:          d.MediaID,
		Timeout:          uefi.Timeout(t),
		Protocol:         uint8(proto),
		ProtocolSpecific: uint16(sps),
	}

	return
}

func timeoutString(t time.Duration) string {
	if t <= 0 {
		return "none"
	}

	return durafmt.Parse(t).String()
}

func sscpCmd(_ *shell.Interface, _ []string) (res string, err error) {
	var buf bytes.Buffer
	var devices []*Device

	if Devices == nil {
		return "", errors.New("no device locator")
	}

	if devices, err = Devices(); err != nil {
		return
	}

	if len(devices) == 0 {
		return "no devices found", nil
	}

	t := tabwriter.NewWriter(&buf, 0, 8, 2, ' ', 0)
	fmt.Fprintf(t, "#\tHandle\tMediaID\tPresent\tRemovable\tBlock Size\tSize\n")

	for i, d := range devices {
		if m := d.Media; m != nil {
			fmt.Fprintf(t, "%d\t%#x\t%d\t%v\t%v\t%d\t%d\n",
				i, d.Handle, d.MediaID, m.MediaPresent, m.RemovableMedia, m.BlockSize, m.Size())
		} else {
			fmt.Fprintf(t, "%d\t%#x\t%d\t-\t-\t-\t-\n", i, d.Handle, d.MediaID)
		}
	}

	t.Flush()

	return buf.String(), nil
}

func recvCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var buf bytes.Buffer

	d, cmd, timeout, err := command(arg, arg[4])

	if err != nil {
		return
	}

	size, err := strconv.Atoi(arg[3])

	if err != nil {
		return "", fmt.Errorf("invalid size, %v", err)
	}

	if size > MaxTransferSize {
		return "", fmt.Errorf("size exceeds maximum transfer size (%d)", MaxTransferSize)
	}

	data := make([]byte, size)
	n, err := d.Command.ReceiveData(cmd, data)

	switch {
	case errors.Is(err, uefi.ErrEfiBufferTooSmall):
		fmt.Fprintf(&buf, "truncated transfer, larger buffer required\n")
	case err != nil:
		return "", err
	}

	fmt.Fprintf(&buf, "received %d bytes (protocol:%#x sps:%#x timeout:%s)\n",
		n, cmd.Protocol, cmd.ProtocolSpecific, timeoutString(timeout))
	buf.WriteString(hex.Dump(data[:n]))

	return buf.String(), nil
}

func sendCmd(_ *shell.Interface, arg []string) (res string, err error) {
	d, cmd, timeout, err := command(arg, arg[4])

	if err != nil {
		return
	}

	data, err := hex.DecodeString(arg[3])

	if err != nil {
		return "", fmt.Errorf("invalid data, %v", err)
	}

	if len(data) > MaxTransferSize {
		return "", fmt.Errorf("size exceeds maximum transfer size (%d)", MaxTransferSize)
	}

	log.Printf("sending %d bytes to handle %#x (protocol:%#x sps:%#x timeout:%s)",
		len(data), d.Handle, cmd.Protocol, cmd.ProtocolSpecific, timeoutString(timeout))

	if err = d.Command.SendData(cmd, data); err != nil {
		return
	}

	return fmt.Sprintf("sent %d bytes", len(data)), nil
}
