// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/usbarmory/efi-sed/shell"
	"github.com/usbarmory/efi-sed/uefi"
)

type commander struct {
	cmd      uefi.SecurityCommand
	sent     []byte
	response []byte
	err      error
}

func (c *commander) ReceiveData(cmd uefi.SecurityCommand, buf []byte) (n int, err error) {
	c.cmd = cmd
	n = copy(buf, c.response)

	if n < len(c.response) {
		return n, uefi.ErrEfiBufferTooSmall
	}

	return n, c.err
}

func (c *commander) SendData(cmd uefi.SecurityCommand, buf []byte) error {
	c.cmd = cmd
	c.sent = append([]byte{}, buf...)

	return c.err
}

func withDevices(t *testing.T, devices ...*Device) {
	saved := Devices

	Devices = func() ([]*Device, error) {
		return devices, nil
	}

	t.Cleanup(func() { Devices = saved })
}

func exec(t *testing.T, line string) (string, error) {
	var buf bytes.Buffer

	err := (&shell.Interface{}).Exec(line, &buf)

	return buf.String(), err
}

func TestSSCPList(t *testing.T) {
	withDevices(t,
		&Device{
			Handle:  0x1000,
			MediaID: 2,
			Media: &uefi.BlockIOMedia{
				MediaID:      2,
				MediaPresent: true,
				BlockSize:    512,
				LastBlock:    2047,
			},
			Command: &commander{},
		},
		&Device{
			Handle:  0x2000,
			Command: &commander{},
		},
	)

	res, err := exec(t, "sscp")

	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{"0x1000", "0x2000", "512", "1048576"} {
		if !strings.Contains(res, s) {
			t.Errorf("missing %s in output:\n%s", s, res)
		}
	}
}

func TestSSCPListEmpty(t *testing.T) {
	withDevices(t)

	if res, err := exec(t, "sscp"); err != nil || !strings.Contains(res, "no devices found") {
		t.Fatalf("unexpected result %v, %q", err, res)
	}
}

func TestSSCPRecv(t *testing.T) {
	c := &commander{
		response: []byte{0xca, 0xfe},
	}

	withDevices(t, &Device{MediaID: 5, Command: c})

	res, err := exec(t, "sscp recv 0 1 1 16 1ms")

	if err != nil {
		t.Fatal(err)
	}

	want := uefi.SecurityCommand{
		MediaID:          5,
		Timeout:          10000,
		Protocol:         1,
		ProtocolSpecific: 1,
	}

	if c.cmd != want {
		t.Fatalf("unexpected command %+v", c.cmd)
	}

	if !strings.Contains(res, "received 2 bytes") || !strings.Contains(res, "ca fe") {
		t.Fatalf("unexpected output %q", res)
	}
}

func TestSSCPRecvDefaultTimeout(t *testing.T) {
	c := &commander{}

	withDevices(t, &Device{Command: c})

	if _, err := exec(t, "sscp recv 0 0 0 8"); err != nil {
		t.Fatal(err)
	}

	if c.cmd.Timeout != uefi.Timeout(DefaultTimeout) {
		t.Fatalf("unexpected timeout %d", c.cmd.Timeout)
	}
}

func TestSSCPRecvTruncated(t *testing.T) {
	c := &commander{
		response: []byte{1, 2, 3, 4},
	}

	withDevices(t, &Device{Command: c})

	res, err := exec(t, "sscp recv 0 0 0 2")

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(res, "truncated") || !strings.Contains(res, "received 2 bytes") {
		t.Fatalf("unexpected output %q", res)
	}
}

func TestSSCPRecvErrors(t *testing.T) {
	c := &commander{
		err: uefi.ErrEfiDeviceError,
	}

	withDevices(t, &Device{Command: c})

	for _, line := range []string{
		"sscp recv 1 0 0 8",
		"sscp recv 0 0 0 1000000",
		"sscp recv 0 0 0 8 soon",
		"sscp recv 0 0 0 8",
	} {
		if res, err := exec(t, line); err == nil || !strings.HasPrefix(res, "command error") {
			t.Errorf("%s: unexpected result %v, %q", line, err, res)
		}
	}

	res, _ := exec(t, "sscp recv 0 0 0 8")

	if !strings.Contains(res, uefi.ErrEfiDeviceError.Error()) {
		t.Fatalf("unexpected output %q", res)
	}
}

func TestSSCPSend(t *testing.T) {
	c := &commander{}

	withDevices(t, &Device{MediaID: 1, Command: c})

	res, err := exec(t, "sscp send 0 2 7fe deadbeef 0s")

	if err != nil {
		t.Fatal(err)
	}

	want := uefi.SecurityCommand{
		MediaID:          1,
		Protocol:         2,
		ProtocolSpecific: 0x07fe,
	}

	if c.cmd != want {
		t.Fatalf("unexpected command %+v", c.cmd)
	}

	if !bytes.Equal(c.sent, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("unexpected data %x", c.sent)
	}

	if !strings.Contains(res, "sent 4 bytes") {
		t.Fatalf("unexpected output %q", res)
	}

	if _, err = exec(t, "sscp send 0 2 7fe abc"); err == nil {
		t.Fatal("expected error for odd length data")
	}

	c.err = uefi.ErrEfiUnsupported

	if _, err = exec(t, "sscp send 0 2 7fe 00"); !errors.Is(err, uefi.ErrEfiUnsupported) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTimeoutString(t *testing.T) {
	if s := timeoutString(0); s != "none" {
		t.Fatalf("unexpected string %q", s)
	}

	if s := timeoutString(2 * time.Second); s != "2 seconds" {
		t.Fatalf("unexpected string %q", s)
	}
}

func TestProtocols(t *testing.T) {
	c := &commander{
		response: []byte{0, 0, 0, 0, 0, 0, 0, 2, 0x00, 0x01},
	}

	withDevices(t, &Device{Command: c})

	res, err := exec(t, "tcg protocols 0")

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(res, "0x00 Security Protocol Information") || !strings.Contains(res, "0x01 TCG (Management)") {
		t.Fatalf("unexpected output %q", res)
	}
}

func TestDiscoveryUnsupported(t *testing.T) {
	withDevices(t, &Device{Command: &commander{err: uefi.ErrEfiUnsupported}})

	if res, err := exec(t, "tcg discovery 0"); err == nil || !strings.Contains(res, "TCG Storage Core") {
		t.Fatalf("unexpected result %v, %q", err, res)
	}
}
