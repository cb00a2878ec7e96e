// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"runtime"
	"testing"
	"time"
	"unsafe"
)

const (
	testBootServices = 0x7f000000
	testProtocol     = 0x7e000000
)

// firmware simulates EFI Boot Services and a single EFI Storage Security
// Command Protocol device.
type firmware struct {
	// recorded service invocations
	calls [][]uint64

	// security protocol payloads received by SendData
	sent [][]byte
	// data returned by ReceiveData
	response []byte
	// transfer size reported by ReceiveData, when set
	reportSize *uint64

	sendStatus uint64
	recvStatus uint64

	// handles returned by LocateHandle
	handles []uint64
	// protocol instances returned by HandleProtocol
	protocols map[uint64]uint64
	// Block I/O protocol instances returned by HandleProtocol
	blockIO map[uint64]uint64
}

func mem(addr uint64, size uint64) []byte {
	if addr == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), size)
}

func put(addr uint64, val uint64) {
	*(*uint64)(unsafe.Pointer(uintptr(addr))) = val
}

func get(addr uint64) uint64 {
	return *(*uint64)(unsafe.Pointer(uintptr(addr)))
}

func guidAt(addr uint64) GUID {
	return *(*GUID)(unsafe.Pointer(uintptr(addr)))
}

func (fw *firmware) call(fn uint64, args []uint64) (status uint64) {
	fw.calls = append(fw.calls, append([]uint64{fn}, args...))

	switch fn {
	case testProtocol + sendData:
		if args[0] != testProtocol {
			return EFI_ERROR | EFI_INVALID_PARAMETER
		}

		fw.sent = append(fw.sent, bytes.Clone(mem(args[6], args[5])))

		return fw.sendStatus
	case testProtocol + receiveData:
		if args[0] != testProtocol {
			return EFI_ERROR | EFI_INVALID_PARAMETER
		}

		n := copy(mem(args[6], args[5]), fw.response)

		if fw.reportSize != nil {
			put(args[7], *fw.reportSize)
		} else {
			put(args[7], uint64(n))
		}

		return fw.recvStatus
	case testBootServices + locateHandle:
		if args[0] != ByProtocol || guidAt(args[1]) != EFI_STORAGE_SECURITY_COMMAND_PROTOCOL_GUID {
			return EFI_ERROR | EFI_NOT_FOUND
		}

		if len(fw.handles) == 0 {
			return EFI_ERROR | EFI_NOT_FOUND
		}

		size := uint64(len(fw.handles) * 8)

		if get(args[3]) < size {
			put(args[3], size)
			return EFI_ERROR | EFI_BUFFER_TOO_SMALL
		}

		buf := mem(args[4], size)

		for i, h := range fw.handles {
			*(*uint64)(unsafe.Pointer(&buf[i*8])) = h
		}

		put(args[3], size)

		return EFI_SUCCESS
	case testBootServices + handleProtocol:
		var addr uint64
		var ok bool

		switch guidAt(args[1]) {
		case EFI_STORAGE_SECURITY_COMMAND_PROTOCOL_GUID:
			addr, ok = fw.protocols[args[0]]
		case EFI_BLOCK_IO_PROTOCOL_GUID:
			addr, ok = fw.blockIO[args[0]]
		}

		if !ok {
			return EFI_ERROR | EFI_UNSUPPORTED
		}

		put(args[2], addr)

		return EFI_SUCCESS
	}

	return EFI_ERROR | EFI_UNSUPPORTED
}

func simulate(t *testing.T, fw *firmware) *StorageSecurityCommand {
	saved := callService
	callService = fw.call

	t.Cleanup(func() {
		callService = saved
	})

	return &StorageSecurityCommand{
		Handle: 0x1000,
		base:   testProtocol,
	}
}

func TestSendDataArguments(t *testing.T) {
	fw := &firmware{}
	sc := simulate(t, fw)

	cmd := SecurityCommand{
		MediaID:          0xdeadbeef,
		Timeout:          0x123456789,
		Protocol:         0xee,
		ProtocolSpecific: 0xabcd,
	}

	payload := []byte{0x01, 0x02, 0x03}

	if err := sc.SendData(cmd, payload); err != nil {
		t.Fatal(err)
	}

	if len(fw.calls) != 1 {
		t.Fatalf("unexpected number of firmware calls (%d)", len(fw.calls))
	}

	args := fw.calls[0]

	if len(args) != 8 {
		t.Fatalf("unexpected number of arguments (%d)", len(args)-1)
	}

	expected := []uint64{
		testProtocol + sendData,
		testProtocol,
		0xdeadbeef,
		0x123456789,
		0xee,
		0xabcd,
		3,
	}

	for i, v := range expected {
		if args[i] != v {
			t.Fatalf("argument %d mismatch, %#x != %#x", i, args[i], v)
		}
	}

	if !bytes.Equal(fw.sent[0], payload) {
		t.Fatalf("payload mismatch, %x != %x", fw.sent[0], payload)
	}
}

func TestReceiveDataArguments(t *testing.T) {
	fw := &firmware{}
	sc := simulate(t, fw)

	cmd := SecurityCommand{
		MediaID:          7,
		Timeout:          Timeout(time.Second),
		Protocol:         SecurityProtocolTCG1,
		ProtocolSpecific: 0x0001,
	}

	buf := make([]byte, 512)

	if _, err := sc.ReceiveData(cmd, buf); err != nil {
		t.Fatal(err)
	}

	args := fw.calls[0]

	if len(args) != 9 {
		t.Fatalf("unexpected number of arguments (%d)", len(args)-1)
	}

	expected := []uint64{
		testProtocol + receiveData,
		testProtocol,
		7,
		10000000,
		SecurityProtocolTCG1,
		0x0001,
		512,
		uint64(uintptr(unsafe.Pointer(&buf[0]))),
	}

	for i, v := range expected {
		if args[i] != v {
			t.Fatalf("argument %d mismatch, %#x != %#x", i, args[i], v)
		}
	}

	if args[8] == 0 {
		t.Fatal("missing transfer size pointer")
	}
}

func TestSendReceiveRoundTrip(t *testing.T) {
	fw := &firmware{
		response: []byte{0x00, 0x00, 0x00, 0x01, 0xaa},
	}

	sc := simulate(t, fw)

	cmd := SecurityCommand{
		Protocol:         0x01,
		ProtocolSpecific: 0x0000,
	}

	if err := sc.SendData(cmd, []byte{0xaa, 0x01}); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 8)
	n, err := sc.ReceiveData(cmd, buf)

	if err != nil {
		t.Fatal(err)
	}

	if n > len(buf) {
		t.Fatalf("transfer size exceeds buffer (%d > %d)", n, len(buf))
	}

	if !bytes.Equal(buf[:n], fw.response) {
		t.Fatalf("response mismatch, %x != %x", buf[:n], fw.response)
	}
}

func TestReceiveDataClampsTransferSize(t *testing.T) {
	size := uint64(4096)

	fw := &firmware{
		response:   bytes.Repeat([]byte{0x55}, 16),
		reportSize: &size,
	}

	sc := simulate(t, fw)
	buf := make([]byte, 8)

	n, err := sc.ReceiveData(SecurityCommand{}, buf)

	if err != nil {
		t.Fatal(err)
	}

	if n != len(buf) {
		t.Fatalf("transfer size not clamped (%d)", n)
	}
}

func TestReceiveDataBufferTooSmall(t *testing.T) {
	for _, status := range []uint64{
		EFI_WARN_BUFFER_TOO_SMALL,
		EFI_ERROR | EFI_BUFFER_TOO_SMALL,
	} {
		fw := &firmware{
			response:   []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60},
			recvStatus: status,
		}

		sc := simulate(t, fw)
		buf := make([]byte, 4)

		n, err := sc.ReceiveData(SecurityCommand{Protocol: 0x01}, buf)

		if !errors.Is(err, ErrEfiBufferTooSmall) {
			t.Fatalf("%s: unexpected error %v", Status(status), err)
		}

		if n != 4 {
			t.Fatalf("%s: unexpected partial length %d", Status(status), n)
		}

		if !bytes.Equal(buf[:n], fw.response[:4]) {
			t.Fatalf("%s: partial data mismatch, %x", Status(status), buf[:n])
		}
	}
}

func TestReceiveDataPartialLength(t *testing.T) {
	size := uint64(2)

	fw := &firmware{
		response:   []byte{0x10, 0x20, 0x30, 0x40},
		reportSize: &size,
		recvStatus: EFI_WARN_BUFFER_TOO_SMALL,
	}

	sc := simulate(t, fw)
	buf := make([]byte, 4)

	n, err := sc.ReceiveData(SecurityCommand{}, buf)

	if err != ErrEfiBufferTooSmall {
		t.Fatalf("unexpected error %v", err)
	}

	if n != 2 {
		t.Fatalf("partial length not reported (%d)", n)
	}
}

func TestSendDataDeviceError(t *testing.T) {
	fw := &firmware{
		response:   []byte{0x01},
		sendStatus: EFI_ERROR | EFI_DEVICE_ERROR,
	}

	sc := simulate(t, fw)

	if err := sc.SendData(SecurityCommand{Protocol: 0x01}, []byte{0xaa}); err != ErrEfiDeviceError {
		t.Fatalf("unexpected error %v", err)
	}

	n, err := sc.ReceiveData(SecurityCommand{Protocol: 0x01}, make([]byte, 8))

	if err != nil {
		t.Fatalf("receive affected by previous send error, %v", err)
	}

	if n != 1 {
		t.Fatalf("unexpected transfer size %d", n)
	}
}

func TestErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		status uint64
		err    error
	}{
		{EFI_ERROR | EFI_UNSUPPORTED, ErrEfiUnsupported},
		{EFI_ERROR | EFI_DEVICE_ERROR, ErrEfiDeviceError},
		{EFI_ERROR | EFI_NO_MEDIA, ErrEfiNoMedia},
		{EFI_ERROR | EFI_MEDIA_CHANGED, ErrEfiMediaChanged},
		{EFI_ERROR | EFI_INVALID_PARAMETER, ErrEfiInvalidParameter},
		{EFI_ERROR | EFI_TIMEOUT, ErrEfiTimeout},
	} {
		fw := &firmware{
			response:   []byte{0xff, 0xff},
			sendStatus: tc.status,
			recvStatus: tc.status,
		}

		sc := simulate(t, fw)

		if err := sc.SendData(SecurityCommand{}, []byte{0x00}); !errors.Is(err, tc.err) {
			t.Fatalf("SendData: %v != %v", err, tc.err)
		}

		n, err := sc.ReceiveData(SecurityCommand{}, make([]byte, 2))

		if !errors.Is(err, tc.err) {
			t.Fatalf("ReceiveData: %v != %v", err, tc.err)
		}

		if n != 0 {
			t.Fatalf("ReceiveData: %v returned data (%d)", err, n)
		}
	}
}

func TestZeroTimeout(t *testing.T) {
	fw := &firmware{}
	sc := simulate(t, fw)

	if err := sc.SendData(SecurityCommand{Timeout: 0}, []byte{0x01}); err != nil {
		t.Fatal(err)
	}

	if _, err := sc.ReceiveData(SecurityCommand{Timeout: 0}, make([]byte, 1)); err != nil {
		t.Fatal(err)
	}

	for _, args := range fw.calls {
		if args[3] != 0 {
			t.Fatalf("timeout not passed through (%d)", args[3])
		}
	}
}

func TestSendDataEmptyBuffer(t *testing.T) {
	for _, buf := range [][]byte{nil, {}} {
		fw := &firmware{}
		sc := simulate(t, fw)

		if err := sc.SendData(SecurityCommand{Protocol: 0x02}, buf); err != nil {
			t.Fatal(err)
		}

		if size := fw.calls[0][6]; size != 0 {
			t.Fatalf("unexpected length %d", size)
		}

		if len(fw.sent[0]) != 0 {
			t.Fatalf("unexpected payload %x", fw.sent[0])
		}
	}
}

func TestInvalidInstance(t *testing.T) {
	sc := &StorageSecurityCommand{}

	if err := sc.SendData(SecurityCommand{}, nil); err == nil {
		t.Fatal("expected error on invalid instance")
	}

	if _, err := sc.ReceiveData(SecurityCommand{}, make([]byte, 8)); err == nil {
		t.Fatal("expected error on invalid instance")
	}
}

func TestTimeout(t *testing.T) {
	for _, tc := range []struct {
		d time.Duration
		t uint64
	}{
		{0, 0},
		{-time.Second, 0},
		{1, 1},
		{100, 1},
		{101, 2},
		{time.Millisecond, 10000},
		{30 * time.Second, 300000000},
	} {
		if v := Timeout(tc.d); v != tc.t {
			t.Fatalf("Timeout(%v): %d != %d", tc.d, v, tc.t)
		}
	}
}

func TestLocateStorageSecurityCommands(t *testing.T) {
	fw := &firmware{
		protocols: make(map[uint64]uint64),
	}

	// exceed the initial LocateHandle buffer
	for i := uint64(0); i < defaultHandles+4; i++ {
		h := 0x1000 + i*0x10
		fw.handles = append(fw.handles, h)
		fw.protocols[h] = testProtocol
	}

	simulate(t, fw)

	s := &BootServices{
		base: testBootServices,
	}

	p, err := s.LocateStorageSecurityCommands()

	if err != nil {
		t.Fatal(err)
	}

	if len(p) != len(fw.handles) {
		t.Fatalf("unexpected number of instances (%d)", len(p))
	}

	for i, sc := range p {
		if sc.Handle != fw.handles[i] || sc.Address() != testProtocol {
			t.Fatalf("instance %d mismatch, %#x@%#x", i, sc.Handle, sc.Address())
		}
	}
}

func TestGetStorageSecurityCommandUnsupported(t *testing.T) {
	fw := &firmware{
		protocols: make(map[uint64]uint64),
	}

	simulate(t, fw)

	s := &BootServices{
		base: testBootServices,
	}

	if _, err := s.GetStorageSecurityCommand(0x2000); err != ErrEfiUnsupported {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLocateStorageSecurityCommandsNone(t *testing.T) {
	fw := &firmware{}

	simulate(t, fw)

	s := &BootServices{
		base: testBootServices,
	}

	if _, err := s.LocateHandle(EFI_STORAGE_SECURITY_COMMAND_PROTOCOL_GUID); err != ErrEfiNotFound {
		t.Fatalf("unexpected LocateHandle error %v", err)
	}

	p, err := s.LocateStorageSecurityCommands()

	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if len(p) != 0 {
		t.Fatalf("unexpected number of instances (%d)", len(p))
	}
}

func TestGetBlockIOMedia(t *testing.T) {
	media := make([]byte, 32)
	binary.LittleEndian.PutUint32(media[0:], 0x11223344)
	media[4] = 1 // RemovableMedia
	media[5] = 1 // MediaPresent
	binary.LittleEndian.PutUint32(media[12:], 512)
	binary.LittleEndian.PutUint32(media[16:], 8)
	binary.LittleEndian.PutUint64(media[24:], 0x3ff)

	bio := make([]uint64, 6)
	bio[0] = 0x00020001
	bio[1] = uint64(uintptr(unsafe.Pointer(&media[0])))

	fw := &firmware{
		blockIO: map[uint64]uint64{
			0x1000: uint64(uintptr(unsafe.Pointer(&bio[0]))),
		},
	}

	simulate(t, fw)

	s := &BootServices{
		base: testBootServices,
	}

	m, err := s.GetBlockIOMedia(0x1000)

	if err != nil {
		t.Fatal(err)
	}

	if m.MediaID != 0x11223344 || m.BlockSize != 512 || m.IoAlign != 8 || m.LastBlock != 0x3ff {
		t.Fatalf("unexpected media %+v", m)
	}

	if !m.RemovableMedia || !m.MediaPresent || m.ReadOnly {
		t.Fatalf("unexpected media flags %+v", m)
	}

	if m.Size() != 0x400*512 {
		t.Fatalf("unexpected media size %d", m.Size())
	}

	// the security protocol is not installed on this handle
	if _, err := s.GetStorageSecurityCommand(0x1000); err != ErrEfiUnsupported {
		t.Fatalf("unexpected error %v", err)
	}

	runtime.KeepAlive(media)
	runtime.KeepAlive(bio)
}

func TestGetBlockIOMediaInvalid(t *testing.T) {
	bio := make([]uint64, 6)

	fw := &firmware{
		blockIO: map[uint64]uint64{
			0x1000: uint64(uintptr(unsafe.Pointer(&bio[0]))),
			0x2000: 0,
		},
	}

	simulate(t, fw)

	s := &BootServices{
		base: testBootServices,
	}

	if _, err := s.GetBlockIOMedia(0x1000); err == nil {
		t.Fatal("expected error on null media pointer")
	}

	if _, err := s.GetBlockIOMedia(0x2000); err == nil {
		t.Fatal("expected error on null protocol instance")
	}

	if _, err := s.GetBlockIOMedia(0x3000); err != ErrEfiUnsupported {
		t.Fatalf("unexpected error %v", err)
	}

	runtime.KeepAlive(bio)
}
