// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"io"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	// EFI ConOut offsets
	outputString = 0x08
	clearScreen  = 0x30
	// EFI ConIn offset for ReadKeyStroke
	readKeyStroke = 0x08
)

// InputKey represents an EFI Input Key descriptor.
type InputKey struct {
	ScanCode    uint16
	UnicodeChar [2]byte
}

// Console implements the [io.ReadWriter] interface over EFI Simple Text
// Input/Output protocol.
type Console struct {
	io.ReadWriter

	// ForceLine controls whether line feeds (LF) should be supplemented
	// with a carriage return (CR).
	ForceLine bool

	// ReplaceTabs controls whether Console I/O output should have Tab
	// characters replaced with a number of spaces.
	ReplaceTabs int

	// In and Out hold the EFI Simple Text Input/Output Protocol
	// instances.
	In  uint64
	Out uint64
}

// Input calls EFI_SIMPLE_TEXT_INPUT_PROTOCOL.ReadKeyStroke().
func (c *Console) Input(k *InputKey) (status uint64) {
	if c.In == 0 {
		return
	}

	return callService(c.In+readKeyStroke,
		[]uint64{
			c.In,
			ptrval(k),
		},
	)
}

// Output calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.OutputString() with an UTF-16
// encoded string, a null terminator is added when missing.
func (c *Console) Output(p []byte) (status uint64) {
	if n := len(p); n < 2 || p[n-2] != 0x00 || p[n-1] != 0x00 {
		p = append(p, 0x00, 0x00)
	}

	if c.Out == 0 {
		return
	}

	return callService(c.Out+outputString,
		[]uint64{
			c.Out,
			ptrval(p),
		},
	)
}

// ClearScreen calls EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL.ClearScreen().
func (c *Console) ClearScreen() (status uint64) {
	if c.Out == 0 {
		return
	}

	return callService(c.Out+clearScreen,
		[]uint64{
			c.Out,
		},
	)
}

// Read available data to buffer from console, UTF-16 input characters are
// returned UTF-8 encoded.
func (c *Console) Read(p []byte) (n int, err error) {
	k := &InputKey{}

	for len(p)-n >= utf8.UTFMax {
		status := c.Input(k)

		switch {
		case status == EFI_SUCCESS:
		case status&0xff == EFI_NOT_READY:
			return
		default:
			return n, parseStatus(status)
		}

		// keys without a Unicode character (e.g. function keys)
		// carry only a scan code
		if r := rune(binary.LittleEndian.Uint16(k.UnicodeChar[:])); r != 0 {
			n += utf8.EncodeRune(p[n:], r)
		}
	}

	return
}

// Write data from buffer to console.
func (c *Console) Write(p []byte) (n int, err error) {
	var s []byte

	if len(p) == 0 {
		return
	}

	b := utf16.Encode([]rune(string(p)))

	// We receive an UTF-8 string but we can output only UTF-16 ones.

	for _, r := range b {
		if r == 0x09 && c.ReplaceTabs > 0 { // Tab
			for i := 0; i < c.ReplaceTabs; i++ {
				s = append(s, []byte{0x20, 0x00}...) // Space
			}
			continue
		}

		s = append(s, byte(r&0xff))
		s = append(s, byte(r>>8))

		if r == 0x0a && c.ForceLine { // LF
			s = append(s, []byte{0x0d, 0x00}...) // CR
		}
	}

	if status := c.Output(s); status != EFI_SUCCESS {
		return n, parseStatus(status)
	}

	return len(p), nil
}
