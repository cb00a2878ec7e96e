// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const align = 8

func marshalBinary(data any) (buf []byte, err error) {
	b := new(bytes.Buffer)
	err = binary.Write(b, binary.LittleEndian, data)
	return b.Bytes(), err
}

func unmarshalBinary(buf []byte, data any) (err error) {
	_, err = binary.Decode(buf, binary.LittleEndian, data)
	return
}

// decode fills a firmware owned structure, located at the argument address,
// into data.
func decode(data any, addr uint64) (err error) {
	var buf []byte

	if addr == 0 {
		return errors.New("invalid address")
	}

	t, err := marshalBinary(data)

	if err != nil {
		return
	}

	if buf, err = read(addr, len(t)); err != nil {
		return
	}

	return unmarshalBinary(buf, data)
}
