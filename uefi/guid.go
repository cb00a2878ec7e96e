// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var guidPattern = regexp.MustCompile(`^([[:xdigit:]]{8})-([[:xdigit:]]{4})-([[:xdigit:]]{4})-([[:xdigit:]]{4})-([[:xdigit:]]{12})$`)

// GUID represents an EFI GUID in its native memory layout, where the first
// three fields of the registry format are stored little-endian.
type GUID [16]byte

// EFI Configuration Table GUIDs
var (
	ACPI_TABLE_GUID    = MustParseGUID("eb9d2d30-2d88-11d3-9a16-0090273fc14d")
	ACPI_20_TABLE_GUID = MustParseGUID("8868e871-e4f1-11d3-bc22-0080c73c8881")
	SMBIOS_TABLE_GUID  = MustParseGUID("eb9d2d31-2d88-11d3-9a16-0090273fc14d")
	SMBIOS3_TABLE_GUID = MustParseGUID("f2fd1544-9794-4a2c-992e-e5bbcf20e394")
)

var guidNames = map[GUID]string{
	ACPI_TABLE_GUID:    "ACPI",
	ACPI_20_TABLE_GUID: "ACPI 2.0",
	SMBIOS_TABLE_GUID:  "SMBIOS",
	SMBIOS3_TABLE_GUID: "SMBIOS3",
}

// ParseGUID parses a GUID in registry string format
// (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx).
func ParseGUID(s string) (g GUID, err error) {
	var buf []byte

	m := guidPattern.FindStringSubmatch(s)

	if m == nil {
		return GUID{}, fmt.Errorf("invalid GUID format: %q", s)
	}

	if buf, err = hex.DecodeString(strings.Join(m[1:], "")); err != nil {
		return GUID{}, err
	}

	binary.LittleEndian.PutUint32(g[0:4], binary.BigEndian.Uint32(buf[0:4]))
	binary.LittleEndian.PutUint16(g[4:6], binary.BigEndian.Uint16(buf[4:6]))
	binary.LittleEndian.PutUint16(g[6:8], binary.BigEndian.Uint16(buf[6:8]))
	copy(g[8:], buf[8:])

	return
}

// MustParseGUID is like ParseGUID but panics on error, it is intended for
// package level GUID declarations.
func MustParseGUID(s string) (g GUID) {
	var err error

	if g, err = ParseGUID(s); err != nil {
		panic(err)
	}

	return
}

func (g *GUID) ptrval() uint64 {
	return ptrval(g)
}

// String returns the registry format string representation of the GUID.
func (g GUID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%x-%x",
		binary.LittleEndian.Uint32(g[0:4]),
		binary.LittleEndian.Uint16(g[4:6]),
		binary.LittleEndian.Uint16(g[6:8]),
		g[8:10],
		g[10:])
}

// Name returns the name of well known configuration table GUIDs, or an empty
// string.
func (g GUID) Name() string {
	return guidNames[g]
}
