// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"testing"
)

func TestParseGUID(t *testing.T) {
	s := "c88b0b6d-0dfc-49a7-9cb4-49074b4c3a78"

	g, err := ParseGUID(s)

	if err != nil {
		t.Fatal(err)
	}

	// EFI native byte order
	expected := GUID{
		0x6d, 0x0b, 0x8b, 0xc8,
		0xfc, 0x0d,
		0xa7, 0x49,
		0x9c, 0xb4,
		0x49, 0x07, 0x4b, 0x4c, 0x3a, 0x78,
	}

	if g != expected {
		t.Fatalf("GUID mismatch, %x != %x", g, expected)
	}

	if g.String() != s {
		t.Fatalf("registry format mismatch, %s != %s", g, s)
	}

	if g != EFI_STORAGE_SECURITY_COMMAND_PROTOCOL_GUID {
		t.Fatal("protocol GUID mismatch")
	}
}

func TestParseGUIDInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"c88b0b6d-0dfc-49a7-9cb4",
		"c88b0b6d0dfc49a79cb449074b4c3a78",
		"g88b0b6d-0dfc-49a7-9cb4-49074b4c3a78",
	} {
		if _, err := ParseGUID(s); err == nil {
			t.Fatalf("expected error on %q", s)
		}
	}
}
