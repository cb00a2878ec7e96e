// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"errors"
	"fmt"
)

// ConfigurationTable represents an EFI Configuration Table entry.
type ConfigurationTable struct {
	GUID        GUID
	VendorTable uint64
}

// String returns the table GUID, its name when known, and the vendor table
// address.
func (t *ConfigurationTable) String() string {
	return fmt.Sprintf("%s %-8s (%#x)", t.GUID.String(), t.GUID.Name(), t.VendorTable)
}

// ConfigurationTables returns the EFI Configuration Tables, in system table
// order.
func (d *SystemTable) ConfigurationTables() (c []*ConfigurationTable, err error) {
	var buf []byte

	if d.NumberOfTableEntries == 0 || d.ConfigurationTable == 0 {
		return nil, errors.New("EFI Configuration Table is invalid")
	}

	entry, _ := marshalBinary(&ConfigurationTable{})
	size := len(entry)

	if buf, err = read(d.ConfigurationTable, size*int(d.NumberOfTableEntries)); err != nil {
		return
	}

	for off := 0; off < len(buf); off += size {
		t := &ConfigurationTable{}

		if err = unmarshalBinary(buf[off:off+size], t); err != nil {
			return nil, err
		}

		c = append(c, t)
	}

	return
}

// LocateConfiguration returns the first EFI Configuration Table matching the
// argument GUID.
func (d *SystemTable) LocateConfiguration(guid GUID) (t *ConfigurationTable, err error) {
	var c []*ConfigurationTable

	if c, err = d.ConfigurationTables(); err != nil {
		return
	}

	for _, t = range c {
		if t.GUID == guid {
			return
		}
	}

	return nil, fmt.Errorf("could not find configuration table %s", guid.String())
}
