// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/davecgh/go-spew/spew"
	"github.com/open-source-firmware/go-tcg-storage/pkg/core"
	"github.com/open-source-firmware/go-tcg-storage/pkg/drive"

	"github.com/usbarmory/efi-sed/shell"
	"github.com/usbarmory/efi-sed/tcg"
	"github.com/usbarmory/efi-sed/uefi"
)

var protocolNames = map[drive.SecurityProtocol]string{
	uefi.SecurityProtocolInformation:         "Security Protocol Information",
	uefi.SecurityProtocolTCG1:                "TCG (Management)",
	uefi.SecurityProtocolTCG2:                "TCG (TPer)",
	uefi.SecurityProtocolTCG3:                "TCG",
	uefi.SecurityProtocolTCG4:                "TCG",
	uefi.SecurityProtocolTCG5:                "TCG",
	uefi.SecurityProtocolTCG6:                "TCG",
	uefi.SecurityProtocolCbCS:                "CbCS",
	uefi.SecurityProtocolTapeDataEncryption:  "Tape Data Encryption",
	uefi.SecurityProtocolDataEncryptionConf:  "Data Encryption Configuration",
	uefi.SecurityProtocolSACreation:          "SA Creation Capabilities",
	uefi.SecurityProtocolIKEv2SCSI:           "IKEv2-SCSI",
	uefi.SecurityProtocolJEDECUFS:            "JEDEC UFS",
	uefi.SecurityProtocolSDTrustedFlash:      "SDcard TrustedFlash",
	uefi.SecurityProtocolIEEE1667:            "IEEE 1667",
	uefi.SecurityProtocolATADeviceServerPass: "ATA Device Server Password",
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func init() {
	shell.Add(shell.Cmd{
		Name:    "tcg",
		Args:    2,
		Pattern: regexp.MustCompile(`^tcg (discovery|protocols|comid|reset|cert) (\d+)$`),
		Syntax:  "(discovery|protocols|comid|reset|cert) <n>",
		Help:    "TCG Storage inspection",
		Fn:      tcgCmd,
	})
}

func tcgCmd(_ *shell.Interface, arg []string) (res string, err error) {
	var d *Device

	if d, err = device(arg[1]); err != nil {
		return
	}

	drv, err := tcg.Open(d.Command, d.MediaID, DefaultTimeout)

	if err != nil {
		return
	}

	switch arg[0] {
	case "discovery":
		return discoveryCmd(drv)
	case "protocols":
		return protocolsCmd(drv)
	case "comid":
		return comIDCmd(drv, false)
	case "reset":
		return comIDCmd(drv, true)
	case "cert":
		return certCmd(drv)
	}

	return
}

func discoveryCmd(d drive.DriveIntf) (string, error) {
	c, err := tcg.Discover(d)

	if err != nil {
		return "", err
	}

	return dumpConfig.Sdump(c.Level0Discovery), nil
}

func protocolsCmd(d drive.DriveIntf) (string, error) {
	var buf bytes.Buffer

	protocols, err := drive.SecurityProtocols(d)

	if err != nil {
		return "", err
	}

	for _, p := range protocols {
		name, ok := protocolNames[p]

		if !ok {
			name = "Unknown"
		}

		fmt.Fprintf(&buf, "%#04x %s\n", int(p), name)
	}

	return buf.String(), nil
}

func comIDCmd(d drive.DriveIntf, reset bool) (string, error) {
	c, err := tcg.Discover(d)

	if err != nil {
		return "", err
	}

	comID, proto, valid, err := tcg.ComID(c)

	if err != nil {
		return "", err
	}

	res := fmt.Sprintf("ComID %#04x (level:%v valid:%v)", int(comID), proto, valid)

	if !reset {
		return res, nil
	}

	if err = core.StackReset(c, comID); err != nil {
		return res, fmt.Errorf("stack reset failed, %v", err)
	}

	return res + "\nsynchronous protocol stack reset", nil
}

func certCmd(d drive.DriveIntf) (string, error) {
	var buf bytes.Buffer

	certs, err := drive.Certificate(d)

	if err != nil {
		return "", err
	}

	if len(certs) == 0 {
		return "no certificates", nil
	}

	for _, crt := range certs {
		fmt.Fprintf(&buf, "Subject ....: %s\n", crt.Subject)
		fmt.Fprintf(&buf, "Issuer .....: %s\n", crt.Issuer)
		fmt.Fprintf(&buf, "Validity ...: %s - %s\n", crt.NotBefore, crt.NotAfter)
	}

	return buf.String(), nil
}
