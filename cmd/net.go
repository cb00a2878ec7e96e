// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package cmd

import (
	"fmt"
	"log"
	"net"
	"regexp"

	"github.com/usbarmory/go-net"

	"github.com/usbarmory/efi-sed/shell"
	"github.com/usbarmory/efi-sed/uefi/x64"
)

// Resolver represents the default name server
var Resolver = "8.8.8.8:53"

func init() {
	shell.Add(shell.Cmd{
		Name:    "net",
		Args:    2,
		Pattern: regexp.MustCompile(`^net (\S+) (\S+)$`),
		Syntax:  "<ip> <gateway>",
		Help:    "start UEFI networking and network console",
		Fn:      netCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "dns",
		Args:    1,
		Pattern: regexp.MustCompile(`^dns (.*)`),
		Syntax:  "<host>",
		Help:    "resolve domain",
		Fn:      dnsCmd,
	})

	net.SetDefaultNS([]string{Resolver})
}

func netCmd(_ *shell.Interface, arg []string) (res string, err error) {
	if net.SocketFunc != nil {
		return "", fmt.Errorf("network already initialized")
	}

	nic, err := x64.UEFI.Boot.GetNetwork()

	if err != nil {
		return "", fmt.Errorf("could not locate network protocol, %v", err)
	}

	if err = nic.Start(); err != nil {
		return "", fmt.Errorf("could not start interface, %v", err)
	}

	if err = nic.Initialize(); err != nil {
		return "", fmt.Errorf("could not initialize interface, %v", err)
	}

	iface := gnet.Interface{}

	if err := iface.Init(nic, arg[0], "", arg[1]); err != nil {
		return "", fmt.Errorf("could not initialize networking, %v", err)
	}

	iface.EnableICMP()
	go iface.NIC.Start()

	// hook interface into Go runtime
	net.SocketFunc = iface.Socket

	res = fmt.Sprintf("network initialized (%s)", arg[0])

	if len(AuthorizedKey) > 0 {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", SSHPort))

		if err != nil {
			return res, fmt.Errorf("could not start ssh listener, %v", err)
		}

		if _, err = StartSSHServer(l, AuthorizedKey); err != nil {
			return res, err
		}

		res += fmt.Sprintf("\nnetwork console on port %d", SSHPort)
	}

	if DebugServer != nil {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", DebugPort))

		if err != nil {
			return res, fmt.Errorf("could not start debug listener, %v", err)
		}

		go func() {
			log.Printf("debug server exited, %v", DebugServer(l))
		}()

		res += fmt.Sprintf("\nruntime statistics on port %d", DebugPort)
	}

	return
}

func dnsCmd(_ *shell.Interface, arg []string) (res string, err error) {
	cname, err := net.LookupHost(arg[0])

	if err != nil {
		return "", fmt.Errorf("query error: %v", err)
	}

	return fmt.Sprintf("%+v", cname), nil
}
