// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/usbarmory/efi-sed/cmd"
	"github.com/usbarmory/efi-sed/shell"
	"github.com/usbarmory/efi-sed/uefi/x64"
)

// set at link time
var (
	Build    string
	Revision string
)

func init() {
	log.SetFlags(0)

	cmd.Banner = fmt.Sprintf("efi-sed • %s/%s (%s) • UEFI",
		runtime.GOOS, runtime.GOARCH, runtime.Version())

	if len(Revision) > 0 {
		cmd.Banner += fmt.Sprintf(" • %s %s", Revision, Build)
	}
}

func main() {
	logFile, _ := os.OpenFile("/runtime.log", os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))

	if x64.UEFI.Console == nil {
		log.Fatal("EFI services unavailable")
	}

	console := &shell.Interface{
		Banner:     cmd.Banner,
		Log:        logFile,
		ReadWriter: x64.UEFI.Console,
	}

	console.Start()

	log.Print("exiting EFI application")

	if err := x64.UEFI.Boot.Exit(0); err != nil {
		log.Printf("could not exit EFI application, %v", err)
	}

	runtime.Exit(0)
}
