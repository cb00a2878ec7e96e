// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cmd implements the shell commands of the UEFI storage security
// console.
package cmd

import (
	"net"
	"time"
)

// Banner represents the shell welcome message.
var Banner string

// DefaultTimeout is the security protocol command timeout used when none is
// given, 0 waits indefinitely.
var DefaultTimeout = 10 * time.Second

// MaxTransferSize is the largest security protocol transfer size accepted by
// shell commands.
var MaxTransferSize = 64 * 1024

// DebugServer, when set, serves runtime statistics on networked builds.
var DebugServer func(l net.Listener) error

// DebugPort is the runtime statistics listening port.
var DebugPort = 80
