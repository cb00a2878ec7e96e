// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build debug

package cmd

import (
	"net"
	"net/http"
	_ "net/http/pprof"

	"github.com/arl/statsviz"
)

func init() {
	statsviz.RegisterDefault()

	DebugServer = func(l net.Listener) error {
		return http.Serve(l, nil)
	}
}
