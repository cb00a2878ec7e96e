// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !amd64

package uefi

func callFn(_ uint64, _ []uint64) (status uint64) {
	return EFI_ERROR | EFI_UNSUPPORTED
}
