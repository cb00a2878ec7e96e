// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// defined in efi_amd64.s
func callFn(fn uint64, args []uint64) (status uint64)
