// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

// callService invokes the EFI service whose function pointer is stored at
// address fn, passing each argument in a 64-bit slot. Arguments narrower than
// 64 bits are zero extended by their conversion to uint64.
//
// It is a variable so that firmware can be simulated on hosted builds.
var callService = callFn
