// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"time"
)

const (
	// EFI Boot Services offset for SetWatchdogTimer
	setWatchdogTimer = 0x100
	watchdogCode     = 0xba3e5e7a1
)

// SetWatchdogTimer calls EFI_BOOT_SERVICES.SetWatchdogTimer() with a timeout
// rounded up to whole seconds, a zero (or negative) timeout disables the
// watchdog.
//
// Long running security protocol commands (e.g. a TCG Revert) can exceed the
// default firmware watchdog, which is therefore disabled at startup.
func (s *BootServices) SetWatchdogTimer(timeout time.Duration) (err error) {
	var sec uint64

	if timeout > 0 {
		sec = uint64((timeout + time.Second - 1) / time.Second)
	}

	status := callService(s.base+setWatchdogTimer,
		[]uint64{
			sec,
			watchdogCode,
			0,
			0,
		},
	)

	return parseStatus(status)
}
