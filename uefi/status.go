// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package uefi

import (
	"fmt"
)

// EFI_STATUS high bit, set on error codes and clear on warnings.
const EFI_ERROR = 1 << 63

// EFI_STATUS Success Codes
const EFI_SUCCESS = 0

// EFI_STATUS Error Codes (high bit clear)
//
// Unified Extensible Firmware Interface Specification Version 2.10
// Appendix D - Status Codes
const (
	EFI_LOAD_ERROR = iota + 1
	EFI_INVALID_PARAMETER
	EFI_UNSUPPORTED
	EFI_BAD_BUFFER_SIZE
	EFI_BUFFER_TOO_SMALL
	EFI_NOT_READY
	EFI_DEVICE_ERROR
	EFI_WRITE_PROTECTED
	EFI_OUT_OF_RESOURCES
	EFI_VOLUME_CORRUPTED
	EFI_VOLUME_FULL
	EFI_NO_MEDIA
	EFI_MEDIA_CHANGED
	EFI_NOT_FOUND
	EFI_ACCESS_DENIED
	EFI_NO_RESPONSE
	EFI_NO_MAPPING
	EFI_TIMEOUT
	EFI_NOT_STARTED
	EFI_ALREADY_STARTED
	EFI_ABORTED
	EFI_ICMP_ERROR
	EFI_TFTP_ERROR
	EFI_PROTOCOL_ERROR
	EFI_INCOMPATIBLE_VERSION
	EFI_SECURITY_VIOLATION
	EFI_CRC_ERROR
	EFI_END_OF_MEDIA
	_
	_
	EFI_END_OF_FILE
	EFI_INVALID_LANGUAGE
	EFI_COMPROMISED_DATA
	EFI_IP_ADDRESS_CONFLICT
	EFI_HTTP_ERROR
)

// EFI_STATUS Warning Codes
const (
	EFI_WARN_UNKNOWN_GLYPH = iota + 1
	EFI_WARN_DELETE_FAILURE
	EFI_WARN_WRITE_FAILURE
	EFI_WARN_BUFFER_TOO_SMALL
	EFI_WARN_STALE_DATA
	EFI_WARN_FILE_SYSTEM
	EFI_WARN_RESET_REQUIRED
)

var errorNames = map[uint64]string{
	EFI_LOAD_ERROR:           "EFI_LOAD_ERROR",
	EFI_INVALID_PARAMETER:    "EFI_INVALID_PARAMETER",
	EFI_UNSUPPORTED:          "EFI_UNSUPPORTED",
	EFI_BAD_BUFFER_SIZE:      "EFI_BAD_BUFFER_SIZE",
	EFI_BUFFER_TOO_SMALL:     "EFI_BUFFER_TOO_SMALL",
	EFI_NOT_READY:            "EFI_NOT_READY",
	EFI_DEVICE_ERROR:         "EFI_DEVICE_ERROR",
	EFI_WRITE_PROTECTED:      "EFI_WRITE_PROTECTED",
	EFI_OUT_OF_RESOURCES:     "EFI_OUT_OF_RESOURCES",
	EFI_VOLUME_CORRUPTED:     "EFI_VOLUME_CORRUPTED",
	EFI_VOLUME_FULL:          "EFI_VOLUME_FULL",
	EFI_NO_MEDIA:             "EFI_NO_MEDIA",
	EFI_MEDIA_CHANGED:        "EFI_MEDIA_CHANGED",
	EFI_NOT_FOUND:            "EFI_NOT_FOUND",
	EFI_ACCESS_DENIED:        "EFI_ACCESS_DENIED",
	EFI_NO_RESPONSE:          "EFI_NO_RESPONSE",
	EFI_NO_MAPPING:           "EFI_NO_MAPPING",
	EFI_TIMEOUT:              "EFI_TIMEOUT",
	EFI_NOT_STARTED:          "EFI_NOT_STARTED",
	EFI_ALREADY_STARTED:      "EFI_ALREADY_STARTED",
	EFI_ABORTED:              "EFI_ABORTED",
	EFI_ICMP_ERROR:           "EFI_ICMP_ERROR",
	EFI_TFTP_ERROR:           "EFI_TFTP_ERROR",
	EFI_PROTOCOL_ERROR:       "EFI_PROTOCOL_ERROR",
	EFI_INCOMPATIBLE_VERSION: "EFI_INCOMPATIBLE_VERSION",
	EFI_SECURITY_VIOLATION:   "EFI_SECURITY_VIOLATION",
	EFI_CRC_ERROR:            "EFI_CRC_ERROR",
	EFI_END_OF_MEDIA:         "EFI_END_OF_MEDIA",
	EFI_END_OF_FILE:          "EFI_END_OF_FILE",
	EFI_INVALID_LANGUAGE:     "EFI_INVALID_LANGUAGE",
	EFI_COMPROMISED_DATA:     "EFI_COMPROMISED_DATA",
	EFI_IP_ADDRESS_CONFLICT:  "EFI_IP_ADDRESS_CONFLICT",
	EFI_HTTP_ERROR:           "EFI_HTTP_ERROR",
}

var warningNames = map[uint64]string{
	EFI_WARN_UNKNOWN_GLYPH:    "EFI_WARN_UNKNOWN_GLYPH",
	EFI_WARN_DELETE_FAILURE:   "EFI_WARN_DELETE_FAILURE",
	EFI_WARN_WRITE_FAILURE:    "EFI_WARN_WRITE_FAILURE",
	EFI_WARN_BUFFER_TOO_SMALL: "EFI_WARN_BUFFER_TOO_SMALL",
	EFI_WARN_STALE_DATA:       "EFI_WARN_STALE_DATA",
	EFI_WARN_FILE_SYSTEM:      "EFI_WARN_FILE_SYSTEM",
	EFI_WARN_RESET_REQUIRED:   "EFI_WARN_RESET_REQUIRED",
}

// Status represents a non-successful EFI_STATUS value returned by an EFI
// service, it implements the error interface.
type Status uint64

// EFI_STATUS errors
var (
	ErrEfiInvalidParameter  = Status(EFI_ERROR | EFI_INVALID_PARAMETER)
	ErrEfiUnsupported       = Status(EFI_ERROR | EFI_UNSUPPORTED)
	ErrEfiBufferTooSmall    = Status(EFI_ERROR | EFI_BUFFER_TOO_SMALL)
	ErrEfiNotReady          = Status(EFI_ERROR | EFI_NOT_READY)
	ErrEfiDeviceError       = Status(EFI_ERROR | EFI_DEVICE_ERROR)
	ErrEfiOutOfResources    = Status(EFI_ERROR | EFI_OUT_OF_RESOURCES)
	ErrEfiNoMedia           = Status(EFI_ERROR | EFI_NO_MEDIA)
	ErrEfiMediaChanged      = Status(EFI_ERROR | EFI_MEDIA_CHANGED)
	ErrEfiNotFound          = Status(EFI_ERROR | EFI_NOT_FOUND)
	ErrEfiAccessDenied      = Status(EFI_ERROR | EFI_ACCESS_DENIED)
	ErrEfiTimeout           = Status(EFI_ERROR | EFI_TIMEOUT)
	ErrEfiSecurityViolation = Status(EFI_ERROR | EFI_SECURITY_VIOLATION)
	ErrEfiAborted           = Status(EFI_ERROR | EFI_ABORTED)
)

// Code returns the status code without the error bit.
func (s Status) Code() uint64 {
	return uint64(s) &^ EFI_ERROR
}

// Warning reports whether the status is a warning rather than an error.
func (s Status) Warning() bool {
	return uint64(s)&EFI_ERROR == 0
}

// String returns the status name as defined in the UEFI specification.
func (s Status) String() string {
	names := errorNames

	if s.Warning() {
		names = warningNames
	}

	if name, ok := names[s.Code()]; ok {
		return name
	}

	return fmt.Sprintf("EFI_STATUS %#x", uint64(s))
}

// Error implements the error interface.
func (s Status) Error() string {
	return s.String()
}

// parseStatus converts an EFI_STATUS value to an error, nil is returned only
// on EFI_SUCCESS as warnings are reported like errors.
func parseStatus(status uint64) (err error) {
	if status == EFI_SUCCESS {
		return
	}

	return Status(status)
}
