// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

//go:build linux

package hostinfo

import (
	"strings"

	"golang.org/x/sys/unix"
)

// KernelRelease returns the running kernel release string, without vendor
// suffixes, or "" if it cannot be determined.
func KernelRelease() string {
	var uname unix.Utsname

	if err := unix.Uname(&uname); err != nil {
		return ""
	}
	release := unix.ByteSliceToString(uname.Release[:])
	return strings.TrimSuffix(strings.Split(release, "-")[0], "+")
}
