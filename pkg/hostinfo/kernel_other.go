// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

//go:build !linux

package hostinfo

// KernelRelease returns "" on platforms without uname.
func KernelRelease() string {
	return ""
}
