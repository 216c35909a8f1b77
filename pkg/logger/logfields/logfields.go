// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Error is the Go error
	Error = "error"
)
