// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

//go:build linux

package heuristics

import (
	"os"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/features"

	"github.com/hostlight/hostlight/pkg/defaults"
)

// hasBTF reports whether the kernel exposes a BTF spec CO-RE can relocate
// against.
func hasBTF() bool {
	_, err := os.Stat(defaults.BTFFile)
	return err == nil
}

// supportsKprobe reports whether kprobe programs can load at all.
func supportsKprobe() bool {
	return features.HaveProgramType(ebpf.Kprobe) == nil
}
