// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package heuristics probes the runtime platform to validate the resolved
// collection method. The kernel decides what can actually load; when the
// configured method cannot work here, the probe decides the one that can.
package heuristics

import (
	"github.com/hostlight/hostlight/pkg/config"
	"github.com/hostlight/hostlight/pkg/defaults"
	"github.com/hostlight/hostlight/pkg/hostinfo"
	"github.com/hostlight/hostlight/pkg/logger"
)

// Probe implements config.HostEvaluator against the running kernel.
type Probe struct {
	hasBTF         func() bool
	supportsKprobe func() bool
	kernelVersion  func() int64
}

// New returns a Probe backed by the real platform checks.
func New() *Probe {
	return &Probe{
		hasBTF:         hasBTF,
		supportsKprobe: supportsKprobe,
		kernelVersion:  runningKernelVersion,
	}
}

// Evaluate inspects the platform given the configuration resolved so far.
// It only ever decides the collection method, and declines whenever the
// configured method is usable as-is.
func (p *Probe) Evaluate(c *config.Config) config.HostDecision {
	log := logger.GetLogger()
	minEBPF := hostinfo.KernelStringToNumeric(defaults.MinEBPFKernelVersion)

	switch c.CollectionMethod() {
	case config.CoreBPF:
		if p.hasBTF() {
			return config.HostDecision{}
		}
		if p.kernelVersion() >= minEBPF && p.supportsKprobe() {
			log.Warn("Kernel does not expose BTF, falling back to the legacy eBPF probe")
			return config.CollectionMethodDecision(config.EBPF)
		}
		log.Error("Kernel does not expose BTF and the legacy eBPF probe is unsupported, keeping CO-RE BPF")

	case config.EBPF:
		if p.supportsKprobe() && p.kernelVersion() >= minEBPF {
			return config.HostDecision{}
		}
		if p.hasBTF() {
			log.Warn("Legacy eBPF probe is unsupported on this kernel, switching to CO-RE BPF")
			return config.CollectionMethodDecision(config.CoreBPF)
		}
		log.Error("Neither the legacy eBPF probe nor CO-RE BPF appears supported on this kernel")
	}

	return config.HostDecision{}
}

func runningKernelVersion() int64 {
	return hostinfo.KernelStringToNumeric(hostinfo.KernelRelease())
}
