// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package config

// CollectionMethod selects the kernel event acquisition strategy. After
// resolution it is always one of the two concrete variants, never an
// arbitrary string.
type CollectionMethod int

const (
	// EBPF is the legacy eBPF probe.
	EBPF CollectionMethod = iota
	// CoreBPF is the CO-RE (compile once, run everywhere) BPF probe.
	CoreBPF
)

func (m CollectionMethod) String() string {
	switch m {
	case EBPF:
		return "ebpf"
	case CoreBPF:
		return "core_bpf"
	}
	return "unknown"
}

// ParseCollectionMethod maps a user supplied method name to its enum value.
// Unknown names map to CoreBPF with ok=false so the caller can warn.
func ParseCollectionMethod(name string) (CollectionMethod, bool) {
	switch name {
	case "ebpf":
		return EBPF, true
	case "core_bpf":
		return CoreBPF, true
	}
	return CoreBPF, false
}

// L4Proto is a layer-4 protocol.
type L4Proto int

const (
	L4ProtoUnknown L4Proto = iota
	L4ProtoTCP
	L4ProtoUDP
	L4ProtoICMP
)

func (p L4Proto) String() string {
	switch p {
	case L4ProtoTCP:
		return "tcp"
	case L4ProtoUDP:
		return "udp"
	case L4ProtoICMP:
		return "icmp"
	}
	return "unknown"
}

// L4ProtoPortPair identifies connection endpoints to drop from flow
// tracking.
type L4ProtoPortPair struct {
	Proto L4Proto
	Port  uint16
}

// HostDecision is the outcome of the host heuristics pass. It may carry a
// collection method override; nothing else is ever overridden after
// resolution.
type HostDecision struct {
	method    CollectionMethod
	hasMethod bool
}

// CollectionMethodDecision returns a decision that forces the given method.
func CollectionMethodDecision(m CollectionMethod) HostDecision {
	return HostDecision{method: m, hasMethod: true}
}

// HasCollectionMethod reports whether the decision specifies a method.
func (d HostDecision) HasCollectionMethod() bool {
	return d.hasMethod
}

// CollectionMethod returns the forced method. Only meaningful when
// HasCollectionMethod is true.
func (d HostDecision) CollectionMethod() CollectionMethod {
	return d.method
}

// HostEvaluator inspects the runtime platform given the configuration
// resolved so far. It runs last; its decision outranks user and environment
// configuration for the collection method, because platform truth (kernel
// feature availability) cannot be known in advance by either.
type HostEvaluator interface {
	Evaluate(c *Config) HostDecision
}

type noopEvaluator struct{}

func (noopEvaluator) Evaluate(*Config) HostDecision { return HostDecision{} }
