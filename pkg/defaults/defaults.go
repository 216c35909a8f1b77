// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package defaults

const (
	// ScrapeInterval is the default interval, in seconds, between two
	// scrapes of /proc connection and endpoint state.
	ScrapeInterval = 30

	// TurnOffScrape disables the /proc scraper entirely when true.
	TurnOffScrape = false

	// EnableProcessesListeningOnPorts attaches originating process
	// information to listening endpoint records.
	EnableProcessesListeningOnPorts = false

	// AfterglowPeriodMicros is the default afterglow coalescing window.
	AfterglowPeriodMicros = int64(300000000)

	// MaxAfterglowPeriodMicros is the upper bound the afterglow period is
	// clamped to (5 minutes).
	MaxAfterglowPeriodMicros = int64(300000000)

	// ConnectionStatsError is the default quantile approximation error
	// tolerance of the connection statistics aggregator.
	ConnectionStatsError = 0.01

	// ConnectionStatsWindow is the default aggregation window in seconds.
	ConnectionStatsWindow = 60

	// SinspCPUPerBuffer is the default number of CPU cores sharing one
	// kernel event ring buffer.
	SinspCPUPerBuffer = 1

	// SinspBufferSize is the default per-buffer size in bytes.
	SinspBufferSize = 8 * 1024 * 1024

	// HostProc is the path of procfs on the host, before any host-root
	// prefixing is applied.
	HostProc = "/proc"

	// BTFFile is the kernel exposed BTF file path, used to decide whether
	// the CO-RE probe can load on this host.
	BTFFile = "/sys/kernel/btf/vmlinux"

	// MinEBPFKernelVersion is the oldest kernel the legacy eBPF probe is
	// known to load on.
	MinEBPFKernelVersion = "4.14"
)

var (
	// CollectionMethod is the compiled-in collection method name. It is a
	// build-time default, overridable with
	// -ldflags "-X .../pkg/defaults.CollectionMethod=ebpf".
	CollectionMethod = "core_bpf"

	// SinspThreadCacheSize is the default size of the thread info cache.
	// Build-time default, overridable the same way as CollectionMethod.
	SinspThreadCacheSize = "32768"

	// ConnectionStatsQuantiles are the default quantiles summarizing
	// connection statistics distributions.
	ConnectionStatsQuantiles = []float64{0.50, 0.90, 0.95}

	// IgnoredNetworks holds the default ignored network prefixes:
	// link-local addresses for IPv4 (RFC3927) and IPv6 (RFC2462).
	IgnoredNetworks = []string{"169.254.0.0/16", "fe80::/10"}

	// Syscalls is the set of syscalls the kernel probes require to track
	// processes and network connections. User configuration replaces the
	// whole list, it is never merged.
	Syscalls = []string{
		"accept",
		"chdir",
		"clone",
		"close",
		"connect",
		"execve",
		"fchdir",
		"fork",
		"procexit",
		"procinfo",
		"setresgid",
		"setresuid",
		"setgid",
		"setuid",
		"shutdown",
		"socket",
		"vfork",
	}
)
