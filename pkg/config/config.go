// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package config resolves the agent configuration once at startup from
// compiled defaults, the structured argument blob and environment
// variables, with a final host heuristics pass that may override the
// collection method. The resolved value is immutable: all accessors are
// read-only and safe for concurrent use without synchronization.
package config

import (
	"fmt"
	"net/netip"

	"github.com/sirupsen/logrus"
)

// Config is the resolved agent configuration. Fields are never written
// after New returns. Accessors returning slices or maps hand out internal
// state; callers must treat it as read-only.
type Config struct {
	hostname string
	hostProc string

	collectionMethod CollectionMethod

	scrapeInterval int
	turnOffScrape  bool

	syscalls []string

	disableNetworkFlows     bool
	scrapeListenEndpoints   bool
	ignoredL4ProtoPortPairs map[L4ProtoPortPair]struct{}
	ignoredNetworks         []netip.Prefix
	enableExternalIPs       bool

	enableProcessesListeningOnPorts bool

	enableAfterglow       bool
	afterglowPeriodMicros int64

	enableConnectionStats    bool
	connectionStatsQuantiles []float64
	connectionStatsError     float64
	connectionStatsWindow    int

	sinspCPUPerBuffer    int
	sinspBufferSize      int
	sinspThreadCacheSize int

	importUsers             bool
	collectConnectionStatus bool
	enableCoreDump          bool
	curlVerbose             bool

	tlsConfig string
	logLevel  logrus.Level

	hostDecision HostDecision
}

// Hostname is the resolved host name; never empty.
func (c *Config) Hostname() string { return c.hostname }

// HostProc is the path of the host's procfs as seen by the agent.
func (c *Config) HostProc() string { return c.hostProc }

// CollectionMethod returns the collection method to use. The host
// heuristics decision, when present, takes precedence over whatever user or
// environment configuration resolved to; the underlying resolved value is
// left untouched.
func (c *Config) CollectionMethod() CollectionMethod {
	if c.hostDecision.HasCollectionMethod() {
		return c.hostDecision.CollectionMethod()
	}
	return c.collectionMethod
}

// ScrapeInterval is the /proc scrape interval in seconds.
func (c *Config) ScrapeInterval() int { return c.scrapeInterval }

// TurnOffScrape disables the /proc scraper.
func (c *Config) TurnOffScrape() bool { return c.turnOffScrape }

// Syscalls is the ordered list of syscalls the kernel probe subscribes to.
func (c *Config) Syscalls() []string { return c.syscalls }

// DisableNetworkFlows turns off network flow tracking entirely.
func (c *Config) DisableNetworkFlows() bool { return c.disableNetworkFlows }

// ScrapeListenEndpoints enables listening endpoint collection during /proc
// scrapes.
func (c *Config) ScrapeListenEndpoints() bool { return c.scrapeListenEndpoints }

// IgnoredL4ProtoPortPairs is the set of protocol/port pairs whose
// connections are dropped from flow tracking.
func (c *Config) IgnoredL4ProtoPortPairs() map[L4ProtoPortPair]struct{} {
	return c.ignoredL4ProtoPortPairs
}

// IgnoredNetworks lists network prefixes whose endpoints are ignored, in
// the order they were configured.
func (c *Config) IgnoredNetworks() []netip.Prefix { return c.ignoredNetworks }

// EnableExternalIPs attaches external IP information to flows.
func (c *Config) EnableExternalIPs() bool { return c.enableExternalIPs }

// IsProcessesListeningOnPortsEnabled attaches originating process
// information to listening endpoint records.
func (c *Config) IsProcessesListeningOnPortsEnabled() bool {
	return c.enableProcessesListeningOnPorts
}

// EnableAfterglow reports whether connection afterglow coalescing is on.
func (c *Config) EnableAfterglow() bool { return c.enableAfterglow }

// AfterglowPeriod is the afterglow window in microseconds. It is preserved
// for observability even when afterglow ended up disabled.
func (c *Config) AfterglowPeriod() int64 { return c.afterglowPeriodMicros }

// EnableConnectionStats reports whether connection statistics aggregation
// is on.
func (c *Config) EnableConnectionStats() bool { return c.enableConnectionStats }

// ConnectionStatsQuantiles are the quantiles summarizing connection
// statistics, in configuration order.
func (c *Config) ConnectionStatsQuantiles() []float64 { return c.connectionStatsQuantiles }

// ConnectionStatsError is the quantile approximation error tolerance.
func (c *Config) ConnectionStatsError() float64 { return c.connectionStatsError }

// ConnectionStatsWindow is the statistics aggregation window in seconds.
func (c *Config) ConnectionStatsWindow() int { return c.connectionStatsWindow }

// SinspCPUPerBuffer is the number of CPU cores sharing one kernel event
// ring buffer.
func (c *Config) SinspCPUPerBuffer() int { return c.sinspCPUPerBuffer }

// SinspBufferSize is the per-ring-buffer size in bytes.
func (c *Config) SinspBufferSize() int { return c.sinspBufferSize }

// SinspThreadCacheSize is the maximum entry count of the thread info cache.
func (c *Config) SinspThreadCacheSize() int { return c.sinspThreadCacheSize }

// ImportUsers enables importing host users.
func (c *Config) ImportUsers() bool { return c.importUsers }

// CollectConnectionStatus enables connection status collection.
func (c *Config) CollectConnectionStatus() bool { return c.collectConnectionStatus }

// IsCoreDumpEnabled reports whether core dumps are allowed.
func (c *Config) IsCoreDumpEnabled() bool { return c.enableCoreDump }

// CurlVerbose enables verbose logging in the export transport.
func (c *Config) CurlVerbose() bool { return c.curlVerbose }

// TLSConfig is the opaque TLS configuration blob, passed through verbatim
// to the transport. Empty if none was supplied.
func (c *Config) TLSConfig() string { return c.tlsConfig }

// LogLevel is the resolved log level name.
func (c *Config) LogLevel() string { return c.logLevel.String() }

// String renders a debug summary of the resolved configuration.
func (c *Config) String() string {
	return fmt.Sprintf("collection_method:%s, scrape_interval:%d, turn_off_scrape:%t, hostname:%s, processesListeningOnPorts:%t, logLevel:%s, set_import_users:%t, collect_connection_status:%t, enable_external_ips:%t",
		c.CollectionMethod(),
		c.ScrapeInterval(),
		c.TurnOffScrape(),
		c.Hostname(),
		c.IsProcessesListeningOnPortsEnabled(),
		c.LogLevel(),
		c.ImportUsers(),
		c.CollectConnectionStatus(),
		c.EnableExternalIPs())
}
