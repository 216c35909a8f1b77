// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package config

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlight/hostlight/pkg/collectorargs"
	"github.com/hostlight/hostlight/pkg/defaults"
	"github.com/hostlight/hostlight/pkg/logger"
)

type staticEvaluator struct {
	decision HostDecision
}

func (s staticEvaluator) Evaluate(*Config) HostDecision { return s.decision }

// resolve runs New hermetically: fresh environment accessors, fixed
// hostname, identity host path mapping.
func resolve(t *testing.T, args *collectorargs.Args, opts ...Option) *Config {
	t.Helper()
	base := []Option{
		withEnv(newEnvSet()),
		withHostnameFunc(func() string { return "test-host" }),
		withHostPathFunc(func(path string) string { return path }),
	}
	cfg, err := New(args, append(base, opts...)...)
	require.NoError(t, err)
	return cfg
}

func parseArgs(t *testing.T, blob, method string) *collectorargs.Args {
	t.Helper()
	args, err := collectorargs.Parse(blob, method)
	require.NoError(t, err)
	return args
}

func TestResolveDefaults(t *testing.T) {
	cfg := resolve(t, nil)

	assert.Equal(t, "test-host", cfg.Hostname())
	assert.Equal(t, "/proc", cfg.HostProc())
	assert.Equal(t, CoreBPF, cfg.CollectionMethod())
	assert.Equal(t, defaults.ScrapeInterval, cfg.ScrapeInterval())
	assert.False(t, cfg.TurnOffScrape())
	assert.Equal(t, defaults.Syscalls, cfg.Syscalls())

	assert.False(t, cfg.DisableNetworkFlows())
	assert.True(t, cfg.ScrapeListenEndpoints())
	assert.Contains(t, cfg.IgnoredL4ProtoPortPairs(), L4ProtoPortPair{Proto: L4ProtoUDP, Port: 9})
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("169.254.0.0/16"),
		netip.MustParsePrefix("fe80::/10"),
	}, cfg.IgnoredNetworks())
	assert.False(t, cfg.EnableExternalIPs())
	assert.False(t, cfg.IsProcessesListeningOnPortsEnabled())

	assert.True(t, cfg.EnableAfterglow())
	assert.Equal(t, defaults.AfterglowPeriodMicros, cfg.AfterglowPeriod())

	assert.True(t, cfg.EnableConnectionStats())
	assert.Equal(t, []float64{0.50, 0.90, 0.95}, cfg.ConnectionStatsQuantiles())
	assert.Equal(t, 0.01, cfg.ConnectionStatsError())
	assert.Equal(t, 60, cfg.ConnectionStatsWindow())

	assert.Equal(t, defaults.SinspCPUPerBuffer, cfg.SinspCPUPerBuffer())
	assert.Equal(t, defaults.SinspBufferSize, cfg.SinspBufferSize())
	assert.Equal(t, 32768, cfg.SinspThreadCacheSize())

	assert.False(t, cfg.ImportUsers())
	assert.True(t, cfg.CollectConnectionStatus())
	assert.False(t, cfg.IsCoreDumpEnabled())
	assert.False(t, cfg.CurlVerbose())
	assert.Empty(t, cfg.TLSConfig())
}

func TestResolveNoHostname(t *testing.T) {
	_, err := New(nil,
		withEnv(newEnvSet()),
		withHostnameFunc(func() string { return "" }))
	assert.ErrorIs(t, err, ErrNoHostname)
}

func TestResolveEnvFlags(t *testing.T) {
	t.Setenv("HOSTLIGHT_DISABLE_NETWORK_FLOWS", "true")
	t.Setenv("HOSTLIGHT_NETWORK_GRAPH_PORTS", "false")
	t.Setenv("HOSTLIGHT_NETWORK_DROP_IGNORED", "false")
	t.Setenv("HOSTLIGHT_SET_CURL_VERBOSE", "true")
	t.Setenv("ENABLE_CORE_DUMP", "true")
	t.Setenv("HOSTLIGHT_PROCESSES_LISTENING_ON_PORT", "true")
	t.Setenv("HOSTLIGHT_SET_IMPORT_USERS", "true")
	t.Setenv("HOSTLIGHT_COLLECT_CONNECTION_STATUS", "false")
	t.Setenv("HOSTLIGHT_ENABLE_EXTERNAL_IPS", "true")
	t.Setenv("HOSTLIGHT_ENABLE_CONNECTION_STATS", "false")

	cfg := resolve(t, nil)

	assert.True(t, cfg.DisableNetworkFlows())
	assert.False(t, cfg.ScrapeListenEndpoints())
	assert.Empty(t, cfg.IgnoredL4ProtoPortPairs())
	assert.True(t, cfg.CurlVerbose())
	assert.True(t, cfg.IsCoreDumpEnabled())
	assert.True(t, cfg.IsProcessesListeningOnPortsEnabled())
	assert.True(t, cfg.ImportUsers())
	assert.False(t, cfg.CollectConnectionStatus())
	assert.True(t, cfg.EnableExternalIPs())
	assert.False(t, cfg.EnableConnectionStats())
}

func TestResolveMalformedBoolKeepsDefault(t *testing.T) {
	t.Setenv("HOSTLIGHT_DISABLE_NETWORK_FLOWS", "not-a-bool")
	cfg := resolve(t, nil)
	assert.False(t, cfg.DisableNetworkFlows())
}

func TestResolveIgnoredNetworks(t *testing.T) {
	t.Setenv("HOSTLIGHT_IGNORE_NETWORKS", "169.254.0.0/16,not-a-cidr,fe80::/10")
	cfg := resolve(t, nil)

	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("169.254.0.0/16"),
		netip.MustParsePrefix("fe80::/10"),
	}, cfg.IgnoredNetworks())
}

func TestResolveIgnoredNetworksEmptyEntriesSkipped(t *testing.T) {
	t.Setenv("HOSTLIGHT_IGNORE_NETWORKS", ",10.0.0.0/8,,")
	cfg := resolve(t, nil)

	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}, cfg.IgnoredNetworks())
}

func TestResolveAfterglow(t *testing.T) {
	tests := []struct {
		name           string
		enableVar      string
		periodVar      string
		expectEnabled  bool
		expectedMicros int64
	}{
		{
			name:           "defaults",
			expectEnabled:  true,
			expectedMicros: defaults.AfterglowPeriodMicros,
		},
		{
			name:           "period above maximum is clamped",
			periodVar:      "400",
			expectEnabled:  true,
			expectedMicros: 300000000,
		},
		{
			name:           "zero period disables",
			periodVar:      "0",
			expectEnabled:  false,
			expectedMicros: 0,
		},
		{
			name:           "negative period disables",
			periodVar:      "-5",
			expectEnabled:  false,
			expectedMicros: -5000000,
		},
		{
			name:           "flag off ignores period",
			enableVar:      "false",
			periodVar:      "10",
			expectEnabled:  false,
			expectedMicros: 10000000,
		},
		{
			name:           "zero period disables even with flag on",
			enableVar:      "true",
			periodVar:      "0",
			expectEnabled:  false,
			expectedMicros: 0,
		},
		{
			name:           "malformed period keeps default",
			periodVar:      "ten seconds",
			expectEnabled:  true,
			expectedMicros: defaults.AfterglowPeriodMicros,
		},
		{
			name:           "fractional seconds",
			periodVar:      "2.5",
			expectEnabled:  true,
			expectedMicros: 2500000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.enableVar != "" {
				t.Setenv("HOSTLIGHT_ENABLE_AFTERGLOW", tt.enableVar)
			}
			if tt.periodVar != "" {
				t.Setenv("HOSTLIGHT_AFTERGLOW_PERIOD", tt.periodVar)
			}
			cfg := resolve(t, nil)
			assert.Equal(t, tt.expectEnabled, cfg.EnableAfterglow())
			assert.Equal(t, tt.expectedMicros, cfg.AfterglowPeriod())
		})
	}
}

func TestResolveConnectionStats(t *testing.T) {
	t.Run("partial quantile success", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_CONNECTION_STATS_QUANTILES", "0.5,bad,0.99")
		cfg := resolve(t, nil)
		assert.Equal(t, []float64{0.5, 0.99}, cfg.ConnectionStatsQuantiles())
	})

	t.Run("all quantiles malformed yields empty list", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_CONNECTION_STATS_QUANTILES", "bad,worse")
		cfg := resolve(t, nil)
		assert.Empty(t, cfg.ConnectionStatsQuantiles())
	})

	t.Run("error override", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_CONNECTION_STATS_ERROR", "0.05")
		cfg := resolve(t, nil)
		assert.Equal(t, 0.05, cfg.ConnectionStatsError())
	})

	t.Run("malformed error keeps default", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_CONNECTION_STATS_ERROR", "tiny")
		cfg := resolve(t, nil)
		assert.Equal(t, 0.01, cfg.ConnectionStatsError())
	})

	t.Run("window override", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_CONNECTION_STATS_WINDOW", "120")
		cfg := resolve(t, nil)
		assert.Equal(t, 120, cfg.ConnectionStatsWindow())
	})

	t.Run("malformed window keeps default", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_CONNECTION_STATS_WINDOW", "minute")
		cfg := resolve(t, nil)
		assert.Equal(t, 60, cfg.ConnectionStatsWindow())
	})
}

func TestResolveSinsp(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_SINSP_CPU_PER_BUFFER", "2")
		t.Setenv("HOSTLIGHT_SINSP_BUFFER_SIZE", "16777216")
		t.Setenv("HOSTLIGHT_SINSP_THREAD_CACHE_SIZE", "65536")
		cfg := resolve(t, nil)
		assert.Equal(t, 2, cfg.SinspCPUPerBuffer())
		assert.Equal(t, 16777216, cfg.SinspBufferSize())
		assert.Equal(t, 65536, cfg.SinspThreadCacheSize())
	})

	t.Run("failures are independent", func(t *testing.T) {
		t.Setenv("HOSTLIGHT_SINSP_CPU_PER_BUFFER", "many")
		t.Setenv("HOSTLIGHT_SINSP_BUFFER_SIZE", "4194304")
		cfg := resolve(t, nil)
		assert.Equal(t, defaults.SinspCPUPerBuffer, cfg.SinspCPUPerBuffer())
		assert.Equal(t, 4194304, cfg.SinspBufferSize())
	})
}

func TestResolveArgs(t *testing.T) {
	before := logger.GetLogLevel()
	t.Cleanup(func() { logger.SetLogLevel(before) })

	blob := `{
		"logLevel": "debug",
		"scrapeInterval": "45",
		"turnOffScrape": true,
		"syscalls": ["connect", "close"],
		"tlsConfig": {"caCertPath": "/run/secrets/ca.pem"}
	}`
	cfg := resolve(t, parseArgs(t, blob, ""))

	assert.Equal(t, "debug", cfg.LogLevel())
	assert.Equal(t, 45, cfg.ScrapeInterval())
	assert.True(t, cfg.TurnOffScrape())
	assert.Equal(t, []string{"connect", "close"}, cfg.Syscalls())
	assert.JSONEq(t, `{"caCertPath": "/run/secrets/ca.pem"}`, cfg.TLSConfig())
}

func TestResolveArgsInvalidLogLevelLeavesLevelUnchanged(t *testing.T) {
	before := logger.GetLogLevel()
	cfg := resolve(t, parseArgs(t, `{"logLevel": "chatty"}`, ""))
	assert.Equal(t, before.String(), cfg.LogLevel())
	assert.Equal(t, before, logger.GetLogLevel())
}

func TestResolveArgsMalformedScrapeIntervalPropagates(t *testing.T) {
	_, err := New(parseArgs(t, `{"scrapeInterval": "soon"}`, ""),
		withEnv(newEnvSet()),
		withHostnameFunc(func() string { return "test-host" }))
	assert.ErrorContains(t, err, "scrapeInterval")
}

func TestResolveArgsSyscallsNonArrayIgnored(t *testing.T) {
	cfg := resolve(t, parseArgs(t, `{"syscalls": "connect"}`, ""))
	assert.Equal(t, defaults.Syscalls, cfg.Syscalls())
}

func TestResolveCollectionMethod(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		expected CollectionMethod
	}{
		{name: "default", method: "", expected: CoreBPF},
		{name: "ebpf", method: "ebpf", expected: EBPF},
		{name: "core_bpf", method: "core_bpf", expected: CoreBPF},
		{name: "unknown falls back to core bpf", method: "foo", expected: CoreBPF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := resolve(t, parseArgs(t, "", tt.method))
			assert.Equal(t, tt.expected, cfg.CollectionMethod())
		})
	}
}

func TestResolveHeuristicsOverrideWins(t *testing.T) {
	cfg := resolve(t, parseArgs(t, "", "core_bpf"),
		WithHostEvaluator(staticEvaluator{decision: CollectionMethodDecision(EBPF)}))

	// The heuristics decision is a read-time override.
	assert.Equal(t, EBPF, cfg.CollectionMethod())
}

func TestResolveHeuristicsDeclines(t *testing.T) {
	cfg := resolve(t, parseArgs(t, "", "ebpf"),
		WithHostEvaluator(staticEvaluator{}))
	assert.Equal(t, EBPF, cfg.CollectionMethod())
}

func TestResolveDeterminism(t *testing.T) {
	t.Setenv("HOSTLIGHT_IGNORE_NETWORKS", "10.0.0.0/8,fe80::/10")
	t.Setenv("HOSTLIGHT_CONNECTION_STATS_QUANTILES", "0.5,0.75,0.99")
	t.Setenv("HOSTLIGHT_AFTERGLOW_PERIOD", "12.5")

	blob := `{"scrapeInterval": "15", "syscalls": ["connect"]}`
	first := resolve(t, parseArgs(t, blob, "ebpf"))
	second := resolve(t, parseArgs(t, blob, "ebpf"))

	diff := cmp.Diff(first, second,
		cmp.AllowUnexported(Config{}, HostDecision{}),
		cmp.Comparer(func(a, b netip.Prefix) bool { return a == b }))
	assert.Empty(t, diff)
}

func TestConfigString(t *testing.T) {
	cfg := resolve(t, parseArgs(t, "", "ebpf"))
	rendered := cfg.String()

	assert.Contains(t, rendered, "collection_method:ebpf")
	assert.Contains(t, rendered, "hostname:test-host")
	assert.Contains(t, rendered, "scrape_interval:30")
	assert.Contains(t, rendered, "turn_off_scrape:false")
}
