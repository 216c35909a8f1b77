// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hostlight/hostlight/pkg/collectorargs"
	"github.com/hostlight/hostlight/pkg/defaults"
	"github.com/hostlight/hostlight/pkg/envvar"
	"github.com/hostlight/hostlight/pkg/hostinfo"
	"github.com/hostlight/hostlight/pkg/ipnet"
	"github.com/hostlight/hostlight/pkg/logger"
)

// ErrNoHostname is the single fatal resolution failure: the agent cannot
// run on a host it cannot identify.
var ErrNoHostname = errors.New("unable to determine the hostname, consider setting " + hostinfo.HostnameEnv)

// Environment variables consumed by the resolver. The typed boolean and
// list variables are declared in envSet; the remaining names use raw
// lookups because their parse policy is per field.
const (
	envDisableNetworkFlows      = "HOSTLIGHT_DISABLE_NETWORK_FLOWS"
	envNetworkGraphPorts        = "HOSTLIGHT_NETWORK_GRAPH_PORTS"
	envNetworkDropIgnored       = "HOSTLIGHT_NETWORK_DROP_IGNORED"
	envIgnoreNetworks           = "HOSTLIGHT_IGNORE_NETWORKS"
	envSetCurlVerbose           = "HOSTLIGHT_SET_CURL_VERBOSE"
	envEnableAfterglow          = "HOSTLIGHT_ENABLE_AFTERGLOW"
	envEnableCoreDump           = "ENABLE_CORE_DUMP"
	envProcessesListeningOnPort = "HOSTLIGHT_PROCESSES_LISTENING_ON_PORT"
	envImportUsers              = "HOSTLIGHT_SET_IMPORT_USERS"
	envCollectConnectionStatus  = "HOSTLIGHT_COLLECT_CONNECTION_STATUS"
	envEnableExternalIPs        = "HOSTLIGHT_ENABLE_EXTERNAL_IPS"
	envEnableConnectionStats    = "HOSTLIGHT_ENABLE_CONNECTION_STATS"
	envAfterglowPeriod          = "HOSTLIGHT_AFTERGLOW_PERIOD"
	envConnectionStatsQuantiles = "HOSTLIGHT_CONNECTION_STATS_QUANTILES"
	envConnectionStatsError     = "HOSTLIGHT_CONNECTION_STATS_ERROR"
	envConnectionStatsWindow    = "HOSTLIGHT_CONNECTION_STATS_WINDOW"
	envSinspCPUPerBuffer        = "HOSTLIGHT_SINSP_CPU_PER_BUFFER"
	envSinspBufferSize          = "HOSTLIGHT_SINSP_BUFFER_SIZE"
	envSinspThreadCacheSize     = "HOSTLIGHT_SINSP_THREAD_CACHE_SIZE"
)

// fallbackThreadCacheSize is used if the build-time thread cache default
// was overridden with something unparseable.
const fallbackThreadCacheSize = 32768

// envSet groups the typed environment accessors the resolver consumes.
// The process-wide set is read once and cached; tests construct fresh sets.
type envSet struct {
	disableNetworkFlows      *envvar.BoolVar
	networkGraphPorts        *envvar.BoolVar
	networkDropIgnored       *envvar.BoolVar
	ignoredNetworks          *envvar.StringListVar
	curlVerbose              *envvar.BoolVar
	enableAfterglow          *envvar.BoolVar
	enableCoreDump           *envvar.BoolVar
	processesListeningOnPort *envvar.BoolVar
	importUsers              *envvar.BoolVar
	collectConnectionStatus  *envvar.BoolVar
	enableExternalIPs        *envvar.BoolVar
	enableConnectionStats    *envvar.BoolVar
}

func newEnvSet() *envSet {
	return &envSet{
		disableNetworkFlows:      envvar.Bool(envDisableNetworkFlows, false),
		networkGraphPorts:        envvar.Bool(envNetworkGraphPorts, true),
		networkDropIgnored:       envvar.Bool(envNetworkDropIgnored, true),
		ignoredNetworks:          envvar.StringList(envIgnoreNetworks, defaults.IgnoredNetworks),
		curlVerbose:              envvar.Bool(envSetCurlVerbose, false),
		enableAfterglow:          envvar.Bool(envEnableAfterglow, true),
		enableCoreDump:           envvar.Bool(envEnableCoreDump, false),
		processesListeningOnPort: envvar.Bool(envProcessesListeningOnPort, defaults.EnableProcessesListeningOnPorts),
		importUsers:              envvar.Bool(envImportUsers, false),
		collectConnectionStatus:  envvar.Bool(envCollectConnectionStatus, true),
		enableExternalIPs:        envvar.Bool(envEnableExternalIPs, false),
		enableConnectionStats:    envvar.Bool(envEnableConnectionStats, true),
	}
}

// processEnv is the process-wide environment snapshot, established on first
// use during single-threaded startup.
var processEnv = newEnvSet()

type options struct {
	env       *envSet
	hostname  func() string
	hostPath  func(string) string
	evaluator HostEvaluator
}

// Option customizes resolution. Production code only needs
// WithHostEvaluator; the remaining knobs exist so tests can run resolution
// hermetically.
type Option func(*options)

// WithHostEvaluator sets the host heuristics evaluator invoked at the end
// of resolution.
func WithHostEvaluator(ev HostEvaluator) Option {
	return func(o *options) { o.evaluator = ev }
}

func withEnv(env *envSet) Option {
	return func(o *options) { o.env = env }
}

func withHostnameFunc(fn func() string) Option {
	return func(o *options) { o.hostname = fn }
}

func withHostPathFunc(fn func(string) string) Option {
	return func(o *options) { o.hostPath = fn }
}

// New resolves the configuration. It is called exactly once, before any
// worker component starts. The only fatal outcome is an unresolvable
// hostname (ErrNoHostname) or a malformed scrapeInterval in the argument
// blob; every other bad input is logged and replaced with its default.
func New(args *collectorargs.Args, opts ...Option) (*Config, error) {
	o := options{
		env:       processEnv,
		hostname:  hostinfo.Hostname,
		hostPath:  hostinfo.HostPath,
		evaluator: noopEvaluator{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.GetLogger()

	c := &Config{
		scrapeInterval:        defaults.ScrapeInterval,
		turnOffScrape:         defaults.TurnOffScrape,
		collectionMethod:      defaultCollectionMethod(),
		syscalls:              slices.Clone(defaults.Syscalls),
		enableAfterglow:       true,
		afterglowPeriodMicros: defaults.AfterglowPeriodMicros,
		logLevel:              logger.GetLogLevel(),
	}

	c.enableProcessesListeningOnPorts = o.env.processesListeningOnPort.Value()
	c.importUsers = o.env.importUsers.Value()
	c.collectConnectionStatus = o.env.collectConnectionStatus.Value()
	c.enableExternalIPs = o.env.enableExternalIPs.Value()
	c.enableConnectionStats = o.env.enableConnectionStats.Value()

	c.hostname = o.hostname()
	if c.hostname == "" {
		return nil, ErrNoHostname
	}
	c.hostProc = o.hostPath(defaults.HostProc)

	if err := c.applyArgs(args); err != nil {
		return nil, err
	}

	if o.env.disableNetworkFlows.Value() {
		c.disableNetworkFlows = true
	}
	if o.env.networkGraphPorts.Value() {
		c.scrapeListenEndpoints = true
	}
	if o.env.networkDropIgnored.Value() {
		c.ignoredL4ProtoPortPairs = map[L4ProtoPortPair]struct{}{
			{Proto: L4ProtoUDP, Port: 9}: {},
		}
	}

	for _, entry := range o.env.ignoredNetworks.Value() {
		if entry == "" {
			continue
		}
		prefix, err := ipnet.Parse(entry)
		if err != nil {
			log.WithField("network", entry).Errorf("Invalid network in %s", envIgnoreNetworks)
			continue
		}
		log.WithField("network", prefix.String()).Info("Ignore network")
		c.ignoredNetworks = append(c.ignoredNetworks, prefix)
	}

	if o.env.curlVerbose.Value() {
		c.curlVerbose = true
	}
	if o.env.enableCoreDump.Value() {
		c.enableCoreDump = true
	}

	c.handleAfterglow(o.env)
	c.handleConnectionStats()
	c.handleSinsp()

	c.hostDecision = o.evaluator.Evaluate(c)

	return c, nil
}

// applyArgs merges the structured argument blob. The log level is applied
// first so the rest of this very pass logs at the configured level.
func (c *Config) applyArgs(args *collectorargs.Args) error {
	if args == nil {
		return nil
	}
	log := logger.GetLogger()

	if field, ok := args.Field("logLevel"); ok {
		name := field.String()
		if level, err := logger.ParseLevel(name); err == nil {
			logger.SetLogLevel(level)
			c.logLevel = level
			log.WithField("logLevel", name).Info("User configured log level")
		} else {
			log.WithField("logLevel", name).Info("User configured log level is invalid")
		}
	}

	if field, ok := args.Field("scrapeInterval"); ok {
		interval, err := strconv.Atoi(field.String())
		if err != nil {
			// The one argument whose parse failure is not swallowed.
			return fmt.Errorf("invalid scrapeInterval %q: %w", field.String(), err)
		}
		c.scrapeInterval = interval
		log.WithField("scrapeInterval", interval).Info("User configured scrape interval")
	}

	if field, ok := args.Field("turnOffScrape"); ok {
		c.turnOffScrape = field.Bool()
		log.WithField("turnOffScrape", c.turnOffScrape).Info("User configured scrape toggle")
	}

	if field, ok := args.Field("syscalls"); ok && field.IsArray() {
		c.syscalls = field.StringArray()
		log.WithField("syscalls", strings.Join(c.syscalls, ",")).Info("User configured syscalls")
	}

	if name := args.CollectionMethod(); name != "" {
		log.WithField("collection-method", name).Info("User configured collection method")
		method, known := ParseCollectionMethod(name)
		if !known {
			log.WithField("collection-method", name).Warn("Invalid collection method, using CO-RE BPF")
		}
		c.collectionMethod = method
	}

	if field, ok := args.Field("tlsConfig"); ok {
		c.tlsConfig = field.Raw()
	}

	return nil
}

// handleAfterglow resolves the afterglow state. Three terminal states are
// possible: enabled with a valid period, disabled by flag, or disabled
// because the period is not positive.
func (c *Config) handleAfterglow(env *envSet) {
	log := logger.GetLogger()

	if !env.enableAfterglow.Value() {
		c.enableAfterglow = false
	}

	if raw, ok := envvar.Lookup(envAfterglowPeriod); ok {
		period, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.WithField("period", raw).Errorf("Invalid value for %s, keeping default", envAfterglowPeriod)
		} else {
			c.afterglowPeriodMicros = int64(period * 1000000)
		}
	}

	if c.afterglowPeriodMicros > defaults.MaxAfterglowPeriodMicros {
		log.Errorf("User set afterglow period of %ds is greater than the maximum allowed afterglow period of %ds",
			c.afterglowPeriodMicros/1000000, defaults.MaxAfterglowPeriodMicros/1000000)
		log.Errorf("Setting the afterglow period to %ds", defaults.MaxAfterglowPeriodMicros/1000000)
		c.afterglowPeriodMicros = defaults.MaxAfterglowPeriodMicros
	}

	if c.enableAfterglow && c.afterglowPeriodMicros > 0 {
		log.Info("Afterglow is enabled")
		return
	}

	if !c.enableAfterglow {
		log.Info("Afterglow is disabled")
		return
	}

	if c.afterglowPeriodMicros < 0 {
		log.Errorf("Invalid afterglow period %ds. %s must be positive",
			c.afterglowPeriodMicros/1000000, envAfterglowPeriod)
	} else {
		log.Error("Afterglow period set to 0")
	}

	c.enableAfterglow = false
	log.Info("Disabling afterglow")
}

// handleConnectionStats resolves the statistics aggregation settings. A
// user supplied quantile list replaces the default entirely; malformed
// tokens are dropped one by one, so partial success is possible.
func (c *Config) handleConnectionStats() {
	log := logger.GetLogger()

	c.connectionStatsQuantiles = slices.Clone(defaults.ConnectionStatsQuantiles)
	if raw, ok := envvar.Lookup(envConnectionStatsQuantiles); ok {
		c.connectionStatsQuantiles = nil
		for _, token := range strings.Split(raw, ",") {
			quantile, err := strconv.ParseFloat(token, 64)
			if err != nil {
				log.WithField("quantile", token).Error("Invalid quantile value")
				continue
			}
			log.WithField("quantile", quantile).Info("Connection statistics quantile")
			c.connectionStatsQuantiles = append(c.connectionStatsQuantiles, quantile)
		}
	}

	c.connectionStatsError = defaults.ConnectionStatsError
	if raw, ok := envvar.Lookup(envConnectionStatsError); ok {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			log.WithField("error", raw).Error("Invalid quantile error value")
		} else {
			c.connectionStatsError = value
			log.WithField("error", value).Info("Connection statistics error value")
		}
	}

	c.connectionStatsWindow = defaults.ConnectionStatsWindow
	if raw, ok := envvar.Lookup(envConnectionStatsWindow); ok {
		value, err := strconv.Atoi(raw)
		if err != nil {
			log.WithField("window", raw).Error("Invalid window length value")
		} else {
			c.connectionStatsWindow = value
			log.WithField("window", value).Info("Connection statistics window")
		}
	}
}

// handleSinsp resolves the kernel event buffer tuning. The three settings
// are independent; one malformed value never affects the others.
func (c *Config) handleSinsp() {
	log := logger.GetLogger()

	c.sinspCPUPerBuffer = defaults.SinspCPUPerBuffer
	c.sinspBufferSize = defaults.SinspBufferSize
	c.sinspThreadCacheSize = defaultThreadCacheSize()

	if raw, ok := envvar.Lookup(envSinspCPUPerBuffer); ok {
		value, err := strconv.Atoi(raw)
		if err != nil {
			log.WithField("value", raw).Error("Invalid cpu per buffer value")
		} else {
			c.sinspCPUPerBuffer = value
			log.WithField("value", value).Info("Sinsp cpu per buffer")
		}
	}

	if raw, ok := envvar.Lookup(envSinspBufferSize); ok {
		value, err := strconv.Atoi(raw)
		if err != nil {
			log.WithField("value", raw).Error("Invalid buffer size value")
		} else {
			c.sinspBufferSize = value
			log.WithField("value", value).Info("Sinsp buffer size")
		}
	}

	if raw, ok := envvar.Lookup(envSinspThreadCacheSize); ok {
		value, err := strconv.Atoi(raw)
		if err != nil {
			log.WithField("value", raw).Error("Invalid thread cache size value")
		} else {
			c.sinspThreadCacheSize = value
			log.WithField("value", value).Info("Sinsp thread cache size")
		}
	}
}

func defaultCollectionMethod() CollectionMethod {
	method, known := ParseCollectionMethod(defaults.CollectionMethod)
	if !known {
		logger.GetLogger().WithField("collection-method", defaults.CollectionMethod).
			Warn("Invalid built-in collection method, using CO-RE BPF")
	}
	return method
}

func defaultThreadCacheSize() int {
	size, err := strconv.Atoi(defaults.SinspThreadCacheSize)
	if err != nil {
		return fallbackThreadCacheSize
	}
	return size
}
