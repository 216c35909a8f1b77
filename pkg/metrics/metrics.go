// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostlight/hostlight/pkg/config"
	"github.com/hostlight/hostlight/pkg/logger"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	configInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hostlight",
		Name:      "config_info",
		Help:      "Constant gauge labelled with the resolved runtime configuration.",
	}, []string{"collection_method", "hostname", "network_flows", "external_ips", "afterglow", "connection_stats"})
)

func GetRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(configInfo)
	})
	return registry
}

func boolLabel(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

// RecordConfig publishes the resolved configuration as a constant gauge so
// the effective settings of a running agent can be read off the scrape.
func RecordConfig(cfg *config.Config) {
	GetRegistry()
	configInfo.Reset()
	configInfo.WithLabelValues(
		cfg.CollectionMethod().String(),
		cfg.Hostname(),
		boolLabel(!cfg.DisableNetworkFlows()),
		boolLabel(cfg.EnableExternalIPs()),
		boolLabel(cfg.EnableAfterglow()),
		boolLabel(cfg.EnableConnectionStats()),
	).Set(1)
}

// EnableMetrics serves the registry on address. It blocks, so callers run
// it on its own goroutine.
func EnableMetrics(address string) {
	reg := GetRegistry()

	logger.GetLogger().WithField("addr", address).Info("Starting metrics server")
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	http.ListenAndServe(address, nil)
}
