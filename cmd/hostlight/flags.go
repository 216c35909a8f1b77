// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/hostlight/hostlight/pkg/logger"
)

const (
	keyCollectorConfig  = "collector-config"
	keyCollectionMethod = "collection-method"

	keyLogLevel  = "log-level"
	keyLogFormat = "log-format"
	keyDebug     = "debug"

	keyMetricsServer = "metrics-server"
	keyProbeDir      = "probe-dir"
)

var (
	collectorConfig  string
	collectionMethod string
	metricsServer    string
	probeDir         string
)

func readAndSetFlags() {
	collectorConfig = viper.GetString(keyCollectorConfig)
	collectionMethod = viper.GetString(keyCollectionMethod)
	metricsServer = viper.GetString(keyMetricsServer)
	probeDir = viper.GetString(keyProbeDir)

	logger.SetLogFormat(viper.GetString(keyLogFormat))

	// The args blob may still override this later; flags set the floor.
	if viper.GetBool(keyDebug) {
		logger.SetLogLevel(logrus.DebugLevel)
	} else if name := viper.GetString(keyLogLevel); name != "" {
		if level, err := logger.ParseLevel(name); err == nil {
			logger.SetLogLevel(level)
		} else {
			logger.GetLogger().WithField("log-level", name).Warn("Ignoring invalid log level")
		}
	}
}
