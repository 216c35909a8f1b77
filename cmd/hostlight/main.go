// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hostlight/hostlight/pkg/collectorargs"
	"github.com/hostlight/hostlight/pkg/config"
	"github.com/hostlight/hostlight/pkg/defaults"
	"github.com/hostlight/hostlight/pkg/downloader"
	"github.com/hostlight/hostlight/pkg/heuristics"
	"github.com/hostlight/hostlight/pkg/hostinfo"
	"github.com/hostlight/hostlight/pkg/logger"
	"github.com/hostlight/hostlight/pkg/metrics"
	"github.com/hostlight/hostlight/pkg/processcache"
	"github.com/hostlight/hostlight/pkg/version"
)

var (
	log = logger.GetLogger()
)

// fetchProbe pulls the CO-RE probe object for the running kernel when a
// download base URL is configured. A missing base URL is not an error, the
// object may already be baked into the image.
func fetchProbe(ctx context.Context, cfg *config.Config) error {
	baseURL, ok := downloader.BaseURL()
	if !ok {
		return nil
	}

	release := hostinfo.KernelRelease()
	if release == "" {
		return fmt.Errorf("could not determine the running kernel release")
	}

	d, err := downloader.New(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(probeDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("hostlight-%s.o", release)
	_, err = d.Download(ctx, baseURL, name, probeDir)
	return err
}

func hostlightExecute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args, err := collectorargs.Parse(collectorConfig, collectionMethod)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", keyCollectorConfig, err)
	}

	cfg, err := config.New(args, config.WithHostEvaluator(heuristics.New()))
	if err != nil {
		return err
	}
	log.Info(cfg.String())

	cacheSize := cfg.SinspThreadCacheSize()
	procCache, err := processcache.New(cacheSize)
	if err != nil {
		return err
	}
	log.WithField("size", procCache.Size()).Info("Initialized process cache")

	if cfg.CollectionMethod() == config.CoreBPF {
		if err := fetchProbe(ctx, cfg); err != nil {
			return fmt.Errorf("fetching probe object: %w", err)
		}
	}

	if metricsServer != "" {
		metrics.RecordConfig(cfg)
		go metrics.EnableMetrics(metricsServer)
	}

	<-ctx.Done()
	log.Info("Shutting down")
	return nil
}

func execute() error {
	rootCmd := &cobra.Command{
		Use:   "hostlight",
		Short: "Run the hostlight agent",
		Run: func(cmd *cobra.Command, args []string) {
			readAndSetFlags()

			if err := hostlightExecute(); err != nil {
				log.WithError(err).Fatal("Failed to start hostlight")
			}
		},
	}

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("hostlight")
		replacer := strings.NewReplacer("-", "_")
		viper.SetEnvKeyReplacer(replacer)
		viper.AutomaticEnv()
	})

	flags := rootCmd.PersistentFlags()

	flags.String(keyCollectorConfig, "", "Runtime configuration as a single JSON object")
	flags.String(keyCollectionMethod, defaults.CollectionMethod, "Collection method (ebpf or core_bpf)")
	flags.String(keyLogLevel, "info", "Set log level")
	flags.String(keyLogFormat, "text", "Set log format")
	flags.BoolP(keyDebug, "d", false, "Enable debug messages. Equivalent to '--log-level=debug'")
	flags.String(keyMetricsServer, "", "Metrics server address (e.g. ':2112'). Set it to an empty string to disable.")
	flags.String(keyProbeDir, "/var/lib/hostlight", "Directory for downloaded probe objects")

	viper.BindPFlags(flags)
	return rootCmd.Execute()
}

func main() {
	if version.Version != "" {
		log.WithField("version", version.Version).Info("Starting hostlight")
	}
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
