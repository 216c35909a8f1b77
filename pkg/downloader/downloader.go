// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package downloader fetches kernel probe objects the agent does not ship,
// typically the CO-RE BPF object matching the running kernel. TLS material
// comes from the opaque tlsConfig blob the resolver passed through.
package downloader

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/hostlight/hostlight/pkg/config"
	"github.com/hostlight/hostlight/pkg/logger"
)

// BaseURLEnv names the environment variable holding the download base URL.
// An empty or unset value disables downloading.
const BaseURLEnv = "MODULE_DOWNLOAD_BASE_URL"

const (
	retryCount    = 3
	retryWaitTime = time.Second
)

// BaseURL returns the configured download base URL, if any.
func BaseURL() (string, bool) {
	url := os.Getenv(BaseURLEnv)
	if url == "" {
		logger.GetLogger().Debug(BaseURLEnv + " not set")
		return "", false
	}
	return strings.TrimSuffix(url, "/"), true
}

type tlsOptions struct {
	caCertPath     string
	clientCertPath string
	clientKeyPath  string
}

// parseTLSOptions extracts the certificate paths the downloader understands
// from the opaque blob. Unknown fields are ignored, absent fields yield
// zero values.
func parseTLSOptions(blob string) tlsOptions {
	if blob == "" {
		return tlsOptions{}
	}
	return tlsOptions{
		caCertPath:     gjson.Get(blob, "caCertPath").String(),
		clientCertPath: gjson.Get(blob, "clientCertPath").String(),
		clientKeyPath:  gjson.Get(blob, "clientKeyPath").String(),
	}
}

// Downloader wraps a retrying HTTP client configured from the resolved
// configuration.
type Downloader struct {
	client *resty.Client
}

// New builds a downloader from the resolved configuration.
func New(cfg *config.Config) (*Downloader, error) {
	client := resty.New().
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWaitTime).
		SetLogger(logger.GetLogger()).
		SetDebug(cfg.CurlVerbose())

	opts := parseTLSOptions(cfg.TLSConfig())
	if opts.caCertPath != "" {
		client.SetRootCertificate(opts.caCertPath)
	}
	if opts.clientCertPath != "" || opts.clientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(opts.clientCertPath, opts.clientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		client.SetCertificates(cert)
	}

	return &Downloader{client: client}, nil
}

// Download fetches baseURL/name into destDir and returns the downloaded
// file path. Responses with HTTP status >= 400 fail explicitly.
func (d *Downloader) Download(ctx context.Context, baseURL, name, destDir string) (string, error) {
	dest := filepath.Join(destDir, name)
	url := baseURL + "/" + name

	resp, err := d.client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	if resp.StatusCode() >= 400 {
		// resty wrote whatever the server sent; do not leave it around.
		os.Remove(dest)
		return "", fmt.Errorf("downloading %s: HTTP status %d", url, resp.StatusCode())
	}

	logger.GetLogger().WithField("path", dest).Info("Downloaded probe object")
	return dest, nil
}
