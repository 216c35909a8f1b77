// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package hostinfo resolves host identity and host filesystem paths for an
// agent that typically runs in a container with the host filesystem mounted
// under a prefix.
package hostinfo

import (
	"os"
	"strings"

	"github.com/hostlight/hostlight/pkg/logger"
	"github.com/hostlight/hostlight/pkg/logger/logfields"
)

const (
	// HostnameEnv overrides hostname detection entirely.
	HostnameEnv = "NODE_HOSTNAME"

	// HostRootEnv points at the host filesystem mount inside the
	// container; empty means the agent runs directly on the host.
	HostRootEnv = "HOSTLIGHT_HOST_ROOT"
)

// HostRoot returns the host filesystem mount prefix, or "".
func HostRoot() string {
	return os.Getenv(HostRootEnv)
}

// HostPath joins the host root prefix with a path on the host.
func HostPath(path string) string {
	root := HostRoot()
	if root == "" {
		return path
	}
	if !strings.HasSuffix(root, "/") && !strings.HasPrefix(path, "/") {
		return root + "/" + path
	}
	return root + path
}

// Hostname determines the host's name: the NODE_HOSTNAME override wins,
// then the kernel-reported hostname, then /etc/hostname under the host
// root. An empty result means the host is unidentifiable; the caller
// decides how fatal that is.
func Hostname() string {
	if hostname := os.Getenv(HostnameEnv); hostname != "" {
		return hostname
	}

	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}

	// Inside a container the kernel reports the container's hostname, so
	// fall back to the host's /etc/hostname.
	path := HostPath("/etc/hostname")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.GetLogger().WithField("path", path).WithField(logfields.Error, err).
			Warn("Failed to read host hostname file")
		return ""
	}
	return strings.TrimSpace(string(data))
}
