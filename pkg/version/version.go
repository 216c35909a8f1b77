// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time via -ldflags.
var Version string

type BuildInfo struct {
	GoVersion string
	Commit    string
	Time      string
	Modified  string
}

func ReadBuildInfo() *BuildInfo {
	info := &BuildInfo{}
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		info.GoVersion = buildInfo.GoVersion
		for _, s := range buildInfo.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.time":
				info.Time = s.Value
			case "vcs.modified":
				info.Modified = s.Value
			}
		}
	}
	return info
}

func (info BuildInfo) Print() {
	if info.GoVersion != "" {
		fmt.Printf("GoVersion: %s\n", info.GoVersion)
	}
	if info.Time != "" {
		fmt.Printf("Date: %s\n", info.Time)
	}
	if info.Commit != "" {
		fmt.Printf("GitCommit: %s\n", info.Commit)
	}
	if info.Modified != "" {
		state := "clean"
		if info.Modified == "true" {
			state = "dirty"
		}
		fmt.Printf("GitTreeState: %s\n", state)
	}
}
