// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

//go:build !linux

package heuristics

// Neither probe flavor loads off Linux; the evaluator will decline to
// decide and leave the configured method alone.

func hasBTF() bool { return false }

func supportsKprobe() bool { return false }
