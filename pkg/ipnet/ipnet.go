// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package ipnet parses textual network prefixes into netip.Prefix values.
package ipnet

import (
	"errors"
	"fmt"
	"net/netip"
)

// Parse parses an IPv4 or IPv6 CIDR prefix. The empty string is rejected.
// Failure is an ordinary error result; callers decide whether to skip or
// propagate.
func Parse(text string) (netip.Prefix, error) {
	if text == "" {
		return netip.Prefix{}, errors.New("empty network prefix")
	}
	prefix, err := netip.ParsePrefix(text)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("parsing network prefix %q: %w", text, err)
	}
	return prefix.Masked(), nil
}
