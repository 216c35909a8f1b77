// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package processcache caches originating process information keyed by
// pid, so listening endpoint records scraped from /proc can be annotated
// without re-reading process state every interval. Its capacity is the
// resolved sinsp thread cache size.
package processcache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Info describes the process behind an endpoint.
type Info struct {
	PID  int
	Comm string
	Exe  string
	Args string
	UID  uint32
}

// Cache is a fixed-capacity LRU of process info.
type Cache struct {
	cache *lru.Cache[int, Info]
	size  int
}

// New creates a cache with the given capacity.
func New(size int) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid process cache size %d", size)
	}
	cache, err := lru.New[int, Info](size)
	if err != nil {
		return nil, fmt.Errorf("creating process cache: %w", err)
	}
	return &Cache{cache: cache, size: size}, nil
}

// Size returns the configured capacity.
func (c *Cache) Size() int { return c.size }

// Len returns the current number of cached entries.
func (c *Cache) Len() int { return c.cache.Len() }

// Add stores or refreshes the info for a pid.
func (c *Cache) Add(info Info) {
	c.cache.Add(info.PID, info)
}

// Get looks up the info for a pid.
func (c *Cache) Get(pid int) (Info, bool) {
	return c.cache.Get(pid)
}

// Remove drops a pid, typically on process exit.
func (c *Cache) Remove(pid int) {
	c.cache.Remove(pid)
}
