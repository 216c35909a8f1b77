// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package envvar provides typed, read-once accessors for environment
// variables. A variable is read from the environment the first time its
// value is requested and the parsed result is cached for the remainder of
// the process; later changes to the environment are never observed.
package envvar

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hostlight/hostlight/pkg/logger"
)

// BoolVar is a boolean environment variable with a compiled-in default.
type BoolVar struct {
	name string
	def  bool

	once sync.Once
	val  bool
}

// Bool declares a boolean environment variable. The environment is not
// consulted until Value is called.
func Bool(name string, def bool) *BoolVar {
	return &BoolVar{name: name, def: def}
}

// Name returns the environment variable name.
func (v *BoolVar) Name() string { return v.name }

// Value reads and caches the variable. An absent variable yields the
// default; a present but malformed value is logged and yields the default.
func (v *BoolVar) Value() bool {
	v.once.Do(func() {
		v.val = v.def
		raw, ok := os.LookupEnv(v.name)
		if !ok {
			return
		}
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			logger.GetLogger().WithField("var", v.name).WithError(err).
				Error("Invalid boolean value, keeping default")
			return
		}
		v.val = parsed
	})
	return v.val
}

// StringListVar is a comma-separated list environment variable with a
// compiled-in default list.
type StringListVar struct {
	name string
	def  []string

	once sync.Once
	val  []string
}

// StringList declares a list-valued environment variable.
func StringList(name string, def []string) *StringListVar {
	return &StringListVar{name: name, def: def}
}

// Name returns the environment variable name.
func (v *StringListVar) Name() string { return v.name }

// Value reads and caches the variable, splitting it on commas. No trimming
// is applied; empty entries are preserved and left to the caller to skip.
func (v *StringListVar) Value() []string {
	v.once.Do(func() {
		raw, ok := os.LookupEnv(v.name)
		if !ok {
			v.val = v.def
			return
		}
		v.val = strings.Split(raw, ",")
	})
	return v.val
}

// Lookup reports whether the named variable is present, along with its raw
// text. It is used by resolution steps that need per-field parse policies
// richer than the typed accessors above.
func Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}
