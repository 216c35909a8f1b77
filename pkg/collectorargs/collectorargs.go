// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Hostlight

// Package collectorargs wraps the externally supplied structured argument
// blob handed to the agent at startup. Field access distinguishes absent
// from present fields and exposes typed views without implicit coercion;
// guarding against unexpected field shapes is the resolver's job.
package collectorargs

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Args carries the parsed configuration blob plus the out-of-band
// collection method selector.
type Args struct {
	config    gjson.Result
	hasConfig bool

	collectionMethod string
}

// Parse validates and wraps a JSON configuration blob. An empty blob is
// valid and yields Args with no fields present.
func Parse(blob string, collectionMethod string) (*Args, error) {
	args := &Args{collectionMethod: collectionMethod}
	if blob == "" {
		return args, nil
	}
	if !gjson.Valid(blob) {
		return nil, fmt.Errorf("collector config is not valid JSON: %q", blob)
	}
	args.config = gjson.Parse(blob)
	args.hasConfig = true
	return args, nil
}

// CollectionMethod returns the user-selected collection method name, or the
// empty string if none was given.
func (a *Args) CollectionMethod() string {
	return a.collectionMethod
}

// HasConfig reports whether a configuration blob was supplied at all.
func (a *Args) HasConfig() bool {
	return a.hasConfig
}

// Field looks up a named top-level field. The second return value reports
// presence; the Field value is only meaningful when it is true.
func (a *Args) Field(name string) (Field, bool) {
	if !a.hasConfig {
		return Field{}, false
	}
	res := a.config.Get(name)
	return Field{res: res}, res.Exists()
}

// Field is a typed view over a single present blob field.
type Field struct {
	res gjson.Result
}

// String returns the field rendered as a string.
func (f Field) String() string {
	return f.res.String()
}

// Bool returns the field interpreted as a boolean.
func (f Field) Bool() bool {
	return f.res.Bool()
}

// IsArray reports whether the field is array-shaped.
func (f Field) IsArray() bool {
	return f.res.IsArray()
}

// StringArray returns the elements of an array-shaped field as strings.
func (f Field) StringArray() []string {
	elems := f.res.Array()
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.String())
	}
	return out
}

// Raw returns the field's raw JSON text, used for opaque pass-through
// values that the resolver never interprets.
func (f Field) Raw() string {
	return f.res.Raw
}
