// Package config provides the free-form configuration surface exposed to
// modules and plugins, pluggable feeders (YAML, TOML, environment) that
// populate it, and an optional file-watch hot-reloader.
package config

import (
	"time"

	"github.com/golobby/cast"
)

// Values is the free-form configuration map handed to modules and
// plugins via their context. Coercion to a requested type is done with
// golobby/cast, matching loosely-typed values read from YAML/TOML/env
// sources.
type Values map[string]any

// String returns key coerced to a string, or def if absent or not
// coercible.
func (v Values) String(key, def string) string {
	raw, ok := v[key]
	if !ok {
		return def
	}
	s, err := cast.ToString(raw)
	if err != nil {
		return def
	}
	return s
}

// Int returns key coerced to an int, or def if absent or not coercible.
func (v Values) Int(key string, def int) int {
	raw, ok := v[key]
	if !ok {
		return def
	}
	n, err := cast.ToInt(raw)
	if err != nil {
		return def
	}
	return n
}

// Bool returns key coerced to a bool, or def if absent or not coercible.
func (v Values) Bool(key string, def bool) bool {
	raw, ok := v[key]
	if !ok {
		return def
	}
	b, err := cast.ToBool(raw)
	if err != nil {
		return def
	}
	return b
}

// Duration returns key parsed as a Go duration string, or def if absent
// or unparsable.
func (v Values) Duration(key string, def time.Duration) time.Duration {
	raw, ok := v[key]
	if !ok {
		return def
	}
	s, err := cast.ToString(raw)
	if err != nil {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// Merge layers other on top of v, returning a new Values with other's keys
// taking precedence. Neither input is mutated.
func (v Values) Merge(other Values) Values {
	out := make(Values, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}
