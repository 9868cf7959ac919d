package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Feeder populates a Values map from some external source.
type Feeder interface {
	Feed() (Values, error)
}

// YAMLFeeder reads a YAML document from Path and decodes it into Values.
type YAMLFeeder struct {
	Path string
}

func (f YAMLFeeder) Feed() (Values, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var v Values
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// TOMLFeeder reads a TOML document from Path and decodes it into Values.
type TOMLFeeder struct {
	Path string
}

func (f TOMLFeeder) Feed() (Values, error) {
	var v Values
	if _, err := toml.DecodeFile(f.Path, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EnvFeeder collects process environment variables with the given prefix
// (e.g. "APP_") into Values, lower-casing the remainder of the key and
// converting underscores to dots so APP_DB_HOST becomes "db.host".
type EnvFeeder struct {
	Prefix string
}

func (f EnvFeeder) Feed() (Values, error) {
	v := Values{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], parts[1]
		if !strings.HasPrefix(key, f.Prefix) {
			continue
		}
		trimmed := strings.TrimPrefix(key, f.Prefix)
		normalized := strings.ToLower(strings.ReplaceAll(trimmed, "_", "."))
		v[normalized] = val
	}
	return v, nil
}

// Load runs each feeder in order and merges their results, later feeders
// overriding earlier ones.
func Load(feeders ...Feeder) (Values, error) {
	result := Values{}
	for _, f := range feeders {
		v, err := f.Feed()
		if err != nil {
			return nil, err
		}
		result = result.Merge(v)
	}
	return result, nil
}
