package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	rerrors "ripper/pkg/errors"
)

// Document is a parsed configuration file. Its schema belongs to the rippers
// that read it; the core only reserves the "ripper" and "session" keys.
type Document map[string]interface{}

// ParseConfig reads a configuration document from path.
// Files ending in .yaml or .yml are read as YAML, everything else as JSON.
// The top-level value must be an object.
func ParseConfig(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rerrors.Config(err, "could not open configuration file")
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&doc)
		if err == nil && dec.More() {
			err = fmt.Errorf("trailing data after top-level object")
		}
	}
	if err != nil {
		return nil, rerrors.Config(err, "could not parse configuration file")
	}
	if doc == nil {
		return nil, rerrors.Config(nil, "configuration file must contain an object")
	}

	return doc, nil
}

// String returns the string value stored under key, or "" when absent
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Has reports whether key is present
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Decode decodes the sub-document under key into out using its yaml tags.
// A missing key leaves out untouched.
func (d Document) Decode(key string, out interface{}) error {
	value, ok := d[key]
	if !ok || value == nil {
		return nil
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return rerrors.Config(err, fmt.Sprintf("could not encode %q section", key))
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return rerrors.Config(err, fmt.Sprintf("invalid %q section", key))
	}

	return nil
}

// SessionConfig returns the "session" section merged over the defaults
func (d Document) SessionConfig() (SessionConfig, error) {
	cfg := DefaultSessionConfig()
	if err := d.Decode("session", &cfg); err != nil {
		return cfg, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return cfg, nil
}

// UnmarshalYAML accepts the timeout either as a duration string ("15s",
// "1m30s") or as a number of seconds.
func (c *SessionConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			key, val := value.Content[i], value.Content[i+1]
			if key.Value != "timeout" || val.Kind != yaml.ScalarNode {
				continue
			}
			if tag := val.ShortTag(); tag == "!!int" || tag == "!!float" {
				secs, err := strconv.ParseFloat(val.Value, 64)
				if err != nil {
					return fmt.Errorf("invalid timeout %q: %w", val.Value, err)
				}
				val.Tag = "!!str"
				val.Value = time.Duration(secs * float64(time.Second)).String()
			}
		}
	}

	type plain SessionConfig
	return value.Decode((*plain)(c))
}
