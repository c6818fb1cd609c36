package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// ParseConfig reads, validates and decodes a configuration file.
//
// Two layouts are accepted: the full object form described by Schema, and
// a bare array of database entries.
func ParseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}
	return Parse(data)
}

// Parse validates data against the schema and decodes it.
func Parse(data []byte) (*Config, error) {
	if err := ValidateBytes(data); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	isArray := len(trimmed) > 0 && trimmed[0] == '['

	if err := checkRetentionPresent(trimmed, isArray); err != nil {
		return nil, err
	}

	var config Config
	if isArray {
		if err := json.Unmarshal(trimmed, &config.Databases); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return &config, nil
	}

	if err := json.Unmarshal(trimmed, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// checkRetentionPresent rejects entries without retention_days. Zero is a
// valid retention, so a missing key cannot be told apart after decoding.
func checkRetentionPresent(data []byte, isArray bool) error {
	var entries []map[string]json.RawMessage
	if isArray {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		var doc struct {
			Databases []map[string]json.RawMessage `json:"databases"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		entries = doc.Databases
	}

	for i, entry := range entries {
		if _, ok := entry["retention_days"]; ok {
			continue
		}
		var name string
		if rawName, ok := entry["name"]; ok {
			_ = json.Unmarshal(rawName, &name)
		}
		return &ConfigError{Index: i, Name: name, Field: "retention_days", Reason: "is required"}
	}
	return nil
}
