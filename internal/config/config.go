// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package config loads and validates the daemon's startup configuration: a
// JSON document, schema-validated with github.com/santhosh-tekuri/
// jsonschema/v5 before being strictly decoded into a typed Go struct.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// AnalyzerConfig describes one analyzer bank entry (carried as an `analyzers`
// collection, carried here as a config array instead of its own store
// collection — the set of analyzers is process configuration, not runtime
// state).
type AnalyzerConfig struct {
	Name             string   `json:"name"`
	Class            string   `json:"class"`
	MeasurementClass string   `json:"measurement_class"`
	Status           string   `json:"status,omitempty"`
	Fields           []string `json:"fields,omitempty"`
	Parameters       struct {
		VariableName []string `json:"variable_name,omitempty"`
	} `json:"parameters,omitempty"`
}

// NotifyConfig configures the optional NATS publish sink.
type NotifyConfig struct {
	NatsAddress   string `json:"nats_address,omitempty"`
	NatsCredsFile string `json:"nats_creds_file,omitempty"`
}

// ArchiveConfig configures optional S3 cold archival of inactive events.
type ArchiveConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	S3Bucket string `json:"s3_bucket,omitempty"`
	S3Prefix string `json:"s3_prefix,omitempty"`
}

// Config is the fully decoded, validated startup configuration.
type Config struct {
	MongoDBIPAddress string `json:"mongodb_ip_address"`
	MongoDBPort      int    `json:"mongodb_port"`
	CAFile           string `json:"ca_file,omitempty"`
	CertificateFile  string `json:"certificate_file,omitempty"`
	KeyFile          string `json:"key_file,omitempty"`
	Username         string `json:"username,omitempty"`
	Password         string `json:"password,omitempty"`
	Database         string `json:"database"`

	UpdateFlagsInterval  int `json:"update_flags_interval"`
	UpdateEventsInterval int `json:"update_events_interval"`

	LogLevel string `json:"log_level,omitempty"`
	Gops     bool   `json:"gops,omitempty"`

	Analyzers []AnalyzerConfig `json:"analyzers,omitempty"`
	Notify    NotifyConfig     `json:"notify,omitempty"`
	Archive   ArchiveConfig    `json:"archive,omitempty"`
}

// Load reads path, validates it against Schema, and strictly decodes it
// into a Config. Unknown fields in the file are rejected rather than
// silently ignored.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("config: validating %s: %w", path, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	return &cfg, nil
}

func validate(raw json.RawMessage) error {
	sch, err := jsonschema.CompileString("tipup-config.json", Schema)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("parsing as JSON: %w", err)
	}

	if err := sch.Validate(instance); err != nil {
		return err
	}
	return nil
}
