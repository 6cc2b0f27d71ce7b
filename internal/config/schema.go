// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

// Schema is the JSON Schema document every configuration file is validated
// against before being decoded: compile the schema, validate the raw
// instance, then strictly decode into the typed Config.
const Schema = `{
    "type": "object",
    "properties": {
        "mongodb_ip_address": { "description": "Measurement store host.", "type": "string" },
        "mongodb_port": { "description": "Measurement store port.", "type": "integer" },
        "ca_file": { "description": "Path to CA certificate for store TLS.", "type": "string" },
        "certificate_file": { "description": "Path to client certificate for store TLS.", "type": "string" },
        "key_file": { "description": "Path to client key for store TLS.", "type": "string" },
        "username": { "description": "Store authentication username.", "type": "string" },
        "password": { "description": "Store authentication password.", "type": "string" },
        "database": { "description": "Store database name.", "type": "string" },
        "update_flags_interval": { "description": "Fetch Loop tick interval in seconds.", "type": "integer", "minimum": 1 },
        "update_events_interval": { "description": "Event Manager tick interval in seconds.", "type": "integer", "minimum": 1 },
        "log_level": { "description": "Minimum log level.", "type": "string", "enum": ["debug", "info", "warn", "err"] },
        "gops": { "description": "Enable the gops runtime-introspection agent.", "type": "boolean" },
        "analyzers": {
            "description": "Analyzer bank configuration.",
            "type": "array",
            "items": {
                "type": "object",
                "properties": {
                    "name": { "type": "string" },
                    "class": { "type": "string", "enum": ["ErrorAnalyzer", "StdDevAnalyzer"] },
                    "measurement_class": { "type": "string" },
                    "status": { "type": "string", "enum": ["Unreachable", "Warning", "Internal"] },
                    "fields": { "type": "array", "items": { "type": "string" } },
                    "parameters": {
                        "type": "object",
                        "properties": {
                            "variable_name": { "type": "array", "items": { "type": "string" } }
                        }
                    }
                },
                "required": ["name", "class", "measurement_class"]
            }
        },
        "notify": {
            "description": "Optional NATS flag-publish sink.",
            "type": "object",
            "properties": {
                "nats_address": { "type": "string" },
                "nats_creds_file": { "type": "string" }
            }
        },
        "archive": {
            "description": "Optional S3 cold archival of inactive events.",
            "type": "object",
            "properties": {
                "enabled": { "type": "boolean" },
                "s3_bucket": { "type": "string" },
                "s3_prefix": { "type": "string" }
            }
        }
    },
    "required": ["mongodb_ip_address", "mongodb_port", "database", "update_flags_interval", "update_events_interval"]
}`
