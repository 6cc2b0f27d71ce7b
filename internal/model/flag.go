// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package model

// FlagStatus classifies the severity of an anomaly a Flag records.
type FlagStatus string

const (
	// StatusUnreachable marks a measurement that could not reach its target
	// after exhausting retries.
	StatusUnreachable FlagStatus = "Unreachable"
	// StatusWarning marks a measurement whose value is a statistical outlier.
	StatusWarning FlagStatus = "Warning"
	// StatusInternal marks a measurement that recorded an internal error.
	StatusInternal FlagStatus = "Internal"
)

// Flag is produced by an analyzer when a measurement fails its predicate.
// Exactly one Flag is produced per (analyzer, measurement) pair that passes
// the predicate; analyzers must not flag the same measurement twice.
type Flag struct {
	ID              string     `bson:"id"`
	MeasurementID   string     `bson:"measurement_id"`
	Timestamp       int64      `bson:"timestamp"`
	Hostname        string     `bson:"hostname"`
	IPAddress       string     `bson:"ip_address,omitempty"`
	Domain          string     `bson:"domain"`
	DomainIPAddress string     `bson:"domain_ip_address,omitempty"`
	URL             string     `bson:"url"`
	Status          FlagStatus `bson:"status"`
	Analyzer        string     `bson:"analyzer"`
}
