// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package model holds the wire types shared by the analyzer pipeline: the
// opaque measurement document, the Flag and Event records the pipeline
// produces, and the small set of field names every component agrees on
// (hostname, url, domain, timestamp, measurement_class).
package model

import "go.mongodb.org/mongo-driver/bson"

// Document is one measurement record as read from the upstream store. It is
// deliberately untyped past the top level — field layout is measurement-class
// specific and analyzer-specific fields are reached via a VariablePath.
type Document bson.M

// VariablePath is an ordered field-name sequence addressing a single scalar
// inside a Document's nested structure.
type VariablePath []string

// Equal reports whether two variable paths address the same field sequence.
// ResultWindow uses this for structural-equality deduplication at
// registration time.
func (p VariablePath) Equal(other VariablePath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (d Document) getString(key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Hostname returns the measurement's vantage name.
func (d Document) Hostname() (string, bool) { return d.getString("hostname") }

// URL returns the measurement's target URL.
func (d Document) URL() (string, bool) { return d.getString("url") }

// Domain returns the measurement's target domain.
func (d Document) Domain() (string, bool) { return d.getString("domain") }

// MeasurementClass returns the dispatch key used by the Pipe.
func (d Document) MeasurementClass() (string, bool) { return d.getString("measurement_class") }

// ID returns the measurement's stable identifier.
func (d Document) ID() (string, bool) { return d.getString("_id") }

// Timestamp returns the measurement's epoch-seconds timestamp.
func (d Document) Timestamp() (int64, bool) {
	v, ok := d["timestamp"]
	if !ok {
		return 0, false
	}
	return asInt64(v)
}

// String returns the string at the given top-level field.
func (d Document) String(field string) (string, bool) { return d.getString(field) }

// HasField reports whether the document contains the given top-level field,
// regardless of its value. ErrorAnalyzer uses this for its field-presence scan.
func (d Document) HasField(field string) bool {
	_, ok := d[field]
	return ok
}

// Bool returns the boolean at the given top-level field.
func (d Document) Bool(field string) (bool, bool) {
	v, ok := d[field]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Sub returns the nested document at the given top-level field, if any.
func (d Document) Sub(field string) (Document, bool) {
	v, ok := d[field]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case bson.M:
		return Document(m), true
	case Document:
		return m, true
	case map[string]interface{}:
		return Document(m), true
	default:
		return nil, false
	}
}

// Int64 returns the integer at the given top-level field (widened from int32
// if necessary).
func (d Document) Int64(field string) (int64, bool) {
	v, ok := d[field]
	if !ok {
		return 0, false
	}
	return asInt64(v)
}

// Value extracts the numeric value reachable by descending into the document
// along path. Integers (int32/int64) widen to float64. A missing field or a
// non-numeric leaf at the end of the path yields (0, false) rather than an
// error: callers treat this as "skip this window" rather than a fault.
func (d Document) Value(path VariablePath) (float64, bool) {
	if len(path) == 0 {
		return 0, false
	}

	cur := d
	for i, segment := range path {
		v, ok := cur[segment]
		if !ok {
			return 0, false
		}

		if i == len(path)-1 {
			return asFloat64(v)
		}

		next, ok := asSubdocument(v)
		if !ok {
			return 0, false
		}
		cur = next
	}

	return 0, false
}

func asSubdocument(v interface{}) (Document, bool) {
	switch m := v.(type) {
	case bson.M:
		return Document(m), true
	case Document:
		return m, true
	case map[string]interface{}:
		return Document(m), true
	default:
		return nil, false
	}
}

func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
