// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDocumentAccessors(t *testing.T) {
	doc := Document(bson.M{
		"hostname":          "probe-a",
		"url":               "https://example.com",
		"domain":            "example.com",
		"measurement_class": "http",
		"_id":               "m-1",
		"timestamp":         int64(1000),
		"error":             true,
		"remaining_attempts": int32(0),
		"result": bson.M{
			"error":      true,
			"ip_address": "10.0.0.1",
			"latency_ms": 42.5,
		},
	})

	t.Run("top-level accessors", func(t *testing.T) {
		hostname, ok := doc.Hostname()
		assert.True(t, ok)
		assert.Equal(t, "probe-a", hostname)

		url, ok := doc.URL()
		assert.True(t, ok)
		assert.Equal(t, "https://example.com", url)

		class, ok := doc.MeasurementClass()
		assert.True(t, ok)
		assert.Equal(t, "http", class)

		ts, ok := doc.Timestamp()
		assert.True(t, ok)
		assert.Equal(t, int64(1000), ts)
	})

	t.Run("missing field", func(t *testing.T) {
		_, ok := doc.getString("nonexistent")
		assert.False(t, ok)
	})

	t.Run("nested subdocument", func(t *testing.T) {
		result, ok := doc.Sub("result")
		assert.True(t, ok)

		errVal, ok := result.Bool("error")
		assert.True(t, ok)
		assert.True(t, errVal)

		ip, ok := result.String("ip_address")
		assert.True(t, ok)
		assert.Equal(t, "10.0.0.1", ip)
	})

	t.Run("value extraction along a nested path", func(t *testing.T) {
		v, ok := doc.Value(VariablePath{"result", "latency_ms"})
		assert.True(t, ok)
		assert.InDelta(t, 42.5, v, 0.0001)
	})

	t.Run("value extraction on missing path", func(t *testing.T) {
		_, ok := doc.Value(VariablePath{"result", "nonexistent"})
		assert.False(t, ok)
	})

	t.Run("int64 widening from int32", func(t *testing.T) {
		v, ok := doc.Int64("remaining_attempts")
		assert.True(t, ok)
		assert.Equal(t, int64(0), v)
	})

	t.Run("has field", func(t *testing.T) {
		assert.True(t, doc.HasField("error"))
		assert.False(t, doc.HasField("nope"))
	})
}

func TestVariablePathEqual(t *testing.T) {
	a := VariablePath{"result", "latency_ms"}
	b := VariablePath{"result", "latency_ms"}
	c := VariablePath{"result", "other"}
	d := VariablePath{"result"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}
