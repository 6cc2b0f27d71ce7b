// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

func baseMeasurement(extra bson.M) model.Document {
	doc := bson.M{
		"_id":       "m-1",
		"hostname":  "probe-a",
		"url":       "https://example.com",
		"domain":    "example.com",
		"timestamp": int64(1000),
	}
	for k, v := range extra {
		doc[k] = v
	}
	return model.Document(doc)
}

func TestErrorAnalyzerFieldPresenceMode(t *testing.T) {
	ch := make(chan model.Flag, 4)
	a := NewErrorAnalyzer("field-scan", model.StatusWarning, []string{"timeout", "dns_failure"}, ch)

	t.Run("raises exactly one flag on first matching field", func(t *testing.T) {
		doc := baseMeasurement(bson.M{"timeout": true, "dns_failure": true})
		require.NoError(t, a.ProcessMeasurement(doc))

		require.Len(t, ch, 1)
		flag := <-ch
		assert.Equal(t, model.StatusWarning, flag.Status)
		assert.Equal(t, "m-1:field-scan", flag.ID)
	})

	t.Run("no flag when no configured field present", func(t *testing.T) {
		doc := baseMeasurement(bson.M{"other_field": 1})
		require.NoError(t, a.ProcessMeasurement(doc))
		assert.Len(t, ch, 0)
	})
}

func TestErrorAnalyzerNestedErrorMode(t *testing.T) {
	ch := make(chan model.Flag, 4)
	a := NewErrorAnalyzer("nested", "", nil, ch)

	t.Run("internal flag on top-level error", func(t *testing.T) {
		doc := baseMeasurement(bson.M{"error": true})
		require.NoError(t, a.ProcessMeasurement(doc))

		require.Len(t, ch, 1)
		flag := <-ch
		assert.Equal(t, model.StatusInternal, flag.Status)
	})

	t.Run("unreachable flag requires both nested error and exhausted retries", func(t *testing.T) {
		doc := baseMeasurement(bson.M{
			"result":             bson.M{"error": true},
			"remaining_attempts": int32(0),
		})
		require.NoError(t, a.ProcessMeasurement(doc))

		require.Len(t, ch, 1)
		flag := <-ch
		assert.Equal(t, model.StatusUnreachable, flag.Status)
	})

	t.Run("no unreachable flag while retries remain", func(t *testing.T) {
		doc := baseMeasurement(bson.M{
			"result":             bson.M{"error": true},
			"remaining_attempts": int32(2),
		})
		require.NoError(t, a.ProcessMeasurement(doc))
		assert.Len(t, ch, 0)
	})

	t.Run("both flags fire independently for the same measurement", func(t *testing.T) {
		doc := baseMeasurement(bson.M{
			"error":              true,
			"result":             bson.M{"error": true},
			"remaining_attempts": int32(0),
		})
		require.NoError(t, a.ProcessMeasurement(doc))
		require.Len(t, ch, 2)

		statuses := map[model.FlagStatus]bool{}
		statuses[(<-ch).Status] = true
		statuses[(<-ch).Status] = true
		assert.True(t, statuses[model.StatusInternal])
		assert.True(t, statuses[model.StatusUnreachable])
	})
}
