// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/resultwindow"
)

func TestMeanAndStdDevUsesUnnormalizedFormula(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	mean, stdDev := meanAndStdDev(values)
	assert.InDelta(t, 3.0, mean, 0.0001)

	// sum of squared deviations = (4+1+0+1+4) = 10; sqrt(10), NOT sqrt(10/5).
	assert.InDelta(t, math.Sqrt(10), stdDev, 0.0001)
}

func TestStdDevAnalyzerFlagsOutliersAboveThreshold(t *testing.T) {
	rw := resultwindow.New()
	path := model.VariablePath{"result", "latency_ms"}
	window := rw.RegisterVariable(path)

	for _, v := range []float64{10, 10, 10, 10} {
		require.NoError(t, rw.AddResult(model.Document(bson.M{
			"hostname": "probe-a",
			"url":      "https://example.com",
			"result":   bson.M{"latency_ms": v},
		})))
	}

	ch := make(chan model.Flag, 1)
	a := NewStdDevAnalyzer("latency-stddev", path, window, ch)

	doc := model.Document(bson.M{
		"_id":      "m-1",
		"hostname": "probe-a",
		"url":      "https://example.com",
		"domain":   "example.com",
		"result":   bson.M{"latency_ms": 1000.0},
	})
	require.NoError(t, a.ProcessMeasurement(doc))

	require.Len(t, ch, 1)
	flag := <-ch
	assert.Equal(t, model.StatusWarning, flag.Status)
}

func TestStdDevAnalyzerSkipsWhenNoHistory(t *testing.T) {
	rw := resultwindow.New()
	path := model.VariablePath{"v"}
	window := rw.RegisterVariable(path)

	ch := make(chan model.Flag, 1)
	a := NewStdDevAnalyzer("no-history", path, window, ch)

	doc := model.Document(bson.M{
		"_id":      "m-1",
		"hostname": "probe-a",
		"url":      "https://example.com",
		"v":        1000.0,
	})
	require.NoError(t, a.ProcessMeasurement(doc))
	assert.Len(t, ch, 0)
}

func TestStdDevAnalyzerSkipsMissingHostnameOrValue(t *testing.T) {
	rw := resultwindow.New()
	path := model.VariablePath{"v"}
	window := rw.RegisterVariable(path)

	ch := make(chan model.Flag, 1)
	a := NewStdDevAnalyzer("skip", path, window, ch)

	require.NoError(t, a.ProcessMeasurement(model.Document(bson.M{"url": "https://example.com", "v": 1.0})))
	require.NoError(t, a.ProcessMeasurement(model.Document(bson.M{"hostname": "probe-a", "v": 1.0})))
	require.NoError(t, a.ProcessMeasurement(model.Document(bson.M{"hostname": "probe-a", "url": "https://example.com"})))
	assert.Len(t, ch, 0)
}
