// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package resultwindow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

type fakeHistorySource struct {
	groups []model.HistoryGroup
}

func (f fakeHistorySource) AggregateHistory(ctx context.Context, sinceTS int64, path model.VariablePath) ([]model.HistoryGroup, error) {
	return f.groups, nil
}

func TestRegisterVariableDeduplicatesByStructuralEquality(t *testing.T) {
	rw := New()

	w1 := rw.RegisterVariable(model.VariablePath{"result", "latency_ms"})
	w2 := rw.RegisterVariable(model.VariablePath{"result", "latency_ms"})
	w3 := rw.RegisterVariable(model.VariablePath{"result", "other"})

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
}

func TestAddResultAppendsOncePerRegisteredWindow(t *testing.T) {
	rw := New()
	w := rw.RegisterVariable(model.VariablePath{"result", "latency_ms"})

	doc := model.Document(bson.M{
		"hostname": "probe-a",
		"url":      "https://example.com",
		"result":   bson.M{"latency_ms": 12.5},
	})

	require.NoError(t, rw.AddResult(doc))
	require.NoError(t, rw.AddResult(doc))

	assert.Equal(t, []float64{12.5, 12.5}, w.Values("probe-a", "https://example.com"))
}

func TestAddResultRejectsMissingHostnameOrURL(t *testing.T) {
	rw := New()
	rw.RegisterVariable(model.VariablePath{"value"})

	err := rw.AddResult(model.Document(bson.M{"url": "https://example.com"}))
	assert.Error(t, err)

	err = rw.AddResult(model.Document(bson.M{"hostname": "probe-a"}))
	assert.Error(t, err)
}

func TestAddResultSkipsWindowsMissingTheirValue(t *testing.T) {
	rw := New()
	w := rw.RegisterVariable(model.VariablePath{"result", "latency_ms"})

	doc := model.Document(bson.M{"hostname": "probe-a", "url": "https://example.com"})
	require.NoError(t, rw.AddResult(doc))

	assert.Nil(t, w.Values("probe-a", "https://example.com"))
}

func TestVariableWindowTruncatesToDepth(t *testing.T) {
	rw := New()
	w := rw.RegisterVariable(model.VariablePath{"v"})

	for i := 0; i < WindowDepth+5; i++ {
		doc := model.Document(bson.M{
			"hostname": "probe-a",
			"url":      "https://example.com",
			"v":        float64(i),
		})
		require.NoError(t, rw.AddResult(doc))
	}

	values := w.Values("probe-a", "https://example.com")
	require.Len(t, values, WindowDepth)
	assert.Equal(t, float64(5), values[0])
	assert.Equal(t, float64(WindowDepth+4), values[WindowDepth-1])
}

func TestInitializeBackfillsFromHistorySource(t *testing.T) {
	rw := New()
	w := rw.RegisterVariable(model.VariablePath{"v"})

	source := fakeHistorySource{groups: []model.HistoryGroup{
		{Hostname: "probe-a", URL: "https://example.com", Values: []float64{1, 2, 3}},
	}}

	require.NoError(t, rw.Initialize(context.Background(), source, time.Unix(1_700_000_000, 0)))

	assert.Equal(t, []float64{1, 2, 3}, w.Values("probe-a", "https://example.com"))
}

func TestInitializeTruncatesBackfillToDepth(t *testing.T) {
	rw := New()
	w := rw.RegisterVariable(model.VariablePath{"v"})

	values := make([]float64, WindowDepth+3)
	for i := range values {
		values[i] = float64(i)
	}
	source := fakeHistorySource{groups: []model.HistoryGroup{
		{Hostname: "probe-a", URL: "https://example.com", Values: values},
	}}

	require.NoError(t, rw.Initialize(context.Background(), source, time.Unix(1_700_000_000, 0)))

	got := w.Values("probe-a", "https://example.com")
	require.Len(t, got, WindowDepth)
	assert.Equal(t, float64(3), got[0])
}
