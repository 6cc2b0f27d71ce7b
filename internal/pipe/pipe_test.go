// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package pipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

type stubAnalyzer struct {
	name    string
	calls   *int
	failure error
}

func (s stubAnalyzer) Name() string { return s.name }

func (s stubAnalyzer) ProcessMeasurement(document model.Document) error {
	*s.calls++
	return s.failure
}

func TestAddAnalyzerRejectsDuplicateNameWithinClass(t *testing.T) {
	p := New()
	calls := 0

	require.NoError(t, p.AddAnalyzer("http", "a", stubAnalyzer{name: "a", calls: &calls}))
	err := p.AddAnalyzer("http", "a", stubAnalyzer{name: "a", calls: &calls})
	assert.Error(t, err)
}

func TestBroadcastInvokesEveryAnalyzerRegisteredUnderClass(t *testing.T) {
	p := New()
	calls := 0

	require.NoError(t, p.AddAnalyzer("http", "a", stubAnalyzer{name: "a", calls: &calls}))
	require.NoError(t, p.AddAnalyzer("http", "b", stubAnalyzer{name: "b", calls: &calls}))
	require.NoError(t, p.AddAnalyzer("dns", "c", stubAnalyzer{name: "c", calls: &calls}))

	doc := model.Document(bson.M{"measurement_class": "http"})
	require.NoError(t, p.Broadcast(doc))

	assert.Equal(t, 2, calls)
}

func TestBroadcastIsNoOpForUnregisteredClass(t *testing.T) {
	p := New()
	doc := model.Document(bson.M{"measurement_class": "unregistered"})
	require.NoError(t, p.Broadcast(doc))
}

func TestBroadcastRequiresMeasurementClass(t *testing.T) {
	p := New()
	err := p.Broadcast(model.Document(bson.M{}))
	assert.Error(t, err)
}

func TestBroadcastAbortsOnFirstAnalyzerError(t *testing.T) {
	p := New()
	calls := 0
	failing := errors.New("boom")

	require.NoError(t, p.AddAnalyzer("http", "failing", stubAnalyzer{name: "failing", calls: &calls, failure: failing}))

	doc := model.Document(bson.M{"measurement_class": "http"})
	err := p.Broadcast(doc)

	require.Error(t, err)
	assert.ErrorIs(t, err, failing)
}
