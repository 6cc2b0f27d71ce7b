// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package eventmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

func membershipSet(groups [][]int) map[int]int {
	out := map[int]int{}
	for cluster, members := range groups {
		for _, m := range members {
			out[m] = cluster
		}
	}
	return out
}

func TestDBSCANFormsOneClusterFromDenseGroup(t *testing.T) {
	// Five flags, identical domain and url, timestamps within a few
	// seconds of each other: pairwise distance is near zero, well under eps.
	flags := make([]model.Flag, 5)
	for i := range flags {
		flags[i] = model.Flag{
			ID:        string(rune('a' + i)),
			Timestamp: int64(1000 + i),
			Domain:    "example.com",
			URL:       "https://example.com/",
		}
	}

	matrix := distanceMatrix(flags)
	groups := dbscan(matrix)

	assert.Len(t, membershipSet(groups), 5)
	assert.Len(t, groups, 1)
}

func TestDBSCANDiscardsSparsePoints(t *testing.T) {
	// Three flags scattered far apart in every dimension: no point has
	// minPts-1=3 neighbors within eps, so nothing clusters.
	flags := []model.Flag{
		{ID: "a", Timestamp: 0, Domain: "a.com", URL: "/a"},
		{ID: "b", Timestamp: 200000, Domain: "b.com", URL: "/b"},
		{ID: "c", Timestamp: 400000, Domain: "c.com", URL: "/c"},
	}

	matrix := distanceMatrix(flags)
	groups := dbscan(matrix)

	assert.Empty(t, groups)
}

func TestDBSCANIsDeterministicAcrossReruns(t *testing.T) {
	flags := make([]model.Flag, 6)
	for i := range flags {
		flags[i] = model.Flag{
			ID:        string(rune('a' + i)),
			Timestamp: int64(2000 + i),
			Domain:    "example.com",
			URL:       "https://example.com/",
		}
	}

	matrix := distanceMatrix(flags)
	first := dbscan(matrix)
	second := dbscan(matrix)

	assert.Equal(t, first, second)
}

func TestDistanceMatrixIsSymmetric(t *testing.T) {
	flags := []model.Flag{
		{ID: "a", Timestamp: 1000, Domain: "example.com", URL: "/a"},
		{ID: "b", Timestamp: 90000, Domain: "other.com", URL: "/b"},
	}

	matrix := distanceMatrix(flags)
	assert.Equal(t, matrix[0][1], matrix[1][0])
	assert.Equal(t, 0.0, matrix[0][0])
}
