// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package eventmanager

import "github.com/ClusterCockpit/tipup-flagwatch/internal/model"

// secondsPerDay is the normalization constant for the timestamp term of the
// flag distance function.
const secondsPerDay = 86400.0

// domainWeight and urlWeight are the distance function's per-dimension
// weights. domainWeight is intentionally non-integral so that, at equal
// timestamps, a same-url, different-domain pair and a different-url,
// same-domain pair are never exactly equidistant.
const (
	domainWeight = 1.3
	urlWeight    = 1.0
)

// flagDistance computes the pairwise distance between two flags: a
// timestamp term clamped to one day, a reserved (always-zero) status term,
// a domain-mismatch term, and a url-mismatch term.
func flagDistance(a, b model.Flag) float64 {
	ts := float64(abs64(a.Timestamp-b.Timestamp)) / secondsPerDay
	if ts > 1.0 {
		ts = 1.0
	}

	var dom float64
	if a.Domain != b.Domain {
		dom = 1.0
	}

	var url float64
	// Fuzzy URL matching is a known TODO in the original design;
	// exact equality is used here, matching the adopted behavior.
	if a.URL != b.URL {
		url = 1.0
	}

	return ts + (domainWeight * dom) + (urlWeight * url)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// distanceMatrix builds the symmetric n x n matrix of pairwise distances
// between flags.
func distanceMatrix(flags []model.Flag) [][]float64 {
	n := len(flags)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := flagDistance(flags[i], flags[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}

	return matrix
}
