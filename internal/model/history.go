// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package model

// HistoryGroup is one (hostname, url) bucket of historical values for a
// single variable path, as produced by the measurement store's backfill
// aggregation ($match + $group + $push, see store.MeasurementRepository).
type HistoryGroup struct {
	Hostname string
	URL      string
	Values   []float64
}
