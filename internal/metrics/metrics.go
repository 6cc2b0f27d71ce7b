// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package metrics exposes the pipeline's own operational counters via
// github.com/prometheus/client_golang: registered Counter/CounterVec/Gauge
// instruments, served over promhttp.Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MeasurementsProcessed counts measurements broadcast through the pipe,
	// labeled by measurement_class.
	MeasurementsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tipup",
		Name:      "measurements_processed_total",
		Help:      "Measurements dispatched through the analyzer pipe.",
	}, []string{"measurement_class"})

	// FlagsEmitted counts flags produced by analyzers, labeled by status.
	FlagsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tipup",
		Name:      "flags_emitted_total",
		Help:      "Flags raised by analyzers, before persistence.",
	}, []string{"status"})

	// FlagsWritten counts flags durably written by the Flag Manager.
	FlagsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipup",
		Name:      "flags_written_total",
		Help:      "Flags successfully written to the flag store.",
	})

	// FlagBufferSize reports the Flag Manager's current in-memory buffer
	// depth: updated on every received flag and reset to 0 after a
	// successful flush.
	FlagBufferSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tipup",
		Name:      "flag_buffer_size",
		Help:      "Flags held in memory awaiting the next flush.",
	})

	// EventsCreated and EventsMerged count the two outcomes of Event
	// Manager step 6.
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipup",
		Name:      "events_created_total",
		Help:      "New events inserted by the Event Manager.",
	})
	EventsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipup",
		Name:      "events_merged_total",
		Help:      "Clusters absorbed into an existing active event.",
	})

	// ClustersDiscarded counts clusters dropped for spanning more than one
	// domain.
	ClustersDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tipup",
		Name:      "clusters_discarded_total",
		Help:      "DBSCAN clusters discarded for spanning multiple domains.",
	})
)

// Handler returns the HTTP handler serving the default registry's scrape
// endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
