// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package fetchloop implements the per-vantage tail of the measurement
// store: for every known vantage, read new measurements past its high
// watermark, broadcast each to the analyzer pipeline, feed it to the
// shared Result Window, then advance the watermark to the newest timestamp
// seen. Scheduling itself is driven externally (see cmd/tipupd), which
// registers Tick with a gocron.Scheduler rather than this package rolling
// its own ticker.
package fetchloop

import (
	"context"
	"fmt"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
	"github.com/ClusterCockpit/tipup-flagwatch/pkg/log"
)

// MeasurementSource is the read side of the measurement store the Fetch
// Loop needs.
type MeasurementSource interface {
	Vantages(ctx context.Context) ([]string, error)
	FindSince(ctx context.Context, hostname string, sinceTS int64) ([]model.Document, error)
}

// Watermarks is the per-vantage high-watermark store.
type Watermarks interface {
	Get(ctx context.Context, hostname string) (int64, error)
	Upsert(ctx context.Context, hostname string, timestamp int64) error
}

// Broadcaster dispatches one measurement to the analyzer bank.
type Broadcaster interface {
	Broadcast(document model.Document) error
}

// ResultSink is the shared Result Window's write side.
type ResultSink interface {
	AddResult(document model.Document) error
}

// Loop ties the measurement source, watermark store, analyzer pipe, and
// result window together into one tick.
type Loop struct {
	source      MeasurementSource
	watermarks  Watermarks
	broadcaster Broadcaster
	results     ResultSink
}

// New builds a Loop from its four collaborators.
func New(source MeasurementSource, watermarks Watermarks, broadcaster Broadcaster, results ResultSink) *Loop {
	return &Loop{
		source:      source,
		watermarks:  watermarks,
		broadcaster: broadcaster,
		results:     results,
	}
}

// Tick runs one iteration over every known vantage. Errors
// fetching the vantage list abort the tick; a failure tailing one vantage
// is logged and the loop proceeds to the next vantage rather than aborting
// the whole tick, so one broken host cannot starve the others.
func (l *Loop) Tick(ctx context.Context) error {
	vantages, err := l.source.Vantages(ctx)
	if err != nil {
		return fmt.Errorf("fetchloop: listing vantages: %w", err)
	}

	total := 0
	for _, hostname := range vantages {
		n, err := l.tickVantage(ctx, hostname)
		if err != nil {
			log.Errorf("fetchloop: %s: %v", hostname, err)
			continue
		}
		total += n
	}

	log.Infof("fetchloop: fetched %d new results across %d vantages", total, len(vantages))
	return nil
}

// tickVantage fetches and dispatches one vantage's new measurements,
// returning how many were processed.
func (l *Loop) tickVantage(ctx context.Context, hostname string) (int, error) {
	watermark, err := l.watermarks.Get(ctx, hostname)
	if err != nil {
		return 0, fmt.Errorf("reading high watermark: %w", err)
	}

	measurements, err := l.source.FindSince(ctx, hostname, watermark)
	if err != nil {
		return 0, fmt.Errorf("fetching measurements: %w", err)
	}

	maxTS := int64(-1)
	for _, m := range measurements {
		if err := l.broadcaster.Broadcast(m); err != nil {
			log.Errorf("fetchloop: %s: broadcast failed: %v", hostname, err)
		}

		if ts, ok := m.Timestamp(); ok && ts > maxTS {
			maxTS = ts
		}

		if err := l.results.AddResult(m); err != nil {
			log.Errorf("fetchloop: %s: add_result failed: %v", hostname, err)
		}
	}

	if maxTS != -1 {
		if err := l.watermarks.Upsert(ctx, hostname, maxTS); err != nil {
			return len(measurements), fmt.Errorf("advancing high watermark: %w", err)
		}
	}

	return len(measurements), nil
}
