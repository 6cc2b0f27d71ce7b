// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package resultwindow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

// BackfillHorizon is how far back Initialize aggregates history from the
// upstream store when seeding a freshly registered Variable Window.
const BackfillHorizon = 5 * 24 * time.Hour

// HistorySource is the subset of the measurement store ResultWindow needs
// for its one-time backfill: an aggregated history of one variable path
// across all (hostname, url) pairs newer than a timestamp.
type HistorySource interface {
	AggregateHistory(ctx context.Context, sinceTS int64, path model.VariablePath) ([]model.HistoryGroup, error)
}

// ResultWindow owns the set of Variable Windows, one per distinct variable
// path registered by any analyzer. It is the Fetch Loop's single write
// target and every analyzer's single read target.
type ResultWindow struct {
	mu      sync.Mutex
	windows []*VariableWindow
}

// New creates an empty ResultWindow.
func New() *ResultWindow {
	return &ResultWindow{}
}

// RegisterVariable returns the VariableWindow for path, creating it if this
// is the first registration. Equal paths (structural equality on the
// segment sequence) always return the same handle, so analyzers sharing a
// path share one buffer and the Fetch Loop appends to it exactly once per
// measurement. Call only during analyzer construction, before Initialize.
func (rw *ResultWindow) RegisterVariable(path model.VariablePath) *VariableWindow {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	for _, w := range rw.windows {
		if w.path.Equal(path) {
			return w
		}
	}

	w := newVariableWindow(path)
	rw.windows = append(rw.windows, w)
	return w
}

// Initialize backfills every registered Variable Window from source,
// aggregating the last BackfillHorizon of measurements by (hostname, url)
// and truncating each bucket to the most recent WindowDepth values. Call
// once at startup, after all analyzers have registered their variables.
func (rw *ResultWindow) Initialize(ctx context.Context, source HistorySource, now time.Time) error {
	rw.mu.Lock()
	windows := make([]*VariableWindow, len(rw.windows))
	copy(windows, rw.windows)
	rw.mu.Unlock()

	sinceTS := now.Add(-BackfillHorizon).Unix()

	for _, w := range windows {
		groups, err := source.AggregateHistory(ctx, sinceTS, w.Path())
		if err != nil {
			return fmt.Errorf("resultwindow: backfill %v: %w", w.Path(), err)
		}
		for _, g := range groups {
			w.seed(g.Hostname, g.URL, g.Values)
		}
	}
	return nil
}

// AddResult appends document's value to every registered Variable Window
// that can extract one. Per spec: a missing/invalid hostname or url is
// rejected as an error; a missing numeric at a given path silently skips
// that one window rather than failing the whole call.
func (rw *ResultWindow) AddResult(document model.Document) error {
	hostname, ok := document.Hostname()
	if !ok || hostname == "" {
		return fmt.Errorf("resultwindow: measurement missing hostname")
	}

	url, ok := document.URL()
	if !ok || url == "" {
		return fmt.Errorf("resultwindow: measurement missing url")
	}

	rw.mu.Lock()
	windows := make([]*VariableWindow, len(rw.windows))
	copy(windows, rw.windows)
	rw.mu.Unlock()

	for _, w := range windows {
		value, ok := document.Value(w.Path())
		if !ok {
			continue
		}
		w.append(hostname, url, value)
	}

	return nil
}
