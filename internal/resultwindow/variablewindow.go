// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package resultwindow implements the shared sliding history the analyzer
// bank reads from: a bounded, per-(hostname,url) list of up to 10 scalar
// values for each distinct variable path any analyzer has registered.
//
// Multiple analyzers that register the same path (structural equality on
// the path sequence) are handed the same VariableWindow handle, so the
// value is ingested into the shared buffer once per measurement regardless
// of how many analyzers read it.
package resultwindow

import (
	"sync"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

// WindowDepth is the maximum number of historical values retained per
// (hostname, url) bucket. The oldest value is dropped once a new one would
// push the bucket past this depth.
const WindowDepth = 10

// VariableWindow is a bounded history of one variable's values, keyed by
// (hostname, url). It is safe for concurrent reads and exclusive writes.
type VariableWindow struct {
	path model.VariablePath

	mu     sync.RWMutex
	values map[string]map[string][]float64 // hostname -> url -> values, oldest first
}

func newVariableWindow(path model.VariablePath) *VariableWindow {
	return &VariableWindow{
		path:   path,
		values: make(map[string]map[string][]float64),
	}
}

// Path returns the variable path this window was registered under.
func (w *VariableWindow) Path() model.VariablePath {
	return w.path
}

// Values returns the current history for (hostname, url), oldest first. The
// returned slice is a copy; callers may not mutate the window through it.
func (w *VariableWindow) Values(hostname, url string) []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	urlMap, ok := w.values[hostname]
	if !ok {
		return nil
	}
	values, ok := urlMap[url]
	if !ok {
		return nil
	}

	out := make([]float64, len(values))
	copy(out, values)
	return out
}

// append adds value to (hostname, url)'s history, dropping the oldest value
// once the bucket exceeds WindowDepth. Internal: only ResultWindow.AddResult
// calls this, so every registered window is appended to exactly once per
// measurement regardless of how many analyzers share it.
func (w *VariableWindow) append(hostname, url string, value float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	urlMap, ok := w.values[hostname]
	if !ok {
		urlMap = make(map[string][]float64)
		w.values[hostname] = urlMap
	}

	values := append(urlMap[url], value)
	if len(values) > WindowDepth {
		values = values[len(values)-WindowDepth:]
	}
	urlMap[url] = values
}

// seed replaces (hostname, url)'s history wholesale, truncated to the most
// recent WindowDepth entries. Used only by Initialize's one-time backfill.
func (w *VariableWindow) seed(hostname, url string, values []float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(values) > WindowDepth {
		values = values[len(values)-WindowDepth:]
	}

	urlMap, ok := w.values[hostname]
	if !ok {
		urlMap = make(map[string][]float64)
		w.values[hostname] = urlMap
	}

	cp := make([]float64, len(values))
	copy(cp, values)
	urlMap[url] = cp
}
