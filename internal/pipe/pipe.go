// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package pipe implements the dispatch fabric between the Fetch Loop and
// the analyzer bank: a measurement_class -> (name -> Analyzer) table that
// fans a single measurement out to every analyzer registered under its
// class. The registration map is mutex-guarded but read-mostly after
// startup, since every analyzer registers once during construction and is
// never removed.
package pipe

import (
	"fmt"
	"sync"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/analyzer"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/metrics"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

// Pipe holds the measurement_class -> analyzer dispatch table. The zero
// value is not usable; construct with New.
type Pipe struct {
	mu        sync.RWMutex
	analyzers map[string]map[string]analyzer.Analyzer
}

// New creates an empty Pipe.
func New() *Pipe {
	return &Pipe{
		analyzers: make(map[string]map[string]analyzer.Analyzer),
	}
}

// AddAnalyzer registers a under measurementClass. It fails if an analyzer
// with this name is already registered under this class — the (class,
// name) pair must be unique.
func (p *Pipe) AddAnalyzer(measurementClass, name string, a analyzer.Analyzer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	byName, ok := p.analyzers[measurementClass]
	if !ok {
		byName = make(map[string]analyzer.Analyzer)
		p.analyzers[measurementClass] = byName
	}

	if _, exists := byName[name]; exists {
		return fmt.Errorf("pipe: analyzer %q already registered for class %q", name, measurementClass)
	}

	byName[name] = a
	return nil
}

// Broadcast reads measurement_class from document and invokes every
// analyzer registered under that class, in a stable but otherwise
// unspecified order, sequentially within this single call. A measurement
// whose class has no registered analyzers is a no-op, not an error. The
// first analyzer error aborts the broadcast and is returned to the caller
// (the Fetch Loop), which logs it and proceeds to the next measurement.
func (p *Pipe) Broadcast(document model.Document) error {
	class, ok := document.MeasurementClass()
	if !ok {
		return fmt.Errorf("pipe: measurement missing measurement_class")
	}

	p.mu.RLock()
	byName := p.analyzers[class]
	analyzers := make([]analyzer.Analyzer, 0, len(byName))
	for _, a := range byName {
		analyzers = append(analyzers, a)
	}
	p.mu.RUnlock()

	metrics.MeasurementsProcessed.WithLabelValues(class).Inc()

	for _, a := range analyzers {
		if err := a.ProcessMeasurement(document); err != nil {
			return fmt.Errorf("pipe: analyzer %q failed: %w", a.Name(), err)
		}
	}

	return nil
}
