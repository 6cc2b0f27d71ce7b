// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analyzer

import (
	"math"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/resultwindow"
)

// StdDevAnalyzer flags a measurement whose value at a configured variable
// path exceeds 1.5 standard deviations above the historical mean for that
// (hostname, url). The deviation formula sums squared deviations and takes
// the square root *without* dividing by n first; this is reproduced
// exactly rather than "fixed" to a textbook standard deviation.
//
// The analyzer never appends to its Variable Window itself: ingestion is
// centralized in ResultWindow.AddResult so the window is written to exactly
// once per measurement no matter how many analyzers share the path.
type StdDevAnalyzer struct {
	name   string
	path   model.VariablePath
	window *resultwindow.VariableWindow
	sink   chan<- model.Flag
}

// NewStdDevAnalyzer builds a StdDevAnalyzer bound to window, which must have
// been registered under the same path by the caller.
func NewStdDevAnalyzer(name string, path model.VariablePath, window *resultwindow.VariableWindow, sink chan<- model.Flag) *StdDevAnalyzer {
	return &StdDevAnalyzer{
		name:   name,
		path:   path,
		window: window,
		sink:   sink,
	}
}

// Name implements Analyzer.
func (a *StdDevAnalyzer) Name() string { return a.name }

// ProcessMeasurement implements Analyzer.
func (a *StdDevAnalyzer) ProcessMeasurement(document model.Document) error {
	hostname, ok := document.Hostname()
	if !ok || hostname == "" {
		return nil
	}

	url, ok := document.URL()
	if !ok || url == "" {
		return nil
	}

	value, ok := document.Value(a.path)
	if !ok {
		return nil
	}

	history := a.window.Values(hostname, url)
	if len(history) == 0 {
		return nil
	}

	mean, stdDev := meanAndStdDev(history)
	if value <= mean+(1.5*stdDev) {
		return nil
	}

	flag, err := newFlag(document, model.StatusWarning, a.name)
	if err != nil {
		return err
	}
	a.sink <- flag
	return nil
}

// meanAndStdDev computes the mean and the *un-normalized* standard
// deviation (sqrt of the sum of squared deviations, not divided by n) over
// values.
func meanAndStdDev(values []float64) (mean, stdDev float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var sumSquares float64
	for _, v := range values {
		d := v - mean
		sumSquares += d * d
	}
	stdDev = math.Sqrt(sumSquares)

	return mean, stdDev
}
