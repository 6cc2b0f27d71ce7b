// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package analyzer implements the stateless-over-window predicates that
// read measurements fanned out by the Pipe and raise Flags onto a shared,
// bounded channel. Construction receives the analyzer's name, its
// configuration, a handle to any Variable Window it needs, and the
// send-only flag channel; ProcessMeasurement is then invoked once per
// matching measurement by a single broadcasting goroutine.
package analyzer

import (
	"fmt"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

// Analyzer is the common contract every concrete analyzer implements. It
// may emit zero or more flags per call and may read, but never write, the
// Result Window.
type Analyzer interface {
	// Name returns the analyzer's configured name, used as the second half
	// of a flag's (measurement_id, analyzer) uniqueness key.
	Name() string
	// ProcessMeasurement inspects document and sends zero or more flags on
	// its flag channel. An error here aborts the current Pipe.Broadcast
	// call; it does not stop the Fetch Loop.
	ProcessMeasurement(document model.Document) error
}

// Class identifies which concrete analyzer implementation a configuration
// entry selects.
type Class string

const (
	ClassError  Class = "ErrorAnalyzer"
	ClassStdDev Class = "StdDevAnalyzer"
)

// newFlag builds a flag from a measurement document, filling in the fields
// every analyzer needs regardless of why it fired. It returns an error if
// the document is missing any field a flag cannot be built without.
func newFlag(document model.Document, status model.FlagStatus, analyzerName string) (model.Flag, error) {
	id, ok := document.ID()
	if !ok || id == "" {
		return model.Flag{}, fmt.Errorf("analyzer: measurement missing _id")
	}
	hostname, _ := document.Hostname()
	url, _ := document.URL()
	domain, _ := document.Domain()
	timestamp, _ := document.Timestamp()

	flag := model.Flag{
		ID:            fmt.Sprintf("%s:%s", id, analyzerName),
		MeasurementID: id,
		Timestamp:     timestamp,
		Hostname:      hostname,
		Domain:        domain,
		URL:           url,
		Status:        status,
		Analyzer:      analyzerName,
	}

	if result, ok := document.Sub("result"); ok {
		if v, ok := result.String("ip_address"); ok {
			flag.IPAddress = v
		}
	}
	if v, ok := document.String("ip_address"); ok {
		flag.IPAddress = v
	}
	if v, ok := document.String("domain_ip_address"); ok {
		flag.DomainIPAddress = v
	}

	return flag, nil
}
