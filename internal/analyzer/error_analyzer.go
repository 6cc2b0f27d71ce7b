// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analyzer

import (
	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

// ErrorAnalyzer raises a flag from the presence of error-shaped fields on a
// measurement. It runs in one of two mutually exclusive modes, selected at
// construction by whether Fields is non-empty:
//
//   - Field-presence mode: configured with a Status and a set of field
//     names; raises exactly one flag with that status the first time any
//     configured field is present on the measurement. Tie-break: the first
//     matching field ends the scan.
//   - Nested-error mode: raises Internal when document.error == true, and
//     raises Unreachable when document.result.error == true AND
//     document.remaining_attempts == 0. Both may fire for the same
//     measurement; each fires at most once.
type ErrorAnalyzer struct {
	name   string
	status model.FlagStatus
	fields []string
	sink   chan<- model.Flag
}

// NewErrorAnalyzer builds an ErrorAnalyzer. If fields is empty the analyzer
// runs in nested-error mode and status is ignored.
func NewErrorAnalyzer(name string, status model.FlagStatus, fields []string, sink chan<- model.Flag) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		name:   name,
		status: status,
		fields: fields,
		sink:   sink,
	}
}

// Name implements Analyzer.
func (a *ErrorAnalyzer) Name() string { return a.name }

// ProcessMeasurement implements Analyzer.
func (a *ErrorAnalyzer) ProcessMeasurement(document model.Document) error {
	if len(a.fields) > 0 {
		return a.processFields(document)
	}
	return a.processNestedError(document)
}

func (a *ErrorAnalyzer) processFields(document model.Document) error {
	for _, field := range a.fields {
		if document.HasField(field) {
			flag, err := newFlag(document, a.status, a.name)
			if err != nil {
				return err
			}
			a.sink <- flag
			return nil
		}
	}
	return nil
}

func (a *ErrorAnalyzer) processNestedError(document model.Document) error {
	if errVal, ok := document.Bool("error"); ok && errVal {
		flag, err := newFlag(document, model.StatusInternal, a.name)
		if err != nil {
			return err
		}
		a.sink <- flag
	}

	result, ok := document.Sub("result")
	if !ok {
		return nil
	}

	resultErr, ok := result.Bool("error")
	if !ok || !resultErr {
		return nil
	}

	remaining, ok := document.Int64("remaining_attempts")
	if !ok || remaining != 0 {
		return nil
	}

	flag, err := newFlag(document, model.StatusUnreachable, a.name)
	if err != nil {
		return err
	}
	a.sink <- flag
	return nil
}
