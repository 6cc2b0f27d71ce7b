// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package storetest provides in-memory fakes for the narrow store
// interfaces the core packages define (fetchloop.MeasurementSource/
// Watermarks, resultwindow.HistorySource, flagmanager.Store,
// eventmanager.FlagSource/EventStore), so those packages can be tested
// without a live MongoDB. One shared in-memory Store backs all of them,
// since the core packages consume several distinct narrow interfaces
// rather than one repository facade.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

// Store is an in-memory stand-in for every persistence dependency the core
// packages need. Construct with New and pass it (or the already-satisfied
// sub-interfaces) directly to the package under test.
type Store struct {
	mu sync.Mutex

	measurements map[string][]model.Document // by hostname
	watermarks   map[string]int64
	history      []model.HistoryGroup
	flags        []model.Flag
	events       []model.Event

	published []Publication
}

// Publication records one call to Publish.
type Publication struct {
	Subject string
	Data    []byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		measurements: make(map[string][]model.Document),
		watermarks:   make(map[string]int64),
	}
}

// SeedMeasurements appends measurements for hostname, for tests to set up
// fixture data ahead of a Tick.
func (s *Store) SeedMeasurements(hostname string, docs ...model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements[hostname] = append(s.measurements[hostname], docs...)
}

// SeedHistory sets the history groups AggregateHistory returns.
func (s *Store) SeedHistory(groups ...model.HistoryGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = groups
}

// SeedEvents seeds the active-event store with pre-existing events.
func (s *Store) SeedEvents(events ...model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// SeedFlags seeds the flag store with pre-existing flags.
func (s *Store) SeedFlags(flags ...model.Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = append(s.flags, flags...)
}

// Vantages implements fetchloop.MeasurementSource.
func (s *Store) Vantages(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hosts := make([]string, 0, len(s.measurements))
	for h := range s.measurements {
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// FindSince implements fetchloop.MeasurementSource.
func (s *Store) FindSince(ctx context.Context, hostname string, sinceTS int64) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Document
	for _, d := range s.measurements[hostname] {
		ts, ok := d.Timestamp()
		if ok && ts > sinceTS {
			out = append(out, d)
		}
	}
	return out, nil
}

// Get implements fetchloop.Watermarks.
func (s *Store) Get(ctx context.Context, hostname string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[hostname], nil
}

// Upsert implements fetchloop.Watermarks.
func (s *Store) Upsert(ctx context.Context, hostname string, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermarks[hostname] = timestamp
	return nil
}

// Watermark returns the currently stored watermark for hostname, for test
// assertions.
func (s *Store) Watermark(hostname string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[hostname]
}

// AggregateHistory implements resultwindow.HistorySource. It ignores the
// requested path and sinceTS and returns whatever was seeded — tests seed
// exactly the groups they want a given variable path to backfill with.
func (s *Store) AggregateHistory(ctx context.Context, sinceTS int64, path model.VariablePath) ([]model.HistoryGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.HistoryGroup(nil), s.history...), nil
}

// InsertBatch implements flagmanager.Store.
func (s *Store) InsertBatch(ctx context.Context, flags []model.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = append(s.flags, flags...)
	return nil
}

// Flags returns every flag written so far, for test assertions.
func (s *Store) Flags() []model.Flag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Flag(nil), s.flags...)
}

// FindSinceFlags implements eventmanager.FlagSource (named to avoid
// colliding with the measurement-store FindSince above).
func (s *Store) FindSinceFlags(ctx context.Context, sinceTS int64) ([]model.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Flag
	for _, f := range s.flags {
		if f.Timestamp >= sinceTS {
			out = append(out, f)
		}
	}
	return out, nil
}

// FindActive implements eventmanager.EventStore.
func (s *Store) FindActive(ctx context.Context, sinceTS int64) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Event
	for _, e := range s.events {
		if e.MaximumTimestamp >= sinceTS {
			out = append(out, e)
		}
	}
	return out, nil
}

// InsertNew implements eventmanager.EventStore.
func (s *Store) InsertNew(ctx context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.events {
		if existing.ID == e.ID {
			return fmt.Errorf("storetest: event %s already exists", e.ID)
		}
	}
	s.events = append(s.events, e)
	return nil
}

// Replace implements eventmanager.EventStore.
func (s *Store) Replace(ctx context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.events {
		if existing.ID == e.ID {
			s.events[i] = e
			return nil
		}
	}
	s.events = append(s.events, e)
	return nil
}

// FindInactiveUnarchived implements eventmanager.EventStore.
func (s *Store) FindInactiveUnarchived(ctx context.Context, beforeTS int64) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Event
	for _, e := range s.events {
		if e.MaximumTimestamp < beforeTS && !e.Archived {
			out = append(out, e)
		}
	}
	return out, nil
}

// MarkArchived implements eventmanager.EventStore.
func (s *Store) MarkArchived(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.events {
		if e.ID == id {
			s.events[i].Archived = true
			return nil
		}
	}
	return fmt.Errorf("storetest: event %s not found", id)
}

// Events returns every event currently stored, for test assertions.
func (s *Store) Events() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

// Publish implements flagmanager.Notifier, recording every call instead of
// dialing a real NATS server.
func (s *Store) Publish(subject string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, Publication{Subject: subject, Data: data})
	return nil
}

// Published returns every recorded Publish call, for test assertions.
func (s *Store) Published() []Publication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Publication(nil), s.published...)
}

// FlagSource adapts Store to eventmanager.FlagSource: that interface's
// FindSince(ctx, sinceTS) collides in name (not signature) with
// MeasurementSource's FindSince(ctx, hostname, sinceTS), so Store exposes
// the flag-side lookup as FindSinceFlags and this thin wrapper renames it
// back for callers that need the eventmanager.FlagSource shape specifically.
type FlagSource struct{ *Store }

// FindSince implements eventmanager.FlagSource.
func (f FlagSource) FindSince(ctx context.Context, sinceTS int64) ([]model.Flag, error) {
	return f.Store.FindSinceFlags(ctx, sinceTS)
}
