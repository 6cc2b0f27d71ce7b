// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package eventmanager implements the Event Manager: the periodic worker
// that clusters recent flags with DBSCAN and merges the clusters into
// persisted events. It follows the same background-worker idiom as
// internal/flagmanager: one periodic Tick, narrow read/write interfaces,
// errors logged rather than propagated out of a single cluster's handling.
package eventmanager

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/metrics"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
	"github.com/ClusterCockpit/tipup-flagwatch/pkg/log"
)

// RetentionSeconds is the default event/flag retention window W.
const RetentionSeconds = 604800

// FlagSource is the read side of the flag store the Event Manager needs.
type FlagSource interface {
	FindSince(ctx context.Context, sinceTS int64) ([]model.Flag, error)
}

// EventStore is the event store's read/write surface.
type EventStore interface {
	FindActive(ctx context.Context, sinceTS int64) ([]model.Event, error)
	InsertNew(ctx context.Context, e model.Event) error
	Replace(ctx context.Context, e model.Event) error
	FindInactiveUnarchived(ctx context.Context, beforeTS int64) ([]model.Event, error)
	MarkArchived(ctx context.Context, id string) error
}

// Archiver optionally moves events to cold storage once they fall out of
// the active window. A nil Archiver disables archival entirely.
type Archiver interface {
	Archive(ctx context.Context, e model.Event) error
}

// Manager ties the flag source and event store together into one
// clustering tick.
type Manager struct {
	flags    FlagSource
	events   EventStore
	archiver Archiver

	retentionSeconds int64
}

// New builds a Manager with the default retention window. archiver may be
// nil.
func New(flags FlagSource, events EventStore, archiver Archiver) *Manager {
	return &Manager{
		flags:            flags,
		events:           events,
		archiver:         archiver,
		retentionSeconds: RetentionSeconds,
	}
}

// cluster is the summarized output of one DBSCAN cluster, after the
// single-domain invariant has been checked.
type cluster struct {
	minTS   int64
	maxTS   int64
	domain  string
	urls    map[string]bool
	flagIDs map[string]bool
}

// Tick runs one clustering pass as of now (a unix timestamp), following
// §4.F steps 1-6. It is safe to call repeatedly; re-running against an
// unchanged flag snapshot writes nothing new (step 7).
func (m *Manager) Tick(ctx context.Context, now int64) error {
	sinceTS := now - m.retentionSeconds

	activeEvents, err := m.events.FindActive(ctx, sinceTS)
	if err != nil {
		return fmt.Errorf("eventmanager: loading active events: %w", err)
	}
	byDomain := make(map[string][]*model.Event, len(activeEvents))
	for i := range activeEvents {
		e := &activeEvents[i]
		byDomain[e.Domain] = append(byDomain[e.Domain], e)
	}

	flags, err := m.flags.FindSince(ctx, sinceTS)
	if err != nil {
		return fmt.Errorf("eventmanager: loading candidate flags: %w", err)
	}
	if len(flags) == 0 {
		return nil
	}

	matrix := distanceMatrix(flags)
	groups := dbscan(matrix)

	clusters := make([]cluster, 0, len(groups))
	for _, group := range groups {
		c, ok := summarize(flags, group)
		if !ok {
			log.Warnf("eventmanager: discarding cluster of %d flags spanning multiple domains", len(group))
			metrics.ClustersDiscarded.Inc()
			continue
		}
		clusters = append(clusters, c)
	}

	for _, c := range clusters {
		if err := m.mergeOrInsert(ctx, byDomain, c); err != nil {
			log.Errorf("eventmanager: %v", err)
		}
	}

	if m.archiver != nil {
		m.archiveInactive(ctx, sinceTS)
	}

	return nil
}

// archiveInactive uploads and marks every event that has fallen out of the
// active window and has not yet been archived. Failures are logged and
// skipped rather than aborting the tick — archival is best-effort storage
// housekeeping, not part of the clustering contract.
func (m *Manager) archiveInactive(ctx context.Context, beforeTS int64) {
	events, err := m.events.FindInactiveUnarchived(ctx, beforeTS)
	if err != nil {
		log.Errorf("eventmanager: listing inactive events for archival: %v", err)
		return
	}

	for _, e := range events {
		if err := m.archiver.Archive(ctx, e); err != nil {
			log.Errorf("eventmanager: archiving event %s: %v", e.ID, err)
			continue
		}
		if err := m.events.MarkArchived(ctx, e.ID); err != nil {
			log.Errorf("eventmanager: marking event %s archived: %v", e.ID, err)
		}
	}
}

// summarize derives (min_ts, max_ts, domain, urls, flag_ids) for one
// cluster's member flags, failing (ok=false) if the members span more than
// one domain.
func summarize(flags []model.Flag, members []int) (cluster, bool) {
	c := cluster{
		urls:    map[string]bool{},
		flagIDs: map[string]bool{},
	}

	for i, idx := range members {
		f := flags[idx]

		if i == 0 {
			c.domain = f.Domain
			c.minTS = f.Timestamp
			c.maxTS = f.Timestamp
		} else if f.Domain != c.domain {
			return cluster{}, false
		}

		if f.Timestamp < c.minTS {
			c.minTS = f.Timestamp
		}
		if f.Timestamp > c.maxTS {
			c.maxTS = f.Timestamp
		}

		c.urls[f.URL] = true
		c.flagIDs[f.ID] = true
	}

	return c, true
}

// mergeOrInsert absorbs c into the oldest overlapping active event for its
// domain, or inserts a brand-new event if none overlaps.
// byDomain is updated in place so later clusters in the same tick see
// events created or extended by earlier ones.
func (m *Manager) mergeOrInsert(ctx context.Context, byDomain map[string][]*model.Event, c cluster) error {
	target := oldestOverlapping(byDomain[c.domain], c.minTS, c.maxTS)

	if target == nil {
		e := model.Event{
			ID:               uuid.NewString(),
			MinimumTimestamp: c.minTS,
			MaximumTimestamp: c.maxTS,
			Domain:           c.domain,
			URLs:             c.urls,
			FlagIDs:          c.flagIDs,
		}
		if err := m.events.InsertNew(ctx, e); err != nil {
			return fmt.Errorf("inserting event for domain %s: %w", c.domain, err)
		}
		byDomain[c.domain] = append(byDomain[c.domain], &e)
		metrics.EventsCreated.Inc()
		return nil
	}

	if !target.Absorb(c.minTS, c.maxTS, c.urls, c.flagIDs) {
		return nil
	}
	if err := m.events.Replace(ctx, *target); err != nil {
		return fmt.Errorf("replacing event %s: %w", target.ID, err)
	}
	metrics.EventsMerged.Inc()
	return nil
}

// oldestOverlapping returns the candidate with the smallest minimum
// timestamp among those overlapping [minTS, maxTS], or nil if none do.
func oldestOverlapping(candidates []*model.Event, minTS, maxTS int64) *model.Event {
	var oldest *model.Event
	for _, e := range candidates {
		if !e.Overlaps(minTS, maxTS) {
			continue
		}
		if oldest == nil || e.MinimumTimestamp < oldest.MinimumTimestamp {
			oldest = e
		}
	}
	return oldest
}
