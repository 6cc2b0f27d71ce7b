// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package model

// Event is a persisted cluster of flags sharing a domain and time window.
// An event is active while MaximumTimestamp >= now - retention; inactivity is
// never written back, it is only ever computed at read time.
type Event struct {
	ID               string          `bson:"id"`
	MinimumTimestamp int64           `bson:"minimum_timestamp"`
	MaximumTimestamp int64           `bson:"maximum_timestamp"`
	Domain           string          `bson:"domain"`
	URLs             map[string]bool `bson:"urls"`
	FlagIDs          map[string]bool `bson:"flag_ids"`
	// Archived marks an inactive event that has been moved to cold storage
	// (see internal/eventmanager's optional S3 archival). It is additive
	// storage-tier bookkeeping, not part of the clustering semantics.
	Archived bool `bson:"archived,omitempty"`
}

// Overlaps reports whether this event's time window intersects [minTS, maxTS].
func (e *Event) Overlaps(minTS, maxTS int64) bool {
	return e.MinimumTimestamp <= maxTS && minTS <= e.MaximumTimestamp
}

// Absorb extends the event's time window and unions in the given urls and
// flag ids. It returns true if anything about the stored event actually
// changed, so callers can skip a no-op replace.
func (e *Event) Absorb(minTS, maxTS int64, urls, flagIDs map[string]bool) bool {
	changed := false

	if minTS < e.MinimumTimestamp {
		e.MinimumTimestamp = minTS
		changed = true
	}
	if maxTS > e.MaximumTimestamp {
		e.MaximumTimestamp = maxTS
		changed = true
	}

	if e.URLs == nil {
		e.URLs = map[string]bool{}
	}
	for u := range urls {
		if !e.URLs[u] {
			e.URLs[u] = true
			changed = true
		}
	}

	if e.FlagIDs == nil {
		e.FlagIDs = map[string]bool{}
	}
	for id := range flagIDs {
		if !e.FlagIDs[id] {
			e.FlagIDs[id] = true
			changed = true
		}
	}

	return changed
}

// IsActive reports whether the event is still within the retention window as
// of now.
func (e *Event) IsActive(now int64, retentionSeconds int64) bool {
	return e.MaximumTimestamp >= now-retentionSeconds
}
