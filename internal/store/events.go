// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

const eventsCollection = "events"

// EventRepository is the persistence side of the Event Manager.
type EventRepository struct {
	conn *Connection
}

// NewEventRepository builds a repository bound to conn.
func NewEventRepository(conn *Connection) *EventRepository {
	return &EventRepository{conn: conn}
}

// FindActive returns events whose maximum_timestamp has not yet fallen out
// of the retention window.
func (r *EventRepository) FindActive(ctx context.Context, sinceTS int64) ([]model.Event, error) {
	filter := bson.M{"maximum_timestamp": bson.M{"$gte": sinceTS}}

	cur, err := r.conn.collection(eventsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("store: find active events: %w", err)
	}
	defer cur.Close(ctx)

	var events []model.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("store: decode events: %w", err)
	}
	return events, nil
}

// InsertNew writes a brand-new event document.
func (r *EventRepository) InsertNew(ctx context.Context, e model.Event) error {
	if _, err := r.conn.collection(eventsCollection).InsertOne(ctx, e); err != nil {
		return fmt.Errorf("store: insert event %s: %w", e.ID, err)
	}
	return nil
}

// Replace overwrites an existing event document in full, used after a
// cluster has been absorbed into an active event and its urls/flag_ids/time
// window changed.
func (r *EventRepository) Replace(ctx context.Context, e model.Event) error {
	filter := bson.M{"id": e.ID}
	opts := options.FindOneAndReplace().SetUpsert(true)
	res := r.conn.collection(eventsCollection).FindOneAndReplace(ctx, filter, e, opts)
	if err := res.Err(); err != nil && err != mongo.ErrNoDocuments {
		return fmt.Errorf("store: replace event %s: %w", e.ID, err)
	}
	return nil
}

// FindInactiveUnarchived returns events that have fallen out of the active
// retention window (maximum_timestamp < beforeTS) and have not yet been
// moved to cold storage. Used by the optional S3 archival step (part
// of the expanded interfaces); archival is a storage-tier concern layered
// on top of the core state machine, not part of it.
func (r *EventRepository) FindInactiveUnarchived(ctx context.Context, beforeTS int64) ([]model.Event, error) {
	filter := bson.M{
		"maximum_timestamp": bson.M{"$lt": beforeTS},
		"archived":          bson.M{"$ne": true},
	}

	cur, err := r.conn.collection(eventsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("store: find inactive unarchived events: %w", err)
	}
	defer cur.Close(ctx)

	var events []model.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("store: decode events: %w", err)
	}
	return events, nil
}

// MarkArchived flags an event as moved to cold storage.
func (r *EventRepository) MarkArchived(ctx context.Context, id string) error {
	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"archived": true}}
	if _, err := r.conn.collection(eventsCollection).UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("store: marking event %s archived: %w", id, err)
	}
	return nil
}
