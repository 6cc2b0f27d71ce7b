// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

const flagsCollection = "flags"

// FlagRepository is the persistence side of the Flag Manager and the read
// side of the Event Manager.
type FlagRepository struct {
	conn *Connection
}

// NewFlagRepository builds a repository bound to conn.
func NewFlagRepository(conn *Connection) *FlagRepository {
	return &FlagRepository{conn: conn}
}

// InsertBatch writes flags with one upsert per flag, stopping at the first
// failed write. Uniqueness on
// (measurement_id, analyzer) is enforced with an upsert keyed on those two
// fields, so a flag re-derived from an at-least-once redelivered measurement
// never produces a duplicate document.
func (r *FlagRepository) InsertBatch(ctx context.Context, flags []model.Flag) error {
	if len(flags) == 0 {
		return nil
	}

	coll := r.conn.collection(flagsCollection)
	for _, f := range flags {
		filter := bson.M{"measurement_id": f.MeasurementID, "analyzer": f.Analyzer}
		update := bson.M{"$setOnInsert": f}
		if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("store: upsert flag %s/%s: %w", f.MeasurementID, f.Analyzer, err)
		}
	}
	return nil
}

// FindSince returns flags with timestamp >= sinceTS, used by the Event
// Manager to load clustering candidates.
func (r *FlagRepository) FindSince(ctx context.Context, sinceTS int64) ([]model.Flag, error) {
	filter := bson.M{"timestamp": bson.M{"$gte": sinceTS}}
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cur, err := r.conn.collection(flagsCollection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("store: find flags since %d: %w", sinceTS, err)
	}
	defer cur.Close(ctx)

	var flags []model.Flag
	if err := cur.All(ctx, &flags); err != nil {
		return nil, fmt.Errorf("store: decode flags: %w", err)
	}
	return flags, nil
}
