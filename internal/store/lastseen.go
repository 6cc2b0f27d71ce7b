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
)

const lastSeenCollection = "last_seen"

// LastSeenRepository persists each vantage's high-watermark timestamp.
type LastSeenRepository struct {
	conn *Connection
}

// NewLastSeenRepository builds a repository bound to conn.
func NewLastSeenRepository(conn *Connection) *LastSeenRepository {
	return &LastSeenRepository{conn: conn}
}

// Get returns hostname's high watermark, or 0 if none is recorded yet.
func (r *LastSeenRepository) Get(ctx context.Context, hostname string) (int64, error) {
	var doc struct {
		Timestamp int64 `bson:"timestamp"`
	}

	err := r.conn.collection(lastSeenCollection).FindOne(ctx, bson.M{"hostname": hostname}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: get last_seen for %s: %w", hostname, err)
	}
	return doc.Timestamp, nil
}

// Upsert records hostname's new high watermark.
func (r *LastSeenRepository) Upsert(ctx context.Context, hostname string, timestamp int64) error {
	filter := bson.M{"hostname": hostname}
	update := bson.M{"$set": bson.M{"hostname": hostname, "timestamp": timestamp}}
	_, err := r.conn.collection(lastSeenCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store: upsert last_seen for %s: %w", hostname, err)
	}
	return nil
}
