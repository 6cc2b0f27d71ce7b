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

const measurementsCollection = "measurements"

// MeasurementRepository is the read side of the upstream measurement store:
// the set of vantages known to it, new measurements since a watermark, and
// the aggregated history used to backfill the Result Window.
type MeasurementRepository struct {
	conn *Connection
}

// NewMeasurementRepository builds a repository bound to conn.
func NewMeasurementRepository(conn *Connection) *MeasurementRepository {
	return &MeasurementRepository{conn: conn}
}

// Vantages returns the distinct hostnames present in the measurement store.
func (r *MeasurementRepository) Vantages(ctx context.Context) ([]string, error) {
	raw, err := r.conn.collection(measurementsCollection).Distinct(ctx, "hostname", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("store: distinct hostname: %w", err)
	}

	hostnames := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			hostnames = append(hostnames, s)
		}
	}
	return hostnames, nil
}

// FindSince returns measurements for hostname with timestamp strictly
// greater than sinceTS, sorted by timestamp descending.
func (r *MeasurementRepository) FindSince(ctx context.Context, hostname string, sinceTS int64) ([]model.Document, error) {
	filter := bson.M{
		"hostname":  hostname,
		"timestamp": bson.M{"$gt": sinceTS},
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cur, err := r.conn.collection(measurementsCollection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("store: find measurements for %s: %w", hostname, err)
	}
	defer cur.Close(ctx)

	var docs []model.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("store: decode measurement: %w", err)
		}
		docs = append(docs, model.Document(raw))
	}
	return docs, cur.Err()
}

// AggregateHistory runs the backfill aggregation for a single variable path:
// match measurements newer than sinceTS, sort them by timestamp ascending,
// group by (hostname, url), and push the numeric value at valuePath into a
// values array per group, oldest first. This is the
// direct translation of the original system's
// db.results.aggregate([{$match:...},{$group:{_id:{hostname,url},values:{$push:...}}}])
// pipeline (see _examples/original_source/src/result_window.rs).
func (r *MeasurementRepository) AggregateHistory(ctx context.Context, sinceTS int64, valuePath model.VariablePath) ([]model.HistoryGroup, error) {
	pushField := "$" + fieldPathString(valuePath)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: sinceTS}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "hostname", Value: "$hostname"},
				{Key: "url", Value: "$url"},
			}},
			{Key: "values", Value: bson.D{{Key: "$push", Value: pushField}}},
		}}},
	}

	cur, err := r.conn.collection(measurementsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("store: aggregate history: %w", err)
	}
	defer cur.Close(ctx)

	var groups []model.HistoryGroup
	for cur.Next(ctx) {
		var row struct {
			ID struct {
				Hostname string `bson:"hostname"`
				URL      string `bson:"url"`
			} `bson:"_id"`
			Values []interface{} `bson:"values"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("store: decode history group: %w", err)
		}

		values := make([]float64, 0, len(row.Values))
		for _, v := range row.Values {
			if f, ok := asFloat(v); ok {
				values = append(values, f)
			}
		}

		groups = append(groups, model.HistoryGroup{
			Hostname: row.ID.Hostname,
			URL:      row.ID.URL,
			Values:   values,
		})
	}
	return groups, cur.Err()
}

func fieldPathString(path model.VariablePath) string {
	out := ""
	for i, segment := range path {
		if i > 0 {
			out += "."
		}
		out += segment
	}
	return out
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
