// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package archive implements optional cold storage for events that have
// fallen out of the active retention window: each inactive event is
// uploaded as a single JSON object via github.com/aws/aws-sdk-go-v2/
// service/s3.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
)

// S3Archiver uploads inactive events to S3 as JSON, one object per event.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archiver builds an S3Archiver from the default AWS credential chain
// (environment, shared config, EC2/ECS role — see
// github.com/aws/aws-sdk-go-v2/config), for the given bucket. prefix is
// prepended to every object key and may be empty.
func NewS3Archiver(ctx context.Context, bucket, prefix string) (*S3Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive: loading AWS config: %w", err)
	}

	return &S3Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Archive uploads e as a single JSON object keyed by its id.
func (a *S3Archiver) Archive(ctx context.Context, e model.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("archive: marshaling event %s: %w", e.ID, err)
	}

	key := a.key(e.ID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: uploading event %s: %w", e.ID, err)
	}

	return nil
}

func (a *S3Archiver) key(eventID string) string {
	if a.prefix == "" {
		return eventID + ".json"
	}
	return a.prefix + "/" + eventID + ".json"
}
