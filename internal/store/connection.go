// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package store implements the measurement/flag/event/last_seen persistence
// contract against a MongoDB-compatible document store using
// go.mongodb.org/mongo-driver. The core packages (resultwindow, analyzer,
// pipe, flagmanager, fetchloop, eventmanager) never import this package or
// the driver client; each defines its own narrow interfaces, which the
// repository types here satisfy.
package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ClusterCockpit/tipup-flagwatch/pkg/log"
)

// Config holds everything needed to dial the upstream measurement store.
type Config struct {
	IPAddress       string
	Port            int
	Database        string
	Username        string
	Password        string
	CAFile          string
	CertificateFile string
	KeyFile         string
}

// Connection is a connected handle to the configured database. It is safe
// for concurrent use by every repository type in this package.
type Connection struct {
	client *mongo.Client
	db     *mongo.Database
}

var (
	connOnce     sync.Once
	connInstance *Connection
	connErr      error
)

// Connect dials the upstream store exactly once per process, mirroring the
// teacher's sync.Once-guarded singleton connection handle. Subsequent calls
// return the same Connection (or the same error).
func Connect(ctx context.Context, cfg Config) (*Connection, error) {
	connOnce.Do(func() {
		connInstance, connErr = connect(ctx, cfg)
	})
	return connInstance, connErr
}

func connect(ctx context.Context, cfg Config) (*Connection, error) {
	uri := fmt.Sprintf("mongodb://%s:%d", cfg.IPAddress, cfg.Port)

	opts := options.Client().ApplyURI(uri)
	if cfg.Username != "" {
		opts = opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	if cfg.CAFile != "" || cfg.CertificateFile != "" {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("store: building TLS config: %w", err)
		}
		opts = opts.SetTLSConfig(tlsConfig)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("store: connect failed: %w", err)
	}

	if err := client.Ping(dialCtx, nil); err != nil {
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}

	log.Infof("store: connected to %s", uri)
	return &Connection{client: client, db: client.Database(cfg.Database)}, nil
}

// buildTLSConfig constructs a *tls.Config from configured PEM paths, the
// same "load PEM, hand tls.Config to a third-party client" shape the
// teacher uses for its own HTTPS listener (cmd/cc-backend/main.go's
// HttpsCertFile/HttpsKeyFile handling).
func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CAFile != "" {
		caBytes, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("ca_file contains no usable certificates")
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.CertificateFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertificateFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client keypair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Disconnect releases the underlying driver connection. Intended for use on
// process shutdown only; Connect's singleton means there is nothing to
// reconnect to afterward within the same process.
func (c *Connection) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *Connection) collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}
