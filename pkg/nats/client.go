// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package nats wraps the nats.go library with connection management and
// automatic reconnection handling, for publishing newly written flags to
// downstream subscribers. The flag store write remains the durable record;
// publication here is best-effort and never retried by callers.
package nats

import (
	"fmt"
	"sync"

	natsgo "github.com/nats-io/nats.go"

	"github.com/ClusterCockpit/tipup-flagwatch/pkg/log"
)

// Client wraps a NATS connection used for one-way flag publication.
type Client struct {
	conn *natsgo.Conn
	mu   sync.Mutex
}

// NewClient creates a new NATS client for the given configuration.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("nats address is required")
	}

	var opts []natsgo.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, natsgo.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, natsgo.UserCredentials(cfg.CredsFilePath))
	}

	opts = append(opts, natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
		if err != nil {
			log.Warnf("nats: disconnected: %v", err)
		}
	}))
	opts = append(opts, natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
		log.Infof("nats: reconnected to %s", nc.ConnectedUrl())
	}))

	nc, err := natsgo.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect failed: %w", err)
	}

	log.Infof("nats: connected to %s", cfg.Address)
	return &Client{conn: nc}, nil
}

// Publish sends data to the specified subject. Safe for concurrent use.
func (c *Client) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish to '%s' failed: %w", subject, err)
	}
	return nil
}

// Close closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		log.Info("nats: connection closed")
	}
}

// IsConnected returns true if the client has an active connection.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
