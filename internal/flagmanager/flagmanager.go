// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package flagmanager implements the Flag Manager: a dedicated worker that
// drains the bounded flag channel on a periodic tick and writes the
// accumulated batch to the flag store in one call. One goroutine, one
// buffered input channel, drained on its own schedule; a store failure is
// logged and retried on the next tick rather than crashing the worker.
package flagmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/metrics"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
	"github.com/ClusterCockpit/tipup-flagwatch/pkg/log"
)

// ChannelCapacity is the bound on the flag channel. Producers (analyzers,
// invoked from the Fetch/Broadcast goroutine) block once it is full,
// applying backpressure to the Fetch Loop.
const ChannelCapacity = 50

// FlushInterval is how often the buffered flags are drained and written.
const FlushInterval = 5 * time.Second

// Store is the persistence dependency the Flag Manager needs: a single
// batched write of accumulated flags.
type Store interface {
	InsertBatch(ctx context.Context, flags []model.Flag) error
}

// Notifier is an optional fire-and-forget publication sink used after a
// successful batch write. A nil Notifier disables publication entirely.
type Notifier interface {
	Publish(subject string, data []byte) error
}

// Manager owns the flag channel and the background flush goroutine.
type Manager struct {
	ch       chan model.Flag
	store    Store
	notifier Notifier

	buffer []model.Flag
	done   chan struct{}
}

// New creates a Manager bound to store. notifier may be nil.
func New(store Store, notifier Notifier) *Manager {
	return &Manager{
		ch:       make(chan model.Flag, ChannelCapacity),
		store:    store,
		notifier: notifier,
		done:     make(chan struct{}),
	}
}

// Channel returns the send-only flag channel analyzers emit onto.
func (m *Manager) Channel() chan<- model.Flag {
	return m.ch
}

// Run drains the flag channel until it is closed, writing the accumulated
// buffer on every FlushInterval tick and once more after the channel
// closes, so a clean shutdown never drops already-received flags. Run
// blocks; call it from its own goroutine.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case flag, ok := <-m.ch:
			if !ok {
				m.flush(ctx)
				return
			}
			m.buffer = append(m.buffer, flag)
			metrics.FlagsEmitted.WithLabelValues(string(flag.Status)).Inc()
			metrics.FlagBufferSize.Set(float64(len(m.buffer)))

		case <-ticker.C:
			m.flush(ctx)

		case <-ctx.Done():
			m.flush(ctx)
			return
		}
	}
}

// Done is closed once Run has returned, after its final flush.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// flush writes the current buffer in a single batch call. A store failure
// is logged and the buffer is retained for the next tick — transient
// upstream errors must not crash the worker.
func (m *Manager) flush(ctx context.Context) {
	if len(m.buffer) == 0 {
		return
	}

	if err := m.store.InsertBatch(ctx, m.buffer); err != nil {
		log.Errorf("flagmanager: failed to write %d flags: %v", len(m.buffer), err)
		return
	}

	log.Infof("flagmanager: wrote %d new flags", len(m.buffer))
	metrics.FlagsWritten.Add(float64(len(m.buffer)))
	m.notify(m.buffer)
	m.buffer = nil
	metrics.FlagBufferSize.Set(0)
}

func (m *Manager) notify(flags []model.Flag) {
	if m.notifier == nil {
		return
	}
	for _, f := range flags {
		subject := fmt.Sprintf("flags.%s", f.Status)
		if err := m.notifier.Publish(subject, []byte(f.ID)); err != nil {
			log.Warnf("flagmanager: notify publish failed for %s: %v", f.ID, err)
		}
	}
}
