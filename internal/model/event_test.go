// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventOverlaps(t *testing.T) {
	e := Event{MinimumTimestamp: 1000, MaximumTimestamp: 2000}

	assert.True(t, e.Overlaps(1500, 2500))
	assert.True(t, e.Overlaps(500, 1000))
	assert.True(t, e.Overlaps(500, 2500))
	assert.False(t, e.Overlaps(2001, 3000))
	assert.False(t, e.Overlaps(0, 999))
}

func TestEventAbsorb(t *testing.T) {
	e := Event{
		ID:               "evt-1",
		MinimumTimestamp: 1000,
		MaximumTimestamp: 2000,
		Domain:           "example.com",
		URLs:             map[string]bool{"u1": true},
		FlagIDs:          map[string]bool{"f1": true},
	}

	t.Run("extends window and unions sets", func(t *testing.T) {
		changed := e.Absorb(1500, 2500, map[string]bool{"u2": true}, map[string]bool{"f2": true})
		assert.True(t, changed)
		assert.Equal(t, int64(1000), e.MinimumTimestamp)
		assert.Equal(t, int64(2500), e.MaximumTimestamp)
		assert.True(t, e.URLs["u1"])
		assert.True(t, e.URLs["u2"])
		assert.True(t, e.FlagIDs["f1"])
		assert.True(t, e.FlagIDs["f2"])
	})

	t.Run("no-op absorb reports unchanged", func(t *testing.T) {
		changed := e.Absorb(1500, 2000, map[string]bool{"u1": true}, map[string]bool{"f1": true})
		assert.False(t, changed)
	})

	t.Run("wider window extension is inclusive union", func(t *testing.T) {
		changed := e.Absorb(500, 3000, nil, nil)
		assert.True(t, changed)
		assert.Equal(t, int64(500), e.MinimumTimestamp)
		assert.Equal(t, int64(3000), e.MaximumTimestamp)
	})
}

func TestEventIsActive(t *testing.T) {
	e := Event{MaximumTimestamp: 1000}

	assert.True(t, e.IsActive(1000, 604800))
	assert.True(t, e.IsActive(1000+604800, 604800))
	assert.False(t, e.IsActive(1000+604801, 604800))
}
