// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package eventmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/tipup-flagwatch/internal/model"
	"github.com/ClusterCockpit/tipup-flagwatch/internal/store/storetest"
)

func denseFlags(n int, domain, url string, startTS int64) []model.Flag {
	flags := make([]model.Flag, n)
	for i := 0; i < n; i++ {
		flags[i] = model.Flag{
			ID:        string(rune('a' + i)),
			Timestamp: startTS + int64(i),
			Domain:    domain,
			URL:       url,
			Status:    model.StatusWarning,
		}
	}
	return flags
}

func TestTickFormsNewEventFromDenseCluster(t *testing.T) {
	st := storetest.New()
	st.SeedFlags(denseFlags(5, "example.com", "https://example.com/", 1_700_000_000)...)

	m := New(storetest.FlagSource{Store: st}, st, nil)
	require.NoError(t, m.Tick(context.Background(), 1_700_100_000))

	events := st.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "example.com", events[0].Domain)
	assert.Len(t, events[0].FlagIDs, 5)
}

func TestTickIsIdempotentOnUnchangedSnapshot(t *testing.T) {
	st := storetest.New()
	st.SeedFlags(denseFlags(5, "example.com", "https://example.com/", 1_700_000_000)...)

	m := New(storetest.FlagSource{Store: st}, st, nil)
	now := int64(1_700_100_000)

	require.NoError(t, m.Tick(context.Background(), now))
	firstRun := st.Events()
	require.Len(t, firstRun, 1)

	require.NoError(t, m.Tick(context.Background(), now))
	secondRun := st.Events()

	require.Len(t, secondRun, 1)
	assert.Equal(t, firstRun[0], secondRun[0])
}

func TestTickMergesOverlappingClusterIntoOldestActiveEvent(t *testing.T) {
	st := storetest.New()
	const base = int64(1_700_000_000)

	st.SeedEvents(model.Event{
		ID:               "evt-old",
		MinimumTimestamp: base,
		MaximumTimestamp: base + 1000,
		Domain:           "example.com",
		URLs:             map[string]bool{"u1": true},
		FlagIDs:          map[string]bool{"seed-flag": true},
	})

	flags := denseFlags(5, "example.com", "u2", base+500)
	st.SeedFlags(flags...)

	m := New(storetest.FlagSource{Store: st}, st, nil)
	require.NoError(t, m.Tick(context.Background(), base+10_000))

	events := st.Events()
	require.Len(t, events, 1)
	assert.Equal(t, base, events[0].MinimumTimestamp)
	assert.Equal(t, base+1000, events[0].MaximumTimestamp)
	assert.True(t, events[0].URLs["u1"])
	assert.True(t, events[0].URLs["u2"])
	assert.True(t, events[0].FlagIDs["seed-flag"])
}

func TestTickStopsImmediatelyWhenNoCandidateFlags(t *testing.T) {
	st := storetest.New()
	m := New(storetest.FlagSource{Store: st}, st, nil)

	require.NoError(t, m.Tick(context.Background(), 1_700_100_000))
	assert.Empty(t, st.Events())
}

func TestSummarizeRejectsMultiDomainCluster(t *testing.T) {
	flags := []model.Flag{
		{ID: "a", Domain: "a.com", Timestamp: 1000},
		{ID: "b", Domain: "b.com", Timestamp: 1001},
	}

	_, ok := summarize(flags, []int{0, 1})
	assert.False(t, ok)
}

func TestOldestOverlappingPicksSmallestMinimumTimestamp(t *testing.T) {
	older := &model.Event{ID: "older", MinimumTimestamp: 100, MaximumTimestamp: 500}
	newer := &model.Event{ID: "newer", MinimumTimestamp: 200, MaximumTimestamp: 600}

	got := oldestOverlapping([]*model.Event{newer, older}, 300, 400)
	require.NotNil(t, got)
	assert.Equal(t, "older", got.ID)
}
