package reader

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/stretchr/testify/assert"
)

func drainBatches(out chan Message) []record.EventRecord {
	var all []record.EventRecord
	for msg := range out {
		if b, ok := msg.(EventBatch); ok {
			all = append(all, b.Records...)
		}
	}
	return all
}

func TestTailSourceDedupesRecordsAtBoundaryTimestamp(t *testing.T) {
	boundary := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := Fake{Records: []record.EventRecord{
		{RecordID: 1, Timestamp: boundary.Add(-time.Second)},
		{RecordID: 2, Timestamp: boundary},
	}, BatchSize: 10}
	tail := NewTailSource(first)

	out := make(chan Message, 16)
	var cancelled atomic.Bool
	tail.Run(Request{}, &cancelled, out)
	close(out)
	got := drainBatches(out)
	assert.Len(t, got, 2)

	// Re-arm: the next poll returns the same boundary record again
	// (record 2, still at `boundary`) plus one genuinely new record at
	// the same timestamp and one strictly after it.
	second := Fake{Records: []record.EventRecord{
		{RecordID: 2, Timestamp: boundary},
		{RecordID: 3, Timestamp: boundary},
		{RecordID: 4, Timestamp: boundary.Add(time.Second)},
	}, BatchSize: 10}
	tail.Inner = second

	out2 := make(chan Message, 16)
	tail.Run(Request{}, &cancelled, out2)
	close(out2)
	got2 := drainBatches(out2)

	require := assert.New(t)
	require.Len(got2, 2) // record 2 dropped as a duplicate; 3 and 4 survive
	ids := map[uint64]bool{}
	for _, r := range got2 {
		ids[r.RecordID] = true
	}
	require.True(ids[3])
	require.True(ids[4])
	require.False(ids[2])
}

func TestTailSourceFirstRunPassesSinceThrough(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := Fake{Records: []record.EventRecord{{RecordID: 1, Timestamp: since.Add(time.Minute)}}, BatchSize: 10}
	tail := NewTailSource(fake)

	out := make(chan Message, 16)
	var cancelled atomic.Bool
	tail.Run(Request{Since: &since}, &cancelled, out)
	close(out)

	got := drainBatches(out)
	assert.Len(t, got, 1)
}
