package reader

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecords(n int) []record.EventRecord {
	out := make([]record.EventRecord, n)
	for i := range out {
		out[i] = record.EventRecord{EventID: uint32(i)}
	}
	return out
}

func TestFakeSourceEmitsProgressThenComplete(t *testing.T) {
	fake := Fake{Records: makeRecords(5), BatchSize: 2}
	out := make(chan Message, 64)
	var cancelled atomic.Bool

	fake.Run(Request{Channel: "Application"}, &cancelled, out)
	close(out)

	var total uint64
	var sawComplete bool
	for msg := range out {
		switch m := msg.(type) {
		case EventBatch:
			total += uint64(len(m.Records))
		case Progress:
			assert.Equal(t, total, m.Count)
		case Complete:
			sawComplete = true
			assert.Equal(t, total, m.Total)
			assert.False(t, m.Cancelled)
		}
	}
	require.True(t, sawComplete)
	assert.Equal(t, uint64(5), total)
}

func TestFakeSourceStopsAtMaxEvents(t *testing.T) {
	fake := Fake{Records: makeRecords(100), BatchSize: 10}
	out := make(chan Message, 64)
	var cancelled atomic.Bool

	fake.Run(Request{MaxEvents: 25}, &cancelled, out)
	close(out)

	var total uint64
	for msg := range out {
		if b, ok := msg.(EventBatch); ok {
			total += uint64(len(b.Records))
		}
	}
	assert.Equal(t, uint64(30), total) // stops after crossing the cap, not mid-batch
}

func TestFakeSourceCancellationStopsAfterAtMostOneMoreBatch(t *testing.T) {
	fake := Fake{Records: makeRecords(1000), BatchSize: 10}
	out := make(chan Message, 1024)
	var cancelled atomic.Bool
	cancelled.Store(true)

	fake.Run(Request{}, &cancelled, out)
	close(out)

	var batches int
	var sawCancelledComplete bool
	for msg := range out {
		switch m := msg.(type) {
		case EventBatch:
			batches++
		case Complete:
			sawCancelledComplete = m.Cancelled
		}
	}
	assert.Equal(t, 0, batches)
	assert.True(t, sawCancelledComplete)
}

func TestFakeSourceRespectsBackpressureBoundedQueue(t *testing.T) {
	fake := Fake{Records: makeRecords(int(record.ChannelCapacity) * 3), BatchSize: record.BatchSize}
	out := make(chan Message, record.ChannelCapacity)
	var cancelled atomic.Bool

	done := make(chan struct{})
	go func() {
		fake.Run(Request{}, &cancelled, out)
		close(done)
	}()

	// Drain slowly; the producer must block on the bounded channel
	// rather than growing an unbounded backlog in memory.
	time.Sleep(10 * time.Millisecond)
	drained := 0
	for {
		select {
		case <-out:
			drained++
		case <-done:
			for range out {
				drained++
			}
			assert.Greater(t, drained, 0)
			return
		}
	}
}
