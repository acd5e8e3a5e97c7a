package reader

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// TailSource wraps another Source to implement live-tail: each Run
// call is one re-arm. BuildLiveTailXPath uses an inclusive ">= since"
// lower bound, so an event sharing the exact boundary timestamp with
// the last event seen on the previous re-arm is returned again rather
// than dropped; TailSource remembers the record ids observed at its
// maximum timestamp and filters the repeat back out of the next batch
// that reports the same timestamp (spec.md §9).
type TailSource struct {
	Inner Source

	mu                sync.Mutex
	boundaryTimestamp time.Time
	boundaryIDs       map[uint64]struct{}
}

// NewTailSource returns a TailSource with no boundary state yet; the
// first Run call behaves like a plain call to inner.
func NewTailSource(inner Source) *TailSource {
	return &TailSource{Inner: inner}
}

// Run re-arms the wrapped source with Since set to the furthest point
// seen so far (or req.Since on the very first call), deduplicates
// boundary-timestamp records, and forwards everything else untouched.
func (t *TailSource) Run(req Request, cancelled *atomic.Bool, out chan<- Message) {
	t.mu.Lock()
	since := req.Since
	if !t.boundaryTimestamp.IsZero() {
		since = &t.boundaryTimestamp
	}
	t.mu.Unlock()

	innerReq := req
	innerReq.Since = since

	inner := make(chan Message, record.ChannelCapacity)
	done := make(chan struct{})
	go func() {
		t.Inner.Run(innerReq, cancelled, inner)
		close(done)
	}()

	go func() {
		<-done
		close(inner)
	}()

	for msg := range inner {
		if batch, ok := msg.(EventBatch); ok {
			batch.Records = t.dedupeAndAdvance(batch.Records)
			if len(batch.Records) == 0 {
				continue
			}
			msg = batch
		}
		out <- msg
	}
}

func (t *TailSource) dedupeAndAdvance(records []record.EventRecord) []record.EventRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := records[:0]
	for _, r := range records {
		if r.Timestamp.Equal(t.boundaryTimestamp) {
			if _, seen := t.boundaryIDs[r.RecordID]; seen {
				continue
			}
		}
		kept = append(kept, r)

		switch {
		case r.Timestamp.After(t.boundaryTimestamp):
			t.boundaryTimestamp = r.Timestamp
			t.boundaryIDs = map[uint64]struct{}{r.RecordID: {}}
		case r.Timestamp.Equal(t.boundaryTimestamp):
			if t.boundaryIDs == nil {
				t.boundaryIDs = make(map[uint64]struct{})
			}
			t.boundaryIDs[r.RecordID] = struct{}{}
		}
	}
	return kept
}
