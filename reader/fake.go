package reader

import (
	"sync/atomic"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// Fake is an in-memory Source for tests and non-Windows development
// builds: it emits pre-built records in fixed-size batches without
// touching the OS, following the same Run contract as ChannelSource
// and FileSource (spec.md §9, "an EventSource trait... so tests can
// substitute an in-memory source feeding synthetic records").
type Fake struct {
	Records   []record.EventRecord
	BatchSize int
}

func (f Fake) Run(req Request, cancelled *atomic.Bool, out chan<- Message) {
	start := time.Now()
	batchSize := f.BatchSize
	if batchSize <= 0 {
		batchSize = record.BatchSize
	}

	var total uint64
	for i := 0; i < len(f.Records); i += batchSize {
		if cancelled.Load() {
			out <- Complete{Channel: req.Channel, Total: total, Elapsed: time.Since(start), Cancelled: true}
			return
		}

		end := i + batchSize
		if end > len(f.Records) {
			end = len(f.Records)
		}
		batch := append([]record.EventRecord(nil), f.Records[i:end]...)

		out <- EventBatch{Channel: req.Channel, Records: batch}
		total += uint64(len(batch))
		out <- Progress{Channel: req.Channel, Count: total}

		if req.MaxEvents > 0 && total >= req.MaxEvents {
			out <- Complete{Channel: req.Channel, Total: total, Elapsed: time.Since(start)}
			return
		}
	}
	out <- Complete{Channel: req.Channel, Total: total, Elapsed: time.Since(start)}
}
