package reader

import (
	"sync/atomic"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// Request parameterizes one reader run. Exactly one of Channel or
// FilePath is set, chosen by the Source implementation.
type Request struct {
	Channel       string
	FilePath      string
	TimeFrom      *time.Time
	TimeTo        *time.Time
	Since         *time.Time // live-tail lower bound; overrides TimeFrom in the XPath when set
	MaxEvents     uint64
	ReverseChrono bool
	Locale        uint32
}

// Source is the abstraction the session coordinator drives; spec.md §9
// calls this an "EventSource trait with start(filter, cancel, tx)".
// The Windows-only ChannelSource and FileSource (reader_windows.go)
// implement it against the real Event Log API; tests substitute an
// in-memory Fake.
type Source interface {
	Run(req Request, cancelled *atomic.Bool, out chan<- Message)
}

// supplier is the narrower, Windows-specific concern each real Source
// delegates to: open a query, pull batches of rendered+decoded
// records, and report when there are no more. ChannelSource and
// FileSource differ only in Open; runPipeline is the one pipeline
// spec.md §4.5 says both entry points share.
type supplier interface {
	open(req Request) error
	fetchBatch() (batch []record.EventRecord, more bool, err error)
	close()
}

// runPipeline drives a supplier through the shared loop in spec.md
// §4.5: fetch, check cancellation, emit batch, emit progress, stop on
// cap/exhaustion/error, finally emit Complete or Error.
func runPipeline(channelLabel string, s supplier, req Request, cancelled *atomic.Bool, out chan<- Message) {
	start := time.Now()

	if err := s.open(req); err != nil {
		out <- Error{Channel: channelLabel, Kind: classifyTerminal(err), Message: err.Error()}
		return
	}
	defer s.close()

	var total uint64
	for {
		if cancelled.Load() {
			out <- Complete{Channel: channelLabel, Total: total, Elapsed: time.Since(start), Cancelled: true}
			return
		}

		batch, more, err := s.fetchBatch()
		if err != nil {
			out <- Error{Channel: channelLabel, Kind: classifyTerminal(err), Message: err.Error()}
			return
		}

		if len(batch) > 0 {
			if cancelled.Load() {
				out <- Complete{Channel: channelLabel, Total: total, Elapsed: time.Since(start), Cancelled: true}
				return
			}
			out <- EventBatch{Channel: channelLabel, Records: batch}
			total += uint64(len(batch))
			out <- Progress{Channel: channelLabel, Count: total}
		}

		if req.MaxEvents > 0 && total >= req.MaxEvents {
			out <- Complete{Channel: channelLabel, Total: total, Elapsed: time.Since(start)}
			return
		}
		if !more {
			out <- Complete{Channel: channelLabel, Total: total, Elapsed: time.Since(start)}
			return
		}
	}
}
