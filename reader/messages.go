// Package reader implements the background producer pipeline: open a
// channel or file query, paginate, render, decode, and push batches to
// the session coordinator over a bounded queue.
package reader

import (
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// ErrorKind classifies a reader-surfaced error for the consumer, per
// spec.md §6.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAccessDenied
	KindNotFound
	KindTransient
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindAccessDenied:
		return "AccessDenied"
	case KindNotFound:
		return "NotFound"
	case KindTransient:
		return "Transient"
	case KindParse:
		return "Parse"
	default:
		return "Unknown"
	}
}

// Message is the tagged union a reader sends on its outbound channel:
// EventBatch, Progress, Complete, or Error.
type Message interface {
	readerMessage()
}

// EventBatch carries a slice of freshly decoded records from one
// channel or file source.
type EventBatch struct {
	Channel string
	Records []record.EventRecord
}

func (EventBatch) readerMessage() {}

// Progress reports the running count of events read so far from one
// source; emitted once per batch.
type Progress struct {
	Channel string
	Count   uint64
}

func (Progress) readerMessage() {}

// Complete signals a reader has stopped producing, either because it
// ran out of events, hit its max-events cap, or was cancelled.
type Complete struct {
	Channel   string
	Total     uint64
	Elapsed   time.Duration
	Cancelled bool
}

func (Complete) readerMessage() {}

// Error reports a non-transient failure that ended a reader's run.
type Error struct {
	Channel string
	Kind    ErrorKind
	Message string
}

func (Error) readerMessage() {}
