package record

import "time"

// Centralised constants used across the reader, filter, and session
// packages. Keeping them here avoids every package importing a
// different sub-package just for a batch size.
const (
	// BatchSize is how many event handles a reader fetches per EvtNext call.
	BatchSize = 200

	// RenderBufferSize is the starting buffer size, in UTF-16 code units,
	// used to render an event to XML.
	RenderBufferSize = 8192

	// MessageBufferSize is the starting buffer size, in UTF-16 code units,
	// used to render a formatted message string.
	MessageBufferSize = 2048

	// ChannelCapacity is the bounded queue depth between a reader and the
	// coordinator; this is the only back-pressure mechanism.
	ChannelCapacity = 256

	// MaxRetryAttempts bounds the exponential backoff retry for transient
	// Win32 errors.
	MaxRetryAttempts = 3

	// RetryBaseDelay is the first retry delay; it doubles each attempt.
	RetryBaseDelay = 50 * time.Millisecond

	// DebounceInterval is how long a text filter input must be idle
	// before the coordinator re-applies the filter.
	DebounceInterval = 150 * time.Millisecond

	// LiveTailInterval is how often the coordinator re-arms a tail reader.
	LiveTailInterval = 5 * time.Second

	// EvtNextTimeoutMS is the timeout, in milliseconds, passed to EvtNext.
	EvtNextTimeoutMS = 1000

	// MinMaxEvents and MaxMaxEvents bound the user-configurable
	// max-events-per-channel cap.
	MinMaxEvents = 1_000
	MaxMaxEvents = 10_000_000

	// MaxErrors caps the coordinator's ring buffer of per-channel errors.
	MaxErrors = 200

	// MaxBufferGrowAttempts bounds how many times a render/format buffer
	// doubles in response to ERROR_INSUFFICIENT_BUFFER before giving up.
	MaxBufferGrowAttempts = 6

	// TopProviderCount bounds how many entries Stats.TopProviders carries.
	TopProviderCount = 10
)
