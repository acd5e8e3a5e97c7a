// Package session owns the in-memory record list, drives readers,
// applies the filter/sort, aggregates stats, and surfaces progress and
// errors to the consumer through immutable per-frame snapshots.
package session

import (
	"time"

	"github.com/corvidsec/eventsleuth/filter"
	"github.com/corvidsec/eventsleuth/record"
	"github.com/gofrs/uuid"
)

// Phase is the coordinator's state machine position, per spec.md §4.6:
// Idle -> Loading -> Ready -> {Loading | Tailing | Idle}.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseTailing
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "Loading"
	case PhaseReady:
		return "Ready"
	case PhaseTailing:
		return "Tailing"
	default:
		return "Idle"
	}
}

// Handle is an opaque token identifying one session, minted fresh by
// every StartSession/StartFileSession call so a consumer holding a
// stale handle from a prior session gets a clear error instead of
// silently touching the wrong data.
type Handle struct {
	id uuid.UUID
}

func newHandle() Handle {
	id, err := uuid.NewV4()
	if err != nil {
		// uuid.NewV4 only fails if the system CSPRNG is broken; there is
		// no sane recovery, but we must not panic in production paths
		// (spec.md §7), so fall back to the nil UUID. Handles collide
		// only in that catastrophic case.
		return Handle{}
	}
	return Handle{id: id}
}

func (h Handle) String() string { return h.id.String() }

// SortColumn selects the field filtered_index is ordered by.
type SortColumn int

const (
	SortByTimestamp SortColumn = iota
	SortByEventID
	SortByLevel
	SortByProvider
	SortByChannel
)

// Stats is the aggregate view derived from filtered_index each time it
// is rebuilt.
type Stats struct {
	LevelHistogram map[record.Level]int
	TopProviders   []ProviderCount
	PerHourCounts  map[int64]int // key: hour truncated to Unix seconds
}

// ProviderCount is one entry in Stats.TopProviders.
type ProviderCount struct {
	Provider string
	Count    int
}

// ChannelError is one entry in the bounded per-channel error list.
type ChannelError struct {
	Channel string
	Kind    string
	Message string
	At      time.Time
}

// ChannelProgress tracks how far one source has read.
type ChannelProgress struct {
	Channel string
	Count   uint64
	Done    bool
}

// Snapshot is the immutable-for-the-frame view handed to the consumer.
type Snapshot struct {
	Phase          Phase
	Total          int
	Filtered       int
	FilteredIndex  []int
	Selection      int
	Stats          Stats
	Progress       map[string]ChannelProgress
	Errors         []ChannelError
	ElevationBanner bool
}

// sessionData is the mutable state owned exclusively by the
// Coordinator; the consumer only ever sees a Snapshot copy.
type sessionData struct {
	allEvents    []record.EventRecord
	filteredIdx  []int
	bookmarks    map[int]struct{}
	errors       []ChannelError
	stats        Stats
	lastSeen     map[string]time.Time
	progress     map[string]ChannelProgress

	filter       filter.State
	sortColumn   SortColumn
	sortDesc     bool
	selection    int
	dirty        bool
}

func newSessionData() *sessionData {
	return &sessionData{
		bookmarks: make(map[int]struct{}),
		lastSeen:  make(map[string]time.Time),
		progress:  make(map[string]ChannelProgress),
	}
}

// clearForReload resets everything spec.md §3 says reload/file-import
// clears: all_events, filtered_index, bookmarks, and stats. Progress
// and errors are also reset since they describe the prior run.
func (d *sessionData) clearForReload() {
	d.allEvents = nil
	d.filteredIdx = nil
	d.bookmarks = make(map[int]struct{})
	d.stats = Stats{}
	d.errors = nil
	d.progress = make(map[string]ChannelProgress)
	d.lastSeen = make(map[string]time.Time)
	d.dirty = true
}
