package session

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corvidsec/eventsleuth/filter"
	"github.com/corvidsec/eventsleuth/reader"
	"github.com/corvidsec/eventsleuth/record"
	"golang.org/x/sync/errgroup"
)

// ErrStaleHandle is returned by every Coordinator method when called
// with a Handle from a session that is no longer current.
var ErrStaleHandle = errors.New("session: stale handle")

// ErrNotReady is returned by EnableTail when the session has not yet
// reached PhaseReady.
var ErrNotReady = errors.New("session: not ready")

// Coordinator is the sole owner of SessionState (spec.md §3). It drives
// one reader goroutine per selected source, drains their bounded queues
// non-blockingly each frame, and serves immutable snapshots to the
// consumer.
type Coordinator struct {
	channelSource reader.Source
	fileSource    reader.Source
	locale        uint32

	mu        sync.Mutex
	handle    Handle
	phase     Phase
	data      *sessionData
	cancelled *atomic.Bool
	msgs      chan reader.Message
	group     *errgroup.Group
	channels  []string
	maxEvents uint64
	reverse   bool

	tailStop chan struct{}
	tailWG   sync.WaitGroup
}

// NewCoordinator wires a Coordinator to the Source implementations used
// for channel and file sessions. Production callers pass
// reader.ChannelSource{} / reader.FileSource{}; tests pass
// reader.Fake values.
func NewCoordinator(channelSource, fileSource reader.Source, locale uint32) *Coordinator {
	return &Coordinator{
		channelSource: channelSource,
		fileSource:    fileSource,
		locale:        locale,
		data:          newSessionData(),
	}
}

// StartSession implements the Idle -> Loading transition: cancel any
// prior readers, clear all_events/bookmarks/stats, and spawn one
// reader per selected channel (spec.md §4.6).
func (c *Coordinator) StartSession(channels []string, f filter.State, maxEvents uint64, reverseChrono bool) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPriorLocked()

	c.data.clearForReload()
	c.data.filter = f
	c.channels = append([]string(nil), channels...)
	c.maxEvents = clampMaxEvents(maxEvents)
	c.reverse = reverseChrono
	c.phase = PhaseLoading
	c.handle = newHandle()

	cancelled := &atomic.Bool{}
	msgs := make(chan reader.Message, record.ChannelCapacity)
	c.cancelled = cancelled
	c.msgs = msgs

	group := &errgroup.Group{}
	for _, channel := range c.channels {
		channel := channel
		group.Go(func() error {
			c.channelSource.Run(reader.Request{
				Channel:       channel,
				TimeFrom:      f.TimeFrom,
				TimeTo:        f.TimeTo,
				MaxEvents:     c.maxEvents,
				ReverseChrono: reverseChrono,
				Locale:        c.locale,
			}, cancelled, msgs)
			return nil
		})
		c.data.progress[channel] = ChannelProgress{Channel: channel}
	}
	c.group = group
	go func() {
		group.Wait()
		close(msgs)
	}()

	return c.handle
}

// StartFileSession implements the file-reading analogue of
// StartSession: a single reader over one .evtx path.
func (c *Coordinator) StartFileSession(path string, f filter.State, maxEvents uint64) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPriorLocked()

	c.data.clearForReload()
	c.data.filter = f
	c.channels = []string{path}
	c.maxEvents = clampMaxEvents(maxEvents)
	c.phase = PhaseLoading
	c.handle = newHandle()

	cancelled := &atomic.Bool{}
	msgs := make(chan reader.Message, record.ChannelCapacity)
	c.cancelled = cancelled
	c.msgs = msgs

	group := &errgroup.Group{}
	group.Go(func() error {
		c.fileSource.Run(reader.Request{
			FilePath:  path,
			TimeFrom:  f.TimeFrom,
			TimeTo:    f.TimeTo,
			MaxEvents: c.maxEvents,
			Locale:    c.locale,
		}, cancelled, msgs)
		return nil
	})
	c.data.progress[path] = ChannelProgress{Channel: path}
	c.group = group
	go func() {
		group.Wait()
		close(msgs)
	}()

	return c.handle
}

// stopPriorLocked cancels and drains any in-flight session. Caller
// must hold c.mu. The cancellation flag is set before stopTailLocked
// runs so a tail goroutine blocked sending into a full msgs channel
// observes cancellation and returns instead of holding tailWG.Wait()
// open indefinitely.
func (c *Coordinator) stopPriorLocked() {
	if c.cancelled != nil {
		c.cancelled.Store(true)
	}
	c.stopTailLocked()
	if c.cancelled == nil {
		return
	}
	if c.group != nil {
		c.group.Wait()
	}
	if c.msgs != nil {
		for range c.msgs {
			// discard: this session's handle is about to become stale
		}
	}
	c.cancelled = nil
	c.msgs = nil
	c.group = nil
}

func clampMaxEvents(v uint64) uint64 {
	if v < record.MinMaxEvents {
		return record.MinMaxEvents
	}
	if v > record.MaxMaxEvents {
		return record.MaxMaxEvents
	}
	return v
}

// Cancel sets the shared cancellation flag and returns immediately;
// per spec.md §5 the coordinator considers a reader terminated only
// once it observes that reader's Complete or Error message, which
// happens on a later Snapshot call's drain.
func (c *Coordinator) Cancel(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return ErrStaleHandle
	}
	if c.cancelled != nil {
		c.cancelled.Store(true)
	}
	return nil
}

// UpdateFilter re-applies in-memory filtering; it never re-queries the
// OS (spec.md §6).
func (c *Coordinator) UpdateFilter(h Handle, f filter.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return ErrStaleHandle
	}
	c.data.filter = f
	c.data.dirty = true
	return nil
}

// SetSort changes the active sort column/direction and marks the
// filtered view dirty.
func (c *Coordinator) SetSort(h Handle, column SortColumn, descending bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return ErrStaleHandle
	}
	c.data.sortColumn = column
	c.data.sortDesc = descending
	c.data.dirty = true
	return nil
}

// Select updates the current selection index (an index into
// filtered_index, not all_events).
func (c *Coordinator) Select(h Handle, selection int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return ErrStaleHandle
	}
	c.data.selection = selection
	return nil
}

// ToggleBookmark flips the bookmarked state of the event at the given
// all_events index.
func (c *Coordinator) ToggleBookmark(h Handle, allEventsIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return ErrStaleHandle
	}
	c.data.toggleBookmark(allEventsIndex)
	return nil
}

// EnableTail arms periodic live-tail re-queries every interval once the
// session has reached PhaseReady (spec.md §4.6, Ready -> Tailing).
func (c *Coordinator) EnableTail(h Handle, interval time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return ErrStaleHandle
	}
	if c.phase != PhaseReady {
		return ErrNotReady
	}
	if interval <= 0 {
		interval = record.LiveTailInterval
	}

	c.stopTailLocked()
	c.phase = PhaseTailing
	stop := make(chan struct{})
	c.tailStop = stop

	tails := make(map[string]*reader.TailSource, len(c.channels))
	for _, ch := range c.channels {
		tails[ch] = reader.NewTailSource(c.channelSource)
	}

	c.tailWG.Add(1)
	go c.runTailLoop(h, tails, interval, stop)
	return nil
}

func (c *Coordinator) runTailLoop(h Handle, tails map[string]*reader.TailSource, interval time.Duration, stop chan struct{}) {
	defer c.tailWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.armTailOnce(h, tails)
		}
	}
}

func (c *Coordinator) armTailOnce(h Handle, tails map[string]*reader.TailSource) {
	c.mu.Lock()
	if h != c.handle || c.phase != PhaseTailing {
		c.mu.Unlock()
		return
	}
	cancelled := c.cancelled
	msgs := c.msgs
	snapshot := make(map[string]time.Time, len(c.data.lastSeen))
	for k, v := range c.data.lastSeen {
		snapshot[k] = v
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for channel, since := range snapshot {
		tail, ok := tails[channel]
		if !ok {
			continue
		}
		since := since
		channel := channel
		wg.Add(1)
		go func() {
			defer wg.Done()
			tail.Run(reader.Request{Channel: channel, Since: &since, Locale: c.locale, ReverseChrono: c.reverse}, cancelled, msgs)
		}()
	}
	wg.Wait()
}

// DisableTail stops periodic live-tail re-arming and returns the
// session to PhaseReady.
func (c *Coordinator) DisableTail(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return ErrStaleHandle
	}
	c.stopTailLocked()
	if c.phase == PhaseTailing {
		c.phase = PhaseReady
	}
	return nil
}

func (c *Coordinator) stopTailLocked() {
	if c.tailStop == nil {
		return
	}
	close(c.tailStop)
	c.tailStop = nil
	c.mu.Unlock()
	c.tailWG.Wait()
	c.mu.Lock()
}

// Snapshot performs the coordinator's per-frame duties (spec.md §4.6):
// drain the batch queue non-blockingly, rebuild the filtered view and
// stats if dirty, and return an immutable view for this frame.
func (c *Coordinator) Snapshot(h Handle) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return Snapshot{}, ErrStaleHandle
	}

	c.drainLocked()
	if c.data.dirty {
		c.rebuildLocked()
	}

	elevation := false
	for _, e := range c.data.errors {
		if strings.EqualFold(e.Channel, "Security") && e.Kind == reader.KindAccessDenied.String() {
			elevation = true
			break
		}
	}

	progress := make(map[string]ChannelProgress, len(c.data.progress))
	for k, v := range c.data.progress {
		progress[k] = v
	}

	return Snapshot{
		Phase:           c.phase,
		Total:           len(c.data.allEvents),
		Filtered:        len(c.data.filteredIdx),
		FilteredIndex:   append([]int(nil), c.data.filteredIdx...),
		Selection:       c.data.selection,
		Stats:           c.data.stats,
		Progress:        progress,
		Errors:          append([]ChannelError(nil), c.data.errors...),
		ElevationBanner: elevation,
	}, nil
}

// Event returns the record at index idx into all_events, used by a
// consumer resolving a FilteredIndex entry to a record.
func (c *Coordinator) Event(h Handle, idx int) (record.EventRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h != c.handle {
		return record.EventRecord{}, ErrStaleHandle
	}
	if idx < 0 || idx >= len(c.data.allEvents) {
		return record.EventRecord{}, errors.New("session: index out of range")
	}
	return c.data.allEvents[idx], nil
}

func (c *Coordinator) drainLocked() {
	if c.msgs == nil {
		return
	}
	for {
		select {
		case msg, ok := <-c.msgs:
			if !ok {
				c.msgs = nil
				return
			}
			c.applyMessageLocked(msg)
		default:
			return
		}
	}
}

func (c *Coordinator) applyMessageLocked(msg reader.Message) {
	switch m := msg.(type) {
	case reader.EventBatch:
		c.data.allEvents = append(c.data.allEvents, m.Records...)
		for _, r := range m.Records {
			if ts, ok := c.data.lastSeen[m.Channel]; !ok || r.Timestamp.After(ts) {
				c.data.lastSeen[m.Channel] = r.Timestamp
			}
		}
		c.data.dirty = true
	case reader.Progress:
		p := c.data.progress[m.Channel]
		p.Channel = m.Channel
		p.Count = m.Count
		c.data.progress[m.Channel] = p
	case reader.Complete:
		p := c.data.progress[m.Channel]
		p.Channel = m.Channel
		p.Done = true
		c.data.progress[m.Channel] = p
		c.maybeAdvanceToReadyLocked()
	case reader.Error:
		p := c.data.progress[m.Channel]
		p.Channel = m.Channel
		p.Done = true
		c.data.progress[m.Channel] = p
		c.pushErrorLocked(ChannelError{Channel: m.Channel, Kind: m.Kind.String(), Message: m.Message, At: time.Now()})
		c.maybeAdvanceToReadyLocked()
	}
}

func (c *Coordinator) pushErrorLocked(e ChannelError) {
	c.data.errors = append(c.data.errors, e)
	if len(c.data.errors) > record.MaxErrors {
		c.data.errors = c.data.errors[len(c.data.errors)-record.MaxErrors:]
	}
}

func (c *Coordinator) maybeAdvanceToReadyLocked() {
	if c.phase != PhaseLoading {
		return
	}
	for _, channel := range c.channels {
		if !c.data.progress[channel].Done {
			return
		}
	}
	c.phase = PhaseReady
}

func (c *Coordinator) rebuildLocked() {
	f := c.data.filter
	idx := c.data.filteredIdx[:0]
	for i, r := range c.data.allEvents {
		if f.Matches(r) {
			idx = append(idx, i)
		}
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := c.data.allEvents[idx[a]], c.data.allEvents[idx[b]]
		if c.data.sortDesc {
			return lessByColumn(rb, ra, c.data.sortColumn)
		}
		return lessByColumn(ra, rb, c.data.sortColumn)
	})

	c.data.filteredIdx = idx
	c.data.stats = computeStats(c.data.allEvents, idx)
	c.data.dirty = false
}

func lessByColumn(a, b record.EventRecord, col SortColumn) bool {
	switch col {
	case SortByEventID:
		return a.EventID < b.EventID
	case SortByLevel:
		return a.Level < b.Level
	case SortByProvider:
		return a.ProviderName < b.ProviderName
	case SortByChannel:
		return a.Channel < b.Channel
	default:
		return a.Timestamp.Before(b.Timestamp)
	}
}

func computeStats(events []record.EventRecord, idx []int) Stats {
	s := Stats{
		LevelHistogram: make(map[record.Level]int),
		PerHourCounts:  make(map[int64]int),
	}
	providerCounts := make(map[string]int)
	for _, i := range idx {
		r := events[i]
		s.LevelHistogram[r.Level]++
		providerCounts[r.ProviderName]++
		hour := r.Timestamp.Truncate(time.Hour).Unix()
		s.PerHourCounts[hour]++
	}
	for provider, count := range providerCounts {
		s.TopProviders = append(s.TopProviders, ProviderCount{Provider: provider, Count: count})
	}
	sort.Slice(s.TopProviders, func(i, j int) bool {
		if s.TopProviders[i].Count != s.TopProviders[j].Count {
			return s.TopProviders[i].Count > s.TopProviders[j].Count
		}
		return s.TopProviders[i].Provider < s.TopProviders[j].Provider
	})
	if len(s.TopProviders) > record.TopProviderCount {
		s.TopProviders = s.TopProviders[:record.TopProviderCount]
	}
	return s
}
