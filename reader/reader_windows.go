//go:build windows

package reader

import (
	"fmt"
	"sync/atomic"

	"github.com/corvidsec/eventsleuth/decode"
	"github.com/corvidsec/eventsleuth/record"
	"github.com/corvidsec/eventsleuth/winapi"
)

// publisherCache maps provider name to its opened metadata handle,
// owned exclusively by one reader and torn down with it (spec.md §4.5,
// §9: "do not share across threads; duplication is acceptable").
type publisherCache struct {
	handles map[string]*winapi.Guard
	locale  uint32
}

func newPublisherCache(locale uint32) *publisherCache {
	return &publisherCache{handles: make(map[string]*winapi.Guard), locale: locale}
}

func (c *publisherCache) get(provider string) (winapi.EvtHandle, bool) {
	if g, ok := c.handles[provider]; ok {
		return g.Handle(), true
	}
	h, err := winapi.OpenPublisherMetadata(provider, c.locale)
	if err != nil {
		return winapi.NilHandle, false
	}
	c.handles[provider] = winapi.NewGuard(h)
	return h, true
}

func (c *publisherCache) closeAll() {
	for _, g := range c.handles {
		g.Close()
	}
}

// channelSupplier implements supplier against a live EvtQuery result
// set opened over a named channel.
type channelSupplier struct {
	query      *winapi.Guard
	publishers *publisherCache
	label      string
}

func (s *channelSupplier) open(req Request) error {
	xpath := buildXPathForRequest(req)
	flags := winapi.EvtQueryChannelPath
	if req.ReverseChrono {
		flags |= winapi.EvtQueryReverseDirection
	}
	h, err := winapi.Query(req.Channel, xpath, flags)
	if err != nil {
		return &record.WindowsAPIError{Context: "EvtQuery " + req.Channel, Cause: err}
	}
	s.query = winapi.NewGuard(h)
	s.publishers = newPublisherCache(req.Locale)
	s.label = req.Channel
	return nil
}

func (s *channelSupplier) fetchBatch() ([]record.EventRecord, bool, error) {
	return fetchAndDecode(s.query.Handle(), s.publishers, s.label)
}

func (s *channelSupplier) close() {
	s.publishers.closeAll()
	s.query.Close()
}

// fileSupplier implements supplier against a live EvtQuery result set
// opened over a .evtx file path.
type fileSupplier struct {
	query      *winapi.Guard
	publishers *publisherCache
	label      string
}

func (s *fileSupplier) open(req Request) error {
	xpath := buildXPathForRequest(req)
	h, err := winapi.Query(req.FilePath, xpath, winapi.EvtQueryFilePath)
	if err != nil {
		return &record.WindowsAPIError{Context: "EvtQuery " + req.FilePath, Cause: err}
	}
	s.query = winapi.NewGuard(h)
	s.publishers = newPublisherCache(req.Locale)
	s.label = req.FilePath
	return nil
}

func (s *fileSupplier) fetchBatch() ([]record.EventRecord, bool, error) {
	return fetchAndDecode(s.query.Handle(), s.publishers, s.label)
}

func (s *fileSupplier) close() {
	s.publishers.closeAll()
	s.query.Close()
}

func buildXPathForRequest(req Request) string {
	if req.Since != nil {
		return BuildLiveTailXPath(*req.Since)
	}
	return BuildXPath(req.TimeFrom, req.TimeTo)
}

// fetchAndDecode pulls up to record.BatchSize event handles, renders
// and decodes each, and formats its message, closing every handle on
// every path. Grounded on the teacher's fetchEvents/renderEvent pair.
func fetchAndDecode(resultSet winapi.EvtHandle, publishers *publisherCache, label string) ([]record.EventRecord, bool, error) {
	handles := make([]winapi.EvtHandle, record.BatchSize)
	var returned uint32
	err := withRetry(func() error {
		return winapi.EvtNext(resultSet, handles, record.EvtNextTimeoutMS, &returned)
	})
	if err != nil {
		if unwrapErrno(err) == winapi.ErrorNoMoreItems {
			return nil, false, nil
		}
		return nil, false, &record.WindowsAPIError{Context: "EvtNext " + label, Cause: err}
	}

	batch := make([]record.EventRecord, 0, returned)
	for i := uint32(0); i < returned; i++ {
		h := handles[i]
		rec, decodeErr := renderOne(h, publishers, label)
		winapi.EvtClose(h)
		if decodeErr != nil {
			continue
		}
		batch = append(batch, rec)
	}
	return batch, returned > 0, nil
}

// errSkipOversizedEvent marks an event this process declines to render
// because it is too large for any buffer size it is willing to
// allocate (winapi.RPCInvalidBound). fetchAndDecode treats it the same
// as any other per-event decode failure: skip and move on.
var errSkipOversizedEvent = fmt.Errorf("event too large to render")

func renderOne(h winapi.EvtHandle, publishers *publisherCache, label string) (record.EventRecord, error) {
	xmlBlob, err := winapi.RenderEventXML(h, record.RenderBufferSize, record.MaxBufferGrowAttempts)
	if err != nil {
		if unwrapErrno(err) == winapi.RPCInvalidBound {
			return record.EventRecord{}, errSkipOversizedEvent
		}
		return record.EventRecord{}, &record.WindowsAPIError{Context: "EvtRender " + label, Cause: err}
	}

	rec, err := decode.Decode(xmlBlob, label)
	if err != nil {
		return record.EventRecord{}, err
	}

	if handle, ok := publishers.get(rec.ProviderName); ok {
		msg, err := winapi.FormatEventMessage(handle, h, record.MessageBufferSize, record.MaxBufferGrowAttempts)
		if err == nil {
			rec.Message = msg
		}
	}
	if rec.Message == "" {
		rec.Message = fallbackMessage(rec)
	}
	return rec, nil
}

// fallbackMessage concatenates name=value event_data pairs when
// provider message formatting fails, per spec.md §4.5 step c and the
// boundary behaviour in §8 ("message populated from event_data
// fallback").
func fallbackMessage(rec record.EventRecord) string {
	if len(rec.EventData) == 0 {
		return ""
	}
	out := ""
	for i, d := range rec.EventData {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%s", d.Name, d.Value)
	}
	return out
}

// ChannelSource runs the shared pipeline against a live channel.
type ChannelSource struct{}

func (ChannelSource) Run(req Request, cancelled *atomic.Bool, out chan<- Message) {
	runPipeline(req.Channel, &channelSupplier{}, req, cancelled, out)
}

// FileSource runs the shared pipeline against a .evtx file.
type FileSource struct{}

func (FileSource) Run(req Request, cancelled *atomic.Bool, out chan<- Message) {
	runPipeline(req.FilePath, &fileSupplier{}, req, cancelled, out)
}
