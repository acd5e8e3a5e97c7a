// Package enum discovers the event channels (sources) registered on the
// host.
package enum

import (
	"sort"

	"github.com/corvidsec/eventsleuth/record"
)

// Enumerator lists the event channels registered on the host. The
// Windows implementation (enumerate_windows.go) wraps
// winapi.EvtOpenChannelEnum/EvtNextChannelPath; tests use a fixed list.
type Enumerator interface {
	Enumerate() ([]string, error)
}

// normalize sorts and de-duplicates a raw channel list, the contract
// spec.md §4.2 requires regardless of which Enumerator produced it.
func normalize(channels []string) []string {
	sort.Strings(channels)
	out := channels[:0]
	var prev string
	for i, c := range channels {
		if i == 0 || c != prev {
			out = append(out, c)
		}
		prev = c
	}
	return out
}

// Static is an in-memory Enumerator for tests and for non-Windows
// development builds of consumers of this module.
type Static struct {
	Channels []string
	Err      error
}

func (s Static) Enumerate() ([]string, error) {
	if s.Err != nil {
		return nil, &record.ChannelEnumError{Context: "static enumerator", Cause: s.Err}
	}
	return normalize(append([]string(nil), s.Channels...)), nil
}
