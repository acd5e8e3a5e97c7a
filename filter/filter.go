// Package filter compiles textual filter specs, matches EventRecords
// against them, and persists named presets.
package filter

import (
	"strings"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// State is a compiled set of predicates, the in-memory counterpart of
// a FilterPreset. The zero value matches every record.
type State struct {
	EventIDSpec       EventIDPredicate
	Levels            map[record.Level]struct{}
	ProviderSubstring string
	TextQuery         string
	TimeFrom          *time.Time
	TimeTo            *time.Time
	CaseSensitive     bool
}

// Matches implements the five-step short-circuit order from spec.md
// §4.4: level membership, event-id predicate, time range, provider
// substring, text query. Each step is evaluated independently so the
// result is the same regardless of step ordering (spec.md §8, match
// short-circuit equivalence); the ordering here only affects how
// quickly a non-match exits.
func (s State) Matches(r record.EventRecord) bool {
	if len(s.Levels) > 0 {
		if _, ok := s.Levels[r.Level]; !ok {
			return false
		}
	}

	if !s.EventIDSpec.Match(r.EventID) {
		return false
	}

	if s.TimeFrom != nil && r.Timestamp.Before(*s.TimeFrom) {
		return false
	}
	if s.TimeTo != nil && r.Timestamp.After(*s.TimeTo) {
		return false
	}

	if s.ProviderSubstring != "" && !containsFold(r.ProviderName, s.ProviderSubstring, true) {
		return false
	}

	if s.TextQuery != "" && !s.matchesTextQuery(r) {
		return false
	}

	return true
}

func (s State) matchesTextQuery(r record.EventRecord) bool {
	fold := !s.CaseSensitive
	if containsFold(r.Message, s.TextQuery, fold) ||
		containsFold(r.ProviderName, s.TextQuery, fold) ||
		containsFold(r.Channel, s.TextQuery, fold) ||
		containsFold(r.RawXML, s.TextQuery, fold) {
		return true
	}
	for _, d := range r.EventData {
		if containsFold(d.Value, s.TextQuery, fold) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string, fold bool) bool {
	if fold {
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	return strings.Contains(haystack, needle)
}
