package session

// ToggleBookmark flips the bookmarked state of the event at index idx
// within all_events. Indices outside the current range are ignored
// rather than panicking, preserving the bookmark-validity invariant
// (spec.md §8: every bookmarked index is valid at all times).
func (d *sessionData) toggleBookmark(idx int) {
	if idx < 0 || idx >= len(d.allEvents) {
		return
	}
	if _, ok := d.bookmarks[idx]; ok {
		delete(d.bookmarks, idx)
		return
	}
	d.bookmarks[idx] = struct{}{}
}

// bookmarkedIndices returns a sorted-by-insertion-irrelevant snapshot
// of currently bookmarked indices, all guaranteed valid.
func (d *sessionData) bookmarkedIndices() []int {
	out := make([]int, 0, len(d.bookmarks))
	for idx := range d.bookmarks {
		if idx >= 0 && idx < len(d.allEvents) {
			out = append(out, idx)
		}
	}
	return out
}
