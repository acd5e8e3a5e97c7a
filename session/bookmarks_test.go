package session

import (
	"testing"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/stretchr/testify/assert"
)

func TestToggleBookmarkIgnoresOutOfRangeIndices(t *testing.T) {
	d := newSessionData()
	d.allEvents = make([]record.EventRecord, 3)

	d.toggleBookmark(-1)
	d.toggleBookmark(3)
	assert.Empty(t, d.bookmarkedIndices())
}

func TestToggleBookmarkIsAFlip(t *testing.T) {
	d := newSessionData()
	d.allEvents = make([]record.EventRecord, 3)

	d.toggleBookmark(1)
	assert.Equal(t, []int{1}, d.bookmarkedIndices())
	d.toggleBookmark(1)
	assert.Empty(t, d.bookmarkedIndices())
}

func TestBookmarkedIndicesDropsIndicesInvalidatedByReload(t *testing.T) {
	d := newSessionData()
	d.allEvents = make([]record.EventRecord, 3)
	d.toggleBookmark(2)
	assert.Len(t, d.bookmarkedIndices(), 1)

	d.clearForReload()
	assert.Empty(t, d.bookmarkedIndices())
}
