package reader

import (
	"fmt"
	"time"
)

const iso8601 = "2006-01-02T15:04:05.000Z"

// BuildXPath derives the XPath predicate used to open a channel or file
// query, per spec.md §4.5: only the filter's time bounds are pushed
// into the query; every other predicate stays in-memory so the XPath
// remains trivial. Neither bound set means "select everything".
func BuildXPath(from, to *time.Time) string {
	if from == nil && to == nil {
		return "*"
	}
	var clause string
	switch {
	case from != nil && to != nil:
		clause = fmt.Sprintf("@SystemTime &gt;= '%s' and @SystemTime &lt;= '%s'", from.UTC().Format(iso8601), to.UTC().Format(iso8601))
	case from != nil:
		clause = fmt.Sprintf("@SystemTime &gt;= '%s'", from.UTC().Format(iso8601))
	default:
		clause = fmt.Sprintf("@SystemTime &lt;= '%s'", to.UTC().Format(iso8601))
	}
	return fmt.Sprintf("*[System[TimeCreated[%s]]]", clause)
}

// BuildLiveTailXPath derives the XPath for a live-tail re-arm: an
// inclusive lower bound against the maximum timestamp observed so far
// on this channel. The bound is inclusive, not strict, so an event
// that shares a timestamp with the prior boundary is returned again
// rather than lost; TailSource.dedupeAndAdvance filters the repeat out
// by RecordID.
func BuildLiveTailXPath(since time.Time) string {
	clause := fmt.Sprintf("@SystemTime &gt;= '%s'", since.UTC().Format(iso8601))
	return fmt.Sprintf("*[System[TimeCreated[%s]]]", clause)
}
