//go:build !windows

package reader

import "github.com/corvidsec/eventsleuth/record"

// classifyTerminal on non-Windows hosts only distinguishes decode
// failures from everything else; the full Win32-error classification
// in retry.go requires winapi, which is Windows-only. This stub exists
// so the reader package (and reader.Fake-driven tests) build on any
// platform, per spec.md §9's "EventSource trait" testing seam.
func classifyTerminal(err error) ErrorKind {
	if _, ok := err.(*record.XMLParseError); ok {
		return KindParse
	}
	return KindUnknown
}
