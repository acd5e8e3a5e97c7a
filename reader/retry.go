//go:build windows

package reader

import (
	"github.com/cenkalti/backoff"
	"github.com/corvidsec/eventsleuth/record"
	"github.com/corvidsec/eventsleuth/winapi"
)

// withRetry runs op, retrying it with exponential backoff when it
// fails with a transient Win32 error (spec.md §4.5: up to
// record.MaxRetryAttempts retries, starting at record.RetryBaseDelay,
// doubling each attempt). Non-transient errors return immediately.
func withRetry(op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = record.RetryBaseDelay
	b.Multiplier = 2
	bounded := backoff.WithMaxRetries(b, record.MaxRetryAttempts)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if winapi.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, bounded)
}

// classifyTerminal maps a non-transient error surfaced after retries
// are exhausted into the coarse ErrorKind the coordinator sees.
func classifyTerminal(err error) ErrorKind {
	if _, ok := err.(*record.XMLParseError); ok {
		return KindParse
	}
	switch winapi.Classify(unwrapErrno(err)) {
	case "AccessDenied":
		return KindAccessDenied
	case "NotFound":
		return KindNotFound
	case "Transient":
		return KindTransient
	default:
		return KindUnknown
	}
}
