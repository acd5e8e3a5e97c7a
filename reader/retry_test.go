//go:build windows

package reader

import (
	"errors"
	"testing"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/corvidsec/eventsleuth/winapi"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTerminalMapsXMLParseErrorToParse(t *testing.T) {
	err := &record.XMLParseError{Context: "bad xml", Cause: errors.New("boom")}
	assert.Equal(t, KindParse, classifyTerminal(err))
}

func TestClassifyTerminalMapsAccessDenied(t *testing.T) {
	assert.Equal(t, KindAccessDenied, classifyTerminal(winapi.ErrorAccessDenied))
}

func TestClassifyTerminalMapsUnknownErrno(t *testing.T) {
	assert.Equal(t, KindUnknown, classifyTerminal(winapi.ErrorInvalidOperation))
}

func TestWithRetryReturnsPermanentErrorsWithoutRetrying(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		return winapi.ErrorAccessDenied
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesTransientErrorsThenSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(func() error {
		calls++
		if calls < 2 {
			return winapi.ErrorTimeout
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
