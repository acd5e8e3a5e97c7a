package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelNameIsFunctionOfLevel(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelLogAlways, "LogAlways"},
		{LevelCritical, "Critical"},
		{LevelError, "Error"},
		{LevelWarning, "Warning"},
		{LevelInfo, "Informational"},
		{LevelVerbose, "Verbose"},
		{Level(99), "LogAlways"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LevelName(c.level))
	}
}

func TestWindowsAPIErrorUnwrap(t *testing.T) {
	cause := &IOError{Context: "boom"}
	err := &WindowsAPIError{HRESULT: 5, Context: "EvtNext", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "0x5")
}
