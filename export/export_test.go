package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []record.EventRecord {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []record.EventRecord{
		{
			Channel: "Application", EventID: 1000, Level: record.LevelError, LevelName: "Error",
			ProviderName: "svc", Timestamp: ts, Computer: "host1",
			Message: "line one\nline two, with \"quotes\"",
		},
	}
}

func TestWriteCSVHeaderMatchesSpec(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\n")
	assert.Equal(t, "Timestamp,Level,EventID,Provider,Computer,Channel,Message", strings.TrimRight(lines[0], "\r"))
}

func TestWriteCSVFlattensLineBreaksAndEscapesQuotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))
	out := buf.String()
	assert.NotContains(t, out, "line one\nline two")
	assert.Contains(t, out, `""quotes""`)
}

func TestWriteJSONProducesValidPrettyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRecords()))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Application", decoded[0]["channel"])
	assert.Equal(t, float64(1000), decoded[0]["event_id"])
	assert.Contains(t, buf.String(), "\n  ")
}

func TestWriteJSONEmptySliceProducesEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
