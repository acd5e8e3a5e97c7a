// Package record defines the canonical parsed event type shared by the
// decoder, filter engine, reader pipeline, and session coordinator.
package record

import "time"

// Level mirrors the Windows Event Log level byte. Values above Verbose
// are clamped to LevelLogAlways by the decoder.
type Level uint8

const (
	LevelLogAlways Level = 0
	LevelCritical  Level = 1
	LevelError     Level = 2
	LevelWarning   Level = 3
	LevelInfo      Level = 4
	LevelVerbose   Level = 5
)

// levelNames is a frozen lookup table; LevelName is a pure function of Level.
var levelNames = [...]string{
	LevelLogAlways: "LogAlways",
	LevelCritical:  "Critical",
	LevelError:     "Error",
	LevelWarning:   "Warning",
	LevelInfo:      "Informational",
	LevelVerbose:   "Verbose",
}

// LevelName returns the display name for l, clamping unknown values to
// LevelLogAlways the same way the decoder does.
func LevelName(l Level) string {
	if int(l) >= len(levelNames) {
		l = LevelLogAlways
	}
	return levelNames[l]
}

// EventDataEntry is one ordered (name, value) pair lifted from EventData
// or UserData.
type EventDataEntry struct {
	Name  string
	Value string
}

// EventRecord is the canonical parsed event handed to the filter engine,
// the session coordinator, and ultimately the consumer.
type EventRecord struct {
	Channel      string
	EventID      uint32
	Level        Level
	LevelName    string
	ProviderName string
	Timestamp    time.Time
	Computer     string
	Message      string
	ProcessID    uint32
	ThreadID     uint32
	Task         uint16
	Opcode       uint8
	Keywords     uint64
	ActivityID   string // optional; empty when absent
	UserSID      string // optional; empty when absent
	EventData    []EventDataEntry
	RawXML       string
	// RecordID is System/EventRecordID, used by live-tail to dedupe
	// events that land on the same boundary timestamp. Supplemented
	// field, see SPEC_FULL.md §3.
	RecordID uint64
}
