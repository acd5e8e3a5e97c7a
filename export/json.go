package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// jsonEventData and jsonRecord fix the field order spec.md §3/§6
// require; EventRecord's own field order already matches, but a
// dedicated shape keeps export independent of any future reordering of
// the internal struct, and lets RawXML be renamed without touching the
// wire contract.
type jsonEventData struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type jsonRecord struct {
	Channel      string           `json:"channel"`
	EventID      uint32           `json:"event_id"`
	Level        uint8            `json:"level"`
	LevelName    string           `json:"level_name"`
	ProviderName string           `json:"provider_name"`
	Timestamp    time.Time        `json:"timestamp"`
	Computer     string           `json:"computer"`
	Message      string           `json:"message"`
	ProcessID    uint32           `json:"process_id"`
	ThreadID     uint32           `json:"thread_id"`
	Task         uint16           `json:"task"`
	Opcode       uint8            `json:"opcode"`
	Keywords     uint64           `json:"keywords"`
	ActivityID   string           `json:"activity_id,omitempty"`
	UserSID      string           `json:"user_sid,omitempty"`
	EventData    []jsonEventData  `json:"event_data"`
	RawXML       string           `json:"raw_xml"`
}

// WriteJSON writes records as a pretty-printed JSON array, field order
// matching spec.md §3.
func WriteJSON(w io.Writer, records []record.EventRecord) error {
	out := make([]jsonRecord, len(records))
	for i, r := range records {
		data := make([]jsonEventData, len(r.EventData))
		for j, d := range r.EventData {
			data[j] = jsonEventData{Name: d.Name, Value: d.Value}
		}
		out[i] = jsonRecord{
			Channel:      r.Channel,
			EventID:      r.EventID,
			Level:        uint8(r.Level),
			LevelName:    r.LevelName,
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp.UTC(),
			Computer:     r.Computer,
			Message:      r.Message,
			ProcessID:    r.ProcessID,
			ThreadID:     r.ThreadID,
			Task:         r.Task,
			Opcode:       r.Opcode,
			Keywords:     r.Keywords,
			ActivityID:   r.ActivityID,
			UserSID:      r.UserSID,
			EventData:    data,
			RawXML:       r.RawXML,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return &record.ExportError{Context: "encode json", Cause: err}
	}
	return nil
}
