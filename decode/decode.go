// Package decode turns one rendered Windows Event XML blob into a
// record.EventRecord. It never touches the OS; the reader is
// responsible for obtaining the XML and for filling in Message
// (formatted message text requires a publisher metadata handle, which
// lives in the reader/winapi layers).
package decode

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

// eventXML mirrors the subset of the Windows Event XML schema the
// teacher's win_eventlog.go Event struct captures, widened to every
// field spec.md §4.3 requires.
type eventXML struct {
	System struct {
		Provider struct {
			Name string `xml:"Name,attr"`
		} `xml:"Provider"`
		EventID       *uint32 `xml:"EventID"`
		Level         *uint8  `xml:"Level"`
		Task          *uint16 `xml:"Task"`
		Opcode        *uint8  `xml:"Opcode"`
		Keywords      string  `xml:"Keywords"`
		TimeCreated   struct {
			SystemTime string `xml:"SystemTime,attr"`
		} `xml:"TimeCreated"`
		EventRecordID *uint64 `xml:"EventRecordID"`
		Correlation   struct {
			ActivityID string `xml:"ActivityID,attr"`
		} `xml:"Correlation"`
		Execution struct {
			ProcessID uint32 `xml:"ProcessID,attr"`
			ThreadID  uint32 `xml:"ThreadID,attr"`
		} `xml:"Execution"`
		Channel  string `xml:"Channel"`
		Computer string `xml:"Computer"`
		Security struct {
			UserID string `xml:"UserID,attr"`
		} `xml:"Security"`
	} `xml:"System"`
	EventData *dataBlock `xml:"EventData"`
	UserData  *userData  `xml:"UserData"`
}

type dataElement struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

type dataBlock struct {
	Data []dataElement `xml:"Data"`
}

// userData has no fixed schema: it wraps one provider-defined element
// whose children are the name/value pairs (spec.md §4.3: "UserData/*/*").
// encoding/xml can't describe that declaratively, so we decode it by
// hand the way the AWS CloudWatch agent's UserData.UnmarshalXML does,
// generalized to also keep the field names.
type userData struct {
	Pairs []dataElement
}

func (u *userData) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	// Skip down into the single wrapper element (e.g. <EventXML>).
	var wrapper *xml.StartElement
	for wrapper == nil {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		if se, ok := tok.(xml.StartElement); ok {
			wrapper = &se
		}
	}

	depth := 1
	var current *dataElement
	var chardata strings.Builder
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if current == nil {
				current = &dataElement{Name: t.Name.Local}
				chardata.Reset()
			}
		case xml.CharData:
			if current != nil {
				chardata.Write(t)
			}
		case xml.EndElement:
			depth--
			if current != nil && depth == 1 {
				current.Value = strings.TrimSpace(chardata.String())
				u.Pairs = append(u.Pairs, *current)
				current = nil
			}
		}
	}
	// Consume the rest of <UserData>, including its end element;
	// encoding/xml rejects an UnmarshalXML that stops short of it.
	return d.Skip()
}

// Decode parses one rendered Event XML document into a canonical
// record.EventRecord. sourceChannel is used when the System/Channel
// element is absent (some forwarded events omit it).
func Decode(xmlBlob string, sourceChannel string) (record.EventRecord, error) {
	var parsed eventXML
	if err := xml.Unmarshal([]byte(xmlBlob), &parsed); err != nil {
		return record.EventRecord{}, &record.XMLParseError{Context: "unmarshal event xml", Cause: err}
	}

	rec := record.EventRecord{
		Channel:      firstNonEmpty(parsed.System.Channel, sourceChannel),
		ProviderName: parsed.System.Provider.Name,
		Computer:     parsed.System.Computer,
		ProcessID:    parsed.System.Execution.ProcessID,
		ThreadID:     parsed.System.Execution.ThreadID,
		ActivityID:   parsed.System.Correlation.ActivityID,
		UserSID:      parsed.System.Security.UserID,
		RawXML:       xmlBlob,
	}

	if parsed.System.EventID != nil {
		rec.EventID = *parsed.System.EventID
	}
	rec.Level = clampLevel(parsed.System.Level)
	rec.LevelName = record.LevelName(rec.Level)

	if parsed.System.Task != nil {
		rec.Task = *parsed.System.Task
	}
	if parsed.System.Opcode != nil {
		rec.Opcode = *parsed.System.Opcode
	}
	if parsed.System.EventRecordID != nil {
		rec.RecordID = *parsed.System.EventRecordID
	}
	rec.Keywords = parseKeywords(parsed.System.Keywords)

	ts, ok := parseSystemTime(parsed.System.TimeCreated.SystemTime)
	if !ok {
		ts = time.Now().UTC()
	}
	rec.Timestamp = ts

	rec.EventData = buildEventData(parsed.EventData, parsed.UserData)

	return rec, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// clampLevel maps a raw *uint8 (absent or out of range) to a valid
// record.Level, per spec.md §4.3 "unknowns → 0".
func clampLevel(raw *uint8) record.Level {
	if raw == nil || *raw > uint8(record.LevelVerbose) {
		return record.LevelLogAlways
	}
	return record.Level(*raw)
}

func parseKeywords(hex string) uint64 {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	if hex == "" {
		return 0
	}
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseSystemTime parses the ISO 8601 fractional-second timestamp
// Windows emits for TimeCreated@SystemTime, normalizing to UTC.
func parseSystemTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999Z",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func buildEventData(ed *dataBlock, ud *userData) []record.EventDataEntry {
	var out []record.EventDataEntry
	if ed != nil {
		for i, d := range ed.Data {
			name := d.Name
			if name == "" {
				name = fmt.Sprintf("Data[%d]", i)
			}
			out = append(out, record.EventDataEntry{Name: name, Value: d.Value})
		}
	}
	if ud != nil {
		for _, p := range ud.Pairs {
			out = append(out, record.EventDataEntry{Name: p.Name, Value: p.Value})
		}
	}
	return out
}
