// Package export writes EventRecord slices to CSV and JSON, per
// spec.md §6. These writers are fed records by the coordinator but
// have no dependency on it.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/corvidsec/eventsleuth/record"
)

var csvHeader = []string{"Timestamp", "Level", "EventID", "Provider", "Computer", "Channel", "Message"}

// WriteCSV writes records to w with the header row spec.md §6
// requires. Line breaks in Message are replaced with single spaces;
// quoting/escaping of commas and embedded quotes is handled by
// encoding/csv, which already doubles quotes and quotes fields
// containing commas or quotes, matching the spec's rule.
func WriteCSV(w io.Writer, records []record.EventRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return &record.ExportError{Context: "write csv header", Cause: err}
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.LevelName,
			strconv.FormatUint(uint64(r.EventID), 10),
			r.ProviderName,
			r.Computer,
			r.Channel,
			flattenMessage(r.Message),
		}
		if err := writer.Write(row); err != nil {
			return &record.ExportError{Context: "write csv row", Cause: err}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return &record.ExportError{Context: "flush csv", Cause: err}
	}
	return nil
}

func flattenMessage(msg string) string {
	out := make([]rune, 0, len(msg))
	var prev rune
	for _, r := range msg {
		switch r {
		case '\n':
			if prev != '\r' {
				out = append(out, ' ')
			}
		case '\r':
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
		prev = r
	}
	return string(out)
}
