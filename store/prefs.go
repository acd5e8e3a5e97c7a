// Package store persists consumer-facing preferences (spec.md §6,
// "Persisted state layout"). Presets are persisted separately by
// filter.PresetStore; this package only owns pref.*.
package store

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/corvidsec/eventsleuth/record"
)

// Preferences mirrors the pref.* keys from spec.md §6.
type Preferences struct {
	Theme           string   `toml:"theme"`
	SelectedSources []string `toml:"selected_sources"`
	MaxEvents       int      `toml:"max_events"`
	Columns         []string `toml:"columns"`
}

// DefaultPreferences returns the preference set a fresh install starts
// with.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:     "dark",
		MaxEvents: 10_000,
		Columns:   []string{"Timestamp", "Level", "EventID", "Provider", "Computer", "Channel", "Message"},
	}
}

// PreferenceStore persists and retrieves Preferences. Implementations
// must clamp MaxEvents to [record.MinMaxEvents, record.MaxMaxEvents] on
// Load so a hand-edited or stale file can never push the reader engine
// outside its configured cap.
type PreferenceStore interface {
	Load() (Preferences, error)
	Save(Preferences) error
}

// FileStore is the default TOML-backed PreferenceStore, matching the
// teacher's own configuration file format (config.go's
// BurntSushi/toml-based telegraf.conf).
type FileStore struct {
	Path string
}

func (f FileStore) Load() (Preferences, error) {
	if _, err := os.Stat(f.Path); os.IsNotExist(err) {
		return DefaultPreferences(), nil
	}

	var prefs Preferences
	if _, err := toml.DecodeFile(f.Path, &prefs); err != nil {
		return Preferences{}, &record.IOError{Context: "decode preferences " + f.Path, Cause: err}
	}
	prefs.MaxEvents = clampMaxEvents(prefs.MaxEvents)
	return prefs, nil
}

func (f FileStore) Save(prefs Preferences) error {
	prefs.MaxEvents = clampMaxEvents(prefs.MaxEvents)

	file, err := os.Create(f.Path)
	if err != nil {
		return &record.IOError{Context: "create preferences file " + f.Path, Cause: err}
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(prefs); err != nil {
		return &record.IOError{Context: "encode preferences " + f.Path, Cause: err}
	}
	return nil
}

func clampMaxEvents(v int) int {
	if v < record.MinMaxEvents {
		return record.MinMaxEvents
	}
	if v > record.MaxMaxEvents {
		return record.MaxMaxEvents
	}
	return v
}
