package filter

import (
	"os"
	"sort"
	"time"

	"github.com/corvidsec/eventsleuth/record"
	"gopkg.in/yaml.v2"
)

// presetVersion is bumped whenever serializedPreset's shape changes in
// a way that is not purely additive.
const presetVersion = 1

// Preset is a named, serialisable FilterState. The raw event-id spec
// string is carried alongside the compiled predicate so round-trips
// through storage are lossless (spec.md §3).
type Preset struct {
	Name  string
	State State
}

// PresetStore persists named filter presets. Implementations must
// round-trip a Preset's State losslessly modulo event-id spec
// canonicalisation (spec.md §8).
type PresetStore interface {
	Save(p Preset) error
	Load(name string) (Preset, error)
	Delete(name string) error
	List() ([]string, error)
}

// serializedPreset is the forward-compatible on-disk shape: adding a
// field later does not break decoding of presets written by an older
// version, since yaml.v2 ignores unknown keys and missing keys
// zero-value.
type serializedPreset struct {
	Version           int       `yaml:"version"`
	Name              string    `yaml:"name"`
	EventIDSpec       string    `yaml:"event_id_spec"`
	Levels            []uint8   `yaml:"levels"`
	ProviderSubstring string    `yaml:"provider_substring"`
	TextQuery         string    `yaml:"text_query"`
	TimeFrom          *time.Time `yaml:"time_from,omitempty"`
	TimeTo            *time.Time `yaml:"time_to,omitempty"`
	CaseSensitive     bool      `yaml:"case_sensitive"`
}

func toSerialized(p Preset) serializedPreset {
	out := serializedPreset{
		Version:           presetVersion,
		Name:              p.Name,
		EventIDSpec:       p.State.EventIDSpec.Raw(),
		ProviderSubstring: p.State.ProviderSubstring,
		TextQuery:         p.State.TextQuery,
		TimeFrom:          p.State.TimeFrom,
		TimeTo:            p.State.TimeTo,
		CaseSensitive:     p.State.CaseSensitive,
	}
	levels := make([]uint8, 0, len(p.State.Levels))
	for lvl := range p.State.Levels {
		levels = append(levels, uint8(lvl))
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	out.Levels = levels
	return out
}

func fromSerialized(s serializedPreset) (Preset, error) {
	pred, err := CompileEventIDSpec(s.EventIDSpec)
	if err != nil {
		return Preset{}, err
	}
	var levels map[record.Level]struct{}
	if len(s.Levels) > 0 {
		levels = make(map[record.Level]struct{}, len(s.Levels))
		for _, l := range s.Levels {
			levels[record.Level(l)] = struct{}{}
		}
	}
	return Preset{
		Name: s.Name,
		State: State{
			EventIDSpec:       pred,
			Levels:            levels,
			ProviderSubstring: s.ProviderSubstring,
			TextQuery:         s.TextQuery,
			TimeFrom:          s.TimeFrom,
			TimeTo:            s.TimeTo,
			CaseSensitive:     s.CaseSensitive,
		},
	}, nil
}

// YAMLPresetStore persists presets as one YAML document per name under
// a directory, mirroring the teacher's TOML-file-per-config-section
// approach but using YAML for the forward-compatible tagged record
// (store.FileStore keeps pref.* in TOML; presets live only here).
type YAMLPresetStore struct {
	Dir string
}

func (y YAMLPresetStore) path(name string) string {
	return y.Dir + "/" + name + ".yaml"
}

func (y YAMLPresetStore) Save(p Preset) error {
	data, err := yaml.Marshal(toSerialized(p))
	if err != nil {
		return &record.IOError{Context: "marshal preset " + p.Name, Cause: err}
	}
	if err := os.MkdirAll(y.Dir, 0o755); err != nil {
		return &record.IOError{Context: "create preset dir", Cause: err}
	}
	if err := os.WriteFile(y.path(p.Name), data, 0o644); err != nil {
		return &record.IOError{Context: "write preset " + p.Name, Cause: err}
	}
	return nil
}

func (y YAMLPresetStore) Load(name string) (Preset, error) {
	data, err := os.ReadFile(y.path(name))
	if err != nil {
		return Preset{}, &record.IOError{Context: "read preset " + name, Cause: err}
	}
	var s serializedPreset
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Preset{}, &record.IOError{Context: "unmarshal preset " + name, Cause: err}
	}
	return fromSerialized(s)
}

func (y YAMLPresetStore) Delete(name string) error {
	if err := os.Remove(y.path(name)); err != nil && !os.IsNotExist(err) {
		return &record.IOError{Context: "delete preset " + name, Cause: err}
	}
	return nil
}

func (y YAMLPresetStore) List() ([]string, error) {
	entries, err := os.ReadDir(y.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &record.IOError{Context: "list presets", Cause: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const suffix = ".yaml"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			names = append(names, name[:len(name)-len(suffix)])
		}
	}
	sort.Strings(names)
	return names, nil
}
