//go:build windows

// Command eventsleuthctl is a thin CLI over the ingestion and query
// core, standing in for the out-of-scope UI (spec.md §1): enumerate
// sources, run a session to completion, print a summary, and export
// the result. It is the one place in this module that wires every
// package together end to end.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/corvidsec/eventsleuth/enum"
	"github.com/corvidsec/eventsleuth/export"
	"github.com/corvidsec/eventsleuth/filter"
	"github.com/corvidsec/eventsleuth/logging"
	"github.com/corvidsec/eventsleuth/reader"
	"github.com/corvidsec/eventsleuth/record"
	"github.com/corvidsec/eventsleuth/session"
	"github.com/corvidsec/eventsleuth/singleinstance"
	"github.com/corvidsec/eventsleuth/store"
	"github.com/sirupsen/logrus"
)

// configDir returns %LOCALAPPDATA%/EventSleuth, the root both the
// preference file and the preset directory live under (spec.md §6).
func configDir() string {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		base = "."
	}
	return filepath.Join(base, "EventSleuth")
}

func prefsPath() string { return filepath.Join(configDir(), "prefs.toml") }
func presetsDir() string { return filepath.Join(configDir(), "presets") }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger, closeLog, err := logging.Setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: logging setup degraded:", err)
	}
	defer closeLog()

	guard, ok, err := singleinstance.Acquire()
	if err != nil {
		logger.WithError(err).Error("failed to acquire single-instance mutex")
		return 1
	}
	if !ok {
		logger.Info("another instance is already running; exiting")
		return 0
	}
	defer guard.Release()

	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch args[0] {
	case "enumerate":
		return cmdEnumerate()
	case "session":
		return cmdSession(logger, args[1:])
	case "file":
		return cmdFileSession(logger, args[1:])
	default:
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: eventsleuthctl <command> [flags]

commands:
  enumerate              list every event source on this host
  session [flags]        pull events from selected channels and export them
  file [flags]           pull events from a .evtx file and export them`)
}

func cmdEnumerate() int {
	channels, err := enum.Windows{}.Enumerate()
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: enumerate:", err)
		return 1
	}
	for _, c := range channels {
		fmt.Println(c)
	}
	return 0
}

func cmdSession(logger *logrus.Logger, args []string) int {
	prefStore := store.FileStore{Path: prefsPath()}
	prefs, err := prefStore.Load()
	if err != nil {
		logger.WithError(err).Warn("loading preferences; falling back to defaults")
		prefs = store.DefaultPreferences()
	}

	fs := flag.NewFlagSet("session", flag.ExitOnError)
	channelsFlag := fs.String("channels", strings.Join(prefs.SelectedSources, ","), "comma-separated channel names or glob patterns")
	maxEvents := fs.Uint64("max-events", uint64(prefs.MaxEvents), "max events per channel")
	idSpec := fs.String("ids", "", "event-id filter spec, e.g. 100-200,!150")
	levelsFlag := fs.String("levels", "", "comma-separated level numbers, e.g. 2,3")
	providerSub := fs.String("provider", "", "provider substring filter")
	query := fs.String("query", "", "free-text search across message/provider/channel/event-data/xml")
	preset := fs.String("preset", "", "load a saved named filter preset instead of -ids/-levels/-provider/-query")
	savePreset := fs.String("save-preset", "", "save the resolved filter under this name before running")
	outPath := fs.String("out", "", "export path; .csv or .json chosen by extension")
	tail := fs.Duration("tail", 0, "enable live-tail with the given interval after the initial load, 0 disables")
	_ = fs.Parse(args)

	if *channelsFlag == "" {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: -channels is required")
		return 2
	}

	available, err := enum.Windows{}.Enumerate()
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: enumerate:", err)
		return 1
	}
	requested := splitCSV(*channelsFlag)
	channels := session.ExpandChannelPatterns(requested, available)
	if len(channels) == 0 {
		// No pattern matched; treat the input as literal channel names
		// so a single exact-name request still works.
		channels = requested
	}

	presetStore := filter.YAMLPresetStore{Dir: presetsDir()}
	var f filter.State
	if *preset != "" {
		p, err := presetStore.Load(*preset)
		if err != nil {
			fmt.Fprintln(os.Stderr, "eventsleuthctl: load preset:", err)
			return 2
		}
		f = p.State
	} else {
		f, err = buildFilter(*idSpec, *levelsFlag, *providerSub, *query)
		if err != nil {
			fmt.Fprintln(os.Stderr, "eventsleuthctl: filter:", err)
			return 2
		}
	}
	if *savePreset != "" {
		if err := presetStore.Save(filter.Preset{Name: *savePreset, State: f}); err != nil {
			logger.WithError(err).Warn("saving preset")
		}
	}

	coord := session.NewCoordinator(reader.ChannelSource{}, reader.FileSource{}, 0)
	handle := coord.StartSession(channels, f, *maxEvents, false)

	snap := awaitReady(coord, handle)
	printSnapshot(snap)

	prefs.SelectedSources = channels
	prefs.MaxEvents = int(*maxEvents)
	if err := prefStore.Save(prefs); err != nil {
		logger.WithError(err).Warn("saving preferences")
	}

	if *tail > 0 {
		if err := coord.EnableTail(handle, *tail); err != nil {
			logger.WithError(err).Error("enable tail")
		} else {
			fmt.Println("live-tailing; press Ctrl+C to stop")
			for {
				time.Sleep(*tail)
				snap, _ = coord.Snapshot(handle)
				printSnapshot(snap)
			}
		}
	}

	if *outPath != "" {
		return exportSnapshot(coord, handle, snap, *outPath)
	}
	return 0
}

func cmdFileSession(logger *logrus.Logger, args []string) int {
	fs := flag.NewFlagSet("file", flag.ExitOnError)
	path := fs.String("path", "", ".evtx file path")
	maxEvents := fs.Uint64("max-events", 1_000_000, "max events")
	idSpec := fs.String("ids", "", "event-id filter spec")
	outPath := fs.String("out", "", "export path; .csv or .json chosen by extension")
	_ = fs.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: -path is required")
		return 2
	}

	f, err := buildFilter(*idSpec, "", "", "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: filter:", err)
		return 2
	}

	coord := session.NewCoordinator(reader.ChannelSource{}, reader.FileSource{}, 0)
	handle := coord.StartFileSession(*path, f, *maxEvents)
	snap := awaitReady(coord, handle)
	printSnapshot(snap)

	if *outPath != "" {
		return exportSnapshot(coord, handle, snap, *outPath)
	}
	return 0
}

func awaitReady(coord *session.Coordinator, handle session.Handle) session.Snapshot {
	for {
		snap, err := coord.Snapshot(handle)
		if err != nil {
			return snap
		}
		if snap.Phase == session.PhaseReady {
			return snap
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func printSnapshot(snap session.Snapshot) {
	fmt.Printf("phase=%s total=%d filtered=%d errors=%d\n", snap.Phase, snap.Total, snap.Filtered, len(snap.Errors))
	for _, e := range snap.Errors {
		fmt.Printf("  error: channel=%s kind=%s message=%s\n", e.Channel, e.Kind, e.Message)
	}
	if snap.ElevationBanner {
		fmt.Println("  ** run as Administrator to read the Security channel **")
	}
}

func exportSnapshot(coord *session.Coordinator, handle session.Handle, snap session.Snapshot, path string) int {
	records := make([]record.EventRecord, 0, len(snap.FilteredIndex))
	for _, idx := range snap.FilteredIndex {
		r, err := coord.Event(handle, idx)
		if err != nil {
			continue
		}
		records = append(records, r)
	}

	file, err := os.Create(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: export:", err)
		return 1
	}
	defer file.Close()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		err = export.WriteJSON(file, records)
	} else {
		err = export.WriteCSV(file, records)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "eventsleuthctl: export:", err)
		return 1
	}
	return 0
}

func buildFilter(idSpec, levels, provider, query string) (filter.State, error) {
	pred, err := filter.CompileEventIDSpec(idSpec)
	if err != nil {
		return filter.State{}, err
	}
	state := filter.State{
		EventIDSpec:       pred,
		ProviderSubstring: provider,
		TextQuery:         query,
	}
	if levels != "" {
		state.Levels = make(map[record.Level]struct{})
		for _, tok := range splitCSV(levels) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return filter.State{}, fmt.Errorf("invalid level %q: %w", tok, err)
			}
			state.Levels[record.Level(n)] = struct{}{}
		}
	}
	return state, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
