package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLoadOnMissingFileReturnsDefaults(t *testing.T) {
	fs := FileStore{Path: filepath.Join(t.TempDir(), "prefs.toml")}
	prefs, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), prefs)
}

func TestFileStoreSaveThenLoadRoundTrips(t *testing.T) {
	fs := FileStore{Path: filepath.Join(t.TempDir(), "prefs.toml")}
	want := Preferences{
		Theme:           "light",
		SelectedSources: []string{"Application", "System"},
		MaxEvents:       50_000,
		Columns:         []string{"Timestamp", "Message"},
	}
	require.NoError(t, fs.Save(want))

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStoreLoadClampsOutOfRangeMaxEvents(t *testing.T) {
	fs := FileStore{Path: filepath.Join(t.TempDir(), "prefs.toml")}
	// Write the file directly: Save clamps too, so going through it
	// would never hand Load an out-of-range value.
	require.NoError(t, os.WriteFile(fs.Path, []byte("max_events = 1\n"), 0o644))

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, 1_000, got.MaxEvents)
}
