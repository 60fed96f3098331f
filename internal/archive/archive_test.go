package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, clock time.Time) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "sessions"), zap.NewNop())
	s.now = func() time.Time { return clock }
	return s
}

func entries(t *testing.T, raw ...string) []map[string]json.RawMessage {
	t.Helper()
	out := make([]map[string]json.RawMessage, 0, len(raw))
	for _, r := range raw {
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(r), &m))
		out = append(out, m)
	}
	return out
}

func TestArchive(t *testing.T) {
	clock := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	s := newTestStore(t, clock)

	receipt, err := s.Archive(entries(t,
		`{"reading": [{"label": "Past – The Fool"}], "spread_type": "Three Card (Past – Present – Future)", "evil_field": 1}`,
		`{"timestamp": "2026-03-14T09:20:00Z", "notes": "<script>"}`,
	))
	require.NoError(t, err)

	assert.Equal(t, "session_20260314_092653.json", receipt.Filename)
	assert.Equal(t, "20260314_092653", receipt.Timestamp)

	data, err := os.ReadFile(filepath.Join(s.Dir(), receipt.Filename))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2026-03-14T09:26:53Z", doc["timestamp"])

	readings := doc["readings"].([]any)
	require.Len(t, readings, 2)

	first := readings[0].(map[string]any)
	assert.NotContains(t, first, "evil_field")
	assert.Contains(t, first, "reading")
	assert.Equal(t, "Three Card (Past – Present – Future)", first["spread_type"])

	second := readings[1].(map[string]any)
	assert.Equal(t, map[string]any{"timestamp": "2026-03-14T09:20:00Z"}, second)

	// en-dashes are written as-is
	assert.Contains(t, string(data), "Past – The Fool")
}

func TestArchive_SameSecond(t *testing.T) {
	s := newTestStore(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

	session := entries(t, `{"spread_type": "Counting Crow (7 Cards)"}`)

	var wg sync.WaitGroup
	names := make([]string, 3)
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.Archive(session)
			assert.NoError(t, err)
			names[i] = r.Filename
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{
		"session_20260314_092653.json",
		"session_20260314_092653_2.json",
		"session_20260314_092653_3.json",
	}, names)

	listing, err := s.List()
	require.NoError(t, err)
	require.Len(t, listing.Sessions, 3)
	assert.Equal(t, "session_20260314_092653_3.json", listing.Sessions[0].Filename)
	assert.Equal(t, "session_20260314_092653.json", listing.Sessions[2].Filename)
}

func TestArchive_NoTempFilesLeft(t *testing.T) {
	s := newTestStore(t, time.Now())

	_, err := s.Archive(entries(t, `{"reading": []}`))
	require.NoError(t, err)

	files, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, isSessionFile(files[0].Name()))
}

func TestArchive_StorageUnavailable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "sessions")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	s := New(blocker, zap.NewNop())
	_, err := s.Archive(entries(t, `{"reading": []}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)

	_, err = s.List()
	assert.ErrorIs(t, err, ErrStorage)
}

func TestList_Empty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"), zap.NewNop())

	listing, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, listing.Sessions)
	assert.Empty(t, listing.Sessions)
	assert.Empty(t, listing.Skipped)
}

func TestList_NewestFirst(t *testing.T) {
	s := newTestStore(t, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	_, err := s.Archive(entries(t, `{"reading": []}`))
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2026, 1, 2, 8, 30, 0, 0, time.UTC) }
	_, err = s.Archive(entries(t, `{"reading": []}`, `{"reading": []}`, `{"junk": true}`))
	require.NoError(t, err)

	listing, err := s.List()
	require.NoError(t, err)
	require.Len(t, listing.Sessions, 2)

	assert.Equal(t, Summary{
		Filename:     "session_20260102_083000.json",
		Timestamp:    "2026-01-02T08:30:00Z",
		ReadingCount: 3,
	}, listing.Sessions[0])
	assert.Equal(t, "session_20260101_120000.json", listing.Sessions[1].Filename)
	assert.Equal(t, 1, listing.Sessions[1].ReadingCount)
}

func TestList_SkipsCorrupt(t *testing.T) {
	s := newTestStore(t, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	_, err := s.Archive(entries(t, `{"reading": []}`))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "session_20260105_000000.json"), []byte(`{"readings": [`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte(`ignored`), 0644))

	listing, err := s.List()
	require.NoError(t, err)
	require.Len(t, listing.Sessions, 1)
	assert.Equal(t, "session_20260101_120000.json", listing.Sessions[0].Filename)
	assert.Equal(t, []string{"session_20260105_000000.json"}, listing.Skipped)
}

func TestSanitize(t *testing.T) {
	out := Sanitize(entries(t, `{"reading": [1], "spread_type": "x", "timestamp": "t", "evil_field": 1}`, `{}`))
	require.Len(t, out, 2)
	assert.Len(t, out[0], 3)
	assert.NotContains(t, out[0], "evil_field")
	assert.Empty(t, out[1])
}
