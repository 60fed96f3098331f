package cmd

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/corvid/internal/archive"
	"github.com/arcanaland/corvid/internal/deck"
)

func TestWrapText(t *testing.T) {
	lines := wrapText("Sudden upheaval clears away what was built on sand.", 20)
	assert.Equal(t, []string{"Sudden upheaval", "clears away what was", "built on sand."}, lines)

	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 20)
	}

	assert.Equal(t, []string{"one", "", "two"}, wrapText("one\n\ntwo", 20))
	assert.Equal(t, []string{"unbreakableword"}, wrapText("unbreakableword", 5))
}

func TestPrintHistory(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printHistory(&buf, "/tmp/sessions", archive.Listing{Sessions: []archive.Summary{}})
	assert.Equal(t, "No archived sessions in /tmp/sessions\n", buf.String())

	buf.Reset()
	printHistory(&buf, "/tmp/sessions", archive.Listing{
		Sessions: []archive.Summary{
			{Filename: "session_20260102_083000.json", Timestamp: "2026-01-02T08:30:00Z", ReadingCount: 3},
			{Filename: "session_20260101_120000.json", Timestamp: "2026-01-01T12:00:00Z", ReadingCount: 1},
		},
		Skipped: []string{"session_20260105_000000.json"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "3 readings")
	assert.Contains(t, lines[1], "1 reading")
	assert.Contains(t, lines[2], "unreadable")
}

func TestCardsError_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corvid", "cards.yaml")
	_, err := deck.Load(path)
	require.Error(t, err)

	err = cardsError(path, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "copy data/cards.yaml to "+path)
	assert.Contains(t, err.Error(), "CORVID_CARDS")
}

func TestCardsError_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err := deck.Load(path)
	require.Error(t, err)

	err = cardsError(path, err)
	assert.ErrorIs(t, err, deck.ErrEmpty)
	assert.NotContains(t, err.Error(), "copy data/cards.yaml")
}
