package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StampLayout is the second-granularity stamp embedded in session filenames
const StampLayout = "20060102_150405"

const (
	filePrefix = "session_"
	fileExt    = ".json"
)

// AllowedFields are the only entry fields that reach disk
var AllowedFields = []string{"reading", "spread_type", "timestamp"}

// ErrStorage wraps every file-system failure of the store
var ErrStorage = errors.New("storage unavailable")

// Receipt identifies an archived session
type Receipt struct {
	Filename  string `json:"filename"`
	Timestamp string `json:"timestamp"`
}

// Summary describes one archived session in the history
type Summary struct {
	Filename     string `json:"filename"`
	Timestamp    string `json:"timestamp"`
	ReadingCount int    `json:"reading_count"`
}

// Listing is the archive history, newest first
type Listing struct {
	Sessions []Summary `json:"sessions"`
	Skipped  []string  `json:"skipped,omitempty"` // unreadable or corrupt files
}

type document struct {
	Timestamp string                       `json:"timestamp"`
	Readings  []map[string]json.RawMessage `json:"readings"`
}

// Store keeps one JSON file per archived session in a flat directory.
// Writes are serialized so two sessions never share a filename.
type Store struct {
	dir string
	log *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

func New(dir string, log *zap.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.Named("archive"),
		now: time.Now,
	}
}

// Dir returns the session directory
func (s *Store) Dir() string {
	return s.dir
}

// Archive writes a session and returns where it went
func (s *Store) Archive(entries []map[string]json.RawMessage) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Receipt{}, storageError("creating session directory", err)
	}

	now := s.now()
	stamp := now.Format(StampLayout)

	name, err := s.freeName(stamp)
	if err != nil {
		return Receipt{}, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	doc := document{
		Timestamp: now.Format(time.RFC3339Nano),
		Readings:  Sanitize(entries),
	}
	if err := enc.Encode(doc); err != nil {
		return Receipt{}, fmt.Errorf("error encoding session: %w", err)
	}

	if err := writeAtomic(filepath.Join(s.dir, name), buf.Bytes()); err != nil {
		return Receipt{}, storageError("writing "+name, err)
	}

	s.log.Info("session archived", zap.String("filename", name), zap.Int("readings", len(doc.Readings)))
	return Receipt{Filename: name, Timestamp: stamp}, nil
}

// List summarizes every archived session, newest filename first
func (s *Store) List() (Listing, error) {
	listing := Listing{Sessions: []Summary{}}

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return listing, nil
	}
	if err != nil {
		return Listing{}, storageError("reading session directory", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && isSessionFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	for _, name := range names {
		summary, err := s.summarize(name)
		if err != nil {
			s.log.Warn("skipping unreadable session", zap.String("filename", name), zap.Error(err))
			listing.Skipped = append(listing.Skipped, name)
			continue
		}
		listing.Sessions = append(listing.Sessions, summary)
	}

	return listing, nil
}

func (s *Store) summarize(name string) (Summary, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Summary{}, err
	}

	var doc struct {
		Timestamp string            `json:"timestamp"`
		Readings  []json.RawMessage `json:"readings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Summary{}, err
	}

	return Summary{
		Filename:     name,
		Timestamp:    doc.Timestamp,
		ReadingCount: len(doc.Readings),
	}, nil
}

// freeName picks session_<stamp>.json, adding _2, _3, ... when that name is taken.
// Suffixed names still sort after the bare name in descending order.
func (s *Store) freeName(stamp string) (string, error) {
	for n := 1; ; n++ {
		name := filePrefix + stamp + fileExt
		if n > 1 {
			name = fmt.Sprintf("%s%s_%d%s", filePrefix, stamp, n, fileExt)
		}

		_, err := os.Stat(filepath.Join(s.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", storageError("checking "+name, err)
		}
	}
}

// Sanitize keeps only the allowed fields of every entry
func Sanitize(entries []map[string]json.RawMessage) []map[string]json.RawMessage {
	out := make([]map[string]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		clean := make(map[string]json.RawMessage, len(AllowedFields))
		for _, field := range AllowedFields {
			if v, ok := entry[field]; ok {
				clean[field] = v
			}
		}
		out = append(out, clean)
	}
	return out
}

func isSessionFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt)
}

// writeAtomic leaves either the complete file or nothing at path
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func storageError(action string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, action, err)
}
