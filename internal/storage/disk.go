package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	metaSuffix  = "_meta.json"
	indexSuffix = "_index.json"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// DiskStore persists records as three JSON blobs per document id in one directory:
// a small metadata blob, the units blob and the index-rebuild blob.
// Records older than RetentionPeriod are treated as absent.
type DiskStore struct {
	dir    string
	kind   string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a DiskStore.
type Option func(*DiskStore)

// WithLogger sets the logger used for sweep and save diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *DiskStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *DiskStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDiskStore creates a store rooted at dir for units of the given kind
// (KindChapters or KindPages). The directory is created lazily.
func NewDiskStore(dir, kind string, opts ...Option) *DiskStore {
	s := &DiskStore{
		dir:    dir,
		kind:   kind,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory holding the blobs.
func (s *DiskStore) Dir() string {
	return s.dir
}

// EnsureDir creates the cache directory if needed.
func (s *DiskStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	return nil
}

// GetFromDisk loads the record for id. It returns ErrRecordNotFound when no
// record exists, when the record has expired, or when any blob fails to load;
// in the last two cases all three blobs are deleted.
func (s *DiskStore) GetFromDisk(id string) (*Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.metaPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, s.discard(id, fmt.Errorf("read metadata: %w", err))
	}

	meta, processedAt, err := parseMetadata(data)
	if err != nil {
		return nil, s.discard(id, err)
	}

	if s.expired(processedAt) {
		s.remove(id)
		return nil, ErrRecordNotFound
	}

	var units []Unit
	if err := readJSON(s.unitsPath(id), &units); err != nil {
		return nil, s.discard(id, err)
	}

	var rebuild map[string][]RebuildEntry
	if err := readJSON(s.indexPath(id), &rebuild); err != nil {
		return nil, s.discard(id, err)
	}

	return &Record{
		DocumentID:  id,
		Units:       units,
		RebuildData: rebuild[s.kind],
		ProcessedAt: processedAt,
		FileSize:    meta.FileSize,
		Metadata: RecordMetadata{
			DisplayName:   meta.BookName,
			UnitCount:     meta.ChapterCount,
			ContentLength: meta.ContentLength,
		},
	}, nil
}

// SaveToDisk writes all three blobs for rec. On failure whatever was written
// is removed and the error is returned.
func (s *DiskStore) SaveToDisk(rec *Record) error {
	if err := checkID(rec.DocumentID); err != nil {
		return err
	}

	if err := s.save(rec); err != nil {
		s.logger.Error("Failed to save cache record", "id", rec.DocumentID, "error", err)
		s.remove(rec.DocumentID)
		return err
	}

	s.logger.Info("Cache saved", "id", rec.DocumentID, "kind", s.kind, "units", rec.Metadata.UnitCount)
	return nil
}

func (s *DiskStore) save(rec *Record) error {
	if err := s.EnsureDir(); err != nil {
		return err
	}

	units := rec.Units
	if units == nil {
		units = []Unit{}
	}
	rebuild := rec.RebuildData
	if rebuild == nil {
		rebuild = []RebuildEntry{}
	}

	meta := metadataFile{
		BookID:        rec.DocumentID,
		ProcessedAt:   rec.ProcessedAt.UTC().Format(time.RFC3339Nano),
		FileSize:      rec.FileSize,
		ChapterCount:  rec.Metadata.UnitCount,
		ContentLength: rec.Metadata.ContentLength,
		BookName:      rec.Metadata.DisplayName,
	}

	// Metadata goes last so a partially written record has no entry point.
	if err := writeJSON(s.unitsPath(rec.DocumentID), units); err != nil {
		return fmt.Errorf("write units: %w", err)
	}
	if err := writeJSON(s.indexPath(rec.DocumentID), map[string][]RebuildEntry{s.kind: rebuild}); err != nil {
		return fmt.Errorf("write index data: %w", err)
	}
	if err := writeJSON(s.metaPath(rec.DocumentID), meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// CleanupExpired removes every record that is expired or whose metadata cannot
// be parsed, and returns how many were removed. It never fails: a directory
// error is logged and reported as zero removals.
func (s *DiskStore) CleanupExpired() int {
	if err := s.EnsureDir(); err != nil {
		s.logger.Error("Failed to cleanup expired cache", "dir", s.dir, "error", err)
		return 0
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to cleanup expired cache", "dir", s.dir, "error", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, metaSuffix)

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err == nil {
			var processedAt time.Time
			if _, processedAt, err = parseMetadata(data); err == nil && !s.expired(processedAt) {
				continue
			}
		}
		if err != nil {
			s.logger.Warn("Removing unreadable cache record", "id", id, "error", err)
		}

		s.remove(id)
		removed++
	}

	if removed > 0 {
		s.logger.Info("Cache cleanup removed expired entries", "kind", s.kind, "count", removed)
	}
	return removed
}

// Stats reports the number, total size and oldest processing time of stored records.
func (s *DiskStore) Stats() (*Stats, error) {
	stats := &Stats{Directory: s.dir}

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, metaSuffix)

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		_, processedAt, err := parseMetadata(data)
		if err != nil {
			continue
		}

		stats.Entries++
		for _, p := range s.paths(id) {
			if info, err := os.Stat(p); err == nil {
				stats.TotalSize += info.Size()
			}
		}
		if stats.OldestEntry == nil || processedAt.Before(*stats.OldestEntry) {
			oldest := processedAt
			stats.OldestEntry = &oldest
		}
	}

	return stats, nil
}

// Remove deletes all blobs for id. Missing blobs are ignored.
func (s *DiskStore) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.remove(id)
	return nil
}

func (s *DiskStore) expired(processedAt time.Time) bool {
	return s.now().Sub(processedAt) > RetentionPeriod
}

func (s *DiskStore) discard(id string, cause error) error {
	s.logger.Warn("Discarding unreadable cache record", "id", id, "kind", s.kind, "error", cause)
	s.remove(id)
	return ErrRecordNotFound
}

func (s *DiskStore) remove(id string) {
	for _, p := range s.paths(id) {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Failed to remove cache file", "path", p, "error", err)
		}
	}
}

func (s *DiskStore) paths(id string) []string {
	return []string{s.metaPath(id), s.unitsPath(id), s.indexPath(id)}
}

func (s *DiskStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+metaSuffix)
}

func (s *DiskStore) unitsPath(id string) string {
	return filepath.Join(s.dir, id+"_"+s.kind+".json")
}

func (s *DiskStore) indexPath(id string) string {
	return filepath.Join(s.dir, id+indexSuffix)
}

func checkID(id string) error {
	if !validID.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	return nil
}

func parseMetadata(data []byte) (*metadataFile, time.Time, error) {
	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, time.Time{}, fmt.Errorf("parse metadata: %w", err)
	}
	processedAt, err := time.Parse(time.RFC3339Nano, meta.ProcessedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse processedAt: %w", err)
	}
	return &meta, processedAt, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes v to a uniquely named temp file and renames it into place.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
