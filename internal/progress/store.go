package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/watchdeck/watchdeck/internal/logger"
)

// Record is the last known playback position for a media item.
// UpdatedAt is the last-write-wins conflict key across devices.
type Record struct {
	MediaID    string    `json:"media_id"`
	PositionMs int64     `json:"position_ms"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Equal reports whether two records are identical, including the timestamp.
// Used by the sync engine to skip redundant writes.
func (r Record) Equal(other Record) bool {
	return r.MediaID == other.MediaID &&
		r.PositionMs == other.PositionMs &&
		r.UpdatedAt.Equal(other.UpdatedAt)
}

// Store is the device-local progress cache
type Store interface {
	Get(mediaID string) (Record, bool)
	Set(mediaID string, rec Record)
	Snapshot() map[string]Record
}

// MemoryStore is an in-memory Store
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get returns the record for mediaID if present
func (s *MemoryStore) Get(mediaID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[mediaID]
	return rec, ok
}

// Set stores the record for mediaID
func (s *MemoryStore) Set(mediaID string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[mediaID] = rec
}

// Snapshot returns a copy of all stored records
func (s *MemoryStore) Snapshot() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// FileStore persists records to a JSON file on every write. The file is
// the Go analogue of the browser's local storage: small, unbounded, best
// effort. A failed write is logged and does not fail the caller.
type FileStore struct {
	mu   sync.Mutex
	path string
	mem  *MemoryStore
	log  *logger.Logger
}

// NewFileStore opens (or creates) the cache file at path
func NewFileStore(path string, log *logger.Logger) (*FileStore, error) {
	if log == nil {
		log = logger.AppLogger()
	}
	fs := &FileStore{
		path: path,
		mem:  NewMemoryStore(),
		log:  log,
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Get returns the record for mediaID if present
func (s *FileStore) Get(mediaID string) (Record, bool) {
	return s.mem.Get(mediaID)
}

// Set stores the record and persists the cache file
func (s *FileStore) Set(mediaID string, rec Record) {
	s.mem.Set(mediaID, rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flush(); err != nil {
		s.log.WithFields(map[string]interface{}{
			"path": s.path,
		}).Error("Failed to persist progress cache", err)
	}
}

// Snapshot returns a copy of all stored records
func (s *FileStore) Snapshot() map[string]Record {
	return s.mem.Snapshot()
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read progress cache: %w", err)
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt cache is discarded rather than fatal; the next sync
		// repopulates it from the server.
		s.log.WithFields(map[string]interface{}{
			"path": s.path,
		}).Warn("Discarding unreadable progress cache")
		return nil
	}

	for id, rec := range records {
		s.mem.Set(id, rec)
	}
	return nil
}

func (s *FileStore) flush() error {
	data, err := json.Marshal(s.mem.Snapshot())
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
