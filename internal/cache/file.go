package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lumichat/lumichat/internal/model/chat"
)

// FileCache stores one JSON file per session under a base directory. Writes
// go through a temp file and rename so a crash never leaves a torn record.
//
// Appends and reads to the same session are serialized through a per-session
// mutex; different sessions proceed fully in parallel.
type FileCache struct {
	dir    string
	maxAge time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileCache creates the base directory if needed. A non-positive maxAge
// falls back to DefaultMaxAge.
func NewFileCache(dir string, maxAge time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &FileCache{
		dir:    dir,
		maxAge: maxAge,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Append adds an exchange to the session's record, creating it on first use.
// The record is trimmed to the most recent MaxExchanges and its
// LastAccessedAt refreshed. A record that expired but was not yet swept is
// restarted rather than revived.
func (c *FileCache) Append(sessionID string, ex chat.Exchange) error {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	record, err := c.load(sessionID)
	switch {
	case err == nil && record.expiredAt(now, c.maxAge):
		record = Record{SessionID: sessionID, CreatedAt: now}
	case err != nil:
		if !errors.Is(err, ErrNotFound) {
			// Unreadable record (corrupt, permissions). The append still
			// proceeds on a fresh record; only the old contents are lost.
			slog.Warn("cache: load record for append", "session_id", sessionID, "error", err)
		}
		record = Record{SessionID: sessionID, CreatedAt: now}
	}

	record.Exchanges = append(record.Exchanges, ex)
	if len(record.Exchanges) > MaxExchanges {
		record.Exchanges = record.Exchanges[len(record.Exchanges)-MaxExchanges:]
	}
	record.LastAccessedAt = now

	return c.persist(record)
}

// Read returns the session's record. A missing record yields ErrNotFound; an
// expired one is removed and yields ErrExpired. Reading refreshes
// LastAccessedAt (sliding expiration).
func (c *FileCache) Read(sessionID string) (Record, error) {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	record, err := c.load(sessionID)
	if err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	if record.expiredAt(now, c.maxAge) {
		if err := os.Remove(c.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
			slog.Warn("cache: remove expired record", "session_id", sessionID, "error", err)
		}
		return Record{}, ErrExpired
	}

	record.LastAccessedAt = now
	if err := c.persist(record); err != nil {
		// The read itself succeeded; a failed touch only shortens the window.
		slog.Warn("cache: refresh last access", "session_id", sessionID, "error", err)
	}
	return record, nil
}

// Delete removes the session's record immediately, regardless of age. A
// missing record is not an error.
func (c *FileCache) Delete(sessionID string) error {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(c.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: delete record: %w", err)
	}
	c.dropLock(sessionID)
	return nil
}

// Reclaim removes every record whose LastAccessedAt is older than the
// configured max-age and returns how many were removed. Sessions are swept
// one at a time under their own lock; no lock spans the whole sweep.
func (c *FileCache) Reclaim() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("cache: read dir: %w", err)
	}

	removed := 0
	now := time.Now().UTC()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		sessionID := strings.TrimSuffix(entry.Name(), ".json")
		if c.reclaimOne(sessionID, now) {
			removed++
		}
	}
	return removed, nil
}

func (c *FileCache) reclaimOne(sessionID string, now time.Time) bool {
	lock := c.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	record, err := c.load(sessionID)
	if err != nil {
		return false
	}
	if !record.expiredAt(now, c.maxAge) {
		return false
	}
	if err := os.Remove(c.sessionPath(sessionID)); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cache: reclaim record", "session_id", sessionID, "error", err)
		}
		return false
	}
	c.dropLock(sessionID)
	return true
}

func (c *FileCache) load(sessionID string) (Record, error) {
	data, err := os.ReadFile(c.sessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("cache: read record: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("cache: decode record: %w", err)
	}
	return record, nil
}

// persist writes through a temp file and rename for atomicity.
func (c *FileCache) persist(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("cache: encode record: %w", err)
	}
	path := c.sessionPath(record.SessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cache: commit record: %w", err)
	}
	return nil
}

func (c *FileCache) lockFor(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[sessionID] = lock
	}
	return lock
}

// dropLock prunes the per-session mutex once its record is gone, keeping the
// lock map bounded under churning anonymous keys. A racing caller that holds
// the old mutex finds a cold session on its next load, which is the same
// outcome as losing the race to the removal itself.
func (c *FileCache) dropLock(sessionID string) {
	c.mu.Lock()
	delete(c.locks, sessionID)
	c.mu.Unlock()
}

func (c *FileCache) sessionPath(sessionID string) string {
	return filepath.Join(c.dir, sanitize(sessionID)+".json")
}

// sanitize keeps session keys filesystem-safe. Keys are normally short hex
// or UUID fragments; anything else is mapped to '_'.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}
