package navcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pmcgroup/istock-backend/internal/logging"
	"github.com/pmcgroup/istock-backend/internal/utils"
)

// LatestKey is the single shared slot holding the newest NAV user pull.
// Writers fully overwrite it.
const LatestKey = "nav:latest"

var datedKeyPattern = regexp.MustCompile(`^nav:(\d{4}-\d{2}-\d{2})$`)

// Snapshot is one persisted NAV user pull.
type Snapshot struct {
	TS    string            `json:"ts"`
	Count int               `json:"count"`
	Data  []map[string]any  `json:"data"`
	Meta  map[string]string `json:"meta"`
}

// Store is a durable key-value snapshot store on local sqlite. It survives
// process restarts and backs the login fallback when NAV is unreachable.
type Store struct {
	db  *sqlx.DB
	loc *time.Location
}

const schema = `
CREATE TABLE IF NOT EXISTS nav_snapshots (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Open opens (creating if needed) the snapshot store at path. Dated keys are
// interpreted in the given timezone for retention pruning.
func Open(path string, timezone string) (*Store, error) {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &Store{db: db, loc: loc}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save overwrites the latest snapshot and writes today's dated snapshot.
func (s *Store) Save(snap *Snapshot) error {
	if err := s.put(LatestKey, snap); err != nil {
		return err
	}
	dated := "nav:" + time.Now().In(s.loc).Format("2006-01-02")
	return s.put(dated, snap)
}

func (s *Store) put(key string, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO nav_snapshots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(payload))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// Load returns the snapshot stored at key, or nil when absent.
func (s *Store) Load(key string) (*Snapshot, error) {
	var raw string
	err := s.db.Get(&raw, `SELECT value FROM nav_snapshots WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// Keys lists all stored snapshot keys.
func (s *Store) Keys() ([]string, error) {
	keys := []string{}
	if err := s.db.Select(&keys, `SELECT key FROM nav_snapshots ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	return keys, nil
}

// Remove deletes one snapshot key.
func (s *Store) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM nav_snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove snapshot %s: %w", key, err)
	}
	return nil
}

// FindUserByName scans the latest snapshot for a case-sensitive userName
// match. Returns nil when the snapshot is missing or has no such user.
func (s *Store) FindUserByName(username string) (map[string]any, error) {
	latest, err := s.Load(LatestKey)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}
	for _, u := range latest.Data {
		if name, _ := u["userName"].(string); name == username {
			return u, nil
		}
	}
	return nil, nil
}

// Prune removes dated snapshots older than retentionDays relative to the
// store's timezone. The latest key and any non-dated key are exempt.
// Individual key failures are logged and skipped.
func (s *Store) Prune(retentionDays int) {
	log := logging.GetLogger()

	keys, err := s.Keys()
	if err != nil {
		log.Warnf("cache cleanup: %v", err)
		return
	}

	now := time.Now().In(s.loc)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).
		AddDate(0, 0, -retentionDays)

	for _, key := range keys {
		if key == LatestKey {
			continue
		}
		m := datedKeyPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", m[1], s.loc)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			if err := s.Remove(key); err != nil {
				log.Warnf("cache cleanup: failed to remove %s: %v", key, err)
				continue
			}
			log.Infof("cache cleanup: removed %s (older than %d days)", key, retentionDays)
		}
	}
}
