// Package state persists the server status record as a single JSON document.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/fileutil"
	"github.com/woozymasta/vsrelay/internal/models"
)

// Store reads and writes the status record file.
// All access goes through one mutex so load-modify-save sequences never interleave.
type Store struct {
	path       string
	maxPlayers int

	mu       sync.Mutex
	lastHash uint64
	hashed   bool
}

// New creates a Store for the file at path. maxPlayers seeds the default record.
func New(path string, maxPlayers int) *Store {
	return &Store{path: path, maxPlayers: maxPlayers}
}

// Path returns the location of the status file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the current record. A missing or unreadable file is replaced
// by a default record on disk; Load itself never fails.
func (s *Store) Load() models.StatusRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// Save overwrites the file with rec. Errors are logged and returned for callers that care.
func (s *Store) Save(rec models.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(rec)
}

// Update runs fn on the current record and persists the result under a single lock.
// If fn returns an error nothing is written and the unmodified record is returned.
func (s *Store) Update(fn func(rec *models.StatusRecord) error) (models.StatusRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.loadLocked()
	next := rec
	next.Server.Players = append([]string(nil), rec.Server.Players...)

	if err := fn(&next); err != nil {
		return rec, err
	}

	if err := s.saveLocked(next); err != nil {
		return next, err
	}

	return next, nil
}

func (s *Store) loadLocked() models.StatusRecord {
	def := models.DefaultRecord(s.maxPlayers)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", s.path).Msg("Status file missing, creating default")
		_ = s.saveLocked(def)
		return def
	}
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Status file unreadable, using defaults")
		return def
	}

	rec := def
	if err := json.Unmarshal(data, &rec); err != nil {
		backup := s.path + ".bak"
		log.Warn().Err(err).Str("path", s.path).Str("backup", backup).Msg("Status file corrupt, replacing with default")
		if err := os.Rename(s.path, backup); err != nil {
			log.Error().Err(err).Str("path", s.path).Msg("Failed to back up corrupt status file")
			return def
		}
		_ = s.saveLocked(def)
		return def
	}

	if rec.Server.Players == nil {
		rec.Server.Players = []string{}
	}
	if rec.Server.MaxPlayers <= 0 {
		rec.Server.MaxPlayers = s.maxPlayers
	}

	// Remember what the file holds so an unchanged save does not touch it
	if encoded, err := encode(rec); err == nil {
		s.lastHash = xxhash.Sum64(encoded)
		s.hashed = true
	}

	return rec
}

func (s *Store) saveLocked(rec models.StatusRecord) error {
	if rec.Server.Players == nil {
		rec.Server.Players = []string{}
	}

	data, err := encode(rec)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode status record")
		return err
	}

	hash := xxhash.Sum64(data)
	if s.hashed && hash == s.lastHash {
		if _, err := os.Stat(s.path); err == nil {
			return nil
		}
	}

	if err := fileutil.WriteAtomic(s.path, data); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to save status file")
		return err
	}

	s.lastHash = hash
	s.hashed = true

	return nil
}

func encode(rec models.StatusRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
