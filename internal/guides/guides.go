// Package guides stores the player guides shown by the bot.
//
// Guides live in one JSON document shaped as {"guides": [...]}. Every change
// rewrites the whole document; a failed write leaves memory untouched.
package guides

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/internal/fileutil"
)

var (
	// ErrNotFound is returned for a guide number outside the list.
	ErrNotFound = errors.New("guide not found")

	// ErrEmptyTitle is returned when adding a guide or section without a title.
	ErrEmptyTitle = errors.New("title is empty")
)

// Section is a titled block inside a guide.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Guide is a single player guide. Hand-written files may use content and
// short_description instead of description.
type Guide struct {
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	ShortDescription string    `json:"short_description,omitempty"`
	Content          string    `json:"content,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	Author           string    `json:"author,omitempty"`
	Sections         []Section `json:"sections"`
}

// Summary is the text shown in the guide list.
func (g Guide) Summary() string {
	return firstNonEmpty(g.ShortDescription, g.Description, g.Content)
}

// Body is the main text shown for a single guide.
func (g Guide) Body() string {
	return firstNonEmpty(g.Content, g.Description, g.ShortDescription)
}

type document struct {
	Guides []Guide `json:"guides"`
}

// Store keeps the guide list in memory and mirrors every change to disk.
type Store struct {
	path string

	mu     sync.Mutex
	guides []Guide
}

// New creates a store for the file at path. Call Load before use.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the guides file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the guides file. A missing file means no guides.
// On a decode error the previously loaded guides are kept.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", s.path).Msg("Guides file not found, starting empty")
		s.mu.Lock()
		s.guides = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read guides: %w", err)
	}

	var doc document
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decode guides %s: %w", s.path, err)
		}
	}

	s.mu.Lock()
	s.guides = doc.Guides
	s.mu.Unlock()

	log.Debug().Str("path", s.path).Int("guides", len(doc.Guides)).Msg("Guides loaded")

	return nil
}

// Len returns the number of guides.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.guides)
}

// List returns a copy of all guides in display order.
func (s *Store) List() []Guide {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cloneAll()
}

// Get returns guide number n, counting from 1.
func (s *Store) Get(n int) (Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n > len(s.guides) {
		return Guide{}, fmt.Errorf("%w: %d", ErrNotFound, n)
	}

	return clone(s.guides[n-1]), nil
}

// Add appends g and returns its number.
func (s *Store) Add(g Guide) (int, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return 0, ErrEmptyTitle
	}
	if g.Sections == nil {
		g.Sections = []Section{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(s.cloneAll(), g)
	if err := s.saveLocked(next); err != nil {
		return 0, err
	}
	s.guides = next

	return len(next), nil
}

// AddSection appends sec to guide number n and returns the updated guide.
func (s *Store) AddSection(n int, sec Section) (Guide, error) {
	sec.Title = strings.TrimSpace(sec.Title)
	if sec.Title == "" {
		return Guide{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n > len(s.guides) {
		return Guide{}, fmt.Errorf("%w: %d", ErrNotFound, n)
	}

	next := s.cloneAll()
	next[n-1].Sections = append(next[n-1].Sections, sec)
	if err := s.saveLocked(next); err != nil {
		return Guide{}, err
	}
	s.guides = next

	return clone(next[n-1]), nil
}

// Remove deletes guide number n and returns it.
func (s *Store) Remove(n int) (Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n > len(s.guides) {
		return Guide{}, fmt.Errorf("%w: %d", ErrNotFound, n)
	}

	removed := s.guides[n-1]
	next := s.cloneAll()
	next = append(next[:n-1], next[n:]...)
	if err := s.saveLocked(next); err != nil {
		return Guide{}, err
	}
	s.guides = next

	return removed, nil
}

func (s *Store) saveLocked(guides []Guide) error {
	if guides == nil {
		guides = []Guide{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Guides: guides}); err != nil {
		return fmt.Errorf("encode guides: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, buf.Bytes()); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to save guides")
		return fmt.Errorf("save guides: %w", err)
	}

	return nil
}

func (s *Store) cloneAll() []Guide {
	out := make([]Guide, len(s.guides))
	for i, g := range s.guides {
		out[i] = clone(g)
	}

	return out
}

func clone(g Guide) Guide {
	g.Sections = append([]Section{}, g.Sections...)
	return g
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
