package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/woozymasta/vsrelay/internal/fileutil"
	"github.com/woozymasta/vsrelay/internal/models"
	yaml "go.yaml.in/yaml/v3"
)

// PoolKind selects the storm or the season pool file.
type PoolKind string

// Pool kinds.
const (
	KindStorm  PoolKind = "storm"
	KindSeason PoolKind = "season"
)

var (
	// ErrUnknownPoolKind is returned for a pool kind other than storm or season.
	ErrUnknownPoolKind = errors.New("unknown message type")

	// ErrUnknownKey is returned for a pool key the kind does not accept or does not contain.
	ErrUnknownKey = errors.New("unknown message key")

	// ErrIndexRange is returned when removing a message past the end of its pool.
	ErrIndexRange = errors.New("message index out of range")

	// ErrNoFile is returned when editing a kind that has no file configured.
	ErrNoFile = errors.New("message file is not configured")
)

var stormKeys = map[string]string{
	"start":          PoolStormStart,
	"warning":        PoolStormWarning,
	"end":            PoolStormEnd,
	PoolStormStart:   PoolStormStart,
	PoolStormWarning: PoolStormWarning,
	PoolStormEnd:     PoolStormEnd,
}

// ParsePoolKind accepts English and Russian kind names.
func ParsePoolKind(s string) (PoolKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "storm", "шторм":
		return KindStorm, true
	case "season", "сезон":
		return KindSeason, true
	}

	return "", false
}

// PoolKey maps a user supplied key to the canonical pool key of kind.
func PoolKey(kind PoolKind, key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))

	switch kind {
	case KindStorm:
		if k, ok := stormKeys[key]; ok {
			return k, nil
		}
	case KindSeason:
		if s, ok := models.NormalizeSeason(key); ok {
			return string(s), nil
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownPoolKind, kind)
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Pools returns a copy of the pools of kind.
func (c *Catalog) Pools(kind PoolKind) (Pools, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	src, err := c.poolsOf(kind)
	if err != nil {
		return nil, err
	}

	return src.clone(), nil
}

// Keys returns the pool keys in sorted order.
func (p Pools) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Add appends msg to the pool key of kind, writes the pool file and returns the canonical key.
func (c *Catalog) Add(kind PoolKind, key, msg string) (string, error) {
	key, err := PoolKey(kind, key)
	if err != nil {
		return "", err
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", errors.New("message text is empty")
	}

	err = c.edit(kind, func(p Pools) error {
		p[key] = append(p[key], msg)
		return nil
	})

	return key, err
}

// Remove deletes message index of the pool key, or the whole pool when index is negative.
// An emptied pool is dropped. It returns the number of removed messages.
func (c *Catalog) Remove(kind PoolKind, key string, index int) (int, error) {
	key, err := PoolKey(kind, key)
	if err != nil {
		return 0, err
	}

	removed := 0
	err = c.edit(kind, func(p Pools) error {
		msgs, ok := p[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}

		if index < 0 {
			removed = len(msgs)
			delete(p, key)
			return nil
		}
		if index >= len(msgs) {
			return fmt.Errorf("%w: %d of %d", ErrIndexRange, index, len(msgs))
		}

		msgs = append(msgs[:index], msgs[index+1:]...)
		removed = 1
		if len(msgs) == 0 {
			delete(p, key)
		} else {
			p[key] = msgs
		}

		return nil
	})

	return removed, err
}

// edit applies fn to a copy of the pools of kind, writes the file and reloads the catalog.
func (c *Catalog) edit(kind PoolKind, fn func(Pools) error) error {
	c.editMu.Lock()
	defer c.editMu.Unlock()

	path := c.pathOf(kind)
	if path == "" {
		return fmt.Errorf("%w: %s", ErrNoFile, kind)
	}

	c.mu.RLock()
	src, err := c.poolsOf(kind)
	next := src.clone()
	c.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := fn(next); err != nil {
		return err
	}

	data, err := encodePools(path, next)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if _, err := c.Load(); err != nil {
		return fmt.Errorf("reload after edit: %w", err)
	}

	return nil
}

func (c *Catalog) poolsOf(kind PoolKind) (Pools, error) {
	switch kind {
	case KindStorm:
		return c.storm, nil
	case KindSeason:
		return c.season, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownPoolKind, kind)
}

func (c *Catalog) pathOf(kind PoolKind) string {
	switch kind {
	case KindStorm:
		return c.stormPath
	case KindSeason:
		return c.seasonPath
	}

	return ""
}

func (p Pools) clone() Pools {
	out := make(Pools, len(p))
	for k, msgs := range p {
		out[k] = append([]string(nil), msgs...)
	}

	return out
}

// encodePools writes YAML for .yaml and .yml files and indented JSON otherwise.
func encodePools(path string, p Pools) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal: %w", err)
		}
		return data, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}

	return buf.Bytes(), nil
}
