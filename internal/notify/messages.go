package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/vsrelay/assets"
	"github.com/woozymasta/vsrelay/internal/models"
	yaml "go.yaml.in/yaml/v3"
)

// Storm message pool keys.
const (
	PoolStormWarning = "storm_warning"
	PoolStormStart   = "storm_start"
	PoolStormEnd     = "storm_end"
)

const reloadDebounce = 250 * time.Millisecond

// Pools maps a pool key to its candidate messages.
type Pools map[string][]string

// Catalog holds the storm and season message pools.
// Files may be JSON or YAML; a missing file falls back to the embedded defaults.
type Catalog struct {
	storm  Pools
	season Pools

	stormPath  string
	seasonPath string

	mu     sync.RWMutex
	editMu sync.Mutex
	hash   uint64
}

// NewCatalog creates a catalog reading from the given files. Call Load before use.
func NewCatalog(stormPath, seasonPath string) *Catalog {
	return &Catalog{
		stormPath:  stormPath,
		seasonPath: seasonPath,
		storm:      Pools{},
		season:     Pools{},
	}
}

// Load reads both pool files. On error the previously loaded pools are kept.
// The result reports whether the content changed.
func (c *Catalog) Load() (bool, error) {
	stormRaw, err := readPoolFile(c.stormPath, "data/storm_messages.json")
	if err != nil {
		return false, err
	}
	seasonRaw, err := readPoolFile(c.seasonPath, "data/season_messages.json")
	if err != nil {
		return false, err
	}

	storm, err := decodePools(c.stormPath, stormRaw)
	if err != nil {
		return false, fmt.Errorf("storm messages: %w", err)
	}
	season, err := decodePools(c.seasonPath, seasonRaw)
	if err != nil {
		return false, fmt.Errorf("season messages: %w", err)
	}

	h := xxhash.New()
	_, _ = h.Write(stormRaw)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(seasonRaw)
	sum := h.Sum64()

	c.mu.Lock()
	defer c.mu.Unlock()

	if sum == c.hash {
		return false, nil
	}

	c.storm = storm
	c.season = normalizeSeasonKeys(season)
	c.hash = sum

	log.Debug().
		Int("storm_pools", len(c.storm)).
		Int("season_pools", len(c.season)).
		Msg("Message catalog loaded")

	return true, nil
}

// Storm returns the storm pool for key.
func (c *Catalog) Storm(key string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.storm[key]
}

// Season returns the pool for a canonical season.
func (c *Catalog) Season(s models.Season) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.season[string(s)]
}

// Counts returns the total number of storm and season messages.
func (c *Catalog) Counts() (storm, season int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.storm {
		storm += len(p)
	}
	for _, p := range c.season {
		season += len(p)
	}

	return storm, season
}

// Watch reloads the catalog when either file changes, until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	names := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, p := range []string{c.stormPath, c.seasonPath} {
		if p == "" {
			continue
		}
		names[filepath.Base(p)] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	reload := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() {
			changed, err := c.Load()
			if err != nil {
				log.Warn().Err(err).Msg("Message catalog reload failed, keeping previous pools")
				return
			}
			if changed {
				log.Info().Msg("Message catalog reloaded")
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, watched := names[filepath.Base(ev.Name)]; !watched {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				reload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Message catalog watch error")
		}
	}
}

// readPoolFile returns the file content, or the embedded default when the file does not exist.
func readPoolFile(path, fallback string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("Message file not found, using embedded defaults")
	}

	return assets.ReadFile(fallback)
}

func decodePools(path string, data []byte) (Pools, error) {
	pools := Pools{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pools); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &pools); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	}

	for key, msgs := range pools {
		kept := msgs[:0]
		for _, m := range msgs {
			if strings.TrimSpace(m) != "" {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			delete(pools, key)
			continue
		}
		pools[key] = kept
	}

	return pools, nil
}

// normalizeSeasonKeys lets season files use localized keys.
func normalizeSeasonKeys(in Pools) Pools {
	out := make(Pools, len(in))
	for key, msgs := range in {
		season, ok := models.NormalizeSeason(key)
		if !ok {
			log.Warn().Str("key", key).Msg("Unknown season in message file")
			continue
		}
		out[string(season)] = append(out[string(season)], msgs...)
	}

	return out
}
