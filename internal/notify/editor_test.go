package notify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/vsrelay/internal/models"
)

func newEditableCatalog(t *testing.T) (*Catalog, string, string) {
	t.Helper()

	dir := t.TempDir()
	storm := filepath.Join(dir, "storm.json")
	season := filepath.Join(dir, "season.yaml")
	if err := os.WriteFile(storm, []byte(`{"storm_start":["one","two"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(season, []byte("зима:\n  - snow\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog(storm, season)
	if _, err := c.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	return c, storm, season
}

func TestPoolKey(t *testing.T) {
	cases := []struct {
		kind PoolKind
		in   string
		want string
		err  error
	}{
		{KindStorm, "start", PoolStormStart, nil},
		{KindStorm, "STORM_WARNING", PoolStormWarning, nil},
		{KindStorm, "calm", "", ErrUnknownKey},
		{KindSeason, "осень", string(models.Autumn), nil},
		{KindSeason, "monsoon", "", ErrUnknownKey},
		{PoolKind("weather"), "x", "", ErrUnknownPoolKind},
	}

	for _, tc := range cases {
		got, err := PoolKey(tc.kind, tc.in)
		if got != tc.want || !errors.Is(err, tc.err) {
			t.Errorf("PoolKey(%s, %q) = %q, %v; want %q, %v", tc.kind, tc.in, got, err, tc.want, tc.err)
		}
	}

	if k, ok := ParsePoolKind("Сезон"); !ok || k != KindSeason {
		t.Fatalf("ParsePoolKind = %q, %v", k, ok)
	}
}

func TestCatalogAddWritesJSON(t *testing.T) {
	c, storm, _ := newEditableCatalog(t)

	key, err := c.Add(KindStorm, "end", "<b>Шторм</b> утих")
	if err != nil || key != PoolStormEnd {
		t.Fatalf("Add = %q, %v", key, err)
	}
	if got := c.Storm(PoolStormEnd); len(got) != 1 || got[0] != "<b>Шторм</b> утих" {
		t.Fatalf("pool = %v", got)
	}

	data, err := os.ReadFile(storm)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<b>Шторм</b>") || !strings.Contains(string(data), `"storm_start"`) {
		t.Fatalf("file = %s", data)
	}

	if _, err := c.Add(KindStorm, "start", "  "); err == nil {
		t.Fatal("blank message must be rejected")
	}
}

func TestCatalogAddWritesYAML(t *testing.T) {
	c, _, season := newEditableCatalog(t)

	if _, err := c.Add(KindSeason, "winter", "frost"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := c.Season(models.Winter); len(got) != 2 {
		t.Fatalf("winter = %v", got)
	}

	data, err := os.ReadFile(season)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "winter:") || strings.Contains(string(data), "{") {
		t.Fatalf("file is not yaml:\n%s", data)
	}
}

func TestCatalogRemove(t *testing.T) {
	c, _, _ := newEditableCatalog(t)

	if n, err := c.Remove(KindStorm, "start", 0); err != nil || n != 1 {
		t.Fatalf("Remove index = %d, %v", n, err)
	}
	if got := c.Storm(PoolStormStart); len(got) != 1 || got[0] != "two" {
		t.Fatalf("pool = %v", got)
	}

	if _, err := c.Remove(KindStorm, "start", 5); !errors.Is(err, ErrIndexRange) {
		t.Fatalf("Remove past end = %v", err)
	}
	if _, err := c.Remove(KindStorm, "warning", -1); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Remove missing pool = %v", err)
	}

	if n, err := c.Remove(KindStorm, "start", 0); err != nil || n != 1 {
		t.Fatalf("Remove last = %d, %v", n, err)
	}
	p, err := c.Pools(KindStorm)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p[PoolStormStart]; ok {
		t.Fatalf("emptied pool must be dropped: %v", p)
	}

	if n, err := c.Remove(KindSeason, "зима", -1); err != nil || n != 1 {
		t.Fatalf("Remove all = %d, %v", n, err)
	}
}

func TestCatalogPoolsIsCopy(t *testing.T) {
	c, _, _ := newEditableCatalog(t)

	p, err := c.Pools(KindStorm)
	if err != nil {
		t.Fatal(err)
	}
	p[PoolStormStart][0] = "changed"

	if c.Storm(PoolStormStart)[0] != "one" {
		t.Fatal("Pools must not alias catalog state")
	}
	if keys := p.Keys(); len(keys) != 1 || keys[0] != PoolStormStart {
		t.Fatalf("keys = %v", keys)
	}
}

func TestCatalogEditWithoutFile(t *testing.T) {
	c := NewCatalog("", "")
	if _, err := c.Load(); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Add(KindStorm, "start", "x"); !errors.Is(err, ErrNoFile) {
		t.Fatalf("Add = %v, want ErrNoFile", err)
	}
}
