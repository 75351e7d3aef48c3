package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/vsrelay/internal/models"
)

func TestRenderStormPhases(t *testing.T) {
	tests := []struct {
		name     string
		payload  models.Payload
		color    int
		fallback string
	}{
		{"warning", models.Payload{IsWarning: true, IsActive: true}, ColorStormWarning, stormStyles[StormWarning].fallback},
		{"active", models.Payload{IsActive: true}, ColorStormActive, stormStyles[StormActive].fallback},
		{"ended", models.Payload{}, ColorStormEnded, stormStyles[StormEnded].fallback},
	}

	f := newFixture(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := f.d.Render(models.KindStorm, tt.payload)
			if e.Color != tt.color {
				t.Fatalf("color = %#x, want %#x", e.Color, tt.color)
			}
			if e.Description != tt.fallback {
				t.Fatalf("description = %q, want fallback %q", e.Description, tt.fallback)
			}
			if len(e.Fields) != 0 {
				t.Fatalf("unexpected fields without game time: %+v", e.Fields)
			}
		})
	}
}

func TestRenderSeasonLocalizedMatchesCanonical(t *testing.T) {
	for _, extended := range []bool{false, true} {
		f := newFixture(t, Options{Extended: extended})

		pairs := [][2]string{
			{"spring", "Весна"},
			{"summer", "лето"},
			{"autumn", "осень"},
			{"WINTER", "зима"},
		}
		for _, p := range pairs {
			a := f.d.Render(models.KindSeason, models.Payload{Season: p[0]})
			b := f.d.Render(models.KindSeason, models.Payload{Season: p[1]})
			if a.Color != b.Color || a.Description != b.Description {
				t.Fatalf("extended=%v: %q and %q render differently", extended, p[0], p[1])
			}
		}
	}
}

func TestRenderSeasonUnknown(t *testing.T) {
	f := newFixture(t, Options{Extended: true})

	e := f.d.Render(models.KindSeason, models.Payload{Season: "monsoon", Time: "1 мая"})
	if e.Color != ColorSeasonOther || e.Description != seasonFallbackOther {
		t.Fatalf("unknown season rendered as %#x %q", e.Color, e.Description)
	}
	if len(e.Fields) != 1 || e.Fields[0].Name != gameTimeField {
		t.Fatalf("fields = %+v", e.Fields)
	}
}

func TestRenderUsesPoolOnlyWhenExtended(t *testing.T) {
	dir := t.TempDir()
	storm := filepath.Join(dir, "storm.yaml")
	if err := os.WriteFile(storm, []byte("storm_start:\n  - custom start\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, extended := range []bool{false, true} {
		f := newFixture(t, Options{Extended: extended})
		f.d.catalog = NewCatalog(storm, filepath.Join(dir, "season.json"))
		if _, err := f.d.catalog.Load(); err != nil {
			t.Fatalf("load: %v", err)
		}

		got := f.d.Render(models.KindStorm, models.Payload{IsActive: true}).Description
		want := stormStyles[StormActive].fallback
		if extended {
			want = "custom start"
		}
		if got != want {
			t.Fatalf("extended=%v: description = %q, want %q", extended, got, want)
		}
	}
}
