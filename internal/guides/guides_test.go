package guides

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	s := New(filepath.Join(t.TempDir(), "data", "guides.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	return s
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newStore(t)

	if s.Len() != 0 || len(s.List()) != 0 {
		t.Fatalf("guides = %+v", s.List())
	}
	if _, err := s.Get(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(1) = %v, want ErrNotFound", err)
	}
}

func TestAddSectionRemovePersist(t *testing.T) {
	s := newStore(t)

	n, err := s.Add(Guide{Title: " Выживание ", Description: "Первые дни", ImageURL: "https://example.org/a.png", Author: "Mira"})
	if err != nil || n != 1 {
		t.Fatalf("Add = %d, %v", n, err)
	}
	if n, _ := s.Add(Guide{Title: "Кузня"}); n != 2 {
		t.Fatalf("second number = %d", n)
	}

	g, err := s.AddSection(1, Section{Title: "Еда", Content: "Ягоды"})
	if err != nil || len(g.Sections) != 1 || g.Title != "Выживание" {
		t.Fatalf("AddSection = %+v, %v", g, err)
	}

	reloaded := New(s.Path())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Get(1)
	if err != nil || got.Sections[0].Content != "Ягоды" || got.Author != "Mira" {
		t.Fatalf("reloaded guide = %+v, %v", got, err)
	}

	removed, err := s.Remove(1)
	if err != nil || removed.Title != "Выживание" {
		t.Fatalf("Remove = %+v, %v", removed, err)
	}
	if first, _ := s.Get(1); first.Title != "Кузня" {
		t.Fatalf("guides shifted wrong: %+v", s.List())
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Выживание") || !strings.Contains(string(data), `"guides"`) {
		t.Fatalf("file = %s", data)
	}
}

func TestValidation(t *testing.T) {
	s := newStore(t)

	if _, err := s.Add(Guide{Title: "  "}); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("Add blank = %v", err)
	}
	if _, err := s.AddSection(3, Section{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AddSection missing = %v", err)
	}
	if _, err := s.Remove(0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remove(0) = %v", err)
	}
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(filepath.Join(blocker, "guides.json"))
	if _, err := s.Add(Guide{Title: "x"}); err == nil {
		t.Fatal("expected save error")
	}
	if s.Len() != 0 {
		t.Fatalf("failed add must not stick: %+v", s.List())
	}
}

func TestHandWrittenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guides.json")
	data := `{"guides":[{"title":"Моды","short_description":"Кратко","content":"Подробно","sections":[{"title":"A","content":"B"}]}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}

	g, err := s.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if g.Summary() != "Кратко" || g.Body() != "Подробно" {
		t.Fatalf("summary = %q, body = %q", g.Summary(), g.Body())
	}

	if (Guide{Description: "d"}).Summary() != "d" || (Guide{Description: "d"}).Body() != "d" {
		t.Fatal("description must back both views")
	}
}

func TestLoadCorruptKeepsPrevious(t *testing.T) {
	s := newStore(t)
	if _, err := s.Add(Guide{Title: "keep"}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(s.Path(), []byte(`{"guides":[`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(); err == nil {
		t.Fatal("expected decode error")
	}
	if g, _ := s.Get(1); g.Title != "keep" {
		t.Fatalf("guides after bad load = %+v", s.List())
	}
}
