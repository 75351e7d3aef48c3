package board

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/woozymasta/vsrelay/internal/chat/chattest"
	"github.com/woozymasta/vsrelay/internal/models"
)

func TestEmbedStates(t *testing.T) {
	tests := []struct {
		name  string
		rec   models.StatusRecord
		color int
	}{
		{
			name:  "maintenance wins over online",
			rec:   models.StatusRecord{Server: models.ServerStatus{Online: true}, Maintenance: models.Maintenance{Active: true, Reason: "update"}},
			color: ColorMaintenance,
		},
		{
			name:  "online",
			rec:   models.StatusRecord{Server: models.ServerStatus{Online: true, PlayerCount: 2, MaxPlayers: 10, Players: []string{"a", "b"}}},
			color: ColorOnline,
		},
		{
			name:  "offline",
			rec:   models.DefaultRecord(10),
			color: ColorOffline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Embed(tt.rec, "Test", "Inactive")
			if e.Color != tt.color {
				t.Fatalf("color = %#x, want %#x", e.Color, tt.color)
			}
			if e.Title != "Статус сервера: Test" {
				t.Fatalf("title = %q", e.Title)
			}
		})
	}
}

func TestEmbedTruncatesPlayerList(t *testing.T) {
	players := make([]string, 300)
	for i := range players {
		players[i] = "игрок_" + strings.Repeat("x", 5)
	}
	rec := models.StatusRecord{Server: models.ServerStatus{
		Online:      true,
		Players:     players,
		PlayerCount: len(players),
		MaxPlayers:  500,
		LastChecked: models.At(time.Now()),
	}}

	e := Embed(rec, "Test", "Inactive")
	last := e.Fields[len(e.Fields)-1]
	if n := utf8.RuneCountInString(last.Value); n != maxFieldValue {
		t.Fatalf("player field has %d runes, want %d", n, maxFieldValue)
	}
	if !strings.HasSuffix(last.Value, "...") {
		t.Fatal("truncated list must end with an ellipsis")
	}
	if e.Footer == "" {
		t.Fatal("footer must show last update")
	}
}

func TestStormActive(t *testing.T) {
	if StormActive("Inactive", "Inactive") || StormActive("inactive", "Inactive") || StormActive("", "Inactive") {
		t.Fatal("inactive labels reported as active")
	}
	if !StormActive("Active", "Inactive") {
		t.Fatal("active label not detected")
	}
}

func TestPlayersText(t *testing.T) {
	tests := map[int]string{
		0:   "нет игроков",
		1:   "1 игрок",
		3:   "3 игрока",
		5:   "5 игроков",
		11:  "11 игроков",
		21:  "21 игрок",
		22:  "22 игрока",
		112: "112 игроков",
	}
	for n, want := range tests {
		if got := PlayersText(n); got != want {
			t.Fatalf("PlayersText(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestBoardEditsInPlace(t *testing.T) {
	sink := chattest.New()
	b := New(sink, "200", "Test", "Inactive")

	for i := 0; i < 3; i++ {
		if err := b.Update(models.DefaultRecord(10)); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	sent := sink.Sent()
	if len(sent) != 3 {
		t.Fatalf("recorded %d calls, want 3", len(sent))
	}
	if sent[0].Edited || !sent[1].Edited || !sent[2].Edited {
		t.Fatal("expected one post followed by edits")
	}
	if sent[1].MessageID != sent[0].MessageID {
		t.Fatal("edits must target the posted message")
	}
}

func TestBoardDisabledAndErrors(t *testing.T) {
	sink := chattest.New()
	if err := New(sink, "", "Test", "Inactive").Update(models.DefaultRecord(1)); err != nil {
		t.Fatalf("disabled board: %v", err)
	}
	if len(sink.Sent()) != 0 {
		t.Fatal("disabled board must not send")
	}

	sink.SendErr = errors.New("forbidden")
	if err := New(sink, "1", "Test", "Inactive").Update(models.DefaultRecord(1)); err == nil {
		t.Fatal("expected send error")
	}
}

func TestEmbedOptionalServerFields(t *testing.T) {
	rec := models.StatusRecord{Server: models.ServerStatus{Online: true, MaxPlayers: 8, TPS: 19.96, Uptime: "3d 4h", Version: "1.20.4"}}
	got := map[string]string{}
	for _, f := range Embed(rec, "Test", "Inactive").Fields {
		got[f.Name] = f.Value
	}
	if got["TPS"] != "20.0" || got["Время работы"] != "3d 4h" || got["Версия"] != "1.20.4" {
		t.Fatalf("fields = %v", got)
	}

	rec.Server.TPS, rec.Server.Uptime, rec.Server.Version = 0, "", ""
	for _, f := range Embed(rec, "Test", "Inactive").Fields {
		if f.Name == "TPS" || f.Name == "Время работы" || f.Name == "Версия" {
			t.Fatalf("empty optional field %q rendered", f.Name)
		}
	}
}
