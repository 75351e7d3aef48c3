package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/woozymasta/vsrelay/internal/config"
)

func TestHTTPFetchDecodesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"online":true,"playerCount":2,"maxPlayers":16,"players":["a","b"],"temporalStorm":"Inactive","prettyDate":"1. May","tps":19.5,"uptime":"1h","version":"1.20.4"}`))
	}))
	defer srv.Close()

	got := NewHTTP(srv.URL, time.Second).Fetch(context.Background())
	if !got.Online || got.PlayerCount != 2 || got.MaxPlayers != 16 || len(got.Players) != 2 {
		t.Fatalf("unexpected status: %+v", got)
	}
	if got.TemporalStorm != "Inactive" || got.PrettyDate != "1. May" {
		t.Fatalf("unexpected labels: %+v", got)
	}
	if got.TPS != 19.5 || got.Uptime != "1h" || got.Version != "1.20.4" {
		t.Fatalf("unexpected server details: %+v", got)
	}
}

func TestHTTPFetchWithoutOnlineFieldIsOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// The game mod answers without a JSON content type and without "online"
		_, _ = w.Write([]byte(`{"playerCount":0,"players":[],"time":"2. June","temporalStorm":"Inactive"}`))
	}))
	defer srv.Close()

	got := NewHTTP(srv.URL, time.Second).Fetch(context.Background())
	if !got.Online {
		t.Fatalf("reachable endpoint without online field should be online: %+v", got)
	}
	if got.Time != "2. June" {
		t.Fatalf("Time = %q, want 2. June", got.Time)
	}
}

func TestHTTPFetchDegradesToOffline(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
	}{
		{
			name: "non ok status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "down", http.StatusServiceUnavailable)
			},
			timeout: time.Second,
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			timeout: time.Second,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(300 * time.Millisecond)
				_, _ = w.Write([]byte(`{"online":true}`))
			},
			timeout: 50 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			if got := NewHTTP(srv.URL, tt.timeout).Fetch(context.Background()); got.Online {
				t.Fatalf("expected offline, got %+v", got)
			}
		})
	}
}

func TestHTTPFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if got := NewHTTP(url, time.Second).Fetch(context.Background()); got.Online {
		t.Fatalf("expected offline for closed server, got %+v", got)
	}
}

func TestNewSelectsKind(t *testing.T) {
	if _, ok := New(config.Source{Kind: config.SourceHTTP, URL: "http://x"}).(*HTTP); !ok {
		t.Fatal("expected HTTP source")
	}
	if _, ok := New(config.Source{Kind: config.SourceA2S, Address: "127.0.0.1:27016"}).(*A2S); !ok {
		t.Fatal("expected A2S source")
	}
}

func TestA2SInvalidAddressIsOffline(t *testing.T) {
	if got := NewA2S("not-an-address", time.Second).Fetch(context.Background()); got.Online {
		t.Fatalf("expected offline, got %+v", got)
	}
}
