package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/woozymasta/vsrelay/internal/chat"
	"github.com/woozymasta/vsrelay/internal/config"
	"github.com/woozymasta/vsrelay/internal/models"
	"github.com/woozymasta/vsrelay/internal/notify"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	got   []models.Notification
	err   error
	delay time.Duration
	done  chan struct{}
}

func (d *fakeDispatcher) Process(n models.Notification) error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.mu.Lock()
	d.got = append(d.got, n)
	d.mu.Unlock()
	if d.done != nil {
		close(d.done)
	}
	return d.err
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.got)
}

func newTestServer(t *testing.T, d Dispatcher, cfg config.Gateway) *httptest.Server {
	t.Helper()

	loop := chat.NewLoop(8)
	go loop.Run(context.Background())

	srv := New(d, loop, cfg)
	ts := httptest.NewServer(srv.Run())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		loop.Stop()
	})

	return ts
}

func post(t *testing.T, url, body string) (int, map[string]string) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&out)

	return resp.StatusCode, out
}

func TestNotificationAccepted(t *testing.T) {
	d := &fakeDispatcher{}
	ts := newTestServer(t, d, config.Gateway{})

	code, body := post(t, ts.URL+"/status/notification", `{"type":"storm_notification","data":{"is_active":true,"time":"noon"}}`)
	if code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("got %d %v", code, body)
	}

	if d.count() != 1 {
		t.Fatalf("dispatched %d, want 1", d.count())
	}
	if got := d.got[0]; got.Kind() != models.KindStorm || !got.Payload().IsActive || got.Payload().Time != "noon" {
		t.Fatalf("decoded %+v", got)
	}
}

func TestMalformedJSONThenValid(t *testing.T) {
	d := &fakeDispatcher{}
	ts := newTestServer(t, d, config.Gateway{})

	code, body := post(t, ts.URL+"/status/notification", `{"type":`)
	if code != http.StatusBadRequest || body["error"] != "Invalid JSON" {
		t.Fatalf("malformed: got %d %v", code, body)
	}

	code, _ = post(t, ts.URL+"/status/notification", `{"type":"season_notification","data":{"season":"зима"}}`)
	if code != http.StatusOK {
		t.Fatalf("valid after malformed: got %d", code)
	}
	if d.count() != 1 {
		t.Fatalf("dispatched %d, want 1", d.count())
	}
}

func TestMissingType(t *testing.T) {
	d := &fakeDispatcher{}
	ts := newTestServer(t, d, config.Gateway{})

	for _, body := range []string{`{"data":{}}`, `{"type":""}`, `null`} {
		code, out := post(t, ts.URL+"/status/notification", body)
		if code != http.StatusBadRequest || out["error"] != "Missing 'type' field" {
			t.Fatalf("%s: got %d %v", body, code, out)
		}
	}
	if d.count() != 0 {
		t.Fatal("invalid requests must not reach the dispatcher")
	}
}

func TestDispatchFailureIs500(t *testing.T) {
	d := &fakeDispatcher{err: fmt.Errorf("%w: storm", notify.ErrCooldown)}
	ts := newTestServer(t, d, config.Gateway{})

	code, body := post(t, ts.URL+"/status/notification", `{"type":"storm"}`)
	if code != http.StatusInternalServerError || !strings.Contains(body["error"], "rate limited") {
		t.Fatalf("got %d %v", code, body)
	}
}

func TestDispatchTimeoutDoesNotAbort(t *testing.T) {
	d := &fakeDispatcher{delay: 300 * time.Millisecond, done: make(chan struct{})}
	ts := newTestServer(t, d, config.Gateway{DispatchTimeout: 50 * time.Millisecond})

	code, body := post(t, ts.URL+"/status/notification", `{"type":"storm"}`)
	if code != http.StatusInternalServerError || !strings.Contains(body["error"], "timed out") {
		t.Fatalf("got %d %v", code, body)
	}

	select {
	case <-d.done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch was aborted")
	}
}

func TestUnknownRoutes(t *testing.T) {
	ts := newTestServer(t, &fakeDispatcher{}, config.Gateway{})

	code, body := post(t, ts.URL+"/other", `{"type":"storm"}`)
	if code != http.StatusNotFound || body["error"] != "Not found" {
		t.Fatalf("wrong path: got %d %v", code, body)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/status/notification", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("wrong method: got %d", resp.StatusCode)
	}
}

func TestLiveness(t *testing.T) {
	ts := newTestServer(t, &fakeDispatcher{}, config.Gateway{})

	for _, path := range []string{"/", "/health"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
			t.Fatalf("GET %s: %d %s", path, resp.StatusCode, resp.Header.Get("Content-Type"))
		}
	}
}

func TestBodyLimitAndRateLimit(t *testing.T) {
	d := &fakeDispatcher{}
	ts := newTestServer(t, d, config.Gateway{MaxBodySize: 32, HardLimitCount: 2, HardLimitWin: time.Hour})

	code, _ := post(t, ts.URL+"/status/notification", `{"type":"storm","data":{"time":"`+strings.Repeat("x", 64)+`"}}`)
	if code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body: got %d", code)
	}

	code, _ = post(t, ts.URL+"/status/notification", `{"type":"storm"}`)
	if code != http.StatusOK {
		t.Fatalf("second request: got %d", code)
	}

	code, _ = post(t, ts.URL+"/status/notification", `{"type":"storm"}`)
	if code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", code)
	}
}

func TestGetRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")

	if got := GetRealIP(r, false); got != "10.0.0.1" {
		t.Fatalf("untrusted: %s", got)
	}
	if got := GetRealIP(r, true); got != "1.2.3.4" {
		t.Fatalf("trusted: %s", got)
	}
}

func TestIPLimiterSweep(t *testing.T) {
	l := newIPLimiter(1, time.Hour)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if !l.allow("a", start) || l.allow("a", start) {
		t.Fatal("burst of one expected")
	}
	if !l.allow("b", start.Add(20*time.Minute)) {
		t.Fatal("clients must have separate buckets")
	}

	if n := l.sweep(start.Add(10 * time.Minute)); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if !l.allow("a", start.Add(21*time.Minute)) {
		t.Fatal("swept client should start with a fresh bucket")
	}
}
