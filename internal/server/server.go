// Package server implements the inbound notification gateway: HTTP routes,
// middleware and the handoff of decoded events to the chat loop.
package server

import (
	"net/http"
	"time"

	"github.com/woozymasta/vsrelay/internal/config"
)

// New creates a new Server instance that dispatches through d on the scheduler's execution context.
func New(d Dispatcher, sched Scheduler, cfg config.Gateway) *Server {
	path := cfg.Path
	if path == "" {
		path = "/status/notification"
	}

	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = 64 << 10
	}

	return &Server{
		dispatcher:      d,
		scheduler:       sched,
		path:            path,
		dispatchTimeout: timeout,
		maxBody:         maxBody,
		trustProxy:      cfg.TrustProxy,
		hardLimitCount:  cfg.HardLimitCount,
		hardLimitWin:    cfg.HardLimitWin,

		shutdown: make(chan struct{}),
	}
}

// Close stops background routines started by Run.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.shutdown) })
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST "+s.path, s.RateLimitMiddleware(http.HandlerFunc(s.handleNotification)))
	mux.Handle("GET /", http.HandlerFunc(s.handleIndex))
	mux.Handle("/", http.HandlerFunc(s.handleNotFound))

	return s.LoggingMiddleware(mux)
}
