package server

import (
	"context"
	"sync"
	"time"

	"github.com/woozymasta/vsrelay/internal/models"
)

// Dispatcher processes a decoded notification. A nil error means it was delivered or acknowledged.
type Dispatcher interface {
	Process(n models.Notification) error
}

// Scheduler runs work on the chat loop and waits for its result up to the context deadline.
type Scheduler interface {
	Do(ctx context.Context, fn func() error) error
}

// Server holds the dependencies, configuration, and runtime state required
// to accept notification callbacks from the game server.
type Server struct {
	// dispatcher gates, renders and delivers notifications to the chat platform.
	dispatcher Dispatcher

	// scheduler hands each dispatch over to the chat loop, the only execution
	// context allowed to touch chat state.
	scheduler Scheduler

	// shutdown is a signal channel used to stop background routines such as
	// the rate-limiter cleanup during a graceful shutdown.
	shutdown chan struct{}

	// closeOnce guards shutdown against double close.
	closeOnce sync.Once

	// path is the single endpoint accepting notification callbacks.
	path string

	// dispatchTimeout bounds how long a request waits for the dispatcher.
	// When exceeded the client gets a 500 while the dispatch keeps running.
	dispatchTimeout time.Duration

	// maxBody specifies the maximum allowed size (in bytes) for incoming HTTP request bodies.
	maxBody int64

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}
