package chat

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	// ErrLoopStopped is returned when work is submitted to a stopped loop.
	ErrLoopStopped = errors.New("chat loop stopped")

	// ErrLoopBusy is returned by TryGo when the task buffer is full.
	ErrLoopBusy = errors.New("chat loop busy")

	// ErrTaskPanic is returned by Do when the submitted task panicked.
	ErrTaskPanic = errors.New("chat loop task panicked")
)

// Loop executes submitted work one unit at a time on a single goroutine.
// It is the only execution context allowed to touch the Sink.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop with a task buffer of the given size.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 1
	}

	return &Loop{
		tasks: make(chan func(), buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled or Stop is called.
// Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// Stop terminates Run and waits for the current task to finish.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}

// Go enqueues fn without waiting for it to run. It is safe to call from any goroutine.
func (l *Loop) Go(fn func()) error {
	select {
	case <-l.quit:
		return ErrLoopStopped
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrLoopStopped
	case <-l.done:
		return ErrLoopStopped
	}
}

// TryGo enqueues fn only if the buffer has room. It never blocks.
func (l *Loop) TryGo(fn func()) error {
	select {
	case <-l.quit:
		return ErrLoopStopped
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	default:
		return ErrLoopBusy
	}
}

// Do enqueues fn and waits for its result or for ctx to end.
// When ctx ends first, fn still runs later; only the wait is abandoned.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	err := l.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered panic in chat loop")
				res <- fmt.Errorf("%w: %v", ErrTaskPanic, r)
			}
		}()
		res <- fn()
	})
	if err != nil {
		return err
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// The task may have completed right before the loop exited
		select {
		case err := <-res:
			return err
		default:
			return ErrLoopStopped
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered panic in chat loop")
		}
	}()

	fn()
}
