package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop(16)
	go l.Run(context.Background())
	t.Cleanup(l.Stop)

	return l
}

func TestLoopRunsTasksInOrderOnOneGoroutine(t *testing.T) {
	l := startLoop(t)

	var (
		mu     sync.Mutex
		order  []int
		active int
		maxAct int
	)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		i := i
		if err := l.Go(func() {
			defer wg.Done()
			mu.Lock()
			active++
			if active > maxAct {
				maxAct = active
			}
			order = append(order, i)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Go: %v", err)
		}
	}
	wg.Wait()

	if maxAct != 1 {
		t.Fatalf("tasks overlapped: max concurrency %d", maxAct)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestLoopDoReturnsResult(t *testing.T) {
	l := startLoop(t)
	want := errors.New("delivery failed")

	if err := l.Do(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("Do error = %v, want %v", err, want)
	}
	if err := l.Do(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("Do error = %v, want nil", err)
	}
}

func TestLoopDoTimeoutDoesNotAbortTask(t *testing.T) {
	l := startLoop(t)

	finished := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func() error {
		time.Sleep(100 * time.Millisecond)
		close(finished)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Do error = %v, want deadline exceeded", err)
	}

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("task was abandoned")
	}
}

func TestLoopSurvivesPanic(t *testing.T) {
	l := startLoop(t)

	err := l.Do(context.Background(), func() error { panic("boom") })
	if !errors.Is(err, ErrTaskPanic) {
		t.Fatalf("Do error = %v, want ErrTaskPanic", err)
	}
	if err := l.Do(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("loop dead after panic: %v", err)
	}
}

func TestLoopRejectsAfterStop(t *testing.T) {
	l := NewLoop(1)
	go l.Run(context.Background())
	l.Stop()

	if err := l.Go(func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Fatalf("Go after Stop = %v, want ErrLoopStopped", err)
	}
}

func TestLoopTryGoDropsWhenFull(t *testing.T) {
	// Not running, so the single slot stays occupied
	l := NewLoop(1)

	if err := l.TryGo(func() {}); err != nil {
		t.Fatalf("first TryGo = %v", err)
	}
	if err := l.TryGo(func() {}); !errors.Is(err, ErrLoopBusy) {
		t.Fatalf("TryGo on full buffer = %v, want ErrLoopBusy", err)
	}

	ran := make(chan struct{})
	go l.Run(context.Background())
	if err := l.Do(context.Background(), func() error { close(ran); return nil }); err != nil {
		t.Fatal(err)
	}
	<-ran

	l.Stop()
	if err := l.TryGo(func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Fatalf("TryGo after Stop = %v, want ErrLoopStopped", err)
	}
}

type rolesSink struct {
	LogSink
	roles []string
	err   error
}

func (s *rolesSink) GetUserRoles(_, _ string) ([]string, error) {
	return s.roles, s.err
}

func TestRoleAuthorizer(t *testing.T) {
	ok := RoleAuthorizer{Sink: &rolesSink{roles: []string{"1", "42"}}}
	if !ok.HasRole("g", "u", "42") {
		t.Fatal("expected role 42 to be granted")
	}
	if ok.HasRole("g", "u", "7") {
		t.Fatal("role 7 must be denied")
	}
	if ok.HasRole("g", "u", "") {
		t.Fatal("empty role must be denied")
	}

	failing := RoleAuthorizer{Sink: &rolesSink{err: errors.New("lookup failed")}}
	if failing.HasRole("g", "u", "42") {
		t.Fatal("lookup errors must deny")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("короткий", 20); got != "короткий" {
		t.Fatalf("short text changed: %q", got)
	}
	if got := Truncate("абвгдежзий", 6); got != "абв..." {
		t.Fatalf("Truncate = %q", got)
	}
}
