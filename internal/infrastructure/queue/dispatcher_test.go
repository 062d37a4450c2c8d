package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDispatcher_RunsImmediatelyAndOnInterval(t *testing.T) {
	var runs atomic.Int32
	d := NewDispatcher(10*time.Millisecond, zerolog.Nop(), Task{
		Name: "count",
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	if n := runs.Load(); n < 3 {
		t.Fatalf("expected several runs, got %d", n)
	}
}

func TestDispatcher_TaskNeverOverlapsItself(t *testing.T) {
	var active, maxActive atomic.Int32
	d := NewDispatcher(time.Millisecond, zerolog.Nop(), Task{
		Name: "slow",
		Run: func(context.Context) error {
			n := active.Add(1)
			for {
				m := maxActive.Load()
				if n <= m || maxActive.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	if m := maxActive.Load(); m != 1 {
		t.Fatalf("task ran concurrently with itself (%d)", m)
	}
}

func TestDispatcher_FailingTaskDoesNotStopOthers(t *testing.T) {
	var ok, failed atomic.Int32
	d := NewDispatcher(5*time.Millisecond, zerolog.Nop(),
		Task{Name: "fail", Run: func(context.Context) error {
			failed.Add(1)
			return errors.New("boom")
		}},
		Task{Name: "ok", Run: func(context.Context) error {
			ok.Add(1)
			return nil
		}},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	if failed.Load() < 2 || ok.Load() < 2 {
		t.Fatalf("expected both tasks to keep running, got fail=%d ok=%d", failed.Load(), ok.Load())
	}
}

func TestNewDispatcher_DefaultInterval(t *testing.T) {
	d := NewDispatcher(0, zerolog.Nop())
	if d.interval != defaultInterval {
		t.Fatalf("expected default interval, got %v", d.interval)
	}
}
