package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultInterval = time.Minute

// Task is a named unit of periodic work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs a fixed set of tasks on an interval. Each task has its own
// worker, so a task never overlaps with itself and a slow task does not delay
// the others.
type Dispatcher struct {
	interval time.Duration
	tasks    []Task
	workers  []chan struct{}
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with one worker per task.
// If interval <= 0, defaultInterval is used.
func NewDispatcher(interval time.Duration, log zerolog.Logger, tasks ...Task) *Dispatcher {
	if interval <= 0 {
		interval = defaultInterval
	}
	d := &Dispatcher{
		interval: interval,
		tasks:    tasks,
		workers:  make([]chan struct{}, len(tasks)),
		log:      log,
	}
	for i := range d.workers {
		// One pending run at most; further triggers coalesce.
		d.workers[i] = make(chan struct{}, 1)
	}
	return d
}

// Run fires every task immediately and then once per interval. It blocks until
// ctx is cancelled and all workers have returned.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i, ch := range d.workers {
		i, ch := i, ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runWorker(ctx, i, ch)
		}()
	}

	d.Trigger()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			d.Trigger()
		}
	}
}

// Trigger queues one run of every task without blocking.
func (d *Dispatcher) Trigger() {
	for _, ch := range d.workers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan struct{}) {
	task := d.tasks[id]
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if err := task.Run(ctx); err != nil && ctx.Err() == nil {
				d.log.Error().Err(err).
					Str("task", task.Name).
					Int("worker_id", id).
					Msg("task failed")
			}
		}
	}
}
