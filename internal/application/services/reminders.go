package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

// ReminderDispatcher runs reminder commands off the request path.
// Commands for one todo run in submission order; different todos run
// concurrently. Failures are logged and dropped; Wait drains everything.
type ReminderDispatcher struct {
	scheduler ports.ReminderScheduler
	timeout   time.Duration
	logger    *logger.Logger
	wg        sync.WaitGroup

	mu     sync.Mutex
	queues map[uuid.UUID][]reminderCommand
}

type reminderCommand struct {
	op string
	fn func(context.Context) error
}

// NewReminderDispatcher returns nil when scheduler is nil, which disables reminders
func NewReminderDispatcher(scheduler ports.ReminderScheduler, timeout time.Duration, logger *logger.Logger) *ReminderDispatcher {
	if scheduler == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ReminderDispatcher{
		scheduler: scheduler,
		timeout:   timeout,
		logger:    logger.WithComponent("reminders"),
		queues:    make(map[uuid.UUID][]reminderCommand),
	}
}

// Schedule asks for a notification at r.DueAt, replacing any earlier one
func (d *ReminderDispatcher) Schedule(r ports.Reminder) {
	if d == nil {
		return
	}
	d.run("schedule", r.TodoID, func(ctx context.Context) error {
		return d.scheduler.Schedule(ctx, r)
	})
}

// Cancel withdraws the pending notification for a todo, if any
func (d *ReminderDispatcher) Cancel(todoID uuid.UUID) {
	if d == nil {
		return
	}
	d.run("cancel", todoID, func(ctx context.Context) error {
		return d.scheduler.Cancel(ctx, todoID)
	})
}

// Wait blocks until every dispatched command has finished
func (d *ReminderDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// run queues fn behind earlier commands for the same todo. A todo with a
// queue entry already has a drain goroutine, even when the queue is empty.
func (d *ReminderDispatcher) run(op string, todoID uuid.UUID, fn func(context.Context) error) {
	d.wg.Add(1)

	d.mu.Lock()
	queue, draining := d.queues[todoID]
	d.queues[todoID] = append(queue, reminderCommand{op: op, fn: fn})
	d.mu.Unlock()

	if !draining {
		go d.drain(todoID)
	}
}

func (d *ReminderDispatcher) drain(todoID uuid.UUID) {
	for {
		d.mu.Lock()
		queue := d.queues[todoID]
		if len(queue) == 0 {
			delete(d.queues, todoID)
			d.mu.Unlock()
			return
		}
		cmd := queue[0]
		d.queues[todoID] = queue[1:]
		d.mu.Unlock()

		d.exec(todoID, cmd)
	}
}

func (d *ReminderDispatcher) exec(todoID uuid.UUID, cmd reminderCommand) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := cmd.fn(ctx); err != nil {
		d.logger.WithError(err).Warnw("Reminder command failed", "op", cmd.op, "todo_id", todoID)
	}
}
