package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

const (
	// DueSetKey is a sorted set of todo ids scored by due unix time
	DueSetKey     = "reminders:due"
	reminderKeyFm = "reminders:todo:%s"
)

// RedisScheduler queues reminders in Redis for a push gateway to poll
type RedisScheduler struct {
	client redis.UniversalClient
}

// NewRedisScheduler creates a Redis-backed reminder scheduler
func NewRedisScheduler(client redis.UniversalClient) *RedisScheduler {
	return &RedisScheduler{client: client}
}

func reminderKey(todoID uuid.UUID) string {
	return fmt.Sprintf(reminderKeyFm, todoID)
}

// Schedule replaces any pending reminder for the todo
func (s *RedisScheduler) Schedule(ctx context.Context, r ports.Reminder) error {
	member := r.TodoID.String()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, DueSetKey, redis.Z{Score: float64(r.DueAt.Unix()), Member: member})
		pipe.HSet(ctx, reminderKey(r.TodoID),
			"user_id", r.UserID.String(),
			"title", r.Title,
			"due_at", r.DueAt.UTC().Format(time.RFC3339),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}
	return nil
}

func (s *RedisScheduler) Cancel(ctx context.Context, todoID uuid.UUID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, DueSetKey, todoID.String())
		pipe.Del(ctx, reminderKey(todoID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cancel reminder: %w", err)
	}
	return nil
}

// Due returns reminders whose due time is at or before now, soonest first.
// Malformed entries are skipped and reported together in the error; entries
// cancelled while listing are skipped silently.
func (s *RedisScheduler) Due(ctx context.Context, now time.Time) ([]ports.Reminder, error) {
	ids, err := s.client.ZRangeByScore(ctx, DueSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}

	var malformed []error
	reminders := make([]ports.Reminder, 0, len(ids))
	for _, id := range ids {
		todoID, err := uuid.Parse(id)
		if err != nil {
			malformed = append(malformed, fmt.Errorf("reminder %q: todo id: %w", id, err))
			continue
		}

		fields, err := s.client.HGetAll(ctx, reminderKey(todoID)).Result()
		if err != nil {
			return nil, fmt.Errorf("load reminder %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}

		r, err := parseReminder(todoID, fields)
		if err != nil {
			malformed = append(malformed, fmt.Errorf("reminder %s: %w", id, err))
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders, errors.Join(malformed...)
}

func parseReminder(todoID uuid.UUID, fields map[string]string) (ports.Reminder, error) {
	userID, err := uuid.Parse(fields["user_id"])
	if err != nil {
		return ports.Reminder{}, fmt.Errorf("user id: %w", err)
	}
	dueAt, err := time.Parse(time.RFC3339, fields["due_at"])
	if err != nil {
		return ports.Reminder{}, fmt.Errorf("due at: %w", err)
	}
	return ports.Reminder{TodoID: todoID, UserID: userID, Title: fields["title"], DueAt: dueAt}, nil
}

// LogScheduler only records reminders in the log; used when Redis is disabled
type LogScheduler struct {
	log *logger.Logger
}

// NewLogScheduler creates a logging reminder scheduler
func NewLogScheduler(log *logger.Logger) *LogScheduler {
	return &LogScheduler{log: log.WithComponent("reminders")}
}

func (s *LogScheduler) Schedule(_ context.Context, r ports.Reminder) error {
	payload, _ := json.Marshal(r)
	s.log.Infow("Reminder scheduled", "todo_id", r.TodoID, "due_at", r.DueAt, "payload", string(payload))
	return nil
}

func (s *LogScheduler) Cancel(_ context.Context, todoID uuid.UUID) error {
	s.log.Infow("Reminder cancelled", "todo_id", todoID)
	return nil
}
