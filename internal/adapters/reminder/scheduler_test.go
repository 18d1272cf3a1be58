package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

func newTestScheduler(t *testing.T) (*RedisScheduler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisScheduler(client), mr
}

func TestRedisSchedulerScheduleAndDue(t *testing.T) {
	s, mr := newTestScheduler(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	soon := ports.Reminder{TodoID: uuid.New(), UserID: uuid.New(), Title: "Pay rent", DueAt: now.Add(-time.Minute)}
	later := ports.Reminder{TodoID: uuid.New(), UserID: uuid.New(), Title: "Dentist", DueAt: now.Add(24 * time.Hour)}

	require.NoError(t, s.Schedule(ctx, soon))
	require.NoError(t, s.Schedule(ctx, later))

	members, err := mr.ZMembers(DueSetKey)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	due, err := s.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, soon.TodoID, due[0].TodoID)
	assert.Equal(t, soon.UserID, due[0].UserID)
	assert.Equal(t, "Pay rent", due[0].Title)
	assert.True(t, soon.DueAt.Equal(due[0].DueAt))
}

func TestRedisSchedulerDueReportsMalformedEntries(t *testing.T) {
	s, mr := newTestScheduler(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	past := float64(now.Add(-time.Hour).Unix())

	good := ports.Reminder{TodoID: uuid.New(), UserID: uuid.New(), Title: "Water plants", DueAt: now.Add(-time.Minute)}
	require.NoError(t, s.Schedule(ctx, good))

	badUser := uuid.New()
	_, err := mr.ZAdd(DueSetKey, past, badUser.String())
	require.NoError(t, err)
	mr.HSet(reminderKey(badUser), "user_id", "nobody", "title", "x", "due_at", now.Format(time.RFC3339))

	badDue := uuid.New()
	_, err = mr.ZAdd(DueSetKey, past, badDue.String())
	require.NoError(t, err)
	mr.HSet(reminderKey(badDue), "user_id", uuid.NewString(), "title", "y", "due_at", "tomorrow")

	_, err = mr.ZAdd(DueSetKey, past, "not-a-uuid")
	require.NoError(t, err)

	// listed but already cancelled
	_, err = mr.ZAdd(DueSetKey, past, uuid.NewString())
	require.NoError(t, err)

	due, err := s.Due(ctx, now)
	require.Len(t, due, 1)
	assert.Equal(t, good.TodoID, due[0].TodoID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), badUser.String())
	assert.Contains(t, err.Error(), badDue.String())
	assert.Contains(t, err.Error(), "not-a-uuid")
}

func TestRedisSchedulerRescheduleReplaces(t *testing.T) {
	s, mr := newTestScheduler(t)
	ctx := context.Background()
	r := ports.Reminder{TodoID: uuid.New(), Title: "Call mom", DueAt: time.Unix(1000, 0)}

	require.NoError(t, s.Schedule(ctx, r))
	r.DueAt = time.Unix(2000, 0)
	require.NoError(t, s.Schedule(ctx, r))

	score, err := mr.ZScore(DueSetKey, r.TodoID.String())
	require.NoError(t, err)
	assert.Equal(t, float64(2000), score)
}

func TestRedisSchedulerCancel(t *testing.T) {
	s, mr := newTestScheduler(t)
	ctx := context.Background()
	r := ports.Reminder{TodoID: uuid.New(), Title: "Gym", DueAt: time.Now().Add(time.Hour)}

	require.NoError(t, s.Schedule(ctx, r))
	require.NoError(t, s.Cancel(ctx, r.TodoID))

	assert.False(t, mr.Exists(reminderKey(r.TodoID)))
	members, _ := mr.ZMembers(DueSetKey)
	assert.NotContains(t, members, r.TodoID.String())

	// cancelling twice is harmless
	assert.NoError(t, s.Cancel(ctx, r.TodoID))
}

func TestLogScheduler(t *testing.T) {
	s := NewLogScheduler(logger.NewNop())
	assert.NoError(t, s.Schedule(context.Background(), ports.Reminder{TodoID: uuid.New()}))
	assert.NoError(t, s.Cancel(context.Background(), uuid.New()))
}
