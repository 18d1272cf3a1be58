package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tasklist/core/internal/infrastructure/config"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)

	l, err := New(config.LoggerConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLogProcedureCall(t *testing.T) {
	l, logs := observed()
	userID := uuid.New()

	l.ForRequest("req-1", userID).LogProcedureCall("todos.list", "OK", 1500*time.Microsecond, nil)
	l.LogProcedureCall("todos.statistics", "OK", 2*SlowProcedure, nil)
	l.ForRequest("req-2", uuid.Nil).LogProcedureCall("todos.create", "InternalError", 3*time.Millisecond, errors.New("db down"))

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, userID.String(), entries[0].ContextMap()["user_id"])
	assert.Equal(t, "todos.list", entries[0].ContextMap()["procedure"])
	assert.Equal(t, 1.5, entries[0].ContextMap()["duration_ms"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "Slow procedure", entries[1].Message)

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "db down", entries[2].ContextMap()["error"])
	assert.NotContains(t, entries[2].ContextMap(), "user_id")
}

func TestSecurityAndUserActionEvents(t *testing.T) {
	l, logs := observed()
	userID := uuid.New()

	l.WithComponent("rpc").LogSecurityEvent("invalid_token", "ip", "10.0.0.1", "reason", "expired")
	l.LogUserAction(userID, "create_todo", "priority", "urgent")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "rpc", entries[0].ContextMap()["component"])
	assert.Equal(t, "invalid_token", entries[0].ContextMap()["security_event"])
	assert.Equal(t, "expired", entries[0].ContextMap()["reason"])

	assert.Equal(t, "create_todo", entries[1].ContextMap()["action"])
	assert.Equal(t, userID.String(), entries[1].ContextMap()["user_id"])
	assert.Equal(t, "urgent", entries[1].ContextMap()["priority"])
}
