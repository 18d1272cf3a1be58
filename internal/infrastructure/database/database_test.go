package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db := Wrap(sqlx.NewDb(raw, "postgres"))
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, db.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = db.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database health check failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConnectionInfo(t *testing.T) {
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	db := Wrap(sqlx.NewDb(raw, "postgres"))
	defer db.Close()

	info := db.GetConnectionInfo()
	assert.Contains(t, info, "open_connections")
	assert.Contains(t, info, "wait_duration")
}

func TestCloseWithoutHandle(t *testing.T) {
	assert.NoError(t, (&DB{}).Close())
}
