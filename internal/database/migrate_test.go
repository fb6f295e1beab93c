package database

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	for _, table := range []string{"meal", "reservation", "review"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, string(body), "ON DELETE CASCADE")

	_, _, err = src.ReadDown(first)
	assert.NoError(t, err)
}

// Runs only against a real server, e.g. TEST_DATABASE_URL=postgres://postgres@localhost/meals_test?sslmode=disable
func TestMigrateRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	require.NoError(t, MigrateUp(dsn, log))
	require.NoError(t, MigrateUp(dsn, log))

	db, err := Open(context.Background(), dsn, PoolOptions{MaxOpenConns: 2, MaxIdleConns: 1})
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM meal`))

	require.NoError(t, MigrateDown(dsn, 0, log))
}
