//go:build integration

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

func TestRunMigrations_MySQL(t *testing.T) {
	ctx := t.Context()

	ctr, err := mysql.Run(ctx, "mysql:8.4",
		mysql.WithDatabase("syfte"),
		mysql.WithUsername("syfte"),
		mysql.WithPassword("syfte"),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true", "loc=UTC")
	require.NoError(t, err)

	database, err := Init(DriverMySQL, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(database) })

	require.NoError(t, RunMigrations(database.DB, DriverMySQL))

	version, err := MigrationVersion(database.DB, DriverMySQL)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	var actions int
	require.NoError(t, database.Get(&actions, `SELECT COUNT(*) FROM actions WHERE is_custom = 0`))
	assert.Positive(t, actions)

	var achievements int
	require.NoError(t, database.Get(&achievements, `SELECT COUNT(*) FROM achievements`))
	assert.Positive(t, achievements)

	// down and up again must be clean
	require.NoError(t, MigrateDown(database.DB, DriverMySQL))
	require.NoError(t, RunMigrations(database.DB, DriverMySQL))
}
