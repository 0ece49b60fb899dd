package database

import (
	"io/fs"
	"testing"

	"dental-referral-tracker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationURL(t *testing.T) {
	got := migrationURL(config.DBConfig{Host: "db", Port: "5432", User: "clinic", Password: "p@ss", Name: "referrals"})
	assert.Equal(t, "pgx5://clinic:p%40ss@db:5432/referrals?sslmode=disable", got)
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFiles, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
