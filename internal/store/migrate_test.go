package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../db/migrations"

func TestMigrateUpAndVersion(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer s.Close()

	version, dirty, err := s.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Zero(t, version)

	require.NoError(t, s.MigrateUp(migrationsDir))

	version, dirty, err = s.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	// Running again is a no-op.
	require.NoError(t, s.MigrateUp(migrationsDir))
}

func TestMigrateDown(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.MigrateUp(migrationsDir))
	require.NoError(t, s.MigrateDown(migrationsDir))

	version, dirty, err := s.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Zero(t, version)
}
