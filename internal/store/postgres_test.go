//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/crudtables/internal/config"
)

// openPostgres connects to DATABASE_URL with migrations applied. Rows of
// the resources the tests write are removed before and after.
func openPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	p, err := OpenPostgres(ctx, config.StoreConfig{URL: url, MaxConns: 4, AutoMigrate: true})
	require.NoError(t, err)

	purge := func() {
		_, err := p.pool.Exec(ctx, `DELETE FROM records WHERE resource = ANY($1)`, []string{"people", "other"})
		require.NoError(t, err)
	}
	purge()
	t.Cleanup(func() {
		purge()
		p.Close()
	})
	return p
}

func TestPostgres_Backend(t *testing.T) {
	p := openPostgres(t)

	require.NoError(t, p.Ping(context.Background()))
	exerciseBackend(t, p)
}

func TestPostgres_Migrations(t *testing.T) {
	p := openPostgres(t)

	version, dirty, err := p.MigrationVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 2, version)

	require.NoError(t, p.MigrateDown(1))
	version, _, err = p.MigrationVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	require.NoError(t, p.MigrateUp())
	// Applying again is a no-op.
	require.NoError(t, p.MigrateUp())
	version, _, err = p.MigrationVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)

	assert.Error(t, p.MigrateDown(0))
}
