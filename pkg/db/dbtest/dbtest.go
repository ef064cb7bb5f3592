// Package dbtest opens isolated in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/db"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Open returns a migrated client backed by a private in-memory database.
func Open(t *testing.T) *db.Client {
	t.Helper()

	cfg := config.DBConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxIdleConns: 2,
	}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(models.All()...))
	return client
}
