package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/db"
	"github.com/angelmondragon/boardsync/pkg/db/dbtest"
	"github.com/angelmondragon/boardsync/pkg/logger"
)

func TestBundledMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestBundledMigrationsCreateCoreTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)

	var all strings.Builder
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		require.NoError(t, err)
		all.Write(b)
	}
	sql := all.String()

	for _, table := range []string{"shops", "users", "trello_connections", "trello_webhooks", "settings", "event_logs", "order_cards"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
		assert.Contains(t, sql, "DROP TABLE IF EXISTS "+table+";", table)
	}
	assert.Contains(t, sql, "ON trello_connections (shop_id) WHERE user_id IS NULL")
	assert.Contains(t, sql, "idx_users_shop_identity ON users (shop_id, identity)")
	assert.Contains(t, sql, "idx_order_cards_shop_order ON order_cards (shop_id, order_id)")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Card Labels!", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240601093000_add_card_labels.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "add card labels", now)
	assert.ErrorContains(t, err, "already exists")

	_, err = CreateSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "invalid migration filename")

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_only_up.sql"), []byte("-- +goose Up\n"), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "+goose Down")

	dir = t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_b.sql"), body, 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "duplicate migration version")
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("20240601090000")
	require.NoError(t, err)
	assert.EqualValues(t, 20240601090000, v)

	for _, bad := range []string{"", "2024", "2024060109000x"} {
		_, err := parseVersion(bad)
		assert.Error(t, err, bad)
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	cfg.FeatureFlags.AutoMigrate = true
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.New(logger.Options{ServiceName: "test"}), nil))
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	client := dbtest.Open(t)
	cfg := &config.Config{
		App: config.AppConfig{Env: "dev"},
		DB:  config.DBConfig{Driver: "sqlite"},
	}
	cfg.FeatureFlags.AutoMigrate = true

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.New(logger.Options{ServiceName: "test"}), client))
	assert.True(t, client.DB().Migrator().HasTable("order_cards"))
}

func TestAutoMigrateModelsRequiresClient(t *testing.T) {
	var client *db.Client
	assert.Error(t, AutoMigrateModels(context.Background(), client))
}
