package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	var noCtx context.Context
	assert.Same(t, db, base.DB(noCtx))

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	assert.Equal(t, ctx, base.DB(ctx).Statement.Context)
}

func TestSwap(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	assert.Equal(t, base, base.Swap(nil))

	tx := db.Begin()
	defer tx.Rollback()
	var noCtx context.Context
	assert.Same(t, tx, base.Swap(tx).DB(noCtx))
}

func TestFindOne(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&widget{ID: 1, Name: "card"}).Error)
	base := NewBase(db)
	ctx := context.Background()

	var found widget
	ok, err := base.FindOne(ctx, &found, "name = ?", "card")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, found.ID)

	var missing widget
	ok, err = base.FindOne(ctx, &missing, "name = ?", "board")
	require.NoError(t, err)
	assert.False(t, ok)
}
