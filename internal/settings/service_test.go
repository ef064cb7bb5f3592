package settings

import (
	"context"
	"testing"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/pkg/db/dbtest"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	entries []eventlog.Entry
}

func (r *recorder) Record(_ context.Context, e eventlog.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func newTestService(t *testing.T) (Service, Repository, *recorder) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t).DB())
	rec := &recorder{}
	svc, err := NewService(repo, rec)
	require.NoError(t, err)
	return svc, repo, rec
}

func TestGetCreatesDefaultsOnce(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	shopID := uuid.New()

	first, err := svc.Get(ctx, shopID)
	require.NoError(t, err)
	assert.Equal(t, enums.ConnectionModeSingle, first.Mode)
	assert.False(t, first.Mappings.Data().NewOrder.Enabled)
	assert.Equal(t, models.DefaultPollIntervalSeconds, first.Notifications.Data().PollIntervalSeconds)

	second, err := svc.Get(ctx, shopID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, created, err := repo.EnsureDefault(ctx, shopID)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUpdatePersistsChangesAndRecordsEvent(t *testing.T) {
	svc, repo, rec := newTestService(t)
	ctx := context.Background()
	shopID := uuid.New()

	multi := enums.ConnectionModeMulti
	mappings := models.MappingOptions{NewOrder: models.MappingRule{Enabled: true, BoardID: "B1", ListID: "L1"}}
	updated, err := svc.Update(ctx, UpdateInput{ShopID: shopID, Mode: &multi, Mappings: &mappings})
	require.NoError(t, err)
	assert.Equal(t, enums.ConnectionModeMulti, updated.Mode)

	stored, err := repo.FindByShop(ctx, shopID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "L1", stored.Mappings.Data().NewOrder.ListID)
	assert.True(t, stored.Mappings.Data().NewOrder.Active())
	assert.Equal(t, enums.ConnectionModeMulti, stored.Mode)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, string(enums.EventTypeSettingsUpdated), rec.entries[0].Type)
}

func TestUpdateWithoutChangesIsSilent(t *testing.T) {
	svc, _, rec := newTestService(t)
	single := enums.ConnectionModeSingle

	_, err := svc.Update(context.Background(), UpdateInput{ShopID: uuid.New(), Mode: &single})
	require.NoError(t, err)
	assert.Empty(t, rec.entries)
}

func TestUpdateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	shopID := uuid.New()

	bad := enums.ConnectionMode("team")
	_, err := svc.Update(ctx, UpdateInput{ShopID: shopID, Mode: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	noList := models.MappingOptions{NewProduct: models.MappingRule{Enabled: true}}
	_, err = svc.Update(ctx, UpdateInput{ShopID: shopID, Mappings: &noList})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Contains(t, typed.Details(), "newProduct")

	tooFast := models.NotificationOptions{Enabled: true, PollIntervalSeconds: 1}
	_, err = svc.Update(ctx, UpdateInput{ShopID: shopID, Notifications: &tooFast})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, UpdateInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMode(t *testing.T) {
	svc, _, _ := newTestService(t)
	mode, err := svc.Mode(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.ConnectionModeSingle, mode)
}
