package users

import (
	"context"
	"testing"

	"github.com/angelmondragon/boardsync/pkg/db"
	"github.com/angelmondragon/boardsync/pkg/db/dbtest"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityIsUniquePerShop(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	shopA, shopB := uuid.New(), uuid.New()

	require.NoError(t, repo.Create(ctx, &models.User{ShopID: shopA, Identity: "42", Role: enums.UserRoleOwner}))
	require.NoError(t, repo.Create(ctx, &models.User{ShopID: shopB, Identity: "42", Role: enums.UserRoleOwner}))

	err := repo.Create(ctx, &models.User{ShopID: shopA, Identity: "42", Role: enums.UserRoleStaff})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	found, err := repo.FindByIdentity(ctx, shopA, "42")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, enums.UserRoleOwner, found.Role)

	missing, err := repo.FindByIdentity(ctx, shopA, "43")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := repo.CountByShop(ctx, shopA)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.DeleteForShop(ctx, shopA))
	n, err = repo.CountByShop(ctx, shopA)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFindByIDIsShopScoped(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	user := &models.User{ShopID: uuid.New(), Identity: "1", Role: enums.UserRoleStaff}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindByID(ctx, user.ShopID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	other, err := repo.FindByID(ctx, uuid.New(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestFindBySessionPrefersSubject(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()
	shopID := uuid.New()
	subject, session := "42", "sess-1"

	bySession := &models.User{ShopID: shopID, Identity: "sess-1", SessionID: &session, Role: enums.UserRoleStaff}
	require.NoError(t, repo.Create(ctx, bySession))

	found, err := repo.FindBySession(ctx, shopID, "42", "sess-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, bySession.ID, found.ID)

	bySubject := &models.User{ShopID: shopID, Identity: "other", Subject: &subject, Role: enums.UserRoleOwner}
	require.NoError(t, repo.Create(ctx, bySubject))

	found, err = repo.FindBySession(ctx, shopID, "42", "sess-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, bySubject.ID, found.ID)

	missing, err := repo.FindBySession(ctx, shopID, "", "")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.FindBySession(ctx, uuid.New(), "42", "sess-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
