package connections

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/pkg/db/dbtest"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/security"
	"github.com/angelmondragon/boardsync/pkg/trello"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticMode struct {
	mode enums.ConnectionMode
}

func (m *staticMode) Mode(context.Context, uuid.UUID) (enums.ConnectionMode, error) {
	return m.mode, nil
}

type stubMembers struct {
	seen []trello.Credentials
	err  error
}

func (s *stubMembers) GetMember(_ context.Context, creds trello.Credentials, _ string) (*trello.Member, error) {
	s.seen = append(s.seen, creds)
	if s.err != nil {
		return nil, s.err
	}
	return &trello.Member{ID: "member-" + creds.Token, Username: "merchant"}, nil
}

type recorder struct {
	entries []eventlog.Entry
}

func (r *recorder) Record(_ context.Context, e eventlog.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

type fixture struct {
	svc     Service
	repo    Repository
	mode    *staticMode
	members *stubMembers
	events  *recorder
	shop    *models.Shop
	owner   *models.User
	staff   *models.User
}

func newFixture(t *testing.T, sealKey string) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	f := &fixture{
		repo:    NewRepository(client.DB()),
		mode:    &staticMode{mode: enums.ConnectionModeSingle},
		members: &stubMembers{},
		events:  &recorder{},
	}
	f.shop = &models.Shop{ID: uuid.New(), Domain: "demo.myshopify.com", Status: enums.ShopStatusActive}
	f.owner = &models.User{ID: uuid.New(), ShopID: f.shop.ID, Role: enums.UserRoleOwner}
	f.staff = &models.User{ID: uuid.New(), ShopID: f.shop.ID, Role: enums.UserRoleStaff}

	svc, err := NewService(ServiceParams{
		Repo:    f.repo,
		Modes:   f.mode,
		Members: f.members,
		Events:  f.events,
		Sealer:  security.NewSealer(sealKey),
		Tx:      client,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestConnectSharedAsOwner(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	conn, err := f.svc.Connect(ctx, f.shop, f.owner, ConnectInput{Token: " tok-1 "})
	require.NoError(t, err)
	assert.True(t, conn.IsShared())
	assert.Equal(t, "member-tok-1", conn.MemberID)
	assert.Equal(t, "read,write", conn.Scope)

	current, err := f.svc.Current(ctx, f.shop, f.staff)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, conn.ID, current.ID)

	require.Len(t, f.events.entries, 1)
	assert.Equal(t, string(enums.EventTypeConnectionCreated), f.events.entries[0].Type)
}

func TestConnectReplacesExistingShared(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	first, err := f.svc.Connect(ctx, f.shop, f.owner, ConnectInput{Token: "tok-1"})
	require.NoError(t, err)
	second, err := f.svc.Connect(ctx, f.shop, f.owner, ConnectInput{Token: "tok-2"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	rows, err := f.repo.ListByShop(ctx, f.shop.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "member-tok-2", rows[0].MemberID)
}

func TestStaffCannotManageSharedConnection(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.svc.Connect(ctx, f.shop, f.staff, ConnectInput{Token: "tok"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Empty(t, f.members.seen)

	err = f.svc.Disconnect(ctx, f.shop, f.staff)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestMultiModeKeepsOneConnectionPerUser(t *testing.T) {
	f := newFixture(t, "")
	f.mode.mode = enums.ConnectionModeMulti
	ctx := context.Background()

	staffConn, err := f.svc.Connect(ctx, f.shop, f.staff, ConnectInput{Token: "staff-tok"})
	require.NoError(t, err)
	require.NotNil(t, staffConn.UserID)
	assert.Equal(t, f.staff.ID, *staffConn.UserID)

	_, err = f.svc.Connect(ctx, f.shop, f.owner, ConnectInput{Token: "owner-tok"})
	require.NoError(t, err)

	rows, err := f.repo.ListByShop(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	mine, err := f.svc.Current(ctx, f.shop, f.staff)
	require.NoError(t, err)
	assert.Equal(t, "member-staff-tok", mine.MemberID)
}

func TestForShopReturnsOldestWithOpenedCredentials(t *testing.T) {
	f := newFixture(t, "seal-key")
	f.mode.mode = enums.ConnectionModeMulti
	ctx := context.Background()

	_, err := f.svc.Connect(ctx, f.shop, f.staff, ConnectInput{Token: "first-tok", TokenSecret: "first-secret"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = f.svc.Connect(ctx, f.shop, f.owner, ConnectInput{Token: "second-tok"})
	require.NoError(t, err)

	rows, err := f.repo.ListByShop(ctx, f.shop.ID)
	require.NoError(t, err)
	for _, row := range rows {
		assert.True(t, strings.HasPrefix(row.AccessToken, "sb1:"), "token stored sealed")
	}

	conn, creds, err := f.svc.ForShop(ctx, f.shop.ID)
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, "member-first-tok", conn.MemberID)
	assert.Equal(t, trello.Credentials{Token: "first-tok", TokenSecret: "first-secret"}, creds)
}

func TestForShopWithoutConnection(t *testing.T) {
	f := newFixture(t, "")
	conn, creds, err := f.svc.ForShop(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.Empty(t, creds.Token)
}

func TestConnectRejectsInvalidToken(t *testing.T) {
	f := newFixture(t, "")
	f.members.err = pkgerrors.Wrap(pkgerrors.CodeExternal, errors.New("invalid token"), "board service request failed").WithHTTPStatus(401)

	_, err := f.svc.Connect(context.Background(), f.shop, f.owner, ConnectInput{Token: "bad"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExternal))

	_, err = f.svc.Connect(context.Background(), f.shop, f.owner, ConnectInput{Token: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	err := f.svc.Disconnect(ctx, f.shop, f.owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Connect(ctx, f.shop, f.owner, ConnectInput{Token: "tok"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Disconnect(ctx, f.shop, f.owner))

	current, err := f.svc.Current(ctx, f.shop, f.owner)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Equal(t, string(enums.EventTypeConnectionRemoved), f.events.entries[len(f.events.entries)-1].Type)
}

func TestDeleteForShop(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.svc.Connect(ctx, f.shop, f.owner, ConnectInput{Token: "tok"})
	require.NoError(t, err)

	n, err := f.repo.DeleteForShop(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
