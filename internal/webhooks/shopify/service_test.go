package shopifywebhook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/internal/mapping"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubShops struct {
	shop         *models.Shop
	uninstalled  []string
	redacted     []string
	uninstallErr error
}

func (s *stubShops) FindByDomain(context.Context, string) (*models.Shop, error) {
	return s.shop, nil
}

func (s *stubShops) Uninstall(_ context.Context, domain string) (*models.Shop, error) {
	s.uninstalled = append(s.uninstalled, domain)
	return s.shop, s.uninstallErr
}

func (s *stubShops) Redact(_ context.Context, domain string) error {
	s.redacted = append(s.redacted, domain)
	return nil
}

type stubEngine struct {
	events []shopify.Event
}

func (e *stubEngine) Process(_ context.Context, _ uuid.UUID, event shopify.Event) mapping.Result {
	e.events = append(e.events, event)
	return mapping.Result{Outcome: mapping.OutcomeExecuted}
}

type recorder struct {
	entries []eventlog.Entry
}

func (r *recorder) Record(_ context.Context, e eventlog.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func newService(t *testing.T, shop *models.Shop) (*Service, *stubShops, *stubEngine, *recorder) {
	t.Helper()
	shops := &stubShops{shop: shop}
	engine := &stubEngine{}
	rec := &recorder{}
	svc, err := NewService(ServiceParams{Shops: shops, Engine: engine, Events: rec})
	require.NoError(t, err)
	return svc, shops, engine, rec
}

func activeShop() *models.Shop {
	return &models.Shop{ID: uuid.New(), Domain: "demo.myshopify.com", Status: enums.ShopStatusActive}
}

func TestOrdersGoToMappingEngine(t *testing.T) {
	svc, _, engine, _ := newService(t, activeShop())

	result, err := svc.Handle(context.Background(), Delivery{
		Topic:      shopify.TopicOrdersCreate,
		ShopDomain: "Demo.myshopify.com",
		Body:       []byte(`{"id": 1, "order_number": 1001}`),
	})
	require.NoError(t, err)
	assert.Equal(t, string(mapping.OutcomeExecuted), result)
	require.Len(t, engine.events, 1)
	assert.Equal(t, int64(1001), engine.events[0].Order.OrderNumber)
}

func TestUninstallBypassesMapping(t *testing.T) {
	svc, shops, engine, _ := newService(t, activeShop())

	result, err := svc.Handle(context.Background(), Delivery{Topic: shopify.TopicAppUninstalled, ShopDomain: "demo.myshopify.com", Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, ResultUninstalled, result)
	assert.Equal(t, []string{"demo.myshopify.com"}, shops.uninstalled)
	assert.Empty(t, engine.events)
}

func TestUninstallForUnknownShopIsIgnored(t *testing.T) {
	svc, shops, _, _ := newService(t, nil)
	shops.uninstallErr = pkgerrors.New(pkgerrors.CodeNotFound, "shop not installed")

	result, err := svc.Handle(context.Background(), Delivery{Topic: shopify.TopicAppUninstalled, ShopDomain: "ghost.myshopify.com"})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)
}

func TestUninstallFailureIsReturned(t *testing.T) {
	svc, shops, _, _ := newService(t, activeShop())
	shops.uninstallErr = errors.New("db down")

	result, err := svc.Handle(context.Background(), Delivery{Topic: shopify.TopicAppUninstalled, ShopDomain: "demo.myshopify.com"})
	require.Error(t, err)
	assert.Equal(t, ResultError, result)
}

func TestShopRedact(t *testing.T) {
	svc, shops, _, _ := newService(t, activeShop())
	result, err := svc.Handle(context.Background(), Delivery{Topic: shopify.TopicShopRedact, ShopDomain: "demo.myshopify.com"})
	require.NoError(t, err)
	assert.Equal(t, ResultRedacted, result)
	assert.Len(t, shops.redacted, 1)
}

func TestCustomerPrivacyTopicsAreLogged(t *testing.T) {
	shop := activeShop()
	svc, _, engine, rec := newService(t, shop)

	result, err := svc.Handle(context.Background(), Delivery{
		Topic:      shopify.TopicCustomersRedact,
		ShopDomain: "demo.myshopify.com",
		Body:       []byte(`{"shop_domain": "demo.myshopify.com", "customer": {"id": 7}, "orders_to_redact": [1, 2]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, ResultLogged, result)
	assert.Empty(t, engine.events)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, string(enums.EventTypeCustomerRedact), rec.entries[0].Type)
	assert.Equal(t, shop.ID, *rec.entries[0].ShopID)
	payload := rec.entries[0].Payload.(map[string]any)
	assert.Equal(t, int64(7), payload["customer_id"])
}

func TestInactiveShopAndUnknownTopicAreIgnored(t *testing.T) {
	inactive := activeShop()
	inactive.Status = enums.ShopStatusUninstalled
	svc, _, engine, _ := newService(t, inactive)

	result, err := svc.Handle(context.Background(), Delivery{Topic: shopify.TopicOrdersCreate, ShopDomain: "demo.myshopify.com", Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)

	svc, _, engine, _ = newService(t, activeShop())
	result, err = svc.Handle(context.Background(), Delivery{Topic: shopify.Topic("carts/update"), ShopDomain: "demo.myshopify.com", Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, result)
	assert.Empty(t, engine.events)
}

func TestMalformedBodyRecordsWebhookError(t *testing.T) {
	svc, _, engine, rec := newService(t, activeShop())

	result, err := svc.Handle(context.Background(), Delivery{Topic: shopify.TopicOrdersCreate, ShopDomain: "demo.myshopify.com", Body: []byte(`{not json`)})
	require.NoError(t, err)
	assert.Equal(t, ResultInvalid, result)
	assert.Empty(t, engine.events)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, string(enums.EventTypeWebhookError), rec.entries[0].Type)
}

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Minute, DedupeScope)
	require.Error(t, err)

	guard, err := NewIdempotencyGuard(&memoryStore{keys: map[string]struct{}{}}, time.Minute, DedupeScope)
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "delivery-1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "delivery-1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "delivery-1"))
	seen, err = guard.CheckAndMark(ctx, "delivery-1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = guard.CheckAndMark(ctx, "")
	assert.Error(t, err)
}
