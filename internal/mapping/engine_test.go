package mapping

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/angelmondragon/boardsync/internal/boards/boardstest"
	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/internal/settings"
	"github.com/angelmondragon/boardsync/pkg/db/dbtest"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/angelmondragon/boardsync/pkg/trello"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type recorder struct {
	entries []eventlog.Entry
}

func (r *recorder) Record(_ context.Context, e eventlog.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorder) ofType(typ enums.EventType) []eventlog.Entry {
	var out []eventlog.Entry
	for _, e := range r.entries {
		if e.Type == string(typ) {
			out = append(out, e)
		}
	}
	return out
}

type stubConnections struct {
	conn *models.TrelloConnection
}

func (s *stubConnections) ForShop(context.Context, uuid.UUID) (*models.TrelloConnection, trello.Credentials, error) {
	if s.conn == nil {
		return nil, trello.Credentials{}, nil
	}
	return s.conn, trello.Credentials{Token: s.conn.AccessToken}, nil
}

type fixture struct {
	engine *Engine
	fake   *boardstest.Server
	db     *gorm.DB
	events *recorder
	conns  *stubConnections
	shopID uuid.UUID
}

func newFixture(t *testing.T, rules models.MappingOptions) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	f := &fixture{
		fake:   boardstest.New(t),
		db:     client.DB(),
		events: &recorder{},
		shopID: uuid.New(),
	}
	f.conns = &stubConnections{conn: &models.TrelloConnection{ShopID: f.shopID, AccessToken: "board-token"}}

	row := models.DefaultSettings(f.shopID)
	row.Mappings = datatypes.NewJSONType(rules)
	require.NoError(t, f.db.Create(&row).Error)

	engine, err := NewEngine(EngineParams{
		Settings:    settings.NewRepository(f.db),
		Connections: f.conns,
		Cards:       f.fake.Gateway(t),
		OrderCards:  NewOrderCards(f.db),
		Events:      f.events,
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

func orderEvent(t *testing.T, topic shopify.Topic, body string) shopify.Event {
	t.Helper()
	event, err := shopify.DecodeEvent(topic, []byte(body))
	require.NoError(t, err)
	return event
}

const orderBody = `{
	"id": 555,
	"order_number": 1001,
	"email": "ada@example.com",
	"total_price": "42.50",
	"currency": "USD",
	"customer": {"first_name": "Ada", "last_name": "Lovelace"},
	"line_items": [{"title": "Widget", "quantity": 2}, {"title": "Gadget", "quantity": 1}]
}`

func TestNewOrderCreatesCard(t *testing.T) {
	f := newFixture(t, models.MappingOptions{NewOrder: models.MappingRule{Enabled: true, ListID: "L1"}})

	res := f.engine.Process(context.Background(), f.shopID, orderEvent(t, shopify.TopicOrdersCreate, orderBody))
	require.Equal(t, OutcomeExecuted, res.Outcome, res.Err)
	assert.NotEmpty(t, res.CardID)

	calls := f.fake.Requests(http.MethodPost, "/1/cards")
	require.Len(t, calls, 1)
	assert.Equal(t, "L1", calls[0].Query.Get("idList"))
	assert.Contains(t, calls[0].Query.Get("name"), "1001")
	desc := calls[0].Query.Get("desc")
	assert.Contains(t, desc, "Ada Lovelace")
	assert.Contains(t, desc, "42.50 USD")
	assert.Contains(t, desc, "**Items:** 3")

	executed := f.events.ofType(enums.EventTypeMappingExecuted)
	require.Len(t, executed, 1)
	raw, err := json.Marshal(executed[0].Payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), res.CardID)

	link, err := NewOrderCards(f.db).Find(context.Background(), f.shopID, "555")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, res.CardID, link.CardID)
}

func TestDisabledRuleMakesNoCalls(t *testing.T) {
	f := newFixture(t, models.MappingOptions{NewOrder: models.MappingRule{Enabled: false, ListID: "L1"}})

	res := f.engine.Process(context.Background(), f.shopID, orderEvent(t, shopify.TopicOrdersCreate, orderBody))
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, f.fake.Requests(http.MethodPost, "/1/cards"))
	assert.Empty(t, f.events.entries)
}

func TestUnknownTopicIsSilent(t *testing.T) {
	f := newFixture(t, models.MappingOptions{NewOrder: models.MappingRule{Enabled: true, ListID: "L1"}})

	res := f.engine.Process(context.Background(), f.shopID, orderEvent(t, shopify.Topic("carts/update"), `{}`))
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, f.fake.Requests(http.MethodPost, "/1/"))
	assert.Empty(t, f.fake.Requests(http.MethodPut, "/1/"))
	assert.Empty(t, f.events.entries)
}

func TestMissingConnectionIsSoftSkip(t *testing.T) {
	f := newFixture(t, models.MappingOptions{NewOrder: models.MappingRule{Enabled: true, ListID: "L1"}})
	f.conns.conn = nil

	res := f.engine.Process(context.Background(), f.shopID, orderEvent(t, shopify.TopicOrdersCreate, orderBody))
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Empty(t, f.events.entries)
}

func TestMissingSettingsIsSoftSkip(t *testing.T) {
	f := newFixture(t, models.MappingOptions{})

	res := f.engine.Process(context.Background(), uuid.New(), orderEvent(t, shopify.TopicOrdersCreate, orderBody))
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, "no settings", res.Reason)
}

func TestFulfilledMovesLinkedCard(t *testing.T) {
	f := newFixture(t, models.MappingOptions{
		NewOrder:       models.MappingRule{Enabled: true, ListID: "L1"},
		OrderFulfilled: models.MappingRule{Enabled: true, ListID: "L2"},
	})
	ctx := context.Background()

	created := f.engine.Process(ctx, f.shopID, orderEvent(t, shopify.TopicOrdersCreate, orderBody))
	require.Equal(t, OutcomeExecuted, created.Outcome)

	moved := f.engine.Process(ctx, f.shopID, orderEvent(t, shopify.TopicOrdersFulfilled, orderBody))
	require.Equal(t, OutcomeExecuted, moved.Outcome, moved.Err)
	assert.Equal(t, created.CardID, moved.CardID)

	puts := f.fake.Requests(http.MethodPut, "/1/cards/"+created.CardID)
	require.Len(t, puts, 1)
	assert.Equal(t, "L2", puts[0].Query.Get("idList"))

	link, err := NewOrderCards(f.db).Find(ctx, f.shopID, "555")
	require.NoError(t, err)
	assert.Equal(t, "L2", link.ListID)
}

func TestFulfilledWithoutLinkOnlyLogs(t *testing.T) {
	f := newFixture(t, models.MappingOptions{OrderFulfilled: models.MappingRule{Enabled: true, ListID: "L2"}})

	res := f.engine.Process(context.Background(), f.shopID, orderEvent(t, shopify.TopicOrdersFulfilled, orderBody))
	assert.Equal(t, OutcomeExecuted, res.Outcome)
	assert.Empty(t, f.fake.Requests(http.MethodPut, "/1/cards"))

	executed := f.events.ofType(enums.EventTypeMappingExecuted)
	require.Len(t, executed, 1)
	payload := executed[0].Payload.(map[string]any)
	assert.Equal(t, false, payload["card_linked"])
}

func TestProductAndCustomerCards(t *testing.T) {
	f := newFixture(t, models.MappingOptions{
		NewProduct:  models.MappingRule{Enabled: true, ListID: "LP"},
		NewCustomer: models.MappingRule{Enabled: true, ListID: "LC"},
	})
	ctx := context.Background()

	product := orderEvent(t, shopify.TopicProductsCreate, `{"id": 9, "title": "Blue Mug", "variants": [{"price": "12.00", "sku": "MUG-1", "inventory_quantity": 7}]}`)
	require.Equal(t, OutcomeExecuted, f.engine.Process(ctx, f.shopID, product).Outcome)

	customer := orderEvent(t, shopify.TopicCustomersCreate, `{"id": 3, "first_name": "Grace", "last_name": "Hopper", "email": "grace@example.com", "orders_count": 2, "total_spent": "99.90"}`)
	require.Equal(t, OutcomeExecuted, f.engine.Process(ctx, f.shopID, customer).Outcome)

	calls := f.fake.Requests(http.MethodPost, "/1/cards")
	require.Len(t, calls, 2)
	assert.Equal(t, "Blue Mug", calls[0].Query.Get("name"))
	assert.Contains(t, calls[0].Query.Get("desc"), "MUG-1")
	assert.Contains(t, calls[0].Query.Get("desc"), "**Inventory:** 7")
	assert.Equal(t, "Grace Hopper", calls[1].Query.Get("name"))
	assert.True(t, strings.Contains(calls[1].Query.Get("desc"), "grace@example.com"))
}

func TestUpstreamFailureIsRecordedAndSwallowed(t *testing.T) {
	f := newFixture(t, models.MappingOptions{NewOrder: models.MappingRule{Enabled: true, ListID: "L1"}})
	f.fake.FailNext(http.MethodPost, "/1/cards", 1, http.StatusInternalServerError)

	res := f.engine.Process(context.Background(), f.shopID, orderEvent(t, shopify.TopicOrdersCreate, orderBody))
	assert.Equal(t, OutcomeFailed, res.Outcome)
	require.Error(t, res.Err)

	failures := f.events.ofType(enums.EventTypeMappingError)
	require.Len(t, failures, 1)
	assert.Error(t, failures[0].Err)
	assert.Empty(t, f.events.ofType(enums.EventTypeMappingExecuted))
}
