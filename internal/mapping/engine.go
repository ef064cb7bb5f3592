package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/pkg/db"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/metrics"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/angelmondragon/boardsync/pkg/trello"
	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeSkipped  Outcome = "skipped"
	OutcomeExecuted Outcome = "executed"
	OutcomeFailed   Outcome = "failed"
)

// Result reports what a single Process call did. Err is set only for
// OutcomeFailed and has already been recorded.
type Result struct {
	Outcome Outcome
	Reason  string
	CardID  string
	Err     error
}

func skipped(reason string) Result {
	return Result{Outcome: OutcomeSkipped, Reason: reason}
}

type settingsFinder interface {
	FindByShop(ctx context.Context, shopID uuid.UUID) (*models.Settings, error)
}

type credentialSource interface {
	ForShop(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, trello.Credentials, error)
}

// Cards is the slice of the board gateway the engine drives.
type Cards interface {
	CreateCard(ctx context.Context, creds trello.Credentials, params trello.CreateCardParams) (*trello.Card, error)
	UpdateCard(ctx context.Context, creds trello.Credentials, cardID string, params trello.UpdateCardParams) (*trello.Card, error)
}

type EngineParams struct {
	Settings    settingsFinder
	Connections credentialSource
	Cards       Cards
	OrderCards  OrderCards
	Events      eventlog.Recorder
	Metrics     *metrics.WebhookMetrics
	Logger      *logger.Logger
}

// Engine turns store events into board mutations according to the shop's
// mapping rules.
type Engine struct {
	settings    settingsFinder
	connections credentialSource
	cards       Cards
	orderCards  OrderCards
	events      eventlog.Recorder
	metrics     *metrics.WebhookMetrics
	logg        *logger.Logger
}

func NewEngine(params EngineParams) (*Engine, error) {
	switch {
	case params.Settings == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings finder required")
	case params.Connections == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "connection source required")
	case params.Cards == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "board gateway required")
	case params.OrderCards == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order cards repository required")
	case params.Events == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	return &Engine{
		settings:    params.Settings,
		connections: params.Connections,
		cards:       params.Cards,
		orderCards:  params.OrderCards,
		events:      params.Events,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Supports reports whether the engine has a handler for topic.
func Supports(topic shopify.Topic) bool {
	switch topic {
	case shopify.TopicOrdersCreate, shopify.TopicOrdersFulfilled,
		shopify.TopicProductsCreate, shopify.TopicCustomersCreate:
		return true
	}
	return false
}

// run carries the per-call state shared by the handlers.
type run struct {
	shopID uuid.UUID
	topic  shopify.Topic
	rules  models.MappingOptions
	creds  trello.Credentials
}

// Process applies the shop's rules to event. It never returns an error:
// failures are written to the event log and reported as OutcomeFailed.
func (e *Engine) Process(ctx context.Context, shopID uuid.UUID, event shopify.Event) Result {
	if !Supports(event.Topic) {
		return skipped("unsupported topic")
	}
	result := e.process(ctx, shopID, event)
	e.metrics.ObserveMapping(string(event.Topic), string(result.Outcome))
	return result
}

func (e *Engine) process(ctx context.Context, shopID uuid.UUID, event shopify.Event) Result {
	if e.logg != nil {
		ctx = e.logg.WithFields(e.logg.WithTopic(ctx, string(event.Topic)), map[string]any{"shop_id": shopID.String()})
	}

	row, err := e.settings.FindByShop(ctx, shopID)
	if err != nil {
		return e.fail(ctx, shopID, event.Topic, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings"))
	}
	if row == nil {
		e.debug(ctx, "mapping.skipped.no_settings")
		return skipped("no settings")
	}
	conn, creds, err := e.connections.ForShop(ctx, shopID)
	if err != nil {
		return e.fail(ctx, shopID, event.Topic, err)
	}
	if conn == nil {
		e.debug(ctx, "mapping.skipped.no_connection")
		return skipped("no board connection")
	}

	r := run{shopID: shopID, topic: event.Topic, rules: row.Mappings.Data(), creds: creds}
	var result Result
	switch event.Topic {
	case shopify.TopicOrdersCreate:
		result, err = e.orderCreated(ctx, r, event.Order)
	case shopify.TopicOrdersFulfilled:
		result, err = e.orderFulfilled(ctx, r, event.Order)
	case shopify.TopicProductsCreate:
		result, err = e.productCreated(ctx, r, event.Product)
	case shopify.TopicCustomersCreate:
		result, err = e.customerCreated(ctx, r, event.Customer)
	}
	if err != nil {
		return e.fail(ctx, shopID, event.Topic, err)
	}
	return result
}

func (e *Engine) orderCreated(ctx context.Context, r run, order *shopify.OrderPayload) (Result, error) {
	rule := r.rules.NewOrder
	if !rule.Active() {
		return skipped("rule disabled"), nil
	}
	if order == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "order payload missing")
	}

	card, err := e.cards.CreateCard(ctx, r.creds, trello.CreateCardParams{
		ListID: rule.ListID,
		Name:   fmt.Sprintf("Order #%d", order.OrderNumber),
		Desc:   orderDescription(order),
	})
	if err != nil {
		return Result{}, err
	}

	link := &models.OrderCard{
		ShopID:      r.shopID,
		OrderID:     order.OrderKey(),
		OrderNumber: order.OrderNumber,
		CardID:      card.ID,
		ListID:      rule.ListID,
	}
	if err := e.orderCards.Create(ctx, link); err != nil && !db.IsUniqueViolation(err, "") {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link order to card")
	}

	return e.executed(ctx, r, card.ID, map[string]any{
		"action":       "create_card",
		"card_id":      card.ID,
		"list_id":      rule.ListID,
		"order_id":     order.OrderKey(),
		"order_number": order.OrderNumber,
	}), nil
}

func (e *Engine) orderFulfilled(ctx context.Context, r run, order *shopify.OrderPayload) (Result, error) {
	rule := r.rules.OrderFulfilled
	if !rule.Active() {
		return skipped("rule disabled"), nil
	}
	if order == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "order payload missing")
	}

	link, err := e.orderCards.Find(ctx, r.shopID, order.OrderKey())
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order card")
	}
	if link == nil {
		return e.executed(ctx, r, "", map[string]any{
			"action":       "move_card",
			"card_linked":  false,
			"order_id":     order.OrderKey(),
			"order_number": order.OrderNumber,
		}), nil
	}

	listID := rule.ListID
	if _, err := e.cards.UpdateCard(ctx, r.creds, link.CardID, trello.UpdateCardParams{ListID: &listID}); err != nil {
		return Result{}, err
	}
	if err := e.orderCards.MoveTo(ctx, link.ID, listID); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order card")
	}

	return e.executed(ctx, r, link.CardID, map[string]any{
		"action":       "move_card",
		"card_linked":  true,
		"card_id":      link.CardID,
		"from_list_id": link.ListID,
		"list_id":      listID,
		"order_id":     order.OrderKey(),
		"order_number": order.OrderNumber,
	}), nil
}

func (e *Engine) productCreated(ctx context.Context, r run, product *shopify.ProductPayload) (Result, error) {
	rule := r.rules.NewProduct
	if !rule.Active() {
		return skipped("rule disabled"), nil
	}
	if product == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "product payload missing")
	}

	card, err := e.cards.CreateCard(ctx, r.creds, trello.CreateCardParams{
		ListID: rule.ListID,
		Name:   product.Title,
		Desc:   productDescription(product),
	})
	if err != nil {
		return Result{}, err
	}
	return e.executed(ctx, r, card.ID, map[string]any{
		"action":     "create_card",
		"card_id":    card.ID,
		"list_id":    rule.ListID,
		"product_id": product.ID,
	}), nil
}

func (e *Engine) customerCreated(ctx context.Context, r run, customer *shopify.CustomerPayload) (Result, error) {
	rule := r.rules.NewCustomer
	if !rule.Active() {
		return skipped("rule disabled"), nil
	}
	if customer == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "customer payload missing")
	}

	card, err := e.cards.CreateCard(ctx, r.creds, trello.CreateCardParams{
		ListID: rule.ListID,
		Name:   customer.FullName(),
		Desc:   customerDescription(customer),
	})
	if err != nil {
		return Result{}, err
	}
	return e.executed(ctx, r, card.ID, map[string]any{
		"action":      "create_card",
		"card_id":     card.ID,
		"list_id":     rule.ListID,
		"customer_id": customer.ID,
	}), nil
}

func (e *Engine) executed(ctx context.Context, r run, cardID string, payload map[string]any) Result {
	payload["topic"] = string(r.topic)
	shopID := r.shopID
	if err := e.events.Record(ctx, eventlog.Entry{
		ShopID:  &shopID,
		Source:  enums.EventSourceShopify,
		Type:    string(enums.EventTypeMappingExecuted),
		Payload: payload,
	}); err != nil && e.logg != nil {
		e.logg.Error(ctx, "mapping.record_failed", err)
	}
	if e.logg != nil {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{"card_id": cardID}), "mapping.executed")
	}
	return Result{Outcome: OutcomeExecuted, CardID: cardID}
}

func (e *Engine) fail(ctx context.Context, shopID uuid.UUID, topic shopify.Topic, err error) Result {
	if e.logg != nil {
		e.logg.Error(ctx, "mapping.failed", err)
	}
	id := shopID
	if recErr := e.events.Record(ctx, eventlog.Entry{
		ShopID:  &id,
		Source:  enums.EventSourceShopify,
		Type:    string(enums.EventTypeMappingError),
		Payload: map[string]any{"topic": string(topic)},
		Err:     err,
	}); recErr != nil && e.logg != nil {
		e.logg.Error(ctx, "mapping.record_failed", recErr)
	}
	return Result{Outcome: OutcomeFailed, Err: err}
}

func (e *Engine) debug(ctx context.Context, msg string) {
	if e.logg != nil {
		e.logg.Debug(ctx, msg)
	}
}

func orderDescription(order *shopify.OrderPayload) string {
	var b strings.Builder
	if order.Customer != nil {
		fmt.Fprintf(&b, "**Customer:** %s\n", order.Customer.FullName())
	}
	email := order.Email
	if email == "" && order.Customer != nil {
		email = order.Customer.Email
	}
	if email != "" {
		fmt.Fprintf(&b, "**Email:** %s\n", email)
	}
	fmt.Fprintf(&b, "**Total:** %s %s\n", order.TotalPrice.StringFixed(2), order.Currency)
	fmt.Fprintf(&b, "**Items:** %d", order.ItemCount())
	return b.String()
}

func productDescription(product *shopify.ProductPayload) string {
	var b strings.Builder
	if len(product.Variants) > 0 {
		v := product.Variants[0]
		fmt.Fprintf(&b, "**Price:** %s\n", v.Price.StringFixed(2))
		if v.SKU != "" {
			fmt.Fprintf(&b, "**SKU:** %s\n", v.SKU)
		}
	}
	if product.Vendor != "" {
		fmt.Fprintf(&b, "**Vendor:** %s\n", product.Vendor)
	}
	fmt.Fprintf(&b, "**Inventory:** %d", product.Inventory())
	return b.String()
}

func customerDescription(customer *shopify.CustomerPayload) string {
	var b strings.Builder
	if customer.Email != "" {
		fmt.Fprintf(&b, "**Email:** %s\n", customer.Email)
	}
	if customer.Phone != "" {
		fmt.Fprintf(&b, "**Phone:** %s\n", customer.Phone)
	}
	fmt.Fprintf(&b, "**Orders:** %d\n", customer.OrdersCount)
	total := customer.TotalSpent.StringFixed(2)
	if customer.Currency != "" {
		total += " " + customer.Currency
	}
	fmt.Fprintf(&b, "**Total spent:** %s", total)
	return b.String()
}
