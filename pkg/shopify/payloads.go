package shopify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type CustomerRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName joins first and last name, falling back to the email.
func (c CustomerRef) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return c.Email
	}
	return name
}

type LineItem struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	SKU      string          `json:"sku"`
}

// OrderPayload covers orders/create and orders/fulfilled.
type OrderPayload struct {
	ID                int64           `json:"id"`
	OrderNumber       int64           `json:"order_number"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Currency          string          `json:"currency"`
	FinancialStatus   string          `json:"financial_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	Customer          *CustomerRef    `json:"customer"`
	LineItems         []LineItem      `json:"line_items"`
}

// OrderKey is the stable identifier used to link an order to its card.
func (o OrderPayload) OrderKey() string {
	return strconv.FormatInt(o.ID, 10)
}

// ItemCount sums line item quantities.
func (o OrderPayload) ItemCount() int {
	total := 0
	for _, item := range o.LineItems {
		total += item.Quantity
	}
	return total
}

type Variant struct {
	ID                int64           `json:"id"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	SKU               string          `json:"sku"`
	InventoryQuantity int             `json:"inventory_quantity"`
}

// ProductPayload covers products/create.
type ProductPayload struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Handle      string    `json:"handle"`
	Status      string    `json:"status"`
	Variants    []Variant `json:"variants"`
}

// Inventory sums inventory across variants.
func (p ProductPayload) Inventory() int {
	total := 0
	for _, v := range p.Variants {
		total += v.InventoryQuantity
	}
	return total
}

// CustomerPayload covers customers/create.
type CustomerPayload struct {
	CustomerRef
	OrdersCount int             `json:"orders_count"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	Currency    string          `json:"currency"`
	State       string          `json:"state"`
}

// UninstallPayload is the app/uninstalled body; only the domain is used.
type UninstallPayload struct {
	ID     int64  `json:"id"`
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

// RedactPayload covers the compliance topics.
type RedactPayload struct {
	ShopID          int64        `json:"shop_id"`
	ShopDomain      string       `json:"shop_domain"`
	Customer        *CustomerRef `json:"customer,omitempty"`
	OrdersToRedact  []int64      `json:"orders_to_redact,omitempty"`
	OrdersRequested []int64      `json:"orders_requested,omitempty"`
}

// Event is a decoded webhook body. Exactly one field is set, matching Topic.
type Event struct {
	Topic    Topic
	Order    *OrderPayload
	Product  *ProductPayload
	Customer *CustomerPayload
	Raw      json.RawMessage
}

// DecodeEvent parses body into the variant for topic. Unknown topics keep only Raw.
func DecodeEvent(topic Topic, body []byte) (Event, error) {
	event := Event{Topic: topic, Raw: json.RawMessage(body)}

	var target any
	switch topic {
	case TopicOrdersCreate, TopicOrdersFulfilled:
		event.Order = &OrderPayload{}
		target = event.Order
	case TopicProductsCreate:
		event.Product = &ProductPayload{}
		target = event.Product
	case TopicCustomersCreate:
		event.Customer = &CustomerPayload{}
		target = event.Customer
	default:
		return event, nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return Event{}, fmt.Errorf("decoding %s payload: %w", topic, err)
	}
	return event, nil
}
