package shopifywebhook

import (
	"context"
	"encoding/json"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/internal/mapping"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/metrics"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/google/uuid"
)

const source = "shopify"

// Results reported per delivery, also used as metric labels.
const (
	ResultUninstalled = "uninstalled"
	ResultRedacted    = "redacted"
	ResultLogged      = "logged"
	ResultIgnored     = "ignored"
	ResultInvalid     = "invalid"
	ResultDuplicate   = "duplicate"
	ResultError       = "error"
)

// Delivery is a webhook whose signature has already been verified.
type Delivery struct {
	Topic      shopify.Topic
	ShopDomain string
	WebhookID  string
	Body       []byte
}

type shopLifecycle interface {
	FindByDomain(ctx context.Context, domain string) (*models.Shop, error)
	Uninstall(ctx context.Context, domain string) (*models.Shop, error)
	Redact(ctx context.Context, domain string) error
}

type mappingEngine interface {
	Process(ctx context.Context, shopID uuid.UUID, event shopify.Event) mapping.Result
}

type ServiceParams struct {
	Shops   shopLifecycle
	Engine  mappingEngine
	Events  eventlog.Recorder
	Metrics *metrics.WebhookMetrics
	Logger  *logger.Logger
}

// Service routes verified store webhooks. Lifecycle and privacy topics have
// fixed handlers; everything else goes to the mapping engine.
type Service struct {
	shops   shopLifecycle
	engine  mappingEngine
	events  eventlog.Recorder
	metrics *metrics.WebhookMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Shops == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shops service required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mapping engine required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	return &Service{
		shops:   params.Shops,
		engine:  params.Engine,
		events:  params.Events,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Observe counts a delivery the service never saw, such as a duplicate or a
// bad signature.
func (s *Service) Observe(topic shopify.Topic, result string) {
	s.metrics.Observe(source, string(topic), result)
}

// Handle processes one delivery and returns the result label. A non-nil
// error means a lifecycle step failed and the delivery may be retried.
func (s *Service) Handle(ctx context.Context, d Delivery) (string, error) {
	domain := shopify.NormalizeShopDomain(d.ShopDomain)
	if s.logg != nil {
		ctx = s.logg.WithTopic(s.logg.WithShopDomain(ctx, domain), string(d.Topic))
	}
	result, err := s.route(ctx, domain, d)
	if err != nil {
		result = ResultError
	}
	s.Observe(d.Topic, result)
	return result, err
}

func (s *Service) route(ctx context.Context, domain string, d Delivery) (string, error) {
	switch d.Topic {
	case shopify.TopicAppUninstalled:
		if _, err := s.shops.Uninstall(ctx, domain); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return ResultIgnored, nil
			}
			return "", err
		}
		return ResultUninstalled, nil
	case shopify.TopicShopRedact:
		if err := s.shops.Redact(ctx, domain); err != nil {
			return "", err
		}
		return ResultRedacted, nil
	case shopify.TopicCustomersDataRequest:
		return s.logCompliance(ctx, domain, enums.EventTypeCustomerDataRequest, d.Body)
	case shopify.TopicCustomersRedact:
		return s.logCompliance(ctx, domain, enums.EventTypeCustomerRedact, d.Body)
	}

	shop, err := s.shops.FindByDomain(ctx, domain)
	if err != nil {
		return "", err
	}
	if shop == nil || !shop.IsActive() {
		s.info(ctx, "webhook.shopify.shop_inactive")
		return ResultIgnored, nil
	}
	if !mapping.Supports(d.Topic) {
		s.info(ctx, "webhook.shopify.unhandled_topic")
		return ResultIgnored, nil
	}

	event, err := shopify.DecodeEvent(d.Topic, d.Body)
	if err != nil {
		shopID := shop.ID
		s.record(ctx, eventlog.Entry{
			ShopID:  &shopID,
			Source:  enums.EventSourceShopify,
			Type:    string(enums.EventTypeWebhookError),
			Payload: map[string]any{"topic": string(d.Topic)},
			Err:     err,
		})
		return ResultInvalid, nil
	}
	return string(s.engine.Process(ctx, shop.ID, event).Outcome), nil
}

// logCompliance records privacy requests. Data export and erasure of
// individual customers is handled outside the app.
func (s *Service) logCompliance(ctx context.Context, domain string, typ enums.EventType, body []byte) (string, error) {
	payload := map[string]any{"shop_domain": domain}
	var req shopify.RedactPayload
	if err := json.Unmarshal(body, &req); err == nil {
		if req.Customer != nil {
			payload["customer_id"] = req.Customer.ID
		}
		if len(req.OrdersRequested) > 0 {
			payload["orders_requested"] = req.OrdersRequested
		}
		if len(req.OrdersToRedact) > 0 {
			payload["orders_to_redact"] = req.OrdersToRedact
		}
	}

	entry := eventlog.Entry{Source: enums.EventSourceShopify, Type: string(typ), Payload: payload}
	shop, err := s.shops.FindByDomain(ctx, domain)
	if err != nil {
		return "", err
	}
	if shop != nil {
		shopID := shop.ID
		entry.ShopID = &shopID
	}
	s.record(ctx, entry)
	return ResultLogged, nil
}

func (s *Service) record(ctx context.Context, entry eventlog.Entry) {
	if err := s.events.Record(ctx, entry); err != nil && s.logg != nil {
		s.logg.Error(ctx, "webhook.shopify.record_failed", err)
	}
}

func (s *Service) info(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}
