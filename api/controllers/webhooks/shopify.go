package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/boardsync/api/responses"
	shopifywebhook "github.com/angelmondragon/boardsync/internal/webhooks/shopify"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/shopify"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = pkgerrors.New(pkgerrors.CodeTooLarge, "webhook body exceeds 1MB")

// readBody reads the whole body, failing with errBodyTooLarge instead of
// truncating when it is over maxBodyBytes.
func readBody(r *http.Request) ([]byte, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	if len(payload) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return payload, nil
}

type ShopifyWebhookService interface {
	Handle(ctx context.Context, d shopifywebhook.Delivery) (string, error)
	Observe(topic shopify.Topic, result string)
}

// ShopifyWebhookGuard drops repeat deliveries by webhook id.
type ShopifyWebhookGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Delete(ctx context.Context, deliveryID string) error
}

type signatureVerifier interface {
	Verify(body []byte, signature string) bool
}

// ShopifyWebhook verifies and dispatches store webhooks. Only a bad
// signature or missing routing headers produce a non-200 answer; every
// other outcome is logged and acknowledged. guard may be nil when
// delivery dedupe is disabled.
func ShopifyWebhook(svc ShopifyWebhookService, verifier signatureVerifier, guard ShopifyWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := readBody(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		topic := shopify.Topic(strings.TrimSpace(r.Header.Get(shopify.HeaderTopic)))
		if !verifier.Verify(payload, r.Header.Get(shopify.HeaderHmac)) {
			svc.Observe(topic, "invalid_signature")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		domain := strings.TrimSpace(r.Header.Get(shopify.HeaderShopDomain))
		if topic == "" || domain == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook topic and shop domain headers required"))
			return
		}

		deliveryID := strings.TrimSpace(r.Header.Get(shopify.HeaderWebhookID))
		if logg != nil {
			ctx = logg.WithFields(logg.WithTopic(logg.WithShopDomain(ctx, domain), string(topic)), map[string]any{
				"webhook_id": deliveryID,
			})
		}

		if guard != nil && deliveryID != "" {
			seen, err := guard.CheckAndMark(ctx, deliveryID)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "webhook.dedupe_failed", err)
				}
			} else if seen {
				svc.Observe(topic, shopifywebhook.ResultDuplicate)
				if logg != nil {
					logg.Info(ctx, "webhook.duplicate")
				}
				responses.WriteReceived(w)
				return
			}
		}

		result, err := svc.Handle(ctx, shopifywebhook.Delivery{
			Topic:      topic,
			ShopDomain: domain,
			WebhookID:  deliveryID,
			Body:       payload,
		})
		if err != nil {
			if guard != nil && deliveryID != "" {
				_ = guard.Delete(ctx, deliveryID)
			}
			if logg != nil {
				logg.Error(ctx, "webhook.failed", err)
			}
		} else if logg != nil {
			logg.Info(logg.WithField(ctx, "result", result), "webhook.processed")
		}
		responses.WriteReceived(w)
	}
}
