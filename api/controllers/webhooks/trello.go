package webhooks

import (
	"context"
	"net/http"

	"github.com/angelmondragon/boardsync/api/responses"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
)

type TrelloWebhookService interface {
	Handle(ctx context.Context, body []byte) (int, error)
}

// TrelloWebhook answers the board service's HEAD/GET handshake with an empty
// 200 and acknowledges every POST, logging payloads it could not route.
func TrelloWebhook(svc TrelloWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := readBody(r)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "trello_webhook.read_failed", err)
			}
			responses.WriteReceived(w)
			return
		}

		matched, err := svc.Handle(ctx, payload)
		if logg != nil {
			if err != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "trello_webhook.rejected")
			} else {
				logg.Debug(logg.WithField(ctx, "matched", matched), "trello_webhook.processed")
			}
		}
		responses.WriteReceived(w)
	}
}
