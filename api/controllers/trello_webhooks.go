package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/api/validators"
	"github.com/angelmondragon/boardsync/internal/trellowebhooks"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
)

type registerWebhookRequest struct {
	ModelID     string `json:"model_id" validate:"required,trello_id"`
	Description string `json:"description,omitempty" validate:"omitempty,max=255"`
}

func ListTrelloWebhooks(svc trellowebhooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), sc.Shop.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]webhookResponse, 0, len(rows))
		for i := range rows {
			out = append(out, toWebhookResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// RegisterTrelloWebhook watches a board (or other model) for the shop.
func RegisterTrelloWebhook(resolver CredentialResolver, svc trellowebhooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req registerWebhookRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		creds, err := sessionCredentials(r.Context(), resolver, sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := sc.User.ID
		row, err := svc.Register(r.Context(), creds, trellowebhooks.RegisterInput{
			ShopID:      sc.Shop.ID,
			UserID:      &userID,
			ModelID:     req.ModelID,
			Description: validators.SanitizeString(req.Description, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toWebhookResponse(row))
	}
}

func RemoveTrelloWebhook(resolver CredentialResolver, svc trellowebhooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		raw, err := validators.PathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook id"))
			return
		}
		creds, err := sessionCredentials(r.Context(), resolver, sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), creds, sc.Shop.ID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
