package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/api/validators"
	"github.com/angelmondragon/boardsync/internal/auth"
	"github.com/angelmondragon/boardsync/internal/connections"
	"github.com/angelmondragon/boardsync/internal/session"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
)

type connectRequest struct {
	Token       string `json:"token" validate:"required,min=32,max=256"`
	TokenSecret string `json:"token_secret,omitempty" validate:"omitempty,max=256"`
}

// GetConnection returns the connection that applies to the session user, or
// null when none is stored.
func GetConnection(svc connections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connections service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		conn, err := svc.Current(r.Context(), sc.Shop, sc.User)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"connection": toConnectionResponse(conn)})
	}
}

// CreateConnection stores a manually pasted token.
func CreateConnection(svc connections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connections service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req connectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conn, err := svc.Connect(r.Context(), sc.Shop, sc.User, connections.ConnectInput{
			Token:       validators.SanitizeString(req.Token, 256),
			TokenSecret: validators.SanitizeString(req.TokenSecret, 256),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"connection": toConnectionResponse(conn)})
	}
}

func DeleteConnection(svc connections.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connections service unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Disconnect(r.Context(), sc.Shop, sc.User); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"disconnected": true})
	}
}

type TrelloAuthorizer interface {
	Start(ctx context.Context, sc *session.Context) (*auth.Redirect, error)
}

// StartTrelloOAuth returns the consent URL and sets the state cookie the
// callback reads.
func StartTrelloOAuth(flow TrelloAuthorizer, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connect flow unavailable"))
			return
		}
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		redirect, err := flow.Start(r.Context(), sc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		setStateCookie(w, trelloStateCookie, trelloCallbackPath, redirect.State, secureCookies(baseURL))
		responses.WriteSuccess(w, map[string]string{"authorize_url": redirect.URL})
	}
}
