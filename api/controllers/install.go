package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/internal/auth"
	"github.com/angelmondragon/boardsync/internal/shops"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/trello"
)

const (
	shopifyCallbackPath = "/auth/shopify/callback"
	trelloCallbackPath  = "/auth/trello/callback"
)

type ShopifyInstaller interface {
	Begin(shop string) (*auth.Redirect, error)
	Callback(ctx context.Context, query url.Values, stateCookie string) (*shops.InstallResult, error)
}

// ShopifyInstall starts the install flow for the ?shop= domain.
func ShopifyInstall(flow ShopifyInstaller, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "install flow unavailable"))
			return
		}
		redirect, err := flow.Begin(r.URL.Query().Get("shop"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		setStateCookie(w, shopifyStateCookie, shopifyCallbackPath, redirect.State, secureCookies(baseURL))
		http.Redirect(w, r, redirect.URL, http.StatusFound)
	}
}

// ShopifyInstallCallback completes the install and sends the merchant to the
// embedded app inside their admin.
func ShopifyInstallCallback(flow ShopifyInstaller, apiKey string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "install flow unavailable"))
			return
		}
		result, err := flow.Callback(r.Context(), r.URL.Query(), readCookie(r, shopifyStateCookie))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clearStateCookie(w, shopifyStateCookie, shopifyCallbackPath)
		http.Redirect(w, r, "https://"+result.Shop.Domain+"/admin/apps/"+url.PathEscape(apiKey), http.StatusFound)
	}
}

type TrelloConnector interface {
	Callback(ctx context.Context, requestToken, verifier, stateCookie string) (*models.TrelloConnection, error)
}

// TrelloCallback stores the connection and returns to the app.
func TrelloCallback(flow TrelloConnector, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flow == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "connect flow unavailable"))
			return
		}
		requestToken, verifier, err := trello.ParseCallback(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid oauth callback"))
			return
		}
		if _, err := flow.Callback(r.Context(), requestToken, verifier, readCookie(r, trelloStateCookie)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clearStateCookie(w, trelloStateCookie, trelloCallbackPath)
		http.Redirect(w, r, baseURL+"/?trello=connected", http.StatusFound)
	}
}
