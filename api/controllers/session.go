package controllers

import (
	"net/http"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/internal/session"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
)

func requireSession(r *http.Request) (*session.Context, error) {
	sc := session.FromContext(r.Context())
	if sc == nil || sc.Shop == nil || sc.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return sc, nil
}

// Session returns the shop and user resolved from the bearer token.
func Session(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{
			Shop: toShopResponse(sc.Shop),
			User: toUserResponse(sc.User),
		})
	}
}
