package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/boardsync/api/responses"
	"github.com/angelmondragon/boardsync/internal/session"
	"github.com/angelmondragon/boardsync/pkg/logger"
)

// SessionResolver turns a request's bearer token into a shop and user.
type SessionResolver interface {
	RequireSessionContext(ctx context.Context, req *http.Request) (*session.Context, error)
}

// Session resolves the embedded-app session and seeds the request context with it.
func Session(resolver SessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, err := resolver.RequireSessionContext(r.Context(), r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := session.WithContext(r.Context(), sc)
			if logg != nil {
				ctx = logg.WithShopDomain(ctx, sc.Shop.Domain)
				ctx = logg.WithUserID(ctx, sc.User.ID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
