package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/boardsync/internal/users"
	pkgauth "github.com/angelmondragon/boardsync/pkg/auth"
	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/db"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/shopify"
)

// Context is the authenticated caller: the shop the session belongs to and
// the staff user behind it.
type Context struct {
	Shop *models.Shop
	User *models.User
}

type shopFinder interface {
	FindByDomain(ctx context.Context, domain string) (*models.Shop, error)
}

type ResolverParams struct {
	Shopify config.ShopifyConfig
	Shops   shopFinder
	Users   users.Repository
}

// Resolver turns a bearer session token into a shop and user, creating the
// user on first sight.
type Resolver struct {
	cfg   config.ShopifyConfig
	shops shopFinder
	users users.Repository
	now   func() time.Time
}

func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Shops == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shop finder required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &Resolver{cfg: params.Shopify, shops: params.Shops, users: params.Users, now: time.Now}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	raw := strings.TrimSpace(header)
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(raw[7:])
	return token, token != ""
}

// RequireSessionContext authenticates r. Missing or invalid tokens fail
// before any store is touched.
func (r *Resolver) RequireSessionContext(ctx context.Context, req *http.Request) (*Context, error) {
	token, ok := BearerToken(req.Header.Get("Authorization"))
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing bearer token")
	}
	claims, err := pkgauth.ParseSessionToken(r.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token")
	}
	domain, ok := shopify.ShopDomainFromDest(claims.Dest)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token has no shop")
	}
	identity := claims.Subject
	if identity == "" {
		identity = claims.SessionID
	}
	if identity == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token has no subject")
	}

	shop, err := r.shops.FindByDomain(ctx, domain)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	if shop == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not installed")
	}
	if !shop.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop is not active")
	}

	user, err := r.upsertUser(ctx, shop, identity, claims)
	if err != nil {
		return nil, err
	}
	return &Context{Shop: shop, User: user}, nil
}

func (r *Resolver) upsertUser(ctx context.Context, shop *models.Shop, identity string, claims *pkgauth.SessionClaims) (*models.User, error) {
	user, err := r.users.FindBySession(ctx, shop.ID, claims.Subject, claims.SessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	now := r.now().UTC()

	if user == nil {
		user = &models.User{
			ShopID:               shop.ID,
			Identity:             identity,
			Role:                 enums.UserRoleStaff,
			NotificationsEnabled: true,
		}
		if claims.IsAccountOwner() {
			user.Role = enums.UserRoleOwner
		}
		applyClaims(user, claims, now)
		err := r.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		// A concurrent request created the row first.
		user, err = r.users.FindBySession(ctx, shop.ID, claims.Subject, claims.SessionID)
		if err != nil || user == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
		}
	}

	applyClaims(user, claims, now)
	if claims.AccountOwner != nil {
		user.Role = enums.UserRoleStaff
		if *claims.AccountOwner {
			user.Role = enums.UserRoleOwner
		}
	}
	if err := r.users.Save(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh user")
	}
	return user, nil
}

func applyClaims(user *models.User, claims *pkgauth.SessionClaims, now time.Time) {
	if claims.Subject != "" {
		user.Subject = optional(claims.Subject)
	}
	if claims.SessionID != "" {
		user.SessionID = optional(claims.SessionID)
	}
	if claims.Email != "" {
		user.Email = optional(claims.Email)
	}
	user.LastSeenAt = &now
}

func optional(v string) *string {
	return &v
}
