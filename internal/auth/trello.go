package auth

import (
	"context"
	"time"

	"github.com/angelmondragon/boardsync/internal/connections"
	"github.com/angelmondragon/boardsync/internal/session"
	pkgauth "github.com/angelmondragon/boardsync/pkg/auth"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/security"
	"github.com/google/uuid"
)

type trelloOAuth interface {
	RequestToken() (token, secret string, err error)
	AuthorizeURL(requestToken string) (string, error)
	AccessToken(requestToken, requestSecret, verifier string) (token, secret string, err error)
}

type connector interface {
	Connect(ctx context.Context, shop *models.Shop, user *models.User, input connections.ConnectInput) (*models.TrelloConnection, error)
}

type shopFinder interface {
	FindByDomain(ctx context.Context, domain string) (*models.Shop, error)
}

type userFinder interface {
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*models.User, error)
}

type TrelloFlowParams struct {
	OAuth       trelloOAuth
	Connections connector
	Shops       shopFinder
	Users       userFinder
	Sealer      *security.Sealer
	StateSecret string
	Logger      *logger.Logger
}

// TrelloFlow runs the OAuth 1.0a connect dance. The temporary credentials
// travel in the signed state cookie, sealed when a key is configured.
type TrelloFlow struct {
	oauth       trelloOAuth
	connections connector
	shops       shopFinder
	users       userFinder
	sealer      *security.Sealer
	secret      string
	logg        *logger.Logger
	now         func() time.Time
}

func NewTrelloFlow(params TrelloFlowParams) (*TrelloFlow, error) {
	switch {
	case params.OAuth == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trello oauth client required")
	case params.Connections == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "connections service required")
	case params.Shops == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shop finder required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user finder required")
	case params.StateSecret == "":
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "state secret required")
	}
	sealer := params.Sealer
	if sealer == nil {
		sealer = security.NewSealer("")
	}
	return &TrelloFlow{
		oauth:       params.OAuth,
		connections: params.Connections,
		shops:       params.Shops,
		users:       params.Users,
		sealer:      sealer,
		secret:      params.StateSecret,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

// Start obtains temporary credentials for the session's user and returns the
// consent URL.
func (f *TrelloFlow) Start(ctx context.Context, sc *session.Context) (*Redirect, error) {
	if sc == nil || sc.Shop == nil || sc.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	token, secret, err := f.oauth.RequestToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternal, err, "request board-service token")
	}
	sealed, err := f.sealer.Seal(secret)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal request secret")
	}
	state, err := pkgauth.MintState(f.secret, f.now(), StateTTL, pkgauth.StateClaims{
		Purpose:       pkgauth.StatePurposeTrelloConnect,
		Shop:          sc.Shop.Domain,
		UserID:        sc.User.ID.String(),
		RequestToken:  token,
		RequestSecret: sealed,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint connect state")
	}
	authorizeURL, err := f.oauth.AuthorizeURL(token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build authorize url")
	}
	return &Redirect{URL: authorizeURL, State: state}, nil
}

// Callback exchanges the verifier for permanent credentials and stores the
// connection for the user who started the flow.
func (f *TrelloFlow) Callback(ctx context.Context, requestToken, verifier, stateCookie string) (*models.TrelloConnection, error) {
	if requestToken == "" || verifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "oauth_token and oauth_verifier required")
	}
	claims, err := pkgauth.ParseState(f.secret, pkgauth.StatePurposeTrelloConnect, stateCookie)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid connect state")
	}
	if claims.RequestToken != requestToken {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "request token mismatch")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid connect state")
	}
	requestSecret, err := f.sealer.Open(claims.RequestSecret)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid connect state")
	}

	shop, err := f.shops.FindByDomain(ctx, claims.Shop)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not installed")
	}
	if !shop.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop is not active")
	}
	user, err := f.users.FindByID(ctx, shop.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	token, secret, err := f.oauth.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternal, err, "exchange board-service verifier")
	}
	conn, err := f.connections.Connect(ctx, shop, user, connections.ConnectInput{Token: token, TokenSecret: secret})
	if err != nil {
		return nil, err
	}
	if f.logg != nil {
		f.logg.Info(f.logg.WithFields(f.logg.WithShopDomain(ctx, shop.Domain), map[string]any{
			"member_id": conn.MemberID,
			"user_id":   user.ID.String(),
		}), "auth.trello.connected")
	}
	return conn, nil
}
