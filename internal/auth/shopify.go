package auth

import (
	"context"
	"crypto/subtle"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/boardsync/internal/shops"
	pkgauth "github.com/angelmondragon/boardsync/pkg/auth"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/google/uuid"
)

// StateTTL bounds how long a consent redirect may take.
const StateTTL = 10 * time.Minute

// Redirect is where the browser goes next, plus the signed state the caller
// stores in a short-lived cookie.
type Redirect struct {
	URL   string
	State string
}

type installClient interface {
	AuthorizeURL(shop, state string) (string, error)
	ExchangeCode(ctx context.Context, shop, code string) (string, error)
	FetchShop(ctx context.Context, shop, token string) (*shopify.ShopInfo, error)
	SubscribeWebhooks(ctx context.Context, shop, token, address string) error
}

type callbackVerifier interface {
	VerifyCallback(query url.Values) bool
}

type shopInstaller interface {
	Install(ctx context.Context, input shops.InstallInput) (*shops.InstallResult, error)
}

type ShopifyFlowParams struct {
	Client      installClient
	Verifier    callbackVerifier
	Shops       shopInstaller
	StateSecret string
	WebhookURL  string
	Logger      *logger.Logger
}

// ShopifyFlow runs the authorization-code install.
type ShopifyFlow struct {
	client     installClient
	verifier   callbackVerifier
	shops      shopInstaller
	secret     string
	webhookURL string
	logg       *logger.Logger
	now        func() time.Time
}

func NewShopifyFlow(params ShopifyFlowParams) (*ShopifyFlow, error) {
	switch {
	case params.Client == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify install client required")
	case params.Verifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shopify verifier required")
	case params.Shops == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shops service required")
	case params.StateSecret == "":
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "state secret required")
	}
	return &ShopifyFlow{
		client:     params.Client,
		verifier:   params.Verifier,
		shops:      params.Shops,
		secret:     params.StateSecret,
		webhookURL: params.WebhookURL,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

// Begin validates the shop parameter and builds the consent-screen redirect.
func (f *ShopifyFlow) Begin(shop string) (*Redirect, error) {
	domain := shopify.NormalizeShopDomain(shop)
	if !shopify.ValidShopDomain(domain) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop must be a "+shopify.ShopSuffix+" domain")
	}
	state, err := pkgauth.MintState(f.secret, f.now(), StateTTL, pkgauth.StateClaims{
		Purpose: pkgauth.StatePurposeShopifyInstall,
		Shop:    domain,
		Nonce:   uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint install state")
	}
	authorizeURL, err := f.client.AuthorizeURL(domain, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build authorize url")
	}
	return &Redirect{URL: authorizeURL, State: state}, nil
}

// Callback verifies the redirect, exchanges the code and installs the shop.
// stateCookie is the value Begin returned to the same browser.
func (f *ShopifyFlow) Callback(ctx context.Context, query url.Values, stateCookie string) (*shops.InstallResult, error) {
	if !f.verifier.VerifyCallback(query) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback signature")
	}
	domain := shopify.NormalizeShopDomain(query.Get("shop"))
	if !shopify.ValidShopDomain(domain) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shop domain")
	}
	state := query.Get("state")
	if state == "" || stateCookie == "" || subtle.ConstantTimeCompare([]byte(state), []byte(stateCookie)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "state mismatch")
	}
	claims, err := pkgauth.ParseState(f.secret, pkgauth.StatePurposeShopifyInstall, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid state")
	}
	if !strings.EqualFold(claims.Shop, domain) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "state was issued for another shop")
	}
	code := query.Get("code")
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization code missing")
	}

	if f.logg != nil {
		ctx = f.logg.WithShopDomain(ctx, domain)
	}
	token, err := f.client.ExchangeCode(ctx, domain, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeExternal, err, "exchange authorization code")
	}
	info, err := f.client.FetchShop(ctx, domain, token)
	if err != nil {
		f.warn(ctx, "auth.shopify.fetch_shop_failed", err)
		info = nil
	}

	result, err := f.shops.Install(ctx, shops.InstallInput{
		Domain:      domain,
		AccessToken: token,
		Scope:       query.Get("scope"),
		Info:        info,
	})
	if err != nil {
		return nil, err
	}

	if f.webhookURL != "" {
		if err := f.client.SubscribeWebhooks(ctx, domain, token, f.webhookURL); err != nil {
			f.warn(ctx, "auth.shopify.subscribe_failed", err)
		}
	}
	if f.logg != nil {
		f.logg.Info(f.logg.WithFields(ctx, map[string]any{
			"created":     result.Created,
			"reinstalled": result.Reinstalled,
		}), "auth.shopify.installed")
	}
	return result, nil
}

func (f *ShopifyFlow) warn(ctx context.Context, msg string, err error) {
	if f.logg != nil {
		f.logg.Warn(f.logg.WithFields(ctx, map[string]any{"error": err.Error()}), msg)
	}
}
