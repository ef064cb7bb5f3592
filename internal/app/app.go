// Package app assembles the services behind the HTTP router.
package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/boardsync/api/middleware"
	"github.com/angelmondragon/boardsync/api/routes"
	"github.com/angelmondragon/boardsync/internal/auth"
	"github.com/angelmondragon/boardsync/internal/boards"
	"github.com/angelmondragon/boardsync/internal/connections"
	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/internal/mapping"
	"github.com/angelmondragon/boardsync/internal/session"
	"github.com/angelmondragon/boardsync/internal/settings"
	"github.com/angelmondragon/boardsync/internal/shops"
	"github.com/angelmondragon/boardsync/internal/trellowebhooks"
	"github.com/angelmondragon/boardsync/internal/users"
	shopifywebhook "github.com/angelmondragon/boardsync/internal/webhooks/shopify"
	trellowebhook "github.com/angelmondragon/boardsync/internal/webhooks/trello"
	"github.com/angelmondragon/boardsync/pkg/backoff"
	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/db"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/metrics"
	"github.com/angelmondragon/boardsync/pkg/ratelimit"
	"github.com/angelmondragon/boardsync/pkg/redis"
	"github.com/angelmondragon/boardsync/pkg/security"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/angelmondragon/boardsync/pkg/trello"
)

// Public paths registered with the two platforms.
const (
	ShopifyCallbackPath = "/auth/shopify/callback"
	ShopifyWebhookPath  = "/webhooks/shopify"
	TrelloCallbackPath  = "/auth/trello/callback"
	TrelloWebhookPath   = "/webhooks/trello"
)

// Shopify retries a delivery for up to 48 hours.
const webhookDedupeTTL = 48 * time.Hour

// InstallClient is the store-platform side of the install flow.
type InstallClient interface {
	AuthorizeURL(shop, state string) (string, error)
	ExchangeCode(ctx context.Context, shop, code string) (string, error)
	FetchShop(ctx context.Context, shop, token string) (*shopify.ShopInfo, error)
	SubscribeWebhooks(ctx context.Context, shop, token, address string) error
}

// Params carries the bootstrapped infrastructure. Redis and Registry are
// optional. Trello and Install default to clients built from Config.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Registry *prometheus.Registry
	Trello   *trello.Client
	Install  InstallClient
}

// App is the assembled HTTP surface plus the background sweepers it needs.
type App struct {
	Handler  http.Handler
	Gate     *ratelimit.Gate
	Throttle *middleware.LimiterStore

	sweepInterval time.Duration
}

func New(ctx context.Context, p Params) (*App, error) {
	switch {
	case p.Config == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "config required")
	case p.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	cfg := p.Config
	logg := p.Logger
	gormDB := p.DB.DB()

	var (
		webhookMetrics *metrics.WebhookMetrics
		boardMetrics   *metrics.BoardMetrics
		httpMetrics    *metrics.HTTPMetrics
	)
	if p.Registry != nil {
		webhookMetrics = metrics.NewWebhookMetrics(p.Registry)
		boardMetrics = metrics.NewBoardMetrics(p.Registry)
		httpMetrics = metrics.NewHTTPMetrics(p.Registry)
	}

	trelloClient := p.Trello
	if trelloClient == nil {
		client, err := trello.NewClient(cfg.Trello, cfg.App.BaseURL+TrelloCallbackPath, logg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "trello client")
		}
		trelloClient = client
	}
	installClient := p.Install
	if installClient == nil {
		client, err := shopify.NewInstallClient(cfg.Shopify, cfg.App.BaseURL+ShopifyCallbackPath, logg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shopify install client")
		}
		installClient = client
	}
	verifier := shopify.NewVerifier(cfg.Shopify.APIKey, cfg.Shopify.APISecret)
	sealer := security.NewSealer(cfg.Security.TokenEncryptionKey)

	gate := ratelimit.NewGate(
		ratelimit.New("api_key", cfg.RateLimit.APIKeyWindow, cfg.RateLimit.APIKeyMax),
		ratelimit.New("token", cfg.RateLimit.TokenWindow, cfg.RateLimit.TokenMax),
		boardMetrics,
	)
	gateway, err := boards.NewGateway(boards.GatewayParams{
		Client:  trelloClient,
		Gate:    gate,
		Policy:  backoff.Policy{MaxRetries: cfg.Retry.MaxRetries, BaseDelay: cfg.Retry.BaseDelay},
		Metrics: boardMetrics,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}

	shopRepo := shops.NewRepository(gormDB)
	userRepo := users.NewRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)
	connectionRepo := connections.NewRepository(gormDB)
	webhookRepo := trellowebhooks.NewRepository(gormDB)

	events, err := eventlog.NewService(eventlog.NewRepository(gormDB))
	if err != nil {
		return nil, err
	}
	settingsSvc, err := settings.NewService(settingsRepo, events)
	if err != nil {
		return nil, err
	}
	connectionSvc, err := connections.NewService(connections.ServiceParams{
		Repo:         connectionRepo,
		Modes:        settingsSvc,
		Members:      gateway,
		Events:       events,
		Sealer:       sealer,
		Tx:           p.DB,
		DefaultScope: cfg.Trello.Scope,
	})
	if err != nil {
		return nil, err
	}
	webhookSvc, err := trellowebhooks.NewService(trellowebhooks.ServiceParams{
		Repo:        webhookRepo,
		Remote:      gateway,
		Events:      events,
		CallbackURL: cfg.App.BaseURL + TrelloWebhookPath,
	})
	if err != nil {
		return nil, err
	}
	shopSvc, err := shops.NewService(shops.ServiceParams{
		Repo:        shopRepo,
		Settings:    settingsRepo,
		Connections: connectionRepo,
		Webhooks:    webhookRepo,
		Events:      events,
		Credentials: connectionSvc,
		Deregistrar: webhookSvc,
		Sealer:      sealer,
		Tx:          p.DB,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}

	shopifyFlow, err := auth.NewShopifyFlow(auth.ShopifyFlowParams{
		Client:      installClient,
		Verifier:    verifier,
		Shops:       shopSvc,
		StateSecret: cfg.Shopify.APISecret,
		WebhookURL:  cfg.App.BaseURL + ShopifyWebhookPath,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}
	trelloFlow, err := auth.NewTrelloFlow(auth.TrelloFlowParams{
		OAuth:       trelloClient,
		Connections: connectionSvc,
		Shops:       shopSvc,
		Users:       userRepo,
		Sealer:      sealer,
		StateSecret: cfg.Shopify.APISecret,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}
	resolver, err := session.NewResolver(session.ResolverParams{
		Shopify: cfg.Shopify,
		Shops:   shopSvc,
		Users:   userRepo,
	})
	if err != nil {
		return nil, err
	}

	engine, err := mapping.NewEngine(mapping.EngineParams{
		Settings:    settingsRepo,
		Connections: connectionSvc,
		Cards:       gateway,
		OrderCards:  mapping.NewOrderCards(gormDB),
		Events:      events,
		Metrics:     webhookMetrics,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}
	shopifyInbound, err := shopifywebhook.NewService(shopifywebhook.ServiceParams{
		Shops:   shopSvc,
		Engine:  engine,
		Events:  events,
		Metrics: webhookMetrics,
		Logger:  logg,
	})
	if err != nil {
		return nil, err
	}
	trelloInbound, err := trellowebhook.NewService(trellowebhook.ServiceParams{
		Webhooks: webhookRepo,
		Events:   events,
		Metrics:  webhookMetrics,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	throttle := middleware.NewLimiterStore(cfg.OAuthThrottle)
	deps := routes.Dependencies{
		DB:              p.DB,
		HTTPMetrics:     httpMetrics,
		Throttle:        throttle,
		Sessions:        resolver,
		ShopifyInstall:  shopifyFlow,
		TrelloOAuth:     trelloFlow,
		Settings:        settingsSvc,
		Connections:     connectionSvc,
		Boards:          gateway,
		TrelloWebhooks:  webhookSvc,
		Events:          events,
		ShopifyVerifier: verifier,
		ShopifyWebhooks: shopifyInbound,
		TrelloInbound:   trelloInbound,
	}
	if p.Registry != nil {
		deps.Gatherer = p.Registry
	}
	if p.Redis != nil {
		deps.Redis = p.Redis
		if cfg.FeatureFlags.WebhookDedupe {
			guard, err := shopifywebhook.NewIdempotencyGuard(p.Redis, webhookDedupeTTL, shopifywebhook.DedupeScope)
			if err != nil {
				return nil, err
			}
			deps.ShopifyGuard = guard
		}
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"redis":        p.Redis != nil,
			"dedupe":       deps.ShopifyGuard != nil,
			"token_sealed": sealer.Enabled(),
			"billing_plan": cfg.Billing.PlanName,
			"billing_test": cfg.Billing.TestMode,
		}), "app.wired")
	}

	return &App{
		Handler:       routes.NewRouter(cfg, logg, deps),
		Gate:          gate,
		Throttle:      throttle,
		sweepInterval: cfg.RateLimit.SweepInterval,
	}, nil
}

// RunSweepers evicts expired limiter windows and idle throttle buckets until
// ctx is done. It blocks until every sweeper has returned.
func (a *App) RunSweepers(ctx context.Context) {
	var wg sync.WaitGroup
	for _, l := range a.Gate.Limiters() {
		wg.Add(1)
		go func(l *ratelimit.Limiter) {
			defer wg.Done()
			l.Run(ctx, a.sweepInterval)
		}(l)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Throttle.Run(ctx, a.sweepInterval)
	}()
	wg.Wait()
}
