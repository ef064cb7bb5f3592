package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/boardsync/api/controllers"
	webhookcontrollers "github.com/angelmondragon/boardsync/api/controllers/webhooks"
	"github.com/angelmondragon/boardsync/api/middleware"
	"github.com/angelmondragon/boardsync/internal/connections"
	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/internal/settings"
	"github.com/angelmondragon/boardsync/internal/trellowebhooks"
	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/metrics"
	"github.com/angelmondragon/boardsync/pkg/shopify"
)

// Dependencies are the services the router hands to controllers. Redis and
// ShopifyGuard are nil when redis is not configured.
type Dependencies struct {
	DB    controllers.Pinger
	Redis controllers.Pinger

	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Throttle    *middleware.LimiterStore

	Sessions       middleware.SessionResolver
	ShopifyInstall controllers.ShopifyInstaller
	TrelloOAuth    TrelloFlow

	Settings       settings.Service
	Connections    connections.Service
	Boards         controllers.BoardReader
	TrelloWebhooks trellowebhooks.Service
	Events         eventlog.Service

	ShopifyVerifier *shopify.Verifier
	ShopifyWebhooks webhookcontrollers.ShopifyWebhookService
	ShopifyGuard    webhookcontrollers.ShopifyWebhookGuard
	TrelloInbound   webhookcontrollers.TrelloWebhookService
}

// TrelloFlow is the board-service OAuth 1.0a flow: started from the app,
// finished on the public callback.
type TrelloFlow interface {
	controllers.TrelloAuthorizer
	controllers.TrelloConnector
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers(deps), logg))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.Throttle("oauth", deps.Throttle, logg))
		r.Get("/shopify", controllers.ShopifyInstall(deps.ShopifyInstall, cfg.App.BaseURL, logg))
		r.Get("/shopify/callback", controllers.ShopifyInstallCallback(deps.ShopifyInstall, cfg.Shopify.APIKey, logg))
		r.Get("/trello/callback", controllers.TrelloCallback(deps.TrelloOAuth, cfg.App.BaseURL, logg))
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/shopify", webhookcontrollers.ShopifyWebhook(deps.ShopifyWebhooks, deps.ShopifyVerifier, deps.ShopifyGuard, logg))
		trello := webhookcontrollers.TrelloWebhook(deps.TrelloInbound, logg)
		r.Get("/trello", trello)
		r.Head("/trello", trello)
		r.Post("/trello", trello)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.BaseURL))
		r.Use(middleware.Session(deps.Sessions, logg))

		r.Get("/session", controllers.Session(logg))
		r.Get("/settings", controllers.GetSettings(deps.Settings, logg))
		r.Put("/settings", controllers.UpdateSettings(deps.Settings, logg))

		r.Route("/trello", func(r chi.Router) {
			r.Get("/connection", controllers.GetConnection(deps.Connections, logg))
			r.Post("/connection", controllers.CreateConnection(deps.Connections, logg))
			r.Delete("/connection", controllers.DeleteConnection(deps.Connections, logg))
			r.With(middleware.Throttle("oauth", deps.Throttle, logg)).
				Post("/oauth/start", controllers.StartTrelloOAuth(deps.TrelloOAuth, cfg.App.BaseURL, logg))

			r.Get("/boards", controllers.ListBoards(deps.Connections, deps.Boards, logg))
			r.Get("/boards/{boardId}/lists", controllers.ListBoardLists(deps.Connections, deps.Boards, logg))
			r.Post("/cards/{cardId}/comments", controllers.AddCardComment(deps.Connections, deps.Boards, logg))

			r.Get("/webhooks", controllers.ListTrelloWebhooks(deps.TrelloWebhooks, logg))
			r.Post("/webhooks", controllers.RegisterTrelloWebhook(deps.Connections, deps.TrelloWebhooks, logg))
			r.Delete("/webhooks/{id}", controllers.RemoveTrelloWebhook(deps.Connections, deps.TrelloWebhooks, logg))
		})

		r.Get("/events", controllers.ListEvents(deps.Events, logg))
		r.Get("/events/latest", controllers.LatestEvents(deps.Events, logg))
	})

	return r
}

func pingers(deps Dependencies) map[string]controllers.Pinger {
	out := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		out["redis"] = deps.Redis
	}
	return out
}
