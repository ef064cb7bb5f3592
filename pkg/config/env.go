package config

const EnvPrefix = "BOARDSYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv  = "BOARDSYNC_APP_ENV"
	EnvPort    = "BOARDSYNC_APP_PORT"
	EnvBaseURL = "BOARDSYNC_APP_BASE_URL"

	EnvDBDSN  = "BOARDSYNC_DB_DSN"
	EnvDBHost = "BOARDSYNC_DB_HOST"
	EnvDBUser = "BOARDSYNC_DB_USER"
	EnvDBName = "BOARDSYNC_DB_NAME"

	EnvRedisURL = "BOARDSYNC_REDIS_URL"

	EnvShopifyAPIKey    = "BOARDSYNC_SHOPIFY_API_KEY"
	EnvShopifyAPISecret = "BOARDSYNC_SHOPIFY_API_SECRET"
	EnvShopifyScopes    = "BOARDSYNC_SHOPIFY_SCOPES"

	EnvTrelloAPIKey    = "BOARDSYNC_TRELLO_API_KEY"
	EnvTrelloAPISecret = "BOARDSYNC_TRELLO_API_SECRET"

	EnvBillingTestMode = "BOARDSYNC_BILLING_TEST_MODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
