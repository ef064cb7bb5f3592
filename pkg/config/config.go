package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Shopify       ShopifyConfig
	Trello        TrelloConfig
	Billing       BillingConfig
	RateLimit     RateLimitConfig
	Retry         RetryConfig
	OAuthThrottle OAuthThrottleConfig
	Security      SecurityConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.RateLimit.validate(); err != nil {
		return nil, err
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOARDSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"BOARDSYNC_APP_PORT" default:"8080"`
	BaseURL      string `envconfig:"BOARDSYNC_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"BOARDSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOARDSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOARDSYNC_DB_DSN"`
	Driver string `envconfig:"BOARDSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOARDSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"BOARDSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOARDSYNC_DB_USER"`
	LegacyPassword string `envconfig:"BOARDSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOARDSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOARDSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOARDSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOARDSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOARDSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOARDSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector was requested.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

// RedisConfig is optional; an empty URL and address disables Redis-backed features.
type RedisConfig struct {
	URL          string        `envconfig:"BOARDSYNC_REDIS_URL"`
	Address      string        `envconfig:"BOARDSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"BOARDSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOARDSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOARDSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOARDSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOARDSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOARDSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOARDSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type ShopifyConfig struct {
	APIKey     string `envconfig:"BOARDSYNC_SHOPIFY_API_KEY" required:"true"`
	APISecret  string `envconfig:"BOARDSYNC_SHOPIFY_API_SECRET" required:"true"`
	Scopes     string `envconfig:"BOARDSYNC_SHOPIFY_SCOPES" default:"read_orders,read_products,read_customers"`
	APIVersion string `envconfig:"BOARDSYNC_SHOPIFY_API_VERSION" default:"2024-10"`
}

// ScopeList splits the comma separated scope string.
func (s ShopifyConfig) ScopeList() []string {
	var out []string
	for _, part := range strings.Split(s.Scopes, ",") {
		if scope := strings.TrimSpace(part); scope != "" {
			out = append(out, scope)
		}
	}
	return out
}

type TrelloConfig struct {
	APIKey     string `envconfig:"BOARDSYNC_TRELLO_API_KEY" required:"true"`
	APISecret  string `envconfig:"BOARDSYNC_TRELLO_API_SECRET" required:"true"`
	AppName    string `envconfig:"BOARDSYNC_TRELLO_APP_NAME" default:"Board Sync"`
	Scope      string `envconfig:"BOARDSYNC_TRELLO_SCOPE" default:"read,write"`
	Expiration string `envconfig:"BOARDSYNC_TRELLO_EXPIRATION" default:"never"`
	APIBaseURL string `envconfig:"BOARDSYNC_TRELLO_API_BASE_URL" default:"https://api.trello.com/1"`
}

type BillingConfig struct {
	PlanName string  `envconfig:"BOARDSYNC_BILLING_PLAN_NAME" default:"Basic"`
	Amount   float64 `envconfig:"BOARDSYNC_BILLING_AMOUNT" default:"0"`
	Currency string  `envconfig:"BOARDSYNC_BILLING_CURRENCY" default:"USD"`
	TestMode bool    `envconfig:"BOARDSYNC_BILLING_TEST_MODE" default:"true"`
}

type RateLimitConfig struct {
	APIKeyWindow  time.Duration `envconfig:"BOARDSYNC_RATE_LIMIT_API_KEY_WINDOW" default:"10s"`
	APIKeyMax     int           `envconfig:"BOARDSYNC_RATE_LIMIT_API_KEY_MAX" default:"300"`
	TokenWindow   time.Duration `envconfig:"BOARDSYNC_RATE_LIMIT_TOKEN_WINDOW" default:"10s"`
	TokenMax      int           `envconfig:"BOARDSYNC_RATE_LIMIT_TOKEN_MAX" default:"100"`
	SweepInterval time.Duration `envconfig:"BOARDSYNC_RATE_LIMIT_SWEEP_INTERVAL" default:"1m"`
}

func (r RateLimitConfig) validate() error {
	switch {
	case r.APIKeyWindow <= 0:
		return fmt.Errorf("BOARDSYNC_RATE_LIMIT_API_KEY_WINDOW must be positive, got %s", r.APIKeyWindow)
	case r.APIKeyMax <= 0:
		return fmt.Errorf("BOARDSYNC_RATE_LIMIT_API_KEY_MAX must be positive, got %d", r.APIKeyMax)
	case r.TokenWindow <= 0:
		return fmt.Errorf("BOARDSYNC_RATE_LIMIT_TOKEN_WINDOW must be positive, got %s", r.TokenWindow)
	case r.TokenMax <= 0:
		return fmt.Errorf("BOARDSYNC_RATE_LIMIT_TOKEN_MAX must be positive, got %d", r.TokenMax)
	}
	return nil
}

type RetryConfig struct {
	MaxRetries int           `envconfig:"BOARDSYNC_RETRY_MAX_RETRIES" default:"3"`
	BaseDelay  time.Duration `envconfig:"BOARDSYNC_RETRY_BASE_DELAY" default:"1s"`
}

type OAuthThrottleConfig struct {
	PerSecond float64       `envconfig:"BOARDSYNC_OAUTH_THROTTLE_PER_SECOND" default:"2"`
	Burst     int           `envconfig:"BOARDSYNC_OAUTH_THROTTLE_BURST" default:"10"`
	IdleTTL   time.Duration `envconfig:"BOARDSYNC_OAUTH_THROTTLE_IDLE_TTL" default:"10m"`
}

// SecurityConfig holds the optional key used to seal stored access tokens.
type SecurityConfig struct {
	TokenEncryptionKey string `envconfig:"BOARDSYNC_TOKEN_ENCRYPTION_KEY"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"BOARDSYNC_AUTO_MIGRATE" default:"false"`
	WebhookDedupe bool `envconfig:"BOARDSYNC_WEBHOOK_DEDUPE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
