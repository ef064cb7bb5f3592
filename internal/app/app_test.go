package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/boardsync/internal/boards/boardstest"
	pkgauth "github.com/angelmondragon/boardsync/pkg/auth"
	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/db"
	"github.com/angelmondragon/boardsync/pkg/db/dbtest"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/shopify"
	"github.com/angelmondragon/boardsync/pkg/shopify/shopifytest"
)

const (
	shopDomain = "demo.myshopify.com"
	appKey     = "shopify-key"
	appSecret  = "shopify-secret"
	baseURL    = "https://app.example.com"
)

type stubInstallClient struct {
	subscribed []string
}

func (c *stubInstallClient) AuthorizeURL(shop, state string) (string, error) {
	return "https://" + shop + "/admin/oauth/authorize?state=" + url.QueryEscape(state), nil
}

func (c *stubInstallClient) ExchangeCode(_ context.Context, _ string, code string) (string, error) {
	return "shpat_" + code, nil
}

func (c *stubInstallClient) FetchShop(_ context.Context, shop, _ string) (*shopify.ShopInfo, error) {
	return &shopify.ShopInfo{Domain: shop, Name: "Demo"}, nil
}

func (c *stubInstallClient) SubscribeWebhooks(_ context.Context, _, _, address string) error {
	c.subscribed = append(c.subscribed, address)
	return nil
}

type harness struct {
	app     *App
	db      *db.Client
	cfg     *config.Config
	install *stubInstallClient
	board   *boardstest.Server
}

func testConfig(board *boardstest.Server) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev, BaseURL: baseURL},
		Shopify: config.ShopifyConfig{APIKey: appKey, APISecret: appSecret, Scopes: "read_orders", APIVersion: "2024-10"},
		Trello:  board.Config(),
		RateLimit: config.RateLimitConfig{
			APIKeyWindow:  10 * time.Second,
			APIKeyMax:     300,
			TokenWindow:   10 * time.Second,
			TokenMax:      100,
			SweepInterval: time.Minute,
		},
		Retry:         config.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond},
		OAuthThrottle: config.OAuthThrottleConfig{PerSecond: 100, Burst: 100},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	board := boardstest.New(t)
	cfg := testConfig(board)
	client := dbtest.Open(t)
	install := &stubInstallClient{}

	a, err := New(context.Background(), Params{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:       client,
		Registry: prometheus.NewRegistry(),
		Trello:   board.Client(t, baseURL+TrelloCallbackPath),
		Install:  install,
	})
	require.NoError(t, err)
	return &harness{app: a, db: client, cfg: cfg, install: install, board: board}
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.app.Handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) bearer(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	owner := true
	token, err := pkgauth.MintSessionToken(h.cfg.Shopify, time.Now(), pkgauth.SessionTokenPayload{
		ShopDomain:   shopDomain,
		Subject:      "42",
		Email:        "owner@example.com",
		AccountOwner: &owner,
	})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// installShop drives the public install redirect and callback.
func (h *harness) installShop(t *testing.T) {
	t.Helper()
	rec := h.serve(httptest.NewRequest(http.MethodGet, "/auth/shopify?shop="+shopDomain, nil))
	require.Equal(t, http.StatusFound, rec.Code)
	state := cookieNamed(rec, "bs_shopify_state")
	require.NotNil(t, state)
	assert.Contains(t, rec.Header().Get("Location"), shopDomain+"/admin/oauth/authorize")

	q := url.Values{}
	q.Set("code", "abc")
	q.Set("shop", shopDomain)
	q.Set("state", state.Value)
	q.Set("timestamp", "1700000000")
	q.Set("scope", "read_orders")
	req := httptest.NewRequest(http.MethodGet, ShopifyCallbackPath+"?"+shopifytest.SignQuery(appSecret, q).Encode(), nil)
	req.AddCookie(state)

	rec = h.serve(req)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "https://"+shopDomain+"/admin/apps/"+appKey, rec.Header().Get("Location"))
}

func (h *harness) shop(t *testing.T) models.Shop {
	t.Helper()
	var shop models.Shop
	require.NoError(t, h.db.DB().Where("domain = ?", shopDomain).First(&shop).Error)
	return shop
}

func TestInstallThenUninstallKeepsShopRow(t *testing.T) {
	h := newHarness(t)
	h.installShop(t)

	shop := h.shop(t)
	assert.Equal(t, enums.ShopStatusActive, shop.Status)
	require.NotNil(t, shop.AccessToken)
	assert.Equal(t, []string{baseURL + ShopifyWebhookPath}, h.install.subscribed)

	var settingsRows int64
	require.NoError(t, h.db.DB().Model(&models.Settings{}).Where("shop_id = ?", shop.ID).Count(&settingsRows).Error)
	assert.EqualValues(t, 1, settingsRows)

	require.NoError(t, h.db.DB().Create(&models.TrelloConnection{
		ID:          uuid.New(),
		ShopID:      shop.ID,
		MemberID:    boardstest.MemberID,
		AccessToken: "trello-token",
		Scope:       "read,write",
	}).Error)

	body := []byte(`{"id":1,"domain":"` + shopDomain + `"}`)
	req := httptest.NewRequest(http.MethodPost, ShopifyWebhookPath, bytes.NewReader(body))
	req.Header.Set(shopify.HeaderHmac, shopifytest.SignBody(appSecret, body))
	req.Header.Set(shopify.HeaderTopic, string(shopify.TopicAppUninstalled))
	req.Header.Set(shopify.HeaderShopDomain, shopDomain)
	req.Header.Set(shopify.HeaderWebhookID, "delivery-uninstall")
	rec := h.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	shop = h.shop(t)
	assert.Equal(t, enums.ShopStatusUninstalled, shop.Status)
	assert.Nil(t, shop.AccessToken)
	assert.NotNil(t, shop.UninstalledAt)

	var connections int64
	require.NoError(t, h.db.DB().Model(&models.TrelloConnection{}).Where("shop_id = ?", shop.ID).Count(&connections).Error)
	assert.Zero(t, connections)
}

func TestSessionAndSettingsRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.installShop(t)

	rec := h.serve(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.serve(h.bearer(t, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session struct {
		Data struct {
			Shop struct {
				Domain string `json:"domain"`
			} `json:"shop"`
			User struct {
				Role string `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, shopDomain, session.Data.Shop.Domain)

	req := h.bearer(t, httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{"mode":"multi"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec = h.serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.serve(h.bearer(t, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var settings struct {
		Data struct {
			Mode string `json:"mode"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "multi", settings.Data.Mode)

	req = h.bearer(t, httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{"mode":"both"}`)))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, h.serve(req).Code)
}

func TestTrelloOAuthConnectAndListBoards(t *testing.T) {
	h := newHarness(t)
	h.installShop(t)

	rec := h.serve(h.bearer(t, httptest.NewRequest(http.MethodPost, "/api/v1/trello/oauth/start", nil)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := cookieNamed(rec, "bs_trello_state")
	require.NotNil(t, state)
	var start struct {
		Data struct {
			AuthorizeURL string `json:"authorize_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &start))
	assert.Contains(t, start.Data.AuthorizeURL, "oauth_token=request-token")

	req := httptest.NewRequest(http.MethodGet, TrelloCallbackPath+"?oauth_token=request-token&oauth_verifier=verifier", nil)
	req.AddCookie(state)
	rec = h.serve(req)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, baseURL+"/?trello=connected", rec.Header().Get("Location"))

	rec = h.serve(h.bearer(t, httptest.NewRequest(http.MethodGet, "/api/v1/trello/connection", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var conn struct {
		Data struct {
			Connection *struct {
				MemberID string `json:"member_id"`
				Shared   bool   `json:"shared"`
			} `json:"connection"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conn))
	require.NotNil(t, conn.Data.Connection)
	assert.Equal(t, boardstest.MemberID, conn.Data.Connection.MemberID)
	assert.True(t, conn.Data.Connection.Shared)

	rec = h.serve(h.bearer(t, httptest.NewRequest(http.MethodGet, "/api/v1/trello/boards", nil)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "board-1")
	assert.NotEmpty(t, h.board.Requests(http.MethodGet, "/1/members/me/boards"))
}

func TestPublicEndpoints(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusOK, h.serve(httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, h.serve(httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)
	assert.Equal(t, http.StatusOK, h.serve(httptest.NewRequest(http.MethodHead, TrelloWebhookPath, nil)).Code)

	req := httptest.NewRequest(http.MethodPost, ShopifyWebhookPath, strings.NewReader(`{}`))
	req.Header.Set(shopify.HeaderHmac, "bogus")
	req.Header.Set(shopify.HeaderTopic, string(shopify.TopicOrdersCreate))
	req.Header.Set(shopify.HeaderShopDomain, shopDomain)
	assert.Equal(t, http.StatusUnauthorized, h.serve(req).Code)

	rec := h.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestRunSweepersStopsWithContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.app.RunSweepers(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweepers did not stop")
	}
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := New(context.Background(), Params{Config: &config.Config{}})
	require.Error(t, err)
}
