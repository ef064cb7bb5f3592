// Package trello is a thin typed client for the Trello REST API. It performs
// no retries or throttling; callers go through internal/boards for that.
package trello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/dghubble/oauth1"
)

const (
	DefaultBaseURL = "https://api.trello.com/1"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

var (
	errAPIKeyRequired    = errors.New("trello api key is required")
	errAPISecretRequired = errors.New("trello api secret is required")
	errTokenRequired     = errors.New("trello token is required")
)

// Client exposes Trello primitives with shared key auth, OAuth 1.0a signing and logging.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	oauth      *oauth1.Config
	authorize  authorizeOptions
	logger     *logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport used for unsigned calls and as the base
// transport for signed ones.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithOAuthEndpoint overrides the OAuth 1.0a endpoints. Used by tests.
func WithOAuthEndpoint(endpoint oauth1.Endpoint) Option {
	return func(c *Client) {
		c.oauth.Endpoint = endpoint
	}
}

// NewClient validates the shared credentials and builds a client.
// callbackURL is where Trello redirects after OAuth authorization.
func NewClient(cfg config.TrelloConfig, callbackURL string, logg *logger.Logger, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	apiSecret := strings.TrimSpace(cfg.APISecret)
	if apiSecret == "" {
		return nil, errAPISecretRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		oauth: &oauth1.Config{
			ConsumerKey:    apiKey,
			ConsumerSecret: apiSecret,
			CallbackURL:    callbackURL,
			Endpoint:       Endpoint,
		},
		authorize: authorizeOptions{
			appName:    cfg.AppName,
			scope:      cfg.Scope,
			expiration: cfg.Expiration,
		},
		logger: logg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIKey returns the shared application key used for rate limiting.
func (c *Client) APIKey() string {
	if c == nil {
		return ""
	}
	return c.apiKey
}

// Members

func (c *Client) GetMember(ctx context.Context, creds Credentials, memberID string) (*Member, error) {
	var out Member
	params := url.Values{"fields": {"id,username,fullName,email,url"}}
	if err := c.do(ctx, creds, http.MethodGet, "/members/"+url.PathEscape(memberID), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBoards(ctx context.Context, creds Credentials) ([]Board, error) {
	var out []Board
	params := url.Values{"filter": {"open"}, "fields": {"id,name,desc,url,closed"}}
	if err := c.do(ctx, creds, http.MethodGet, "/members/me/boards", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Boards

func (c *Client) GetBoard(ctx context.Context, creds Credentials, boardID string) (*Board, error) {
	var out Board
	if err := c.do(ctx, creds, http.MethodGet, "/boards/"+url.PathEscape(boardID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBoard(ctx context.Context, creds Credentials, params CreateBoardParams) (*Board, error) {
	var out Board
	if err := c.do(ctx, creds, http.MethodPost, "/boards", params.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListLabels(ctx context.Context, creds Credentials, boardID string) ([]Label, error) {
	var out []Label
	if err := c.do(ctx, creds, http.MethodGet, "/boards/"+url.PathEscape(boardID)+"/labels", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lists

func (c *Client) ListLists(ctx context.Context, creds Credentials, boardID string) ([]List, error) {
	var out []List
	params := url.Values{"filter": {"open"}}
	if err := c.do(ctx, creds, http.MethodGet, "/boards/"+url.PathEscape(boardID)+"/lists", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateList(ctx context.Context, creds Credentials, params CreateListParams) (*List, error) {
	var out List
	if err := c.do(ctx, creds, http.MethodPost, "/lists", params.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cards

func (c *Client) ListCards(ctx context.Context, creds Credentials, listID string) ([]Card, error) {
	var out []Card
	if err := c.do(ctx, creds, http.MethodGet, "/lists/"+url.PathEscape(listID)+"/cards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCard(ctx context.Context, creds Credentials, cardID string) (*Card, error) {
	var out Card
	if err := c.do(ctx, creds, http.MethodGet, "/cards/"+url.PathEscape(cardID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCard(ctx context.Context, creds Credentials, params CreateCardParams) (*Card, error) {
	var out Card
	if err := c.do(ctx, creds, http.MethodPost, "/cards", params.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCard(ctx context.Context, creds Credentials, cardID string, params UpdateCardParams) (*Card, error) {
	var out Card
	if err := c.do(ctx, creds, http.MethodPut, "/cards/"+url.PathEscape(cardID), params.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCard(ctx context.Context, creds Credentials, cardID string) error {
	return c.do(ctx, creds, http.MethodDelete, "/cards/"+url.PathEscape(cardID), nil, nil)
}

func (c *Client) AddComment(ctx context.Context, creds Credentials, cardID, text string) (*Action, error) {
	var out Action
	params := url.Values{"text": {text}}
	if err := c.do(ctx, creds, http.MethodPost, "/cards/"+url.PathEscape(cardID)+"/actions/comments", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddMemberToCard(ctx context.Context, creds Credentials, cardID, memberID string) error {
	params := url.Values{"value": {memberID}}
	return c.do(ctx, creds, http.MethodPost, "/cards/"+url.PathEscape(cardID)+"/idMembers", params, nil)
}

func (c *Client) AddLabelToCard(ctx context.Context, creds Credentials, cardID, labelID string) error {
	params := url.Values{"value": {labelID}}
	return c.do(ctx, creds, http.MethodPost, "/cards/"+url.PathEscape(cardID)+"/idLabels", params, nil)
}

// Webhooks

func (c *Client) CreateWebhook(ctx context.Context, creds Credentials, params CreateWebhookParams) (*Webhook, error) {
	var out Webhook
	if err := c.do(ctx, creds, http.MethodPost, "/webhooks", params.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, creds Credentials, webhookID string) error {
	return c.do(ctx, creds, http.MethodDelete, "/webhooks/"+url.PathEscape(webhookID), nil, nil)
}

func (c *Client) ListTokenWebhooks(ctx context.Context, creds Credentials) ([]Webhook, error) {
	var out []Webhook
	if err := c.do(ctx, creds, http.MethodGet, "/tokens/"+url.PathEscape(creds.Token)+"/webhooks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, creds Credentials, method, path string, params url.Values, out any) error {
	if strings.TrimSpace(creds.Token) == "" {
		return errTokenRequired
	}
	if params == nil {
		params = url.Values{}
	}

	httpClient := c.httpClient
	if creds.signed() {
		signCtx := context.WithValue(ctx, oauth1.HTTPClient, c.httpClient)
		httpClient = c.oauth.Client(signCtx, oauth1.NewToken(creds.Token, creds.TokenSecret))
	} else {
		params.Set("key", c.apiKey)
		params.Set("token", creds.Token)
	}

	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building trello request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", method, path, map[string]any{"error": err.Error()})
		return fmt.Errorf("trello %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading trello response: %w", err)
	}

	c.log(ctx, "response", method, path, map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
		"signed":      creds.signed(),
	})

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")), Body: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Status: resp.StatusCode, Method: method, Path: path, Body: string(body)}
	case resp.StatusCode == http.StatusNoContent || out == nil || len(body) == 0:
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding trello response: %w", err)
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, method, path string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"method": method,
		"path":   redactPath(path),
		"phase":  phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	if phase == "error" {
		c.logger.Error(ctx, "trello request failed", errors.New(fmt.Sprint(fields["error"])))
		return
	}
	c.logger.Debug(ctx, "trello "+phase)
}

// redactPath hides the token embedded in /tokens/{token}/... paths.
func redactPath(path string) string {
	if !strings.HasPrefix(path, "/tokens/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/tokens/")
	if i := strings.Index(rest, "/"); i >= 0 {
		return "/tokens/[REDACTED]" + rest[i:]
	}
	return "/tokens/[REDACTED]"
}
