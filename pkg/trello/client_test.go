package trello

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/dghubble/oauth1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.TrelloConfig{
		APIKey:     "app-key",
		APISecret:  "app-secret",
		AppName:    "Board Sync",
		Scope:      "read,write",
		Expiration: "never",
		APIBaseURL: srv.URL + "/1/",
	}
	opts = append([]Option{WithOAuthEndpoint(oauth1.Endpoint{
		RequestTokenURL: srv.URL + "/OAuthGetRequestToken",
		AuthorizeURL:    srv.URL + "/OAuthAuthorizeToken",
		AccessTokenURL:  srv.URL + "/OAuthGetAccessToken",
	})}, opts...)
	client, err := NewClient(cfg, "https://app.example.com/auth/trello/callback", nil, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClientValidatesCredentials(t *testing.T) {
	_, err := NewClient(config.TrelloConfig{APISecret: "s"}, "", nil)
	require.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(config.TrelloConfig{APIKey: "k"}, "", nil)
	require.ErrorIs(t, err, errAPISecretRequired)

	client, err := NewClient(config.TrelloConfig{APIKey: "k", APISecret: "s"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, "k", client.APIKey())
}

func TestCreateCardSendsKeyAndToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1/cards", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "app-key", q.Get("key"))
		assert.Equal(t, "member-token", q.Get("token"))
		assert.Equal(t, "L1", q.Get("idList"))
		assert.Equal(t, "Order #1001", q.Get("name"))
		assert.Equal(t, "m1,m2", q.Get("idMembers"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"card-1","name":"Order #1001","idList":"L1"}`)
	})

	card, err := client.CreateCard(context.Background(), Credentials{Token: "member-token"}, CreateCardParams{
		ListID:    "L1",
		Name:      "Order #1001",
		MemberIDs: []string{"m1", "m2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "card-1", card.ID)
	assert.Equal(t, "L1", card.IDList)
}

func TestUpdateCardOnlySendsSetFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/1/cards/card-1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "L2", q.Get("idList"))
		_, hasName := q["name"]
		assert.False(t, hasName)
		fmt.Fprint(w, `{"id":"card-1","idList":"L2"}`)
	})

	list := "L2"
	card, err := client.UpdateCard(context.Background(), Credentials{Token: "tok"}, "card-1", UpdateCardParams{ListID: &list})
	require.NoError(t, err)
	assert.Equal(t, "L2", card.IDList)
}

func TestRateLimitedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"API_TOKEN_LIMIT_EXCEEDED"}`)
	})

	_, err := client.ListBoards(context.Background(), Credentials{Token: "tok"})
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
	assert.Equal(t, 7, rl.RetryAfterSeconds())
	assert.True(t, rl.RateLimited())
	assert.Contains(t, err.Error(), "rate limit")
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "model not found")
	})

	_, err := client.GetBoard(context.Background(), Credentials{Token: "tok"}, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "model not found", apiErr.Body)
	assert.Equal(t, "/boards/missing", apiErr.Path)
}

func TestNoContentReturnsNothing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteWebhook(context.Background(), Credentials{Token: "tok"}, "wh-1"))
}

func TestMissingTokenFailsBeforeRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.ListBoards(context.Background(), Credentials{})
	require.ErrorIs(t, err, errTokenRequired)
	assert.False(t, called)
}

func TestSignedRequestsUseOAuthHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "OAuth "), auth)
		assert.Contains(t, auth, `oauth_token="legacy-token"`)
		assert.Contains(t, auth, `oauth_consumer_key="app-key"`)
		assert.Empty(t, r.URL.Query().Get("token"))
		fmt.Fprint(w, `[{"id":"b1","name":"Orders"}]`)
	})

	boards, err := client.ListBoards(context.Background(), Credentials{Token: "legacy-token", TokenSecret: "legacy-secret"})
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Orders", boards[0].Name)
}

func TestListTokenWebhooksUsesTokenPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/tokens/tok/webhooks", r.URL.Path)
		fmt.Fprint(w, `[{"id":"wh-1","idModel":"board-1","callbackURL":"https://app.example.com/webhooks/trello","active":true}]`)
	})

	hooks, err := client.ListTokenWebhooks(context.Background(), Credentials{Token: "tok"})
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.True(t, hooks[0].Active)
	assert.Equal(t, "board-1", hooks[0].IDModel)
}

func TestOAuthFlow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/OAuthGetRequestToken":
			assert.Contains(t, r.Header.Get("Authorization"), "oauth_callback=")
			fmt.Fprint(w, "oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true")
		case "/OAuthGetAccessToken":
			assert.Contains(t, r.Header.Get("Authorization"), `oauth_verifier="verifier-1"`)
			fmt.Fprint(w, "oauth_token=access-token&oauth_token_secret=access-secret")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	token, secret, err := client.RequestToken()
	require.NoError(t, err)
	assert.Equal(t, "req-token", token)
	assert.Equal(t, "req-secret", secret)

	authURL, err := client.AuthorizeURL(token)
	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "req-token", q.Get("oauth_token"))
	assert.Equal(t, "Board Sync", q.Get("name"))
	assert.Equal(t, "read,write", q.Get("scope"))
	assert.Equal(t, "never", q.Get("expiration"))

	access, accessSecret, err := client.AccessToken(token, secret, "verifier-1")
	require.NoError(t, err)
	assert.Equal(t, "access-token", access)
	assert.Equal(t, "access-secret", accessSecret)
}

func TestParseCallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/trello/callback?oauth_token=rt&oauth_verifier=v", nil)
	token, verifier, err := ParseCallback(req)
	require.NoError(t, err)
	assert.Equal(t, "rt", token)
	assert.Equal(t, "v", verifier)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
	assert.Equal(t, 1, (&RateLimitError{}).RetryAfterSeconds())
}

func TestRedactPath(t *testing.T) {
	assert.Equal(t, "/tokens/[REDACTED]/webhooks", redactPath("/tokens/secret/webhooks"))
	assert.Equal(t, "/cards/c1", redactPath("/cards/c1"))
}
