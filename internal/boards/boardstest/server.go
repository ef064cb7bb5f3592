// Package boardstest runs an in-process fake of the board-service REST API.
package boardstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/boardsync/internal/boards"
	"github.com/angelmondragon/boardsync/pkg/backoff"
	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/angelmondragon/boardsync/pkg/ratelimit"
	"github.com/angelmondragon/boardsync/pkg/trello"
	"github.com/dghubble/oauth1"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const (
	APIKey    = "fake-app-key"
	APISecret = "fake-app-secret"
	MemberID  = "member-1"
)

// Request is one call observed by the fake.
type Request struct {
	Method string
	Path   string
	Query  url.Values
}

type Server struct {
	*httptest.Server
	router *chi.Mux

	mu       sync.Mutex
	requests []Request
	seq      int
	fail     map[string]int
}

// New starts a fake that answers the routes the app uses with canned JSON.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{router: chi.NewRouter(), fail: map[string]int{}}
	s.router.Use(s.record)

	s.router.Get("/1/members/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, trello.Member{ID: MemberID, Username: "merchant", FullName: "Merchant Person"})
	})
	s.router.Get("/1/members/me/boards", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []trello.Board{{ID: "board-1", Name: "Orders"}})
	})
	s.router.Get("/1/boards/{id}/lists", func(w http.ResponseWriter, r *http.Request) {
		board := chi.URLParam(r, "id")
		writeJSON(w, []trello.List{{ID: "list-1", Name: "New", IDBoard: board}, {ID: "list-2", Name: "Done", IDBoard: board}})
	})
	s.router.Post("/1/cards", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, trello.Card{ID: s.nextID("card"), Name: q.Get("name"), Desc: q.Get("desc"), IDList: q.Get("idList")})
	})
	s.router.Put("/1/cards/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, trello.Card{ID: chi.URLParam(r, "id"), IDList: r.URL.Query().Get("idList")})
	})
	s.router.Post("/1/cards/{id}/actions/comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, trello.Action{ID: s.nextID("action"), Type: "commentCard", Date: time.Now().UTC()})
	})
	s.router.Post("/1/webhooks", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, trello.Webhook{
			ID:          s.nextID("webhook"),
			IDModel:     q.Get("idModel"),
			CallbackURL: q.Get("callbackURL"),
			Description: q.Get("description"),
			Active:      true,
		})
	})
	s.router.Delete("/1/webhooks/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{})
	})
	s.router.Post("/OAuthGetRequestToken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=request-token&oauth_token_secret=request-secret&oauth_callback_confirmed=true"))
	})
	s.router.Post("/OAuthGetAccessToken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=access-token&oauth_token_secret=access-secret"))
	})

	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

// Handle overrides or adds a route.
func (s *Server) Handle(method, pattern string, h http.HandlerFunc) {
	s.router.Method(method, pattern, h)
}

// FailNext makes the next n requests to "METHOD /path" answer with status.
// Status 429 carries Retry-After: 1.
func (s *Server) FailNext(method, path string, n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[failKey(method, path, status)] = n
}

// Requests returns the calls that matched method and path prefix.
func (s *Server) Requests(method, pathPrefix string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			out = append(out, r)
		}
	}
	return out
}

// Config returns a TrelloConfig pointed at the fake.
func (s *Server) Config() config.TrelloConfig {
	return config.TrelloConfig{
		APIKey:     APIKey,
		APISecret:  APISecret,
		AppName:    "Board Sync",
		Scope:      "read,write",
		Expiration: "never",
		APIBaseURL: s.URL + "/1",
	}
}

// Client builds a trello client against the fake, OAuth endpoints included.
func (s *Server) Client(t *testing.T, callbackURL string) *trello.Client {
	t.Helper()
	client, err := trello.NewClient(s.Config(), callbackURL, nil, trello.WithOAuthEndpoint(oauth1.Endpoint{
		RequestTokenURL: s.URL + "/OAuthGetRequestToken",
		AuthorizeURL:    s.URL + "/OAuthAuthorizeToken",
		AccessTokenURL:  s.URL + "/OAuthGetAccessToken",
	}))
	require.NoError(t, err)
	return client
}

// Gateway builds a gateway with roomy limits and millisecond backoff.
func (s *Server) Gateway(t *testing.T) *boards.Gateway {
	t.Helper()
	gate := ratelimit.NewGate(
		ratelimit.New("api_key", 10*time.Second, 1000),
		ratelimit.New("token", 10*time.Second, 1000),
		nil,
	)
	gw, err := boards.NewGateway(boards.GatewayParams{
		Client: s.Client(t, "https://app.example.com/auth/trello/callback"),
		Gate:   gate,
		Policy: backoff.Policy{MaxRetries: 3, BaseDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return gw
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()})
		status := 0
		for _, candidate := range []int{http.StatusTooManyRequests, http.StatusNotFound, http.StatusInternalServerError, http.StatusUnauthorized} {
			key := failKey(r.Method, r.URL.Path, candidate)
			if s.fail[key] > 0 {
				s.fail[key]--
				status = candidate
				break
			}
		}
		s.mu.Unlock()

		if status != 0 {
			if status == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", "1")
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) nextID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func failKey(method, path string, status int) string {
	return fmt.Sprintf("%s %s %d", method, path, status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
