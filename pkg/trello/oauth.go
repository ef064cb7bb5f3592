package trello

import (
	"fmt"
	"net/http"

	"github.com/dghubble/oauth1"
)

// Endpoint is Trello's OAuth 1.0a endpoint set.
var Endpoint = oauth1.Endpoint{
	RequestTokenURL: "https://trello.com/1/OAuthGetRequestToken",
	AuthorizeURL:    "https://trello.com/1/OAuthAuthorizeToken",
	AccessTokenURL:  "https://trello.com/1/OAuthGetAccessToken",
}

type authorizeOptions struct {
	appName    string
	scope      string
	expiration string
}

// RequestToken obtains temporary credentials to start the OAuth 1.0a dance.
func (c *Client) RequestToken() (token, secret string, err error) {
	token, secret, err = c.oauth.RequestToken()
	if err != nil {
		return "", "", fmt.Errorf("trello request token: %w", err)
	}
	return token, secret, nil
}

// AuthorizeURL is where the merchant grants access, carrying the app name,
// scope and expiration Trello shows on its consent screen.
func (c *Client) AuthorizeURL(requestToken string) (string, error) {
	u, err := c.oauth.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("trello authorize url: %w", err)
	}
	q := u.Query()
	if c.authorize.appName != "" {
		q.Set("name", c.authorize.appName)
	}
	if c.authorize.scope != "" {
		q.Set("scope", c.authorize.scope)
	}
	if c.authorize.expiration != "" {
		q.Set("expiration", c.authorize.expiration)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AccessToken exchanges the verifier for permanent credentials.
func (c *Client) AccessToken(requestToken, requestSecret, verifier string) (token, secret string, err error) {
	token, secret, err = c.oauth.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return "", "", fmt.Errorf("trello access token: %w", err)
	}
	return token, secret, nil
}

// ParseCallback reads oauth_token and oauth_verifier from the redirect.
func ParseCallback(r *http.Request) (requestToken, verifier string, err error) {
	return oauth1.ParseAuthorizationCallback(r)
}
