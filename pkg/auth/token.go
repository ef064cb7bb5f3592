package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/boardsync/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

const (
	sessionTokenTTL = time.Minute
	clockLeeway     = 5 * time.Second
)

var errIssuerMismatch = errors.New("session token issuer does not match destination")

// MintSessionToken signs a session token the way the admin does. Used by
// tests and local tooling.
func MintSessionToken(cfg config.ShopifyConfig, now time.Time, payload SessionTokenPayload) (string, error) {
	if cfg.APISecret == "" {
		return "", fmt.Errorf("shopify api secret is required")
	}
	if strings.TrimSpace(payload.ShopDomain) == "" {
		return "", fmt.Errorf("shop domain is required")
	}
	dest := "https://" + payload.ShopDomain
	claims := SessionClaims{
		Dest:         dest,
		SessionID:    payload.SessionID,
		Email:        payload.Email,
		AccountOwner: payload.AccountOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    dest + "/admin",
			Subject:   payload.Subject,
			Audience:  jwt.ClaimStrings{cfg.APIKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates signature, audience and timing, and checks the
// issuer belongs to the destination shop.
func ParseSessionToken(cfg config.ShopifyConfig, tokenString string) (*SessionClaims, error) {
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("shopify api secret is required")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.APISecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithAudience(cfg.APIKey),
		jwt.WithLeeway(clockLeeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if !sameHost(claims.Issuer, claims.Dest) {
		return nil, errIssuerMismatch
	}
	return claims, nil
}

func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Host != "" && strings.EqualFold(ua.Host, ub.Host)
}
