package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	StatePurposeShopifyInstall = "shopify_install"
	StatePurposeTrelloConnect  = "trello_connect"
)

// MintState signs claims for an OAuth state cookie valid for ttl.
func MintState(secret string, now time.Time, ttl time.Duration, claims StateClaims) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("state secret is required")
	}
	if claims.Purpose == "" {
		return "", fmt.Errorf("state purpose is required")
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing state: %w", err)
	}
	return signed, nil
}

// ParseState validates a state cookie and checks it was minted for purpose.
func ParseState(secret, purpose, tokenString string) (*StateClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("state secret is required")
	}

	claims := &StateClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("state purpose %q does not match %q", claims.Purpose, purpose)
	}
	return claims, nil
}
