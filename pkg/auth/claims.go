package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionTokenPayload captures the data needed to mint a session token.
type SessionTokenPayload struct {
	ShopDomain   string
	Subject      string
	SessionID    string
	Email        string
	AccountOwner *bool
}

// SessionClaims is the embedded-app session token issued by the admin.
// Dest carries the shop URL; Sub is the staff user id.
type SessionClaims struct {
	Dest         string `json:"dest"`
	SessionID    string `json:"sid,omitempty"`
	Email        string `json:"email,omitempty"`
	AccountOwner *bool  `json:"account_owner,omitempty"`
	jwt.RegisteredClaims
}

// IsAccountOwner reports the optional owner claim, defaulting to false.
func (c SessionClaims) IsAccountOwner() bool {
	return c.AccountOwner != nil && *c.AccountOwner
}

// StateClaims is carried by short-lived signed cookies across OAuth redirects.
type StateClaims struct {
	Purpose       string `json:"purpose"`
	Shop          string `json:"shop,omitempty"`
	Nonce         string `json:"nonce,omitempty"`
	UserID        string `json:"uid,omitempty"`
	RequestToken  string `json:"rt,omitempty"`
	RequestSecret string `json:"rs,omitempty"`
	jwt.RegisteredClaims
}
