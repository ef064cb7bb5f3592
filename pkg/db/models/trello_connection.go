package models

import (
	"time"

	"github.com/google/uuid"
)

// TrelloConnection stores board-service credentials for a shop. A nil UserID
// is the shared connection; a set UserID is a per-user connection.
type TrelloConnection struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ShopID       uuid.UUID  `gorm:"type:uuid;column:shop_id;not null;index"`
	UserID       *uuid.UUID `gorm:"type:uuid;column:user_id;index"`
	MemberID     string     `gorm:"column:member_id;not null"`
	Username     *string    `gorm:"column:username"`
	AccessToken  string     `gorm:"column:access_token;not null"`
	TokenSecret  *string    `gorm:"column:token_secret"`
	RefreshToken *string    `gorm:"column:refresh_token"`
	Scope        string     `gorm:"column:scope;not null"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsShared reports whether this is the shop-wide connection.
func (c TrelloConnection) IsShared() bool {
	return c.UserID == nil
}

// Secret returns the OAuth 1.0a token secret, or "" for plain key/token auth.
func (c TrelloConnection) Secret() string {
	if c.TokenSecret == nil {
		return ""
	}
	return *c.TokenSecret
}
