package models

import (
	"time"

	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/google/uuid"
)

// User is a staff identity scoped to one shop, keyed by the session
// subject (or the session id when no subject is present).
type User struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ShopID               uuid.UUID      `gorm:"type:uuid;column:shop_id;not null;uniqueIndex:idx_users_shop_identity"`
	Identity             string         `gorm:"column:identity;not null;uniqueIndex:idx_users_shop_identity"`
	Subject              *string        `gorm:"column:subject"`
	SessionID            *string        `gorm:"column:session_id"`
	Email                *string        `gorm:"column:email"`
	Role                 enums.UserRole `gorm:"column:role;not null"`
	NotificationsEnabled bool           `gorm:"column:notifications_enabled;not null"`
	LastSeenAt           *time.Time     `gorm:"column:last_seen_at"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
