package models

import (
	"time"

	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/google/uuid"
)

// Shop is the merchant tenant that installed the app.
// AccessToken is non-nil only while Status is active.
type Shop struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Domain        string           `gorm:"column:domain;not null;uniqueIndex"`
	Name          *string          `gorm:"column:name"`
	Email         *string          `gorm:"column:email"`
	Currency      *string          `gorm:"column:currency"`
	AccessToken   *string          `gorm:"column:access_token"`
	Scope         string           `gorm:"column:scope;not null"`
	Plan          *string          `gorm:"column:plan"`
	Status        enums.ShopStatus `gorm:"column:status;not null"`
	InstalledAt   *time.Time       `gorm:"column:installed_at"`
	UninstalledAt *time.Time       `gorm:"column:uninstalled_at"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsActive reports whether the shop currently has the app installed.
func (s Shop) IsActive() bool {
	return s.Status == enums.ShopStatusActive
}
