package models

import (
	"strings"
	"time"

	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MappingRule routes one store event to a board list.
type MappingRule struct {
	Enabled bool   `json:"enabled"`
	BoardID string `json:"boardId,omitempty"`
	ListID  string `json:"listId,omitempty"`
}

// Active reports whether the rule is enabled and has a target list.
func (r MappingRule) Active() bool {
	return r.Enabled && strings.TrimSpace(r.ListID) != ""
}

// MappingOptions holds one rule per supported trigger.
type MappingOptions struct {
	NewOrder       MappingRule `json:"newOrder"`
	OrderFulfilled MappingRule `json:"orderFulfilled"`
	NewProduct     MappingRule `json:"newProduct"`
	NewCustomer    MappingRule `json:"newCustomer"`
}

type NotificationOptions struct {
	Enabled             bool `json:"enabled"`
	PollIntervalSeconds int  `json:"pollIntervalSeconds"`
}

const DefaultPollIntervalSeconds = 30

// Settings is the per-shop configuration row.
type Settings struct {
	ID            uuid.UUID                               `gorm:"type:uuid;primaryKey"`
	ShopID        uuid.UUID                               `gorm:"type:uuid;column:shop_id;not null;uniqueIndex"`
	Mode          enums.ConnectionMode                    `gorm:"column:mode;not null"`
	Mappings      datatypes.JSONType[MappingOptions]      `gorm:"column:mapping_options;not null"`
	Notifications datatypes.JSONType[NotificationOptions] `gorm:"column:notification_options;not null"`
	CreatedAt     time.Time                               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                               `gorm:"column:updated_at;autoUpdateTime"`
}

// DefaultSettings is what a freshly installed shop starts with: shared mode
// and every rule disabled.
func DefaultSettings(shopID uuid.UUID) Settings {
	return Settings{
		ShopID:   shopID,
		Mode:     enums.ConnectionModeSingle,
		Mappings: datatypes.NewJSONType(MappingOptions{}),
		Notifications: datatypes.NewJSONType(NotificationOptions{
			Enabled:             true,
			PollIntervalSeconds: DefaultPollIntervalSeconds,
		}),
	}
}

func (Settings) TableName() string {
	return "settings"
}
