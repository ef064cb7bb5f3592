package models

import (
	"time"

	"github.com/google/uuid"
)

// TrelloWebhook records a board-service webhook registered for a shop.
type TrelloWebhook struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShopID      uuid.UUID `gorm:"type:uuid;column:shop_id;not null;index"`
	WebhookID   string    `gorm:"column:webhook_id;not null;uniqueIndex"`
	ModelID     string    `gorm:"column:model_id;not null;index"`
	CallbackURL string    `gorm:"column:callback_url;not null"`
	Description *string   `gorm:"column:description"`
	Active      bool      `gorm:"column:active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
