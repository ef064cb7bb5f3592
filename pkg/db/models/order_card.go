package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderCard links a store order to the card created for it.
type OrderCard struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShopID      uuid.UUID `gorm:"type:uuid;column:shop_id;not null;uniqueIndex:idx_order_cards_shop_order"`
	OrderID     string    `gorm:"column:order_id;not null;uniqueIndex:idx_order_cards_shop_order"`
	OrderNumber int64     `gorm:"column:order_number;not null"`
	CardID      string    `gorm:"column:card_id;not null"`
	ListID      string    `gorm:"column:list_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
