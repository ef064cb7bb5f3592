package models

import (
	"time"

	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventLog is the append-only audit trail. Rows are never updated.
type EventLog struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ShopID       *uuid.UUID        `gorm:"type:uuid;column:shop_id;index:idx_event_logs_shop_created"`
	UserID       *uuid.UUID        `gorm:"type:uuid;column:user_id;index"`
	Source       enums.EventSource `gorm:"column:source;not null"`
	EventType    string            `gorm:"column:event_type;not null"`
	Status       enums.EventStatus `gorm:"column:status;not null"`
	Payload      datatypes.JSON    `gorm:"column:payload"`
	ErrorMessage *string           `gorm:"column:error_message"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime;index:idx_event_logs_shop_created"`
}
