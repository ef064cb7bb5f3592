package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Shop{},
		&User{},
		&TrelloConnection{},
		&Settings{},
		&TrelloWebhook{},
		&EventLog{},
		&OrderCard{},
	}
}

// ensureID assigns a v4 id in Go so inserts work on drivers without gen_random_uuid().
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (s *Shop) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (c *TrelloConnection) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (s *Settings) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (w *TrelloWebhook) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

func (e *EventLog) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (o *OrderCard) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
