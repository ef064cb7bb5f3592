package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base is embedded by domain repositories for context-bound gorm access.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx when one is supplied.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Swap returns a Base bound to tx, or b unchanged when tx is nil.
func (b Base) Swap(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// FindOne loads the first row matching query into dest. A missing row
// reports (false, nil) rather than an error.
func (b Base) FindOne(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	err := b.DB(ctx).Where(query, args...).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
