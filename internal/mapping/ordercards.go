package mapping

import (
	"context"

	"github.com/angelmondragon/boardsync/internal/repo"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderCards persists which card was created for which order.
type OrderCards interface {
	Find(ctx context.Context, shopID uuid.UUID, orderID string) (*models.OrderCard, error)
	Create(ctx context.Context, row *models.OrderCard) error
	MoveTo(ctx context.Context, id uuid.UUID, listID string) error
}

type orderCards struct {
	repo.Base
}

func NewOrderCards(db *gorm.DB) OrderCards {
	return &orderCards{Base: repo.NewBase(db)}
}

func (r *orderCards) Find(ctx context.Context, shopID uuid.UUID, orderID string) (*models.OrderCard, error) {
	var row models.OrderCard
	found, err := r.FindOne(ctx, &row, "shop_id = ? AND order_id = ?", shopID, orderID)
	if err != nil || !found {
		return nil, err
	}
	return &row, nil
}

func (r *orderCards) Create(ctx context.Context, row *models.OrderCard) error {
	return r.DB(ctx).Create(row).Error
}

func (r *orderCards) MoveTo(ctx context.Context, id uuid.UUID, listID string) error {
	return r.DB(ctx).Model(&models.OrderCard{}).Where("id = ?", id).Update("list_id", listID).Error
}
