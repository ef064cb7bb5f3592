package connections

import (
	"context"

	"github.com/angelmondragon/boardsync/internal/repo"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindShared(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, error)
	FindForUser(ctx context.Context, shopID, userID uuid.UUID) (*models.TrelloConnection, error)
	Oldest(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.TrelloConnection, error)
	Save(ctx context.Context, conn *models.TrelloConnection) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteForShop(ctx context.Context, shopID uuid.UUID) (int64, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.Swap(tx)}
}

func (r *repository) FindShared(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, error) {
	return r.first(ctx, "shop_id = ? AND user_id IS NULL", shopID)
}

func (r *repository) FindForUser(ctx context.Context, shopID, userID uuid.UUID) (*models.TrelloConnection, error) {
	return r.first(ctx, "shop_id = ? AND user_id = ?", shopID, userID)
}

// Oldest returns the first connection made for the shop, shared or not.
func (r *repository) Oldest(ctx context.Context, shopID uuid.UUID) (*models.TrelloConnection, error) {
	var rows []models.TrelloConnection
	err := r.DB(ctx).Where("shop_id = ?", shopID).Order("created_at ASC, id ASC").Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *repository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.TrelloConnection, error) {
	var rows []models.TrelloConnection
	err := r.DB(ctx).Where("shop_id = ?", shopID).Order("created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Save(ctx context.Context, conn *models.TrelloConnection) error {
	return r.DB(ctx).Save(conn).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.TrelloConnection{}, "id = ?", id).Error
}

func (r *repository) DeleteForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("shop_id = ?", shopID).Delete(&models.TrelloConnection{})
	return res.RowsAffected, res.Error
}

func (r *repository) first(ctx context.Context, query string, args ...any) (*models.TrelloConnection, error) {
	var conn models.TrelloConnection
	found, err := r.FindOne(ctx, &conn, query, args...)
	if err != nil || !found {
		return nil, err
	}
	return &conn, nil
}
