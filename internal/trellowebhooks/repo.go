package trellowebhooks

import (
	"context"

	"github.com/angelmondragon/boardsync/internal/repo"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.TrelloWebhook) error
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*models.TrelloWebhook, error)
	ActiveByModel(ctx context.Context, modelID string) ([]models.TrelloWebhook, error)
	ListByShop(ctx context.Context, shopID uuid.UUID, activeOnly bool) ([]models.TrelloWebhook, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeactivateForShop(ctx context.Context, shopID uuid.UUID) (int64, error)
	DeleteForShop(ctx context.Context, shopID uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, row *models.TrelloWebhook) error {
	return r.DB(ctx).Create(row).Error
}

func (r *repository) FindByID(ctx context.Context, shopID, id uuid.UUID) (*models.TrelloWebhook, error) {
	var row models.TrelloWebhook
	found, err := r.FindOne(ctx, &row, "shop_id = ? AND id = ?", shopID, id)
	if err != nil || !found {
		return nil, err
	}
	return &row, nil
}

// ActiveByModel routes an inbound delivery to every shop watching modelID.
func (r *repository) ActiveByModel(ctx context.Context, modelID string) ([]models.TrelloWebhook, error) {
	var rows []models.TrelloWebhook
	err := r.DB(ctx).Where("model_id = ? AND active = ?", modelID, true).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListByShop(ctx context.Context, shopID uuid.UUID, activeOnly bool) ([]models.TrelloWebhook, error) {
	query := r.DB(ctx).Where("shop_id = ?", shopID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.TrelloWebhook
	err := query.Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.TrelloWebhook{}, "id = ?", id).Error
}

func (r *repository) DeactivateForShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Model(&models.TrelloWebhook{}).
		Where("shop_id = ? AND active = ?", shopID, true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteForShop(ctx context.Context, shopID uuid.UUID) error {
	return r.DB(ctx).Where("shop_id = ?", shopID).Delete(&models.TrelloWebhook{}).Error
}
