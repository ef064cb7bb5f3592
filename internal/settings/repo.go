package settings

import (
	"context"

	"github.com/angelmondragon/boardsync/internal/repo"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByShop(ctx context.Context, shopID uuid.UUID) (*models.Settings, error)
	EnsureDefault(ctx context.Context, shopID uuid.UUID) (*models.Settings, bool, error)
	Save(ctx context.Context, row *models.Settings) error
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

// FindByShop returns nil when the shop has no settings row.
func (r *repository) FindByShop(ctx context.Context, shopID uuid.UUID) (*models.Settings, error) {
	var row models.Settings
	found, err := r.FindOne(ctx, &row, "shop_id = ?", shopID)
	if err != nil || !found {
		return nil, err
	}
	return &row, nil
}

// EnsureDefault returns the existing row or inserts the defaults, reporting whether it created one.
func (r *repository) EnsureDefault(ctx context.Context, shopID uuid.UUID) (*models.Settings, bool, error) {
	existing, err := r.FindByShop(ctx, shopID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	row := models.DefaultSettings(shopID)
	if err := r.DB(ctx).Create(&row).Error; err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

func (r *repository) Save(ctx context.Context, row *models.Settings) error {
	return r.DB(ctx).Save(row).Error
}

func (r *repository) DeleteForShop(ctx context.Context, shopID uuid.UUID) error {
	return r.DB(ctx).Where("shop_id = ?", shopID).Delete(&models.Settings{}).Error
}
