package shops

import (
	"context"
	"time"

	"github.com/angelmondragon/boardsync/internal/repo"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByDomain(ctx context.Context, domain string) (*models.Shop, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	Save(ctx context.Context, shop *models.Shop) error
	MarkUninstalled(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error
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

// FindByDomain returns nil when the domain never installed the app.
func (r *repository) FindByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	var shop models.Shop
	found, err := r.FindOne(ctx, &shop, "domain = ?", domain)
	if err != nil || !found {
		return nil, err
	}
	return &shop, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	found, err := r.FindOne(ctx, &shop, "id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &shop, nil
}

func (r *repository) Save(ctx context.Context, shop *models.Shop) error {
	return r.DB(ctx).Save(shop).Error
}

// MarkUninstalled flips the status and drops the offline token in one statement.
func (r *repository) MarkUninstalled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).Model(&models.Shop{}).Where("id = ?", id).Updates(map[string]any{
		"status":         enums.ShopStatusUninstalled,
		"access_token":   nil,
		"uninstalled_at": at,
	}).Error
}

// shopScoped lists every table holding rows keyed by shop_id, children first.
var shopScoped = []any{
	&models.OrderCard{},
	&models.TrelloWebhook{},
	&models.TrelloConnection{},
	&models.EventLog{},
	&models.Settings{},
	&models.User{},
}

// DeleteCascade hard-deletes the shop and everything it owns.
func (r *repository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	for _, model := range shopScoped {
		if err := db.Where("shop_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	return db.Delete(&models.Shop{}, "id = ?", id).Error
}
