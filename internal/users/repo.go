package users

import (
	"context"
	"strings"

	"github.com/angelmondragon/boardsync/internal/repo"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes user persistence scoped to a shop.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIdentity(ctx context.Context, shopID uuid.UUID, identity string) (*models.User, error)
	FindBySession(ctx context.Context, shopID uuid.UUID, subject, sessionID string) (*models.User, error)
	FindByID(ctx context.Context, shopID, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error)
	DeleteForShop(ctx context.Context, shopID uuid.UUID) error
}

type repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.Swap(tx)}
}

// FindByIdentity returns nil when no user matches.
func (r *repository) FindByIdentity(ctx context.Context, shopID uuid.UUID, identity string) (*models.User, error) {
	var user models.User
	found, err := r.FindOne(ctx, &user, "shop_id = ? AND identity = ?", shopID, identity)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// FindBySession returns the user whose identity, subject or session id
// matches the token claims. A subject match wins over a session match.
func (r *repository) FindBySession(ctx context.Context, shopID uuid.UUID, subject, sessionID string) (*models.User, error) {
	var (
		clauses []string
		args    []any
	)
	if subject != "" {
		clauses = append(clauses, "identity = ?", "subject = ?")
		args = append(args, subject, subject)
	}
	if sessionID != "" {
		clauses = append(clauses, "identity = ?", "session_id = ?")
		args = append(args, sessionID, sessionID)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	var rows []models.User
	err := r.DB(ctx).
		Where("shop_id = ?", shopID).
		Where("("+strings.Join(clauses, " OR ")+")", args...).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	if subject != "" {
		for i := range rows {
			if rows[i].Identity == subject || (rows[i].Subject != nil && *rows[i].Subject == subject) {
				return &rows[i], nil
			}
		}
	}
	return &rows[0], nil
}

func (r *repository) FindByID(ctx context.Context, shopID, id uuid.UUID) (*models.User, error) {
	var user models.User
	found, err := r.FindOne(ctx, &user, "shop_id = ? AND id = ?", shopID, id)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Create(user).Error
}

func (r *repository) Save(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Save(user).Error
}

func (r *repository) CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.User{}).Where("shop_id = ?", shopID).Count(&n).Error
	return n, err
}

func (r *repository) DeleteForShop(ctx context.Context, shopID uuid.UUID) error {
	return r.DB(ctx).Where("shop_id = ?", shopID).Delete(&models.User{}).Error
}
