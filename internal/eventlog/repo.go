package eventlog

import (
	"context"

	"github.com/angelmondragon/boardsync/internal/repo"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists audit rows. There is deliberately no update method.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.EventLog) error
	List(ctx context.Context, params listParams) ([]models.EventLog, error)
	LatestPerUser(ctx context.Context, shopID uuid.UUID) ([]models.EventLog, error)
}

type listParams struct {
	ShopID    uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
	Source    string
	EventType string
}

type repository struct {
	repo.Base
}

// NewRepository returns an event log repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.Swap(tx)}
}

func (r *repository) Create(ctx context.Context, row *models.EventLog) error {
	return r.DB(ctx).Create(row).Error
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.EventLog, error) {
	query := r.DB(ctx).Model(&models.EventLog{}).Where("shop_id = ?", params.ShopID)
	if params.Source != "" {
		query = query.Where("source = ?", params.Source)
	}
	if params.EventType != "" {
		query = query.Where("event_type = ?", params.EventType)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.EventLog
	err := query.Order("created_at DESC, id DESC").Limit(params.Limit).Find(&rows).Error
	return rows, err
}

const latestPerUserSQL = `
SELECT e.* FROM event_logs e
WHERE e.shop_id = ? AND e.user_id IS NOT NULL
  AND e.created_at = (
    SELECT MAX(i.created_at) FROM event_logs i
    WHERE i.shop_id = e.shop_id AND i.user_id = e.user_id
  )
ORDER BY e.created_at DESC, e.id DESC`

func (r *repository) LatestPerUser(ctx context.Context, shopID uuid.UUID) ([]models.EventLog, error) {
	var rows []models.EventLog
	if err := r.DB(ctx).Raw(latestPerUserSQL, shopID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(rows))
	out := rows[:0]
	for _, row := range rows {
		if _, dup := seen[*row.UserID]; dup {
			continue
		}
		seen[*row.UserID] = struct{}{}
		out = append(out, row)
	}
	return out, nil
}
