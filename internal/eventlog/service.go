package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is one audit record before it is persisted.
type Entry struct {
	ShopID  *uuid.UUID
	UserID  *uuid.UUID
	Source  enums.EventSource
	Type    string
	Status  enums.EventStatus
	Payload any
	Err     error
}

// Recorder appends audit rows. Mapping and webhook code depend on this instead of the full service.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Service records and lists audit rows.
type Service interface {
	Recorder
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	LatestPerUser(ctx context.Context, shopID uuid.UUID) ([]models.EventLog, error)
}

type ListParams struct {
	ShopID    uuid.UUID
	Limit     int
	Cursor    string
	Source    string
	EventType string
}

type ListResult struct {
	Items  []models.EventLog `json:"items"`
	Cursor string            `json:"cursor"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the event log service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event log repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	return s.RecordTx(ctx, nil, entry)
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	row, err := s.build(entry)
	if err != nil {
		return err
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append event log")
	}
	return nil
}

func (s *service) build(entry Entry) (*models.EventLog, error) {
	if !entry.Source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event source")
	}
	if entry.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event type required")
	}
	status := entry.Status
	if status == "" {
		status = enums.EventStatusSuccess
		if entry.Err != nil {
			status = enums.EventStatusError
		}
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event status")
	}

	row := &models.EventLog{
		ShopID:    entry.ShopID,
		UserID:    entry.UserID,
		Source:    entry.Source,
		EventType: entry.Type,
		Status:    status,
		CreatedAt: s.now().UTC(),
	}
	if entry.Payload != nil {
		raw, err := json.Marshal(entry.Payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode event payload")
		}
		row.Payload = datatypes.JSON(raw)
	}
	if entry.Err != nil {
		msg := entry.Err.Error()
		row.ErrorMessage = &msg
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, listParams{
		ShopID:    params.ShopID,
		Limit:     pagination.LimitWithBuffer(params.Limit),
		Cursor:    cursor,
		Source:    params.Source,
		EventType: params.EventType,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list event logs")
	}

	items, next := pagination.Page(rows, params.Limit, func(row models.EventLog) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	if items == nil {
		items = []models.EventLog{}
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) LatestPerUser(ctx context.Context, shopID uuid.UUID) ([]models.EventLog, error) {
	if shopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	rows, err := s.repo.LatestPerUser(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "latest events per user")
	}
	return rows, nil
}
