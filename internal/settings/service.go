package settings

import (
	"context"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MinPollIntervalSeconds = 5
	MaxPollIntervalSeconds = 3600
)

// UpdateInput carries a partial settings change; nil fields are left as they are.
type UpdateInput struct {
	ShopID        uuid.UUID
	UserID        *uuid.UUID
	Mode          *enums.ConnectionMode
	Mappings      *models.MappingOptions
	Notifications *models.NotificationOptions
}

type Service interface {
	Get(ctx context.Context, shopID uuid.UUID) (*models.Settings, error)
	Mode(ctx context.Context, shopID uuid.UUID) (enums.ConnectionMode, error)
	Update(ctx context.Context, input UpdateInput) (*models.Settings, error)
}

type service struct {
	repo   Repository
	events eventlog.Recorder
}

func NewService(repo Repository, events eventlog.Recorder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	if events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	return &service{repo: repo, events: events}, nil
}

// Get returns the shop's settings, creating the default row on first access.
func (s *service) Get(ctx context.Context, shopID uuid.UUID) (*models.Settings, error) {
	if shopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	row, _, err := s.repo.EnsureDefault(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return row, nil
}

func (s *service) Mode(ctx context.Context, shopID uuid.UUID) (enums.ConnectionMode, error) {
	row, err := s.Get(ctx, shopID)
	if err != nil {
		return "", err
	}
	return row.Mode, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Settings, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	row, err := s.Get(ctx, input.ShopID)
	if err != nil {
		return nil, err
	}

	changed := []string{}
	if input.Mode != nil && *input.Mode != row.Mode {
		row.Mode = *input.Mode
		changed = append(changed, "mode")
	}
	if input.Mappings != nil {
		row.Mappings = datatypes.NewJSONType(*input.Mappings)
		changed = append(changed, "mappings")
	}
	if input.Notifications != nil {
		row.Notifications = datatypes.NewJSONType(*input.Notifications)
		changed = append(changed, "notifications")
	}
	if len(changed) == 0 {
		return row, nil
	}

	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save settings")
	}

	shopID := input.ShopID
	_ = s.events.Record(ctx, eventlog.Entry{
		ShopID:  &shopID,
		UserID:  input.UserID,
		Source:  enums.EventSourceSystem,
		Type:    string(enums.EventTypeSettingsUpdated),
		Payload: map[string]any{"changed": changed},
	})
	return row, nil
}

func validate(input UpdateInput) error {
	if input.ShopID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.Mode != nil && !input.Mode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "mode must be single or multi")
	}
	if input.Mappings != nil {
		rules := map[string]models.MappingRule{
			"newOrder":       input.Mappings.NewOrder,
			"orderFulfilled": input.Mappings.OrderFulfilled,
			"newProduct":     input.Mappings.NewProduct,
			"newCustomer":    input.Mappings.NewCustomer,
		}
		details := map[string]string{}
		for name, rule := range rules {
			if rule.Enabled && rule.ListID == "" {
				details[name] = "listId is required when the rule is enabled"
			}
		}
		if len(details) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid mapping rules").WithDetails(details)
		}
	}
	if n := input.Notifications; n != nil {
		if n.PollIntervalSeconds < MinPollIntervalSeconds || n.PollIntervalSeconds > MaxPollIntervalSeconds {
			return pkgerrors.New(pkgerrors.CodeValidation, "pollIntervalSeconds out of range")
		}
	}
	return nil
}
