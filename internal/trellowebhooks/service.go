package trellowebhooks

import (
	"context"
	"strings"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/trello"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Remote is the slice of the board gateway used to manage registrations.
type Remote interface {
	CreateWebhook(ctx context.Context, creds trello.Credentials, params trello.CreateWebhookParams) (*trello.Webhook, error)
	DeleteWebhook(ctx context.Context, creds trello.Credentials, webhookID string) error
}

type RegisterInput struct {
	ShopID      uuid.UUID
	UserID      *uuid.UUID
	ModelID     string
	Description string
}

type Service interface {
	Register(ctx context.Context, creds trello.Credentials, input RegisterInput) (*models.TrelloWebhook, error)
	Remove(ctx context.Context, creds trello.Credentials, shopID, id uuid.UUID) error
	List(ctx context.Context, shopID uuid.UUID) ([]models.TrelloWebhook, error)
	DeregisterAll(ctx context.Context, creds trello.Credentials, shopID uuid.UUID) error
}

type ServiceParams struct {
	Repo        Repository
	Remote      Remote
	Events      eventlog.Recorder
	CallbackURL string
}

type service struct {
	repo        Repository
	remote      Remote
	events      eventlog.Recorder
	callbackURL string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "webhook repository required")
	}
	if params.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "board gateway required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	if strings.TrimSpace(params.CallbackURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "webhook callback url required")
	}
	return &service{
		repo:        params.Repo,
		remote:      params.Remote,
		events:      params.Events,
		callbackURL: params.CallbackURL,
	}, nil
}

func (s *service) Register(ctx context.Context, creds trello.Credentials, input RegisterInput) (*models.TrelloWebhook, error) {
	modelID := strings.TrimSpace(input.ModelID)
	if input.ShopID == uuid.Nil || modelID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop and model id required")
	}

	remote, err := s.remote.CreateWebhook(ctx, creds, trello.CreateWebhookParams{
		CallbackURL: s.callbackURL,
		ModelID:     modelID,
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}

	row := &models.TrelloWebhook{
		ShopID:      input.ShopID,
		WebhookID:   remote.ID,
		ModelID:     modelID,
		CallbackURL: s.callbackURL,
		Active:      true,
	}
	if input.Description != "" {
		desc := input.Description
		row.Description = &desc
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save trello webhook")
	}

	s.record(ctx, input.ShopID, input.UserID, enums.EventTypeWebhookRegistered, map[string]any{
		"webhook_id": remote.ID,
		"model_id":   modelID,
	})
	return row, nil
}

func (s *service) Remove(ctx context.Context, creds trello.Credentials, shopID, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, shopID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trello webhook")
	}
	if row == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "webhook not found")
	}

	// A webhook already gone upstream is still removed locally.
	if err := s.remote.DeleteWebhook(ctx, creds, row.WebhookID); err != nil && !isUpstreamNotFound(err) {
		return err
	}
	if err := s.repo.Delete(ctx, row.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete trello webhook")
	}
	s.record(ctx, shopID, nil, enums.EventTypeWebhookRemoved, map[string]any{"webhook_id": row.WebhookID})
	return nil
}

func (s *service) List(ctx context.Context, shopID uuid.UUID) ([]models.TrelloWebhook, error) {
	rows, err := s.repo.ListByShop(ctx, shopID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trello webhooks")
	}
	return rows, nil
}

// DeregisterAll deletes every active registration of the shop upstream and
// deactivates the rows. Upstream failures are aggregated; rows are
// deactivated regardless.
func (s *service) DeregisterAll(ctx context.Context, creds trello.Credentials, shopID uuid.UUID) error {
	rows, err := s.repo.ListByShop(ctx, shopID, true)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trello webhooks")
	}

	var errs error
	if creds.Token != "" {
		for _, row := range rows {
			if err := s.remote.DeleteWebhook(ctx, creds, row.WebhookID); err != nil && !isUpstreamNotFound(err) {
				errs = multierr.Append(errs, err)
			}
		}
	}
	if _, err := s.repo.DeactivateForShop(ctx, shopID); err != nil {
		errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate trello webhooks"))
	}
	return errs
}

func (s *service) record(ctx context.Context, shopID uuid.UUID, userID *uuid.UUID, typ enums.EventType, payload map[string]any) {
	_ = s.events.Record(ctx, eventlog.Entry{
		ShopID:  &shopID,
		UserID:  userID,
		Source:  enums.EventSourceTrello,
		Type:    string(typ),
		Payload: payload,
	})
}

func isUpstreamNotFound(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeExternal && typed.HTTPStatus() == 404
}
