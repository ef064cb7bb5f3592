package trellowebhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/boardsync/internal/eventlog"
	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/angelmondragon/boardsync/pkg/enums"
	pkgerrors "github.com/angelmondragon/boardsync/pkg/errors"
	"github.com/angelmondragon/boardsync/pkg/logger"
	"github.com/angelmondragon/boardsync/pkg/metrics"
)

const source = "trello"

const (
	ResultMatched   = "matched"
	ResultUnmatched = "unmatched"
	ResultInvalid   = "invalid"
)

// Payload is the body the board service posts for each action on a watched model.
type Payload struct {
	Action Action `json:"action"`
	Model  Model  `json:"model"`
}

type Action struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Date          time.Time       `json:"date"`
	Data          json.RawMessage `json:"data"`
	MemberCreator *Member         `json:"memberCreator,omitempty"`
}

type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type Model struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type webhookFinder interface {
	ActiveByModel(ctx context.Context, modelID string) ([]models.TrelloWebhook, error)
}

type ServiceParams struct {
	Webhooks webhookFinder
	Events   eventlog.Recorder
	Metrics  *metrics.WebhookMetrics
	Logger   *logger.Logger
}

// Service records board actions for every shop watching the action's model.
type Service struct {
	webhooks webhookFinder
	events   eventlog.Recorder
	metrics  *metrics.WebhookMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Webhooks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "trello webhook repository required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	return &Service{
		webhooks: params.Webhooks,
		events:   params.Events,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Handle parses body and writes one event log row per matching registration.
// It returns the number of matches; zero means the model is not watched.
func (s *Service) Handle(ctx context.Context, body []byte) (int, error) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.metrics.Observe(source, "", ResultInvalid)
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode board action")
	}
	modelID := strings.TrimSpace(payload.Model.ID)
	actionType := payload.Action.Type
	if modelID == "" || actionType == "" {
		s.metrics.Observe(source, actionType, ResultInvalid)
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "model id and action type required")
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(s.logg.WithTopic(ctx, actionType), map[string]any{"model_id": modelID})
	}

	rows, err := s.webhooks.ActiveByModel(ctx, modelID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match board webhook")
	}
	if len(rows) == 0 {
		if s.logg != nil {
			s.logg.Warn(ctx, "webhook.trello.unmatched_model")
		}
		s.metrics.Observe(source, actionType, ResultUnmatched)
		return 0, nil
	}

	for _, row := range rows {
		shopID := row.ShopID
		entry := eventlog.Entry{
			ShopID:  &shopID,
			Source:  enums.EventSourceTrello,
			Type:    actionType,
			Payload: entryPayload(payload, row),
		}
		if err := s.events.Record(ctx, entry); err != nil && s.logg != nil {
			s.logg.Error(ctx, "webhook.trello.record_failed", err)
		}
	}
	s.metrics.Observe(source, actionType, ResultMatched)
	return len(rows), nil
}

func entryPayload(p Payload, row models.TrelloWebhook) map[string]any {
	out := map[string]any{
		"action_id":  p.Action.ID,
		"model_id":   p.Model.ID,
		"webhook_id": row.WebhookID,
	}
	if p.Model.Name != "" {
		out["model_name"] = p.Model.Name
	}
	if !p.Action.Date.IsZero() {
		out["date"] = p.Action.Date.UTC()
	}
	if len(p.Action.Data) > 0 {
		out["data"] = p.Action.Data
	}
	if m := p.Action.MemberCreator; m != nil {
		out["member"] = map[string]any{"id": m.ID, "username": m.Username, "full_name": m.FullName}
	}
	return out
}
