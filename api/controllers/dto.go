package controllers

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/boardsync/pkg/db/models"
	"github.com/google/uuid"
)

type shopResponse struct {
	ID          uuid.UUID  `json:"id"`
	Domain      string     `json:"domain"`
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	Plan        *string    `json:"plan,omitempty"`
	Status      string     `json:"status"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
}

type userResponse struct {
	ID                   uuid.UUID  `json:"id"`
	Email                *string    `json:"email,omitempty"`
	Role                 string     `json:"role"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	LastSeenAt           *time.Time `json:"last_seen_at,omitempty"`
}

type sessionResponse struct {
	Shop shopResponse `json:"shop"`
	User userResponse `json:"user"`
}

type settingsResponse struct {
	Mode          string                     `json:"mode"`
	Mappings      models.MappingOptions      `json:"mappings"`
	Notifications models.NotificationOptions `json:"notifications"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

type connectionResponse struct {
	ID        uuid.UUID  `json:"id"`
	Shared    bool       `json:"shared"`
	MemberID  string     `json:"member_id"`
	Username  *string    `json:"username,omitempty"`
	Scope     string     `json:"scope"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type webhookResponse struct {
	ID          uuid.UUID `json:"id"`
	WebhookID   string    `json:"webhook_id"`
	ModelID     string    `json:"model_id"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type eventResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    *uuid.UUID      `json:"user_id,omitempty"`
	Source    string          `json:"source"`
	EventType string          `json:"event_type"`
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func toShopResponse(s *models.Shop) shopResponse {
	return shopResponse{
		ID:          s.ID,
		Domain:      s.Domain,
		Name:        s.Name,
		Email:       s.Email,
		Currency:    s.Currency,
		Plan:        s.Plan,
		Status:      string(s.Status),
		InstalledAt: s.InstalledAt,
	}
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:                   u.ID,
		Email:                u.Email,
		Role:                 string(u.Role),
		NotificationsEnabled: u.NotificationsEnabled,
		LastSeenAt:           u.LastSeenAt,
	}
}

func toSettingsResponse(s *models.Settings) settingsResponse {
	return settingsResponse{
		Mode:          string(s.Mode),
		Mappings:      s.Mappings.Data(),
		Notifications: s.Notifications.Data(),
		UpdatedAt:     s.UpdatedAt,
	}
}

func toConnectionResponse(c *models.TrelloConnection) *connectionResponse {
	if c == nil {
		return nil
	}
	return &connectionResponse{
		ID:        c.ID,
		Shared:    c.IsShared(),
		MemberID:  c.MemberID,
		Username:  c.Username,
		Scope:     c.Scope,
		ExpiresAt: c.ExpiresAt,
		CreatedAt: c.CreatedAt,
	}
}

func toWebhookResponse(w *models.TrelloWebhook) webhookResponse {
	return webhookResponse{
		ID:          w.ID,
		WebhookID:   w.WebhookID,
		ModelID:     w.ModelID,
		Description: w.Description,
		Active:      w.Active,
		CreatedAt:   w.CreatedAt,
	}
}

func toEventResponses(rows []models.EventLog) []eventResponse {
	out := make([]eventResponse, 0, len(rows))
	for _, row := range rows {
		item := eventResponse{
			ID:        row.ID,
			UserID:    row.UserID,
			Source:    string(row.Source),
			EventType: row.EventType,
			Status:    string(row.Status),
			Error:     row.ErrorMessage,
			CreatedAt: row.CreatedAt,
		}
		if len(row.Payload) > 0 {
			item.Payload = json.RawMessage(row.Payload)
		}
		out = append(out, item)
	}
	return out
}
