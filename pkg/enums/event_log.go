package enums

import "fmt"

// EventSource tags which side of the integration produced an EventLog row.
type EventSource string

const (
	EventSourceShopify EventSource = "shopify"
	EventSourceTrello  EventSource = "trello"
	EventSourceSystem  EventSource = "system"
)

// IsValid reports whether the value is a known EventSource.
func (s EventSource) IsValid() bool {
	switch s {
	case EventSourceShopify, EventSourceTrello, EventSourceSystem:
		return true
	}
	return false
}

// EventStatus is the outcome recorded on an EventLog row.
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusError   EventStatus = "error"
	EventStatusPending EventStatus = "pending"
)

// IsValid reports whether the value is a known EventStatus.
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusSuccess, EventStatusError, EventStatusPending:
		return true
	}
	return false
}

// ParseEventStatus converts raw input into an EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	status := EventStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid event status %q", value)
	}
	return status, nil
}

// EventType names the action an EventLog row records.
type EventType string

const (
	EventTypeAppInstalled        EventType = "app_installed"
	EventTypeAppUninstalled      EventType = "app_uninstalled"
	EventTypeMappingExecuted     EventType = "mapping_executed"
	EventTypeMappingError        EventType = "mapping_error"
	EventTypeConnectionCreated   EventType = "connection_created"
	EventTypeConnectionRemoved   EventType = "connection_removed"
	EventTypeWebhookRegistered   EventType = "webhook_registered"
	EventTypeWebhookRemoved      EventType = "webhook_removed"
	EventTypeSettingsUpdated     EventType = "settings_updated"
	EventTypeCustomerDataRequest EventType = "customer_data_request"
	EventTypeCustomerRedact      EventType = "customer_redact"
	EventTypeWebhookError        EventType = "webhook_error"
	EventTypeShopRedact          EventType = "shop_redact"
	EventTypeTrelloAction        EventType = "trello_action"
)
