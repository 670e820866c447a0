package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventAccountStatusChanged = "account.status_changed"
	EventAccountWarmupChanged = "account.warmup_changed"
	EventAccountCooldownSet   = "account.cooldown_set"
	EventAccountFatalError    = "account.fatal_error"
	EventAccountReinstated    = "account.reinstated"
)

// AccountEvent is published to the CRM's event bus whenever the scheduler
// changes an account's externally visible state.
type AccountEvent struct {
	EventID    string                 `json:"eventId"`
	Event      string                 `json:"event"`
	Workspace  string                 `json:"workspace"`
	AccountID  string                 `json:"accountId"`
	Channel    string                 `json:"channel"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

func NewAccountEvent(event, workspace, accountID, channel string, occurredAt time.Time) AccountEvent {
	return AccountEvent{
		EventID:    uuid.New().String(),
		Event:      event,
		Workspace:  workspace,
		AccountID:  accountID,
		Channel:    channel,
		OccurredAt: occurredAt,
		Data:       map[string]interface{}{},
	}
}
