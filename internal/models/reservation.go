package models

import (
	"time"

	"github.com/outreachcrm/sendpool/internal/enum"
)

// Reservation is an in-flight claim on an account between selection and the
// caller's outcome report. Reservations are ephemeral and never persisted;
// a lost process frees its held capacity by absence.
type Reservation struct {
	ID         string       `json:"id"`
	AccountID  string       `json:"accountId"`
	Workspace  string       `json:"workspace"`
	Channel    enum.Channel `json:"channel"`
	ReservedAt time.Time    `json:"reservedAt"`
	ExpiresAt  time.Time    `json:"expiresAt"`

	// CooldownMinutes carries the requesting policy's cooldown override so a
	// throttled outcome applies the cooldown the caller asked for.
	CooldownMinutes int `json:"-"`
}

func (r *Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
