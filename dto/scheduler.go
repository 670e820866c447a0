package dto

import (
	"time"

	"github.com/outreachcrm/sendpool/internal/models"
)

type SelectAccountRequest struct {
	Channel string                `json:"channel" binding:"required"`
	Policy  models.RotationPolicy `json:"policy"`
}

type SelectAccountResponse struct {
	ReservationID string    `json:"reservationId"`
	AccountID     string    `json:"accountId"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type RecordResultRequest struct {
	ReservationID string `json:"reservationId" binding:"required"`
	Outcome       string `json:"outcome" binding:"required"`
}
