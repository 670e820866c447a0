package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/outreachcrm/sendpool/dto"
	"github.com/outreachcrm/sendpool/interfaces"
	"github.com/outreachcrm/sendpool/internal/enum"
	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/tracing"
)

type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
}

func NewSchedulerHandler(scheduler interfaces.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// SelectAccount reserves an eligible account for an outgoing send
func (h *SchedulerHandler) SelectAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "SchedulerHandler.SelectAccount")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req dto.SelectAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		reservation, err := h.scheduler.SelectAccount(ctx, enum.Channel(req.Channel), req.Policy)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, dto.SelectAccountResponse{
			ReservationID: reservation.ID,
			AccountID:     reservation.AccountID,
			ExpiresAt:     reservation.ExpiresAt,
		})
	}
}

// RecordSendResult settles a reservation with its delivery outcome
func (h *SchedulerHandler) RecordSendResult() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "SchedulerHandler.RecordSendResult")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var req dto.RecordResultRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		outcome := enum.SendOutcome(req.Outcome)
		if !outcome.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown outcome: " + req.Outcome})
			return
		}

		if err := h.scheduler.RecordSendResult(ctx, req.ReservationID, outcome); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "recorded", "reservationId": req.ReservationID})
	}
}

// GetPoolHealth reports aggregate pool state for the workspace
func (h *SchedulerHandler) GetPoolHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "SchedulerHandler.GetPoolHealth")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		health, err := h.scheduler.GetPoolHealth(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, health)
	}
}

// schedulingErrorStatus maps typed scheduling errors to HTTP statuses
func schedulingErrorStatus(err error) int {
	switch {
	case errors.Is(err, er.ErrWorkspaceMissing),
		errors.Is(err, er.ErrUnknownChannel),
		errors.Is(err, er.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.Is(err, er.ErrAccountNotFound),
		errors.Is(err, er.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, er.ErrPoolExhausted):
		return http.StatusConflict
	case errors.Is(err, er.ErrReservationExpired):
		return http.StatusGone
	case errors.Is(err, er.ErrAccountNotEligible),
		errors.Is(err, er.ErrFatalAccountState),
		errors.Is(err, er.ErrCounterOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
