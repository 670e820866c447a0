package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreachcrm/sendpool/interfaces"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/tracing"
)

type AccountsHandler struct {
	scheduler interfaces.SchedulerService
}

func NewAccountsHandler(scheduler interfaces.SchedulerService) *AccountsHandler {
	return &AccountsHandler{scheduler: scheduler}
}

// ListAccounts returns all sending accounts in the workspace pool
func (h *AccountsHandler) ListAccounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "AccountsHandler.ListAccounts")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		accounts, err := h.scheduler.ListAccounts(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"accounts": accounts})
	}
}

// UpsertAccount creates or updates a sending account
func (h *AccountsHandler) UpsertAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "AccountsHandler.UpsertAccount")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var account models.SendingAccount
		if err := c.ShouldBindJSON(&account); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if id := c.Param("id"); id != "" {
			account.ID = id
		}

		saved, err := h.scheduler.UpsertAccount(ctx, &account)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		status := http.StatusOK
		if c.Request.Method == http.MethodPost {
			status = http.StatusCreated
		}
		c.JSON(status, saved)
	}
}

// RemoveAccount removes an account from the pool
func (h *AccountsHandler) RemoveAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "AccountsHandler.RemoveAccount")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		id := c.Param("id")
		if err := h.scheduler.RemoveAccount(ctx, id); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "account removed", "id": id})
	}
}

// ReinstateAccount clears a terminal error state after re-authentication
func (h *AccountsHandler) ReinstateAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "AccountsHandler.ReinstateAccount")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		id := c.Param("id")
		if err := h.scheduler.ReinstateAccount(ctx, id); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(schedulingErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "account reinstated", "id": id})
	}
}
