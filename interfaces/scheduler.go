package interfaces

import (
	"context"

	"github.com/outreachcrm/sendpool/dto"
	"github.com/outreachcrm/sendpool/internal/enum"
	"github.com/outreachcrm/sendpool/internal/models"
)

// SchedulerService is the single entry point campaign executors use.
// Workspace scoping comes from the request context.
type SchedulerService interface {
	// HydratePool loads persisted accounts into the in-memory registry.
	HydratePool(ctx context.Context) error

	// SelectAccount picks an eligible account for the channel, reserves it
	// and returns the reservation handle. It never blocks on capacity:
	// errors.ErrPoolExhausted and errors.ErrAccountNotEligible are immediate
	// typed results.
	SelectAccount(ctx context.Context, channel enum.Channel, policy models.RotationPolicy) (*models.Reservation, error)

	// RecordSendResult settles a reservation with the delivery outcome
	// reported by the provider-integration layer.
	RecordSendResult(ctx context.Context, reservationID string, outcome enum.SendOutcome) error

	GetPoolHealth(ctx context.Context) (*dto.PoolHealth, error)

	// Account lifecycle, driven by the external account-management surface.
	UpsertAccount(ctx context.Context, account *models.SendingAccount) (*models.SendingAccount, error)
	RemoveAccount(ctx context.Context, accountID string) error
	// ReinstateAccount is the external re-authentication event that clears a
	// terminal error state.
	ReinstateAccount(ctx context.Context, accountID string) error
	ListAccounts(ctx context.Context) ([]*models.SendingAccount, error)

	// Housekeeping entry points used by the cron manager.
	SweepExpiredReservations(ctx context.Context) int
	FlushDirtyAccounts(ctx context.Context) error
}
