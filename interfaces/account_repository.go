package interfaces

import (
	"context"

	"github.com/outreachcrm/sendpool/internal/models"
)

type AccountRepository interface {
	GetAccounts(ctx context.Context) ([]*models.SendingAccount, error)
	GetAccountsForWorkspace(ctx context.Context, workspace string) ([]*models.SendingAccount, error)
	GetAccount(ctx context.Context, workspace, id string) (*models.SendingAccount, error)
	SaveAccount(ctx context.Context, account *models.SendingAccount) error
	// SaveSchedulingState persists only the scheduler-owned columns (usage
	// counters with period stamps, status, warmup, cooldown, reputation).
	// All values are absolute, so retried writes are idempotent.
	SaveSchedulingState(ctx context.Context, account *models.SendingAccount) error
	DeleteAccount(ctx context.Context, workspace, id string) error
}
