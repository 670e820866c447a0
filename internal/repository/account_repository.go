package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/outreachcrm/sendpool/interfaces"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/tracing"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) interfaces.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetAccounts(ctx context.Context) ([]*models.SendingAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.GetAccounts")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var accounts []*models.SendingAccount
	result := r.db.Find(&accounts)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return accounts, nil
}

func (r *accountRepository) GetAccountsForWorkspace(ctx context.Context, workspace string) ([]*models.SendingAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.GetAccountsForWorkspace")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagWorkspace(span, workspace)

	var accounts []*models.SendingAccount
	result := r.db.Where("workspace = ?", workspace).Find(&accounts)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return nil, result.Error
	}
	return accounts, nil
}

func (r *accountRepository) GetAccount(ctx context.Context, workspace, id string) (*models.SendingAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.GetAccount")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	var account models.SendingAccount
	err := r.db.First(&account, "workspace = ? AND id = ?", workspace, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) SaveAccount(ctx context.Context, account *models.SendingAccount) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.SaveAccount")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, account.ID)

	if account.Workspace == "" {
		return ErrInvalidInput
	}
	return r.db.Save(account).Error
}

// SaveSchedulingState writes only the columns the scheduler owns. Values are
// absolute (not increments), so a retried write after a timeout cannot
// double-count a period.
func (r *accountRepository) SaveSchedulingState(ctx context.Context, account *models.SendingAccount) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.SaveSchedulingState")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, account.ID)

	if account.ID == "" || account.Workspace == "" {
		return ErrInvalidInput
	}
	err := r.db.Model(&models.SendingAccount{}).
		Where("workspace = ? AND id = ?", account.Workspace, account.ID).
		Updates(map[string]interface{}{
			"status":               account.Status,
			"warmup_status":        account.WarmupStatus,
			"reputation":           account.Reputation,
			"daily_used":           account.DailyUsed,
			"daily_period_start":   account.DailyPeriodStart,
			"weekly_used":          account.WeeklyUsed,
			"weekly_period_start":  account.WeeklyPeriodStart,
			"cooldown_until":       account.CooldownUntil,
			"throttle_streak":      account.ThrottleStreak,
			"consecutive_failures": account.ConsecutiveFailures,
			"warmup_state_since":   account.WarmupStateSince,
			"warmup_state_sends":   account.WarmupStateSends,
			"total_sent":           account.TotalSent,
			"first_used_at":        account.FirstUsedAt,
			"last_used_at":         account.LastUsedAt,
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *accountRepository) DeleteAccount(ctx context.Context, workspace, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.DeleteAccount")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	return r.db.Delete(&models.SendingAccount{}, "workspace = ? AND id = ?", workspace, id).Error
}
