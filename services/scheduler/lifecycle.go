package scheduler

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/outreachcrm/sendpool/dto"
	"github.com/outreachcrm/sendpool/internal/enum"
	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/tracing"
	"github.com/outreachcrm/sendpool/internal/utils"
)

// UpsertAccount mirrors an account record from the external account
// management surface into the pool. Operator-owned fields are taken from the
// input; scheduler-owned counters and state survive updates untouched.
func (s *schedulerService) UpsertAccount(ctx context.Context, account *models.SendingAccount) (*models.SendingAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.UpsertAccount")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateWorkspace(ctx); err != nil {
		return nil, err
	}
	workspace := utils.GetWorkspaceFromContext(ctx)
	if !account.Channel.IsValid() {
		return nil, er.ErrUnknownChannel
	}
	account.Workspace = workspace

	now := s.now()

	if account.ID != "" {
		if st := s.pool.get(workspace, account.ID); st != nil {
			st.mu.Lock()
			existing := st.acc
			existing.DailyLimit = account.DailyLimit
			existing.WeeklyLimit = account.WeeklyLimit
			existing.Timezone = account.Timezone
			existing.Tags = account.Tags
			existing.AssignedTo = account.AssignedTo
			if account.Status == enum.AccountStatusInactive || account.Status == enum.AccountStatusActive {
				// operators can only park or unpark an account; throttling
				// and error states belong to the scheduler
				existing.Status = account.Status
			}
			accCopy := *existing
			st.mu.Unlock()

			if err := s.accounts.SaveAccount(ctx, &accCopy); err != nil {
				tracing.TraceErr(span, err)
				return nil, err
			}
			return &accCopy, nil
		}
	}

	// new account
	if account.Status == "" {
		account.Status = enum.AccountStatusActive
	}
	if account.WarmupStatus == "" {
		account.WarmupStatus = enum.WarmupCold
	}
	if account.Timezone == "" {
		account.Timezone = "UTC"
	}
	if account.Reputation == 0 {
		account.Reputation = 50
	}
	loc := account.Location()
	account.DailyPeriodStart = dailyPeriodStart(now, loc)
	account.WeeklyPeriodStart = weeklyPeriodStart(now, loc, s.weekStart())
	account.WarmupStateSince = utils.TimePtr(now)

	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	s.pool.put(account)
	tracing.TagEntity(span, account.ID)
	s.log.Infof("Account %s (%s) added to pool for workspace %s", account.ID, account.Channel, workspace)
	return account, nil
}

// RemoveAccount drops the account when the operator disconnects the channel.
func (s *schedulerService) RemoveAccount(ctx context.Context, accountID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.RemoveAccount")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, accountID)

	if err := utils.ValidateWorkspace(ctx); err != nil {
		return err
	}
	workspace := utils.GetWorkspaceFromContext(ctx)

	if st := s.pool.get(workspace, accountID); st == nil {
		return er.ErrAccountNotFound
	}

	if err := s.accounts.DeleteAccount(ctx, workspace, accountID); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	s.pool.remove(workspace, accountID)
	return nil
}

// ReinstateAccount is the external re-authentication signal that clears a
// terminal error state. The scheduler never exits error on its own.
func (s *schedulerService) ReinstateAccount(ctx context.Context, accountID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.ReinstateAccount")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, accountID)

	if err := utils.ValidateWorkspace(ctx); err != nil {
		return err
	}
	workspace := utils.GetWorkspaceFromContext(ctx)

	st := s.pool.get(workspace, accountID)
	if st == nil {
		return er.ErrAccountNotFound
	}

	now := s.now()
	st.mu.Lock()
	acc := st.acc
	acc.Status = enum.AccountStatusActive
	acc.CooldownUntil = nil
	acc.ThrottleStreak = 0
	acc.ConsecutiveFailures = 0
	accCopy := *acc
	st.mu.Unlock()

	if err := s.accounts.SaveSchedulingState(ctx, &accCopy); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	ev := dto.NewAccountEvent(dto.EventAccountReinstated, workspace, accountID, accCopy.Channel.String(), now)
	s.publish(ctx, []dto.AccountEvent{ev})
	return nil
}

func (s *schedulerService) ListAccounts(ctx context.Context) ([]*models.SendingAccount, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.ListAccounts")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateWorkspace(ctx); err != nil {
		return nil, err
	}
	workspace := utils.GetWorkspaceFromContext(ctx)

	var out []*models.SendingAccount
	for _, st := range s.pool.forWorkspace(workspace) {
		acc := st.snapshot()
		out = append(out, &acc)
	}
	return out, nil
}
