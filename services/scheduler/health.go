package scheduler

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"

	"github.com/outreachcrm/sendpool/dto"
	"github.com/outreachcrm/sendpool/internal/enum"
	"github.com/outreachcrm/sendpool/internal/tracing"
	"github.com/outreachcrm/sendpool/internal/utils"
)

// GetPoolHealth aggregates account counts by status and warmup level plus
// operator-facing warnings. This is the only user-visible signal the
// scheduler emits; dashboards render it, the scheduler does not.
func (s *schedulerService) GetPoolHealth(ctx context.Context) (*dto.PoolHealth, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.GetPoolHealth")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := utils.ValidateWorkspace(ctx); err != nil {
		return nil, err
	}
	workspace := utils.GetWorkspaceFromContext(ctx)

	now := s.now()
	health := &dto.PoolHealth{
		CountsByStatus: map[string]int{},
		CountsByWarmup: map[string]int{},
		Warnings:       []string{},
	}

	nearLimit := 0
	coolingDown := 0
	errored := 0

	for _, st := range s.pool.forWorkspace(workspace) {
		st.mu.Lock()
		acc := st.acc
		rollPeriods(acc, now, s.weekStart())
		lazyRecover(acc, now)

		health.CountsByStatus[acc.Status.String()]++
		health.CountsByWarmup[acc.WarmupStatus.String()]++

		if acc.Status == enum.AccountStatusActive &&
			acc.DailyLimit-acc.DailyUsed <= s.cfg.HealthNearLimitMargin {
			nearLimit++
		}
		if acc.CooldownUntil != nil && now.Before(*acc.CooldownUntil) {
			coolingDown++
		}
		if acc.Status == enum.AccountStatusError {
			errored++
		}
		st.mu.Unlock()
	}

	if nearLimit > 0 {
		health.Warnings = append(health.Warnings,
			fmt.Sprintf("%d accounts within %d of daily limit", nearLimit, s.cfg.HealthNearLimitMargin))
	}
	if coolingDown > 0 {
		health.Warnings = append(health.Warnings,
			fmt.Sprintf("%d accounts in cooldown", coolingDown))
	}
	if errored > 0 {
		health.Warnings = append(health.Warnings,
			fmt.Sprintf("%d accounts in terminal error state, reconnection required", errored))
	}

	return health, nil
}
